package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the stable, machine-checkable category of a rejected operation.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindConflict    ErrorKind = "conflict"
	KindNotFound    ErrorKind = "not_found"
	KindUpstream    ErrorKind = "upstream_analysis"
	KindPersistence ErrorKind = "persistence"
	KindInternal    ErrorKind = "internal"
)

// Error is the generic domain error. Op names the failing input field or operation.
type Error struct {
	Kind   ErrorKind
	Op     string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) ErrorKind() ErrorKind { return e.Kind }

func ValidationError(field, reason string) error {
	return &Error{Kind: KindValidation, Op: field, Reason: reason}
}

func ConflictError(op, reason string) error {
	return &Error{Kind: KindConflict, Op: op, Reason: reason}
}

func NotFoundError(op, reason string) error {
	return &Error{Kind: KindNotFound, Op: op, Reason: reason}
}

func UpstreamError(op string, err error) error {
	return &Error{Kind: KindUpstream, Op: op, Err: err}
}

func PersistenceError(op string, err error) error {
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}

type kinded interface {
	ErrorKind() ErrorKind
}

// KindOf reports the category of err. Untyped errors are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var k kinded
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return KindInternal
}

// IsKind reports whether err belongs to the given category.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// CapacityError is returned when creating quests would push the open count over the cap.
type CapacityError struct {
	Limit     int
	Open      int
	Requested int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("too many open quests (limit %d, open %d, requested %d)", e.Limit, e.Open, e.Requested)
}

func (e CapacityError) ErrorKind() ErrorKind { return KindConflict }

// QuestStateError is returned when a transition is attempted on a quest that is not open.
type QuestStateError struct {
	QuestID int64
	Status  QuestStatus
	Action  string
}

func (e QuestStateError) Error() string {
	return fmt.Sprintf("cannot %s quest %d: quest is %s", e.Action, e.QuestID, e.Status)
}

func (e QuestStateError) ErrorKind() ErrorKind { return KindConflict }

type LevelCondition string

const (
	ConditionStatFloor   LevelCondition = "stat_floor"
	ConditionTotalPoints LevelCondition = "total_points"
	ConditionMaxLevel    LevelCondition = "max_level"
)

// LevelUpError lists which eligibility conditions the current vector misses.
type LevelUpError struct {
	Level       int
	Unmet       []LevelCondition
	Requirement *Requirement
}

func (e LevelUpError) Error() string {
	parts := make([]string, 0, len(e.Unmet))
	for _, c := range e.Unmet {
		switch c {
		case ConditionStatFloor:
			if e.Requirement != nil {
				parts = append(parts, fmt.Sprintf("every stat must be at least %d", e.Requirement.MinStatValue))
			} else {
				parts = append(parts, "stat floor not met")
			}
		case ConditionTotalPoints:
			if e.Requirement != nil {
				parts = append(parts, fmt.Sprintf("total points must be at least %d", e.Requirement.TotalPointsRequired))
			} else {
				parts = append(parts, "total points not met")
			}
		case ConditionMaxLevel:
			parts = append(parts, "maximum level reached")
		default:
			parts = append(parts, string(c))
		}
	}
	return fmt.Sprintf("level %d cannot level up: %s", e.Level, strings.Join(parts, "; "))
}

func (e LevelUpError) ErrorKind() ErrorKind { return KindConflict }
