package engine

import "fmt"

type StatName string

const (
	StatIntelligence StatName = "intelligence"
	StatCreativity   StatName = "creativity"
	StatSocial       StatName = "social"
	StatPhysical     StatName = "physical"
	StatEmotional    StatName = "emotional"
	StatFocus        StatName = "focus"
	StatAdaptability StatName = "adaptability"
)

// StatNames is the fixed stat vocabulary in display order.
var StatNames = [...]StatName{
	StatIntelligence,
	StatCreativity,
	StatSocial,
	StatPhysical,
	StatEmotional,
	StatFocus,
	StatAdaptability,
}

func (s StatName) IsValid() bool {
	switch s {
	case StatIntelligence, StatCreativity, StatSocial, StatPhysical, StatEmotional, StatFocus, StatAdaptability:
		return true
	default:
		return false
	}
}

func (s StatName) index() int {
	for i, n := range StatNames {
		if n == s {
			return i
		}
	}
	return -1
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DifficultyMultiplier is the upper bound of the per-stat random increment.
// Everything that needs a difficulty weight reads it from here.
var DifficultyMultiplier = map[Difficulty]int{
	DifficultyEasy:   1,
	DifficultyMedium: 2,
	DifficultyHard:   3,
}

func (d Difficulty) IsValid() bool {
	_, ok := DifficultyMultiplier[d]
	return ok
}

func (d Difficulty) Multiplier() (int, error) {
	m, ok := DifficultyMultiplier[d]
	if !ok {
		return 0, ValidationError("difficulty", fmt.Sprintf("invalid difficulty %q (easy|medium|hard)", string(d)))
	}
	return m, nil
}

type QuestStatus string

const (
	QuestOpen      QuestStatus = "open"
	QuestCompleted QuestStatus = "completed"
)

type EventType string

const (
	EventQuestComplete EventType = "quest_complete"
	EventLevelUp       EventType = "level_up"
	EventManual        EventType = "manual"
)

// LevelEventStat is the stat_name recorded on level-up events.
const LevelEventStat = "level"

type InputMethod string

const (
	InputQuestionnaire InputMethod = "questionnaire"
	InputGPTPaste      InputMethod = "gpt-paste"
	// InputDirect marks stats ingested from raw provider output. It is never pending.
	InputDirect InputMethod = "direct"
)

func (m InputMethod) IsValid() bool {
	return m == InputQuestionnaire || m == InputGPTPaste
}
