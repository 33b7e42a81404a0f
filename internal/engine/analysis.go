package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrNoJSONObject   = errors.New("no JSON object found in analysis output")
	ErrNoJSONArray    = errors.New("no JSON array found in quest output")
	ErrOutputTooLarge = fmt.Errorf("output exceeds %d bytes", MaxAIOutputBytes)
)

// MaxAIOutputBytes caps provider or pasted output accepted by the parsers.
const MaxAIOutputBytes = 64 << 10

// FallbackStatValue is assigned to every stat when the analysis provider cannot be used.
const FallbackStatValue = 30

// ParsedAnalysis is the validated analysis contract. Stats are pre-clamp values.
type ParsedAnalysis struct {
	Stats            map[StatName]int
	Summary          string
	StatExplanations map[StatName]string
	Fallback         bool
}

// FallbackAnalysis is the deterministic stat set used when no analysis could be obtained.
func FallbackAnalysis() ParsedAnalysis {
	stats := make(map[StatName]int, len(StatNames))
	for _, n := range StatNames {
		stats[n] = FallbackStatValue
	}
	return ParsedAnalysis{
		Stats:    stats,
		Summary:  "Automatic analysis was unavailable; every stat starts from the same baseline.",
		Fallback: true,
	}
}

// ExtractJSONObject returns the first balanced {...} in text, skipping any prose around it.
func ExtractJSONObject(text string) (string, bool) {
	return extractBalanced(text, '{', '}')
}

// ExtractJSONArray returns the first balanced [...] in text.
func ExtractJSONArray(text string) (string, bool) {
	return extractBalanced(text, '[', ']')
}

// extractWorkFactor bounds extraction work to a multiple of the input length.
const extractWorkFactor = 8

func extractBalanced(text string, open, close byte) (string, bool) {
	// ends maps an opening index to its closing index, or -1 when it never closes.
	ends := make(map[int]int)
	budget := extractWorkFactor * (len(text) + 1)
	for start := strings.IndexByte(text, open); start >= 0 && budget > 0; {
		end, known := ends[start]
		if !known {
			budget -= matchBrackets(text, start, open, close, ends)
			end = ends[start]
		}
		if end >= 0 {
			candidate := text[start : end+1]
			budget -= len(candidate)
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		next := strings.IndexByte(text[start+1:], open)
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBrackets scans from the bracket at start and records in ends the
// closing index of every bracket it meets outside a JSON string. Brackets still
// open at the end of text are recorded as -1. It stops once start is closed and
// returns the number of bytes scanned.
func matchBrackets(text string, start int, open, close byte, ends map[int]int) int {
	var stack []int
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			stack = append(stack, i)
		case close:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			ends[top] = i
			if len(stack) == 0 {
				return i - start + 1
			}
		}
	}
	for _, p := range stack {
		ends[p] = -1
	}
	return len(text) - start
}

// ParseAnalysis validates provider output against the analysis contract: all seven
// stats as JSON numbers, optional summary and per-stat explanations.
func ParseAnalysis(text string) (ParsedAnalysis, error) {
	if len(text) > MaxAIOutputBytes {
		return ParsedAnalysis{}, UpstreamError("parse analysis", ErrOutputTooLarge)
	}
	raw, ok := ExtractJSONObject(text)
	if !ok {
		return ParsedAnalysis{}, UpstreamError("parse analysis", ErrNoJSONObject)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return ParsedAnalysis{}, UpstreamError("parse analysis", err)
	}

	out := ParsedAnalysis{Stats: make(map[StatName]int, len(StatNames))}
	for _, n := range StatNames {
		v, present := fields[string(n)]
		if !present {
			return ParsedAnalysis{}, UpstreamError("parse analysis", fmt.Errorf("missing stat %q", n))
		}
		num, ok := v.(json.Number)
		if !ok {
			return ParsedAnalysis{}, UpstreamError("parse analysis", fmt.Errorf("stat %q is not a number", n))
		}
		f, err := num.Float64()
		if err != nil || math.IsInf(f, 0) {
			return ParsedAnalysis{}, UpstreamError("parse analysis", fmt.Errorf("stat %q: invalid number %s", n, num))
		}
		// Keep far-out values finite before the clamp sees them.
		f = math.Max(-1000, math.Min(1000, f))
		out.Stats[n] = int(math.Round(f))
	}

	if s, ok := fields["summary"].(string); ok {
		out.Summary = strings.TrimSpace(s)
	}
	if expl, ok := fields["statExplanations"].(map[string]any); ok {
		out.StatExplanations = make(map[StatName]string)
		for k, v := range expl {
			name := StatName(k)
			s, ok := v.(string)
			if !name.IsValid() || !ok {
				continue
			}
			out.StatExplanations[name] = s
		}
	}
	return out, nil
}

// QuestDraft is a quest proposal before validation and persistence.
type QuestDraft struct {
	Title         string   `json:"title" yaml:"title"`
	Description   string   `json:"description" yaml:"description"`
	Difficulty    string   `json:"difficulty" yaml:"difficulty"`
	EstimatedTime string   `json:"estimatedTime" yaml:"estimated_time"`
	TargetStats   []string `json:"targetStats" yaml:"target_stats"`
}

// Input converts a draft into a validated CreateQuestInput.
func (d QuestDraft) Input(aiGenerated bool) (CreateQuestInput, error) {
	diff, err := ParseDifficulty(d.Difficulty)
	if err != nil {
		return CreateQuestInput{}, err
	}
	targets := make([]StatName, 0, len(d.TargetStats))
	for _, s := range d.TargetStats {
		n, err := ParseStatName(s)
		if err != nil {
			return CreateQuestInput{}, err
		}
		targets = append(targets, n)
	}
	in := CreateQuestInput{
		Title:         d.Title,
		Description:   d.Description,
		Difficulty:    diff,
		EstimatedTime: d.EstimatedTime,
		TargetStats:   targets,
		AIGenerated:   aiGenerated,
	}
	return in.normalize()
}

// ParseQuestBatch validates generated quests. One bad quest rejects the whole batch.
func ParseQuestBatch(text string) ([]CreateQuestInput, error) {
	if len(text) > MaxAIOutputBytes {
		return nil, UpstreamError("parse quests", ErrOutputTooLarge)
	}
	var drafts []QuestDraft
	if raw, ok := ExtractJSONArray(text); ok && strings.Index(text, "[") < firstIndex(text, '{') {
		if err := json.Unmarshal([]byte(raw), &drafts); err != nil {
			return nil, UpstreamError("parse quests", err)
		}
	} else if raw, ok := ExtractJSONObject(text); ok {
		var wrapped struct {
			Quests   []QuestDraft `json:"quests"`
			Missions []QuestDraft `json:"missions"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
			return nil, UpstreamError("parse quests", err)
		}
		drafts = append(wrapped.Quests, wrapped.Missions...)
	}
	if len(drafts) == 0 {
		return nil, UpstreamError("parse quests", ErrNoJSONArray)
	}

	out := make([]CreateQuestInput, 0, len(drafts))
	for i, d := range drafts {
		in, err := d.Input(true)
		if err != nil {
			return nil, UpstreamError("parse quests", fmt.Errorf("quest %d: %w", i+1, err))
		}
		out = append(out, in)
	}
	return out, nil
}

func firstIndex(s string, c byte) int {
	if i := strings.IndexByte(s, c); i >= 0 {
		return i
	}
	return len(s)
}
