package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growthquest/internal/engine"
)

func TestAnalysisPromptQuestionnaire(t *testing.T) {
	p := AnalysisPrompt(engine.AnalysisRequest{
		Method: engine.InputQuestionnaire,
		Answers: map[string]string{
			"q3":      "I go for a run",
			"q1":      "I lose track of time",
			"hobbies": "bouldering",
			"q2":      "  ",
		},
	})
	assert.Contains(t, p, "1. What do you do when you are completely absorbed in something? I lose track of time")
	assert.Contains(t, p, "2. How do you deal with stress? I go for a run")
	assert.Contains(t, p, "3. hobbies: bouldering")
	assert.NotContains(t, p, "What would you most like to learn?")
	assert.Contains(t, p, `"statExplanations"`)
}

func TestAnalysisPromptPaste(t *testing.T) {
	p := AnalysisPrompt(engine.AnalysisRequest{Method: engine.InputGPTPaste, Text: "Curious, introverted, loves puzzles."})
	assert.Contains(t, p, "Curious, introverted, loves puzzles.")
	assert.NotContains(t, p, "Answers:")
}

func TestQuestPrompt(t *testing.T) {
	v := engine.NewStatVector(map[engine.StatName]int{engine.StatFocus: 12, engine.StatSocial: 40}, engine.TablePolicy{})
	p := QuestPrompt(engine.QuestRequest{Stats: v, Count: 4, OpenTitles: []string{"Read a chapter"}})
	assert.True(t, strings.HasPrefix(p, "Create 4 real-life growth quests"))
	assert.Contains(t, p, "- focus: 12")
	assert.Contains(t, p, "- social: 40")
	assert.Contains(t, p, "- Read a chapter")
	assert.Contains(t, p, "intelligence, creativity, social, physical, emotional, focus, adaptability")
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), " ", "", zerolog.Nop())
	require.Error(t, err)
}
