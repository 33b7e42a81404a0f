package llm

import (
	"fmt"
	"sort"
	"strings"

	"growthquest/internal/engine"
)

// Question is one entry of the onboarding questionnaire.
type Question struct {
	Key    string
	Prompt string
}

// Questionnaire is the fixed question set answered during onboarding.
var Questionnaire = []Question{
	{Key: "q1", Prompt: "What do you do when you are completely absorbed in something?"},
	{Key: "q2", Prompt: "What would you most like to learn?"},
	{Key: "q3", Prompt: "How do you deal with stress?"},
	{Key: "q4", Prompt: "How do you react to a new environment?"},
	{Key: "q5", Prompt: "When do you feel a sense of accomplishment?"},
}

const statContract = `Respond with JSON only, no other text, in exactly this shape:
{
  "intelligence": number,
  "creativity": number,
  "social": number,
  "physical": number,
  "emotional": number,
  "focus": number,
  "adaptability": number,
  "summary": "two or three sentences describing the person",
  "statExplanations": {
    "intelligence": "why this value",
    "creativity": "why this value",
    "social": "why this value",
    "physical": "why this value",
    "emotional": "why this value",
    "focus": "why this value",
    "adaptability": "why this value"
  }
}`

// AnalysisPrompt builds the stat-assignment prompt for a pending analysis.
func AnalysisPrompt(req engine.AnalysisRequest) string {
	var b strings.Builder
	switch req.Method {
	case engine.InputGPTPaste:
		b.WriteString("Below is a self-analysis the user obtained from another assistant. ")
		b.WriteString("Use it to create the seven stats of an RPG character and a short personality summary.\n")
		b.WriteString("Each stat is between 1 and 99 and the seven stats should add up to between 200 and 350.\n\n")
		b.WriteString("Self-analysis:\n")
		b.WriteString(req.Text)
		b.WriteString("\n\n")
	default:
		b.WriteString("Analyze the user's answers to the questions below and create the seven stats of an RPG character ")
		b.WriteString("and a short personality summary.\n")
		b.WriteString("Each stat is between 1 and 99 and the seven stats should add up to between 200 and 350.\n\n")
		b.WriteString("Answers:\n")
		writeAnswers(&b, req.Answers)
		b.WriteString("\n")
	}
	b.WriteString(statContract)
	return b.String()
}

func writeAnswers(b *strings.Builder, answers map[string]string) {
	known := make(map[string]bool, len(Questionnaire))
	n := 0
	for _, q := range Questionnaire {
		known[q.Key] = true
		if a := strings.TrimSpace(answers[q.Key]); a != "" {
			n++
			fmt.Fprintf(b, "%d. %s %s\n", n, q.Prompt, a)
		}
	}
	// Free-form keys keep a stable order.
	var extra []string
	for k := range answers {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		if a := strings.TrimSpace(answers[k]); a != "" {
			n++
			fmt.Fprintf(b, "%d. %s: %s\n", n, k, a)
		}
	}
}

// QuestPrompt builds the quest-generation prompt for a user's current stats.
func QuestPrompt(req engine.QuestRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create %d real-life growth quests for a person whose RPG stats are:\n", req.Count)
	for _, n := range engine.StatNames {
		fmt.Fprintf(&b, "- %s: %d\n", n, req.Stats.Get(n))
	}
	fmt.Fprintf(&b, "They are level %d.\n", req.Stats.Level)
	b.WriteString("Favor the weaker stats, keep every quest achievable in a single day, and mix difficulties.\n")
	if len(req.OpenTitles) > 0 {
		b.WriteString("Do not repeat these open quests:\n")
		for _, t := range req.OpenTitles {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	names := make([]string, len(engine.StatNames))
	for i, n := range engine.StatNames {
		names[i] = string(n)
	}
	fmt.Fprintf(&b, `
Respond with JSON only, no other text, in exactly this shape:
{
  "quests": [
    {
      "title": "short title",
      "description": "one or two sentences",
      "difficulty": "easy" | "medium" | "hard",
      "estimatedTime": "e.g. 30 minutes",
      "targetStats": ["1 to 3 of: %s"]
    }
  ]
}`, strings.Join(names, ", "))
	return b.String()
}
