package engine

import (
	"fmt"
	"strings"
)

// ParseStatName parses user input to a StatName.
// Supported: full names and the three-letter prefixes (int, cre, soc, phy, emo, foc, ada).
func ParseStatName(input string) (StatName, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	switch s {
	case "intelligence", "int":
		return StatIntelligence, nil
	case "creativity", "cre":
		return StatCreativity, nil
	case "social", "soc":
		return StatSocial, nil
	case "physical", "phy":
		return StatPhysical, nil
	case "emotional", "emo":
		return StatEmotional, nil
	case "focus", "foc":
		return StatFocus, nil
	case "adaptability", "ada":
		return StatAdaptability, nil
	default:
		return "", ValidationError("stat", fmt.Sprintf("unknown stat %q", input))
	}
}

// ParseStatList parses a comma separated list ("int,focus") into stat names.
// Duplicates and count limits are checked by ValidateTargetStats, not here.
func ParseStatList(input string) ([]StatName, error) {
	var out []StatName
	for _, part := range strings.Split(input, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := ParseStatName(part)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func ParseDifficulty(input string) (Difficulty, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	switch s {
	case "easy", "e", "1":
		return DifficultyEasy, nil
	case "medium", "m", "2":
		return DifficultyMedium, nil
	case "hard", "h", "3":
		return DifficultyHard, nil
	default:
		return "", ValidationError("difficulty", fmt.Sprintf("invalid difficulty %q (easy|medium|hard)", input))
	}
}

func ParseInputMethod(input string) (InputMethod, error) {
	m := InputMethod(strings.TrimSpace(strings.ToLower(input)))
	if !m.IsValid() {
		return "", ValidationError("input_method", fmt.Sprintf("invalid input method %q (questionnaire|gpt-paste)", input))
	}
	return m, nil
}
