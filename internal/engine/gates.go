package engine

const (
	// MaxOpenQuests caps simultaneously open quests per user.
	MaxOpenQuests = 10
	// MaxTargetStats is the most stats a single quest may target.
	MaxTargetStats = 3
)

// CheckQuestCapacity rejects a batch that would push the open count over MaxOpenQuests.
// Batches are never truncated to fit.
func CheckQuestCapacity(open, requested int) error {
	if requested <= 0 {
		return nil
	}
	if open+requested > MaxOpenQuests {
		return CapacityError{Limit: MaxOpenQuests, Open: open, Requested: requested}
	}
	return nil
}
