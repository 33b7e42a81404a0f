package engine

import (
	"context"
	"sort"
)

// Badge is a milestone the user can earn.
type Badge struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Earned      bool
}

// LevelGroup holds the quests completed while the user was at Level.
type LevelGroup struct {
	Level  int
	Quests []Quest
}

type Achievements struct {
	ByLevel   []LevelGroup
	Badges    []Badge
	Completed int
}

// CountEarned returns how many badges have been earned.
func (a Achievements) CountEarned() int {
	n := 0
	for _, b := range a.Badges {
		if b.Earned {
			n++
		}
	}
	return n
}

// BadgeChecker works out which milestones a stat vector and quest history reach.
type BadgeChecker struct {
	stats     StatVector
	completed []Quest
}

func NewBadgeChecker(stats StatVector, completed []Quest) *BadgeChecker {
	return &BadgeChecker{stats: stats, completed: completed}
}

func (c *BadgeChecker) Badges() []Badge {
	return []Badge{
		// Level milestones
		c.levelBadge("getting_started", "Getting Started", "Reach level 3", "🌿", 3),
		c.levelBadge("on_the_path", "On the Path", "Reach level 5", "🌳", 5),
		c.levelBadge("seasoned", "Seasoned", "Reach level 10", "⭐", 10),
		c.levelBadge("summit", "Summit", "Reach level 15", "🌟", 15),

		// Quest completion milestones
		c.questCountBadge("first_quest", "First Quest", "Complete 1 quest", "✓", 1),
		c.questCountBadge("productive", "Productive", "Complete 10 quests", "📋", 10),
		c.questCountBadge("achiever", "Achiever", "Complete 50 quests", "🏅", 50),
		c.questCountBadge("powerhouse", "Powerhouse", "Complete 100 quests", "🏆", 100),
		c.hardQuestBadge("challenger", "Challenger", "Complete a hard quest", "⚔️"),

		// Stat milestones
		c.statBadge("sharp_mind", "Sharp Mind", "Intelligence 50", "🧠", StatIntelligence, 50),
		c.statBadge("maker", "Maker", "Creativity 50", "🎨", StatCreativity, 50),
		c.statBadge("connector", "Connector", "Social 50", "🤝", StatSocial, 50),
		c.statBadge("athlete", "Athlete", "Physical 50", "💪", StatPhysical, 50),
		c.statBadge("steady", "Steady", "Emotional 50", "🧘", StatEmotional, 50),
		c.statBadge("locked_in", "Locked In", "Focus 50", "🎯", StatFocus, 50),
		c.statBadge("shapeshifter", "Shapeshifter", "Adaptability 50", "🌊", StatAdaptability, 50),
		c.balancedBadge("well_rounded", "Well Rounded", "Every stat at 40", "⚖️", 40),
		c.ceilingBadge("maxed", "Maxed Out", "Any stat at 99", "💫"),
	}
}

func (c *BadgeChecker) levelBadge(id, name, desc, icon string, level int) Badge {
	return Badge{ID: id, Name: name, Description: desc, Icon: icon, Earned: c.stats.Level >= level}
}

func (c *BadgeChecker) questCountBadge(id, name, desc, icon string, count int) Badge {
	return Badge{ID: id, Name: name, Description: desc, Icon: icon, Earned: len(c.completed) >= count}
}

func (c *BadgeChecker) hardQuestBadge(id, name, desc, icon string) Badge {
	earned := false
	for _, q := range c.completed {
		if q.Difficulty == DifficultyHard {
			earned = true
			break
		}
	}
	return Badge{ID: id, Name: name, Description: desc, Icon: icon, Earned: earned}
}

func (c *BadgeChecker) statBadge(id, name, desc, icon string, stat StatName, value int) Badge {
	return Badge{ID: id, Name: name, Description: desc, Icon: icon, Earned: c.stats.Get(stat) >= value}
}

func (c *BadgeChecker) balancedBadge(id, name, desc, icon string, value int) Badge {
	return Badge{ID: id, Name: name, Description: desc, Icon: icon, Earned: c.stats.MinStat() >= value}
}

func (c *BadgeChecker) ceilingBadge(id, name, desc, icon string) Badge {
	earned := false
	for _, v := range c.stats.Values {
		if v >= StatCeiling {
			earned = true
			break
		}
	}
	return Badge{ID: id, Name: name, Description: desc, Icon: icon, Earned: earned}
}

// GroupByCompletionLevel buckets completed quests by completedAtLevel, highest
// level first. Quest order inside a group is preserved.
func GroupByCompletionLevel(completed []Quest) []LevelGroup {
	idx := map[int]int{}
	var groups []LevelGroup
	for _, q := range completed {
		if q.CompletedAtLevel == nil {
			continue
		}
		lvl := *q.CompletedAtLevel
		i, ok := idx[lvl]
		if !ok {
			i = len(groups)
			idx[lvl] = i
			groups = append(groups, LevelGroup{Level: lvl})
		}
		groups[i].Quests = append(groups[i].Quests, q)
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].Level > groups[b].Level })
	return groups
}

// GetAchievements returns completed quests grouped by level plus earned badges.
// Users without stats yet see an empty level-1 vector for badge purposes.
func (s *Service) GetAchievements(ctx context.Context, userID int64) (Achievements, error) {
	r := s.repo.Repos()
	if _, err := requireUser(ctx, r, userID); err != nil {
		return Achievements{}, persistence("achievements", err)
	}
	rows, err := r.Missions.ListCompleted(ctx, userID)
	if err != nil {
		return Achievements{}, PersistenceError("achievements", err)
	}
	completed := make([]Quest, 0, len(rows))
	for _, m := range rows {
		completed = append(completed, questFromRow(m))
	}

	v := StatVector{Level: 1}
	row, err := r.Stats.Get(ctx, userID)
	if err != nil {
		return Achievements{}, PersistenceError("achievements", err)
	}
	if row != nil {
		v = vectorFromRow(row)
	}
	return Achievements{
		ByLevel:   GroupByCompletionLevel(completed),
		Badges:    NewBadgeChecker(v, completed).Badges(),
		Completed: len(completed),
	}, nil
}
