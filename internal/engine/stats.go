package engine

const (
	// StatFloor is the lowest value a stat can reach through in-game changes.
	StatFloor = 0
	// InitialStatFloor is the lowest accepted value when seeding from an analysis;
	// zero means "not assessed" and is raised to 1.
	InitialStatFloor = 1
	StatCeiling      = 99
)

// StatVector is a user's seven stats plus the derived progression fields.
// Values is indexed in StatNames order.
type StatVector struct {
	Values      [len(StatNames)]int
	TotalPoints int
	Level       int
	CanLevelUp  bool
}

// Clamp bounds value into [floor, StatCeiling].
func Clamp(value, floor int) int {
	return min(StatCeiling, max(floor, value))
}

// Get returns the value for name, or 0 for an unknown name.
func (v StatVector) Get(name StatName) int {
	i := name.index()
	if i < 0 {
		return 0
	}
	return v.Values[i]
}

// With returns a copy with name set to the clamped value and the total recomputed.
func (v StatVector) With(name StatName, value int) StatVector {
	i := name.index()
	if i < 0 {
		return v
	}
	v.Values[i] = Clamp(value, StatFloor)
	v.TotalPoints = v.Total()
	return v
}

// Total is the literal sum of the seven stats.
func (v StatVector) Total() int {
	sum := 0
	for _, x := range v.Values {
		sum += x
	}
	return sum
}

// MinStat is the lowest of the seven stats.
func (v StatVector) MinStat() int {
	m := v.Values[0]
	for _, x := range v.Values[1:] {
		m = min(m, x)
	}
	return m
}

// Map returns the stats keyed by name.
func (v StatVector) Map() map[StatName]int {
	out := make(map[StatName]int, len(StatNames))
	for i, n := range StatNames {
		out[n] = v.Values[i]
	}
	return out
}

// Normalize clamps every stat with floor, recomputes the total and refreshes
// CanLevelUp from policy. Level is never touched.
func (v StatVector) Normalize(floor int, policy LevelPolicy) StatVector {
	for i := range v.Values {
		v.Values[i] = Clamp(v.Values[i], floor)
	}
	if v.Level < 1 {
		v.Level = 1
	}
	v.TotalPoints = v.Total()
	v.CanLevelUp = RecomputeLevelEligibility(v, policy)
	return v
}

// RecomputeLevelEligibility delegates to the policy.
func RecomputeLevelEligibility(v StatVector, policy LevelPolicy) bool {
	return policy.Eligibility(v).Eligible
}

// NewStatVector builds a level-1 vector from a name->value map. Missing stats are zero.
func NewStatVector(values map[StatName]int, policy LevelPolicy) StatVector {
	var v StatVector
	for i, n := range StatNames {
		v.Values[i] = values[n]
	}
	v.Level = 1
	return v.Normalize(StatFloor, policy)
}
