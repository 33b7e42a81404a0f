package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform(value, level int) StatVector {
	var v StatVector
	for i := range v.Values {
		v.Values[i] = value
	}
	v.Level = level
	v.TotalPoints = v.Total()
	return v
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-5, StatFloor))
	assert.Equal(t, 1, Clamp(0, InitialStatFloor))
	assert.Equal(t, 99, Clamp(150, StatFloor))
	assert.Equal(t, 42, Clamp(42, InitialStatFloor))
}

func TestTablePolicyRequirements(t *testing.T) {
	p := TablePolicy{}
	req, ok := p.Requirement(1)
	require.True(t, ok)
	assert.Equal(t, Requirement{MinStatValue: 10, TotalPointsRequired: 100}, req)

	req, ok = p.Requirement(3)
	require.True(t, ok)
	assert.Equal(t, Requirement{MinStatValue: 20, TotalPointsRequired: 200}, req)

	req, ok = p.Requirement(15)
	require.True(t, ok)
	assert.Equal(t, Requirement{MinStatValue: 80, TotalPointsRequired: 800}, req)

	_, ok = p.Requirement(16)
	assert.False(t, ok)
}

func TestTablePolicyEligibility(t *testing.T) {
	p := TablePolicy{}

	e := p.Eligibility(uniform(30, 3))
	assert.True(t, e.Eligible)
	assert.Empty(t, e.Unmet)

	e = p.Eligibility(uniform(19, 3))
	assert.False(t, e.Eligible)
	assert.Equal(t, []LevelCondition{ConditionStatFloor, ConditionTotalPoints}, e.Unmet)

	// High total but one weak stat.
	v := uniform(40, 3).With(StatSocial, 5)
	e = p.Eligibility(v)
	assert.Equal(t, []LevelCondition{ConditionStatFloor}, e.Unmet)

	e = p.Eligibility(uniform(99, TableMaxLevel))
	assert.Equal(t, []LevelCondition{ConditionMaxLevel}, e.Unmet)
}

func TestEligibilityIgnoresStoredTotal(t *testing.T) {
	v := uniform(15, 1)
	v.TotalPoints = 10_000
	assert.False(t, IsEligibleForLevelUp(TablePolicy{}, v))
}

func TestScaledPolicy(t *testing.T) {
	p := ScaledPolicy{}
	assert.True(t, p.Eligibility(uniform(50, 1)).Eligible)
	assert.False(t, p.Eligibility(uniform(99, 2)).Eligible)
	assert.Equal(t, 0, p.MaxLevel())
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, "table", p.Name())

	p, err = PolicyByName("Scaled")
	require.NoError(t, err)
	assert.Equal(t, "scaled", p.Name())

	_, err = PolicyByName("fibonacci")
	assert.Error(t, err)
}

func TestProgress(t *testing.T) {
	pr := TablePolicy{}.Progress(uniform(5, 1))
	assert.InDelta(t, 35.0, pr.PercentTotal, 0.001)
	assert.InDelta(t, 50.0, pr.PercentMinStat, 0.001)
	assert.False(t, pr.CanLevelUp)
	require.NotNil(t, pr.Next)
	assert.Equal(t, 150, pr.Next.TotalPointsRequired)

	pr = TablePolicy{}.Progress(uniform(60, 1))
	assert.Equal(t, 100.0, pr.PercentTotal)
	assert.True(t, pr.CanLevelUp)

	pr = TablePolicy{}.Progress(uniform(99, TableMaxLevel))
	assert.True(t, pr.AtMax)
	assert.Nil(t, pr.Next)
}

func TestApplyQuestIncrementsValidatesFirst(t *testing.T) {
	v := uniform(10, 1)
	_, _, err := ApplyQuestIncrements(v, []StatName{StatFocus, "luck"}, DifficultyEasy, minRand{}, TablePolicy{})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, 10, v.Get(StatFocus))

	_, _, err = ApplyQuestIncrements(v, []StatName{StatFocus}, "epic", minRand{}, TablePolicy{})
	assert.True(t, IsKind(err, KindValidation))
}

func TestApplyQuestIncrementsNeverChangesLevel(t *testing.T) {
	v := uniform(30, 3)
	out, incs, err := ApplyQuestIncrements(v, []StatName{StatFocus, StatSocial, StatPhysical}, DifficultyMedium, maxRand{}, TablePolicy{})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Level)
	assert.True(t, out.CanLevelUp)
	assert.Equal(t, 216, out.TotalPoints)
	require.Len(t, incs, 3)
	assert.Equal(t, StatIncrease{Stat: StatFocus, Drawn: 2, Realized: 2, Before: 30, After: 32}, incs[0])
}

func TestApplyInitialAssignment(t *testing.T) {
	parsed := ParsedAnalysis{Stats: map[StatName]int{
		StatIntelligence: 0, StatCreativity: 150, StatSocial: 50, StatPhysical: 50,
		StatEmotional: 50, StatFocus: 50, StatAdaptability: -20,
	}}
	v := ApplyInitialAssignment(parsed, TablePolicy{})
	assert.Equal(t, 1, v.Get(StatIntelligence))
	assert.Equal(t, 99, v.Get(StatCreativity))
	assert.Equal(t, 1, v.Get(StatAdaptability))
	assert.Equal(t, 1, v.Level)
	assert.Equal(t, v.Total(), v.TotalPoints)
}

func TestApplyLevelUpResetsEligibility(t *testing.T) {
	v := uniform(30, 3)
	v.CanLevelUp = true
	out := ApplyLevelUp(v)
	assert.Equal(t, 4, out.Level)
	assert.False(t, out.CanLevelUp)
	assert.Equal(t, v.Values, out.Values)
}

func TestCheckQuestCapacity(t *testing.T) {
	assert.NoError(t, CheckQuestCapacity(6, 4))
	assert.NoError(t, CheckQuestCapacity(10, 0))
	err := CheckQuestCapacity(7, 4)
	var cerr CapacityError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, MaxOpenQuests, cerr.Limit)
}

func TestParseStatNameAliases(t *testing.T) {
	for in, want := range map[string]StatName{
		"INT":          StatIntelligence,
		" creativity ": StatCreativity,
		"ada":          StatAdaptability,
		"emo":          StatEmotional,
	} {
		got, err := ParseStatName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseStatName("luck")
	assert.True(t, IsKind(err, KindValidation))

	list, err := ParseStatList("int, foc,")
	require.NoError(t, err)
	assert.Equal(t, []StatName{StatIntelligence, StatFocus}, list)
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty("H")
	require.NoError(t, err)
	assert.Equal(t, DifficultyHard, d)
	_, err = ParseDifficulty("impossible")
	assert.True(t, IsKind(err, KindValidation))
}
