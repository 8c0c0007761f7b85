package topics

import (
	"testing"

	"github.com/jonathan/pin-pipeline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func score(v float64) *float64 { return &v }

func noContext() map[string]struct{} { return map[string]struct{}{} }

func TestSelect_ScoresIndustryContextAndRising(t *testing.T) {
	s := NewSelector([]string{"snack"})
	items := []types.TrendItem{
		{Keyword: "healthy snacks", Score: score(50)},
		{Keyword: "gummy bears", Score: score(40), Rising: true},
		{Keyword: "football scores", Score: score(99)},
	}
	ctx := map[string]struct{}{"gummy": {}}

	got := s.Select(items, ctx)
	require.Len(t, got, 2)

	// 40 + 20 rising + 10 context
	assert.Equal(t, "gummy bears", got[0].Primary)
	assert.Equal(t, 70.0, got[0].Score)
	assert.True(t, got[0].ContextMatch)
	assert.False(t, got[0].IndustryMatch)

	// 50 + 10 industry
	assert.Equal(t, "healthy snacks", got[1].Primary)
	assert.Equal(t, 60.0, got[1].Score)
	assert.True(t, got[1].IndustryMatch)
}

func TestSelect_SortsDescendingStableOnTies(t *testing.T) {
	s := NewSelector([]string{"candy"})
	items := []types.TrendItem{
		{Keyword: "candy a", Score: score(10)},
		{Keyword: "candy b", Score: score(30)},
		{Keyword: "candy c", Score: score(10)},
		{Keyword: "candy d", Score: score(10)},
	}

	got := s.Select(items, noContext())
	require.Len(t, got, 4)
	assert.Equal(t, []string{"candy b", "candy a", "candy c", "candy d"},
		[]string{got[0].Primary, got[1].Primary, got[2].Primary, got[3].Primary})
}

func TestSelect_DeterministicAcrossCalls(t *testing.T) {
	s := NewSelector(nil)
	items := []types.TrendItem{
		{Keyword: "bulk candy", Score: score(5)},
		{Keyword: "chocolate bar", Score: score(5)},
		{Keyword: "trail mix recipe", Score: score(5), Rising: true},
	}
	ctx := map[string]struct{}{"chocolate": {}, "mix": {}, "bar": {}}

	first := s.Select(items, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Select(items, ctx))
	}
}

func TestSelect_ReverseContainment(t *testing.T) {
	s := NewSelector([]string{"dark chocolate truffles"})
	got := s.Select([]types.TrendItem{{Keyword: "Truffles"}}, noContext())
	require.Len(t, got, 1)
	assert.True(t, got[0].IndustryMatch)
}

func TestSelect_RisingAloneIsNotRelevant(t *testing.T) {
	s := NewSelector([]string{"snack"})
	items := []types.TrendItem{
		{Keyword: "snack box", Score: score(1)},
		{Keyword: "election", Score: score(100), Rising: true},
	}
	got := s.Select(items, noContext())
	require.Len(t, got, 1)
	assert.Equal(t, "snack box", got[0].Primary)
}

func TestSelect_CapsCandidates(t *testing.T) {
	s := NewSelector([]string{"snack"})
	var items []types.TrendItem
	for i := 0; i < 15; i++ {
		items = append(items, types.TrendItem{Keyword: "snack " + string(rune('a'+i)), Score: score(float64(i))})
	}
	got := s.Select(items, noContext())
	require.Len(t, got, MaxCandidates)
	assert.Equal(t, "snack o", got[0].Primary)
}

func TestSelect_SupportingKeywords(t *testing.T) {
	s := NewSelector([]string{"nuts"})
	items := []types.TrendItem{
		{Keyword: "nuts 1", Score: score(7)},
		{Keyword: "nuts 2", Score: score(6)},
		{Keyword: "nuts 3", Score: score(5)},
		{Keyword: "nuts 4", Score: score(4)},
		{Keyword: "nuts 5", Score: score(3)},
		{Keyword: "nuts 6", Score: score(2)},
		{Keyword: "nuts 7", Score: score(1)},
	}
	got := s.Select(items, noContext())
	require.Len(t, got, 7)
	assert.Equal(t, []string{"nuts 2", "nuts 3", "nuts 4", "nuts 5", "nuts 6"}, got[0].Supporting)
	assert.Equal(t, []string{"nuts 1", "nuts 2", "nuts 3", "nuts 4", "nuts 5"}, got[2].Supporting)
	assert.NotContains(t, got[6].Supporting, "nuts 7")
	assert.Len(t, got[6].Supporting, MaxSupporting)
}

func TestSelect_FallbackUsesAllTrends(t *testing.T) {
	s := NewSelector([]string{"snack"})
	items := []types.TrendItem{
		{Keyword: "weather tomorrow", Score: score(5)},
		{Keyword: "movie times", Score: score(90)},
	}
	got := s.Select(items, noContext())
	require.Len(t, got, 2)
	assert.Equal(t, "weather tomorrow", got[0].Primary, "fallback keeps input order")
	assert.Equal(t, []string{"movie times"}, got[0].Supporting)
}

func TestSelect_Empty(t *testing.T) {
	s := NewSelector(nil)
	assert.Empty(t, s.Select(nil, noContext()))
	assert.Empty(t, s.Select([]types.TrendItem{{Keyword: "  "}}, noContext()))
}

func TestSelect_DedupesBeforeScoring(t *testing.T) {
	s := NewSelector([]string{"candy"})
	items := []types.TrendItem{
		{Keyword: "Candy Corn", Score: score(10)},
		{Keyword: "candy corn", Rising: true},
		{Keyword: "CANDY CORN", Score: score(30)},
	}
	got := s.Select(items, noContext())
	require.Len(t, got, 1)
	assert.Equal(t, "Candy Corn", got[0].Primary)
	assert.Equal(t, 30.0+20+10, got[0].Score)
	assert.Empty(t, got[0].Supporting)
}

func TestDedupe_KeepsMaxScore(t *testing.T) {
	out := Dedupe([]types.TrendItem{
		{Keyword: "a", Score: score(3)},
		{Keyword: "A", Score: score(1)},
		{Keyword: "b"},
		{Keyword: "B", Score: score(2)},
	})
	require.Len(t, out, 2)
	assert.Equal(t, 3.0, out[0].ScoreValue())
	assert.Equal(t, 2.0, out[1].ScoreValue())
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, Score(types.TrendItem{}, false, false))
	assert.Equal(t, 45.0, Score(types.TrendItem{Score: score(5), Rising: true}, true, true))
}

func TestNewSelector_DefaultTerms(t *testing.T) {
	s := NewSelector([]string{" ", ""})
	got := s.Select([]types.TrendItem{{Keyword: "bulk snacks", Rising: true}}, noContext())
	require.Len(t, got, 1)
	assert.True(t, got[0].IndustryMatch)
}
