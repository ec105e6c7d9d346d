package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankedNames(rs []RankedPersona) []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Name
	}
	return names
}

func TestFallbackRankTopicExperts(t *testing.T) {
	c := Default()

	result := c.FallbackRank("python", GlobalRegion)
	require.Len(t, result, 3)
	assert.Equal(t, []string{"Guido van Rossum", "Peter Norvig", "Wes McKinney"}, rankedNames(result))
	for _, r := range result {
		assert.Equal(t, "Topic-specific authority", r.Description)
	}
}

func TestFallbackRankSynonymGroup(t *testing.T) {
	c := Default()

	// "developer" hits no topic-expert keyword but does hit the
	// programming synonym group.
	result := c.FallbackRank("best developer tools", "India")
	require.Len(t, result, 3)
	assert.Equal(t, []string{"Linus Torvalds", "Guido van Rossum", "Dennis Ritchie"}, rankedNames(result))
}

func TestFallbackRankRegionalThenGlobal(t *testing.T) {
	c := Default()

	// No topic signal: one regional pick, then the global priority list,
	// with the regional pick deduplicated out of the global fill.
	result := c.FallbackRank("", "United States")
	require.Len(t, result, 3)
	assert.Equal(t, []string{"Elon Musk", "Jeff Bezos", "Steve Jobs"}, rankedNames(result))
	assert.Equal(t, "Renowned United States expert", result[0].Description)
	assert.Equal(t, "Renowned thinker", result[1].Description)
	assert.Equal(t, "Renowned thinker", result[2].Description)
}

func TestFallbackRankUnknownRegion(t *testing.T) {
	c := Default()

	result := c.FallbackRank("completely unmappable gibberish", "Atlantis")
	require.Len(t, result, 3)
	assert.Equal(t, []string{"Elon Musk", "Jeff Bezos", "Steve Jobs"}, rankedNames(result))
	for _, r := range result {
		assert.Equal(t, "Renowned thinker", r.Description)
	}
}

func TestFallbackRankGlobalRegionPick(t *testing.T) {
	c := Default()

	result := c.FallbackRank("", GlobalRegion)
	require.Len(t, result, 3)
	assert.Equal(t, []string{"Albert Einstein", "Elon Musk", "Jeff Bezos"}, rankedNames(result))
	assert.Equal(t, "Renowned Global expert", result[0].Description)
}

func TestFallbackRankAlwaysThreeDistinct(t *testing.T) {
	c := Default()

	topics := []string{"", "python", "quantum physics", "ancient pottery", "mental health"}
	regions := []string{"", GlobalRegion, "India", "United States", "Atlantis"}

	for _, topic := range topics {
		for _, region := range regions {
			result := c.FallbackRank(topic, region)
			require.Len(t, result, 3, "topic=%q region=%q", topic, region)

			seen := make(map[string]bool)
			for _, r := range result {
				assert.NotEmpty(t, r.Name)
				assert.NotEmpty(t, r.Description)
				assert.False(t, seen[r.Name], "duplicate %q for topic=%q region=%q", r.Name, topic, region)
				seen[r.Name] = true
			}
		}
	}
}

func TestFallbackRankDeterministic(t *testing.T) {
	c := Default()

	first := c.FallbackRank("quantum physics", "India")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, c.FallbackRank("quantum physics", "India"))
	}
}
