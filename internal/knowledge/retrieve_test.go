package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieveExactRegionalMatch(t *testing.T) {
	c := Default()

	results := c.Retrieve("Physics", "India")
	require.NotEmpty(t, results)

	names := make([]string, 0, len(results))
	for _, r := range results {
		assert.Equal(t, MatchExactRegional, r.MatchType)
		assert.Equal(t, RelevanceHigh, r.Relevance)
		assert.Equal(t, SourceRegionalDatabase, r.Source)
		assert.Equal(t, "India", r.Region)
		assert.Equal(t, "Science & Technology", r.Category)
		assert.Equal(t, 1, r.Priority)
		assert.Empty(t, r.Note)
		names = append(names, r.Name)
	}

	assert.Equal(t, []string{"Jagadish Chandra Bose", "C.V. Raman", "Vikram Sarabhai", "Homi Bhabha"}, names)
}

func TestRetrieveGlobalPoolsAllRegions(t *testing.T) {
	c := Default()

	results := c.Retrieve("Physics", GlobalRegion)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 10)

	for _, r := range results {
		assert.Equal(t, MatchCategory, r.MatchType)
		assert.NotEqual(t, MatchExactRegional, r.MatchType)
		assert.NotEqual(t, MatchGlobalFallback, r.MatchType)
		assert.Equal(t, RelevanceHigh, r.Relevance)
		assert.Equal(t, SourceRegionalDatabase, r.Source)
		assert.NotEqual(t, GlobalRegion, r.Region)
		assert.Zero(t, r.Priority)
	}

	// Region declaration order fixes the pool order: India's physicists come first.
	assert.Equal(t, "Jagadish Chandra Bose", results[0].Name)
	assert.Equal(t, "India", results[0].Region)
}

func TestRetrieveUnknownRegionFallsBackToGlobal(t *testing.T) {
	c := Default()

	results := c.Retrieve("Physics", "Vatican City")
	require.Len(t, results, 3)

	names := make([]string, 0, len(results))
	for _, r := range results {
		assert.Equal(t, MatchGlobalFallback, r.MatchType)
		assert.Equal(t, RelevanceMedium, r.Relevance)
		assert.Equal(t, SourceGlobalFallback, r.Source)
		assert.Equal(t, GlobalRegion, r.Region)
		assert.Equal(t, 2, r.Priority)
		assert.Equal(t, "No experts in Vatican City, using global expert", r.Note)
		names = append(names, r.Name)
	}

	assert.Equal(t, []string{"Albert Einstein", "Isaac Newton", "Marie Curie"}, names)
}

func TestRetrieveRegionWithoutCategoryUsesGlobalTier(t *testing.T) {
	c := Default()

	// Japan curates no psychology list, so the Global psychology list serves.
	results := c.Retrieve("psychology", "Japan")
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, MatchGlobalFallback, r.MatchType)
	}
}

func TestRetrieveEmptyWhenGlobalLacksCategory(t *testing.T) {
	c := Default()

	// Japan has no Mathematics list and neither does Global: strictly empty,
	// never relaxed to another region's mathematicians.
	results := c.Retrieve("mathematics", "Japan")
	assert.Empty(t, results)
}

func TestRetrieveTruncatesToTen(t *testing.T) {
	c := Default()

	// Science & Technology pooled across all concrete regions exceeds ten.
	results := c.Retrieve("quantum physics", GlobalRegion)
	assert.Len(t, results, 10)
}

func TestRetrieveFixtureCatalog(t *testing.T) {
	c := New(CatalogData{
		Regions: []RegionCatalog{
			{Name: "Atlantis", Categories: []CategoryList{
				{Name: "Science & Technology", Personas: []string{"Test Person"}},
			}},
			{Name: GlobalRegion, Categories: []CategoryList{
				{Name: "Science & Technology", Personas: []string{"Backup Person"}},
			}},
		},
	})

	results := c.Retrieve("anything", "Atlantis")
	require.Len(t, results, 1)
	assert.Equal(t, "Test Person", results[0].Name)
	assert.Equal(t, MatchExactRegional, results[0].MatchType)

	results = c.Retrieve("anything", "Lemuria")
	require.Len(t, results, 1)
	assert.Equal(t, "Backup Person", results[0].Name)
	assert.Equal(t, MatchGlobalFallback, results[0].MatchType)
}
