package knowledge

import "fmt"

// Candidate relevance levels.
const (
	RelevanceHigh   = "high"
	RelevanceMedium = "medium"
)

// Candidate sources.
const (
	SourceRegionalDatabase = "regional_database"
	SourceGlobalFallback   = "global_fallback"
)

// Candidate match types.
const (
	MatchExactRegional  = "exact_regional_match"
	MatchCategory       = "category_match"
	MatchGlobalFallback = "global_fallback"
)

// maxCandidates caps the retriever's result size.
const maxCandidates = 10

// Candidate is one curated persona surfaced for a (topic, region) search.
// Priority is set only on the regional search tiers (1 = exact regional,
// 2 = global fallback); pooled Global results carry no priority.
type Candidate struct {
	Name      string `json:"name"`
	Relevance string `json:"relevance"`
	Source    string `json:"source"`
	Region    string `json:"region"`
	Category  string `json:"category"`
	MatchType string `json:"match_type"`
	Priority  int    `json:"priority,omitempty"`
	Note      string `json:"note,omitempty"`
}

// Retrieve returns up to 10 candidates for the topic under the region's
// filtering rules.
//
// A Global search pools the classified category across every concrete region
// to maximize diversity. A region-specific search is strictly two-tier:
// the region's own list for the category first, and when that is empty, the
// Global catalog's list for the same category — never another region's. An
// unknown region therefore lands directly on the global fallback tier, or
// yields nothing when Global lacks the category too.
func (c *Catalog) Retrieve(topic, region string) []Candidate {
	category := c.Classify(topic)

	var results []Candidate

	if region == GlobalRegion {
		for _, reg := range c.regionOrder {
			if reg == GlobalRegion {
				continue
			}
			for _, name := range c.regions[reg].categories[category] {
				results = append(results, Candidate{
					Name:      name,
					Relevance: RelevanceHigh,
					Source:    SourceRegionalDatabase,
					Region:    reg,
					Category:  category,
					MatchType: MatchCategory,
				})
			}
		}
		return truncateCandidates(results)
	}

	for _, name := range c.Personas(region, category) {
		results = append(results, Candidate{
			Name:      name,
			Relevance: RelevanceHigh,
			Source:    SourceRegionalDatabase,
			Region:    region,
			Category:  category,
			MatchType: MatchExactRegional,
			Priority:  1,
		})
	}

	if len(results) == 0 {
		for _, name := range c.Personas(GlobalRegion, category) {
			results = append(results, Candidate{
				Name:      name,
				Relevance: RelevanceMedium,
				Source:    SourceGlobalFallback,
				Region:    GlobalRegion,
				Category:  category,
				MatchType: MatchGlobalFallback,
				Priority:  2,
				Note:      fmt.Sprintf("No experts in %s, using global expert", region),
			})
		}
	}

	return truncateCandidates(results)
}

func truncateCandidates(results []Candidate) []Candidate {
	if len(results) > maxCandidates {
		return results[:maxCandidates]
	}
	return results
}
