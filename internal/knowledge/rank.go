package knowledge

import (
	"fmt"
	"strings"
)

// finalListSize is the number of personas every ranking returns.
const finalListSize = 3

// RankedPersona is one entry of the final ranked list: a persona name and a
// short description of why it was chosen. Slice order encodes rank.
type RankedPersona struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FallbackRank produces the final persona list without any model involvement.
//
// It fills exactly three slots, deduplicating by name, in priority order:
// topic-expert table (first matching keyword wins), then the synonym-group
// table (first group with any keyword present wins), then one persona from
// the region's famous list, then the global famous list in order. The global
// list is long enough that the result always has three distinct names, for
// any topic and any region string. Identical inputs yield identical output.
func (c *Catalog) FallbackRank(topic, region string) []RankedPersona {
	topicLower := strings.ToLower(topic)

	final := make([]RankedPersona, 0, finalListSize)
	used := make(map[string]bool)

	var topicExperts []string
	for _, te := range c.topicExperts {
		if strings.Contains(topicLower, te.Keyword) {
			topicExperts = te.Experts
			break
		}
	}

	if topicExperts == nil {
		for _, group := range c.synonymGroups {
			for _, kw := range group.Keywords {
				if strings.Contains(topicLower, kw) {
					topicExperts = group.Experts
					break
				}
			}
			if topicExperts != nil {
				break
			}
		}
	}

	for _, expert := range topicExperts {
		if len(final) >= finalListSize {
			break
		}
		if used[expert] {
			continue
		}
		final = append(final, RankedPersona{Name: expert, Description: "Topic-specific authority"})
		used[expert] = true
	}

	// One regional pick at most, then fill from the global list.
	if len(final) < finalListSize {
		for _, persona := range c.famousByRegion[region] {
			if used[persona] {
				continue
			}
			final = append(final, RankedPersona{
				Name:        persona,
				Description: fmt.Sprintf("Renowned %s expert", region),
			})
			used[persona] = true
			break
		}
	}

	for _, persona := range c.famous {
		if len(final) >= finalListSize {
			break
		}
		if used[persona] {
			continue
		}
		final = append(final, RankedPersona{Name: persona, Description: "Renowned thinker"})
		used[persona] = true
	}

	return final
}
