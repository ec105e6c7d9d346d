package knowledge

// regionalBonus is the scoring weight added when a persona verifiably belongs
// to the requested region's catalog.
const regionalBonus = 20

// RegionMatch reports whether a persona belongs to a region's curated
// catalog. FoundInCategory names the first category the persona appears
// under, in catalog declaration order.
type RegionMatch struct {
	Persona         string `json:"persona"`
	Region          string `json:"region"`
	IsFromRegion    bool   `json:"is_from_region"`
	RegionalBonus   int    `json:"regional_bonus"`
	FoundInCategory string `json:"found_in_category,omitempty"`
	Note            string `json:"note,omitempty"`
}

// CheckRegion verifies a persona's membership in a region.
//
// Global is the no-filter sentinel: every persona matches with a zero bonus,
// including names the catalog has never heard of. For concrete regions the
// persona must appear verbatim in one of the region's category lists — no
// alias or fuzzy matching, callers pass canonical names.
func (c *Catalog) CheckRegion(persona, region string) RegionMatch {
	if region == GlobalRegion {
		return RegionMatch{
			Persona:       persona,
			Region:        region,
			IsFromRegion:  true,
			RegionalBonus: 0,
			Note:          "Global region accepts all personas",
		}
	}

	match := RegionMatch{Persona: persona, Region: region}

	entry, ok := c.regions[region]
	if !ok {
		return match
	}

	for _, category := range entry.order {
		for _, name := range entry.categories[category] {
			if name == persona {
				match.IsFromRegion = true
				match.RegionalBonus = regionalBonus
				match.FoundInCategory = category
				return match
			}
		}
	}

	return match
}
