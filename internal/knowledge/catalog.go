// Package knowledge provides the curated region/topic expert catalog and the
// deterministic persona lookup operations built on top of it: topic
// classification, region-filtered candidate retrieval, region membership
// checks, and the non-agentic fallback ranker.
//
// The catalog is immutable after construction. All operations are pure
// lookups; none of them performs I/O or returns errors.
package knowledge

// CategoryList is an ordered list of curated persona names under one category.
// Order is significant: earlier entries outrank later ones wherever the
// catalog breaks ties.
type CategoryList struct {
	Name     string   `json:"name" yaml:"name"`
	Personas []string `json:"personas" yaml:"personas"`
}

// RegionCatalog holds the curated categories for a single region.
type RegionCatalog struct {
	Name       string         `json:"name" yaml:"name"`
	Categories []CategoryList `json:"categories" yaml:"categories"`
}

// TopicKeyword maps a keyword substring to a catalog category. The
// classifier scans these in declaration order and the first hit wins.
type TopicKeyword struct {
	Keyword  string `json:"keyword" yaml:"keyword"`
	Category string `json:"category" yaml:"category"`
}

// TopicExperts binds a topic keyword to its authoritative experts, used by
// the fallback ranker's first tier.
type TopicExperts struct {
	Keyword string   `json:"keyword" yaml:"keyword"`
	Experts []string `json:"experts" yaml:"experts"`
}

// SynonymGroup binds a set of related keywords to a shared expert list, used
// by the fallback ranker's second tier when no topic keyword matched.
type SynonymGroup struct {
	Keywords []string `json:"keywords" yaml:"keywords"`
	Experts  []string `json:"experts" yaml:"experts"`
}

// CatalogData is the raw material a Catalog is built from. Tests substitute
// small fixtures here; production code uses Default().
type CatalogData struct {
	Regions         []RegionCatalog
	TopicKeywords   []TopicKeyword
	TopicExperts    []TopicExperts
	SynonymGroups   []SynonymGroup
	FamousByRegion  map[string][]string
	FamousPersonas  []string
	DefaultCategory string
}

// Catalog is the read-only lookup service over the curated knowledge tables.
// A single Catalog is safe for concurrent use by any number of goroutines.
type Catalog struct {
	regions        map[string]*regionEntry
	regionOrder    []string
	topicKeywords  []TopicKeyword
	topicExperts   []TopicExperts
	synonymGroups  []SynonymGroup
	famousByRegion map[string][]string
	famous         []string
	defaultCat     string
}

// regionEntry keeps both the category map and the declaration order, since
// category scan order decides which category a persona is reported under.
type regionEntry struct {
	categories map[string][]string
	order      []string
}

// New builds a Catalog from raw data. The input slices are copied shallowly;
// callers must not mutate the persona lists afterwards.
func New(data CatalogData) *Catalog {
	c := &Catalog{
		regions:        make(map[string]*regionEntry, len(data.Regions)),
		regionOrder:    make([]string, 0, len(data.Regions)),
		topicKeywords:  data.TopicKeywords,
		topicExperts:   data.TopicExperts,
		synonymGroups:  data.SynonymGroups,
		famousByRegion: data.FamousByRegion,
		famous:         data.FamousPersonas,
		defaultCat:     data.DefaultCategory,
	}
	if c.defaultCat == "" {
		c.defaultCat = defaultCategory
	}
	if c.famousByRegion == nil {
		c.famousByRegion = map[string][]string{}
	}

	for _, region := range data.Regions {
		entry := &regionEntry{
			categories: make(map[string][]string, len(region.Categories)),
			order:      make([]string, 0, len(region.Categories)),
		}
		for _, cat := range region.Categories {
			if _, dup := entry.categories[cat.Name]; dup {
				continue
			}
			entry.categories[cat.Name] = cat.Personas
			entry.order = append(entry.order, cat.Name)
		}
		if _, dup := c.regions[region.Name]; dup {
			continue
		}
		c.regions[region.Name] = entry
		c.regionOrder = append(c.regionOrder, region.Name)
	}

	return c
}

// Default returns a Catalog over the built-in curated tables.
func Default() *Catalog {
	return New(defaultData())
}

// Regions lists every region in the catalog in declaration order,
// including the Global sentinel.
func (c *Catalog) Regions() []string {
	out := make([]string, len(c.regionOrder))
	copy(out, c.regionOrder)
	return out
}

// Categories lists the categories curated for a region in declaration order.
// Unknown regions yield nil.
func (c *Catalog) Categories(region string) []string {
	entry, ok := c.regions[region]
	if !ok {
		return nil
	}
	out := make([]string, len(entry.order))
	copy(out, entry.order)
	return out
}

// Personas returns the curated persona list for a (region, category) pair,
// or nil when either key is unknown.
func (c *Catalog) Personas(region, category string) []string {
	entry, ok := c.regions[region]
	if !ok {
		return nil
	}
	return entry.categories[category]
}

// FamousPersonas returns the region's renowned-person list used by the
// fallback ranker, or nil for regions without one.
func (c *Catalog) FamousPersonas(region string) []string {
	return c.famousByRegion[region]
}

// DefaultCategory returns the category assigned when no topic keyword matches.
func (c *Catalog) DefaultCategory() string {
	return c.defaultCat
}

// HasRegion reports whether the region exists in the curated catalog.
// The Global sentinel counts as a region here because it carries its own
// category lists (the fallback source of last resort).
func (c *Catalog) HasRegion(region string) bool {
	_, ok := c.regions[region]
	return ok
}
