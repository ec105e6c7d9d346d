package knowledge

import "strings"

// Classify maps a free-text topic to a catalog category.
//
// The keyword table is scanned in declaration order and the first keyword
// found as a case-insensitive substring of the topic wins, so overlapping
// keywords ("machine learning" before "ai") resolve deterministically.
// Topics matching nothing get the default category; Classify never fails.
func (c *Catalog) Classify(topic string) string {
	topicLower := strings.ToLower(topic)
	for _, tk := range c.topicKeywords {
		if strings.Contains(topicLower, tk.Keyword) {
			return tk.Category
		}
	}
	return c.defaultCat
}
