package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePersonasFencedJSON(t *testing.T) {
	text := "Based on my research, here are the top experts:\n" +
		"```json\n" +
		`[{"name": "C.V. Raman", "description": "Nobel laureate in physics"},` +
		` {"name": "Homi Bhabha", "description": "Father of the Indian nuclear programme"}]` +
		"\n```\n" +
		"All candidates verified."

	personas := parsePersonas(text)
	require.Len(t, personas, 2)
	assert.Equal(t, "C.V. Raman", personas[0].Name)
	assert.Equal(t, "Nobel laureate in physics", personas[0].Description)
	assert.Equal(t, "Homi Bhabha", personas[1].Name)
}

func TestParsePersonasRawJSON(t *testing.T) {
	text := `[{"name": "Marie Curie", "description": "Radioactivity pioneer"}]`

	personas := parsePersonas(text)
	require.Len(t, personas, 1)
	assert.Equal(t, "Marie Curie", personas[0].Name)
}

func TestParsePersonasPairArrays(t *testing.T) {
	text := `[["Albert Einstein", "Developed general relativity"], ["Isaac Newton", "Formulated classical mechanics"]]`

	personas := parsePersonas(text)
	require.Len(t, personas, 2)
	assert.Equal(t, "Albert Einstein", personas[0].Name)
	assert.Equal(t, "Developed general relativity", personas[0].Description)
}

func TestParsePersonasLineHeuristic(t *testing.T) {
	text := `Here are my recommendations for learning physics:

1. Richard Feynman: Legendary physics teacher and Nobel laureate
2. Albert Einstein: Revolutionized our understanding of space and time
- Marie Curie: Two-time Nobel Prize winner

I verified all three against the region filter.`

	personas := parsePersonas(text)
	require.Len(t, personas, 3)
	assert.Equal(t, "Richard Feynman", personas[0].Name)
	assert.Equal(t, "Legendary physics teacher and Nobel laureate", personas[0].Description)
	assert.Equal(t, "Albert Einstein", personas[1].Name)
	assert.Equal(t, "Marie Curie", personas[2].Name)
}

func TestParsePersonasNamelessItemsDropped(t *testing.T) {
	text := `[{"description": "orphaned description"}, {"name": "Ada Lovelace"}]`

	personas := parsePersonas(text)
	require.Len(t, personas, 1)
	assert.Equal(t, "Ada Lovelace", personas[0].Name)
	assert.Equal(t, "Expert", personas[0].Description, "missing description gets the generic label")
}

func TestParsePersonasNothingParseable(t *testing.T) {
	assert.Nil(t, parsePersonas(""))
	assert.Nil(t, parsePersonas("I could not find any experts for this topic."))
	assert.Nil(t, parsePersonas("```json\nnot an array\n```"))
}

func TestParseExpertLines(t *testing.T) {
	text := `Here are the experts:
Guido van Rossum: Created the Python programming language
2. Linus Torvalds - Created Linux and Git
Peter Norvig — Director of Research at Google`

	personas := parseExpertLines(text)
	require.Len(t, personas, 3, "the preamble line is skipped, all separators parse")
	assert.Equal(t, "Guido van Rossum", personas[0].Name)
	assert.Equal(t, "Created the Python programming language", personas[0].Description)
	assert.Equal(t, "Linus Torvalds", personas[1].Name, "leading numbering is stripped")
	assert.Equal(t, "Peter Norvig", personas[2].Name, "em-dash separates too")
}

func TestParseExpertLinesSkipsNoise(t *testing.T) {
	text := "Here is the list you asked for:\nX: too short a name\nOK but no separator at all"

	personas := parseExpertLines(text)
	require.Len(t, personas, 0)
}
