package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyKeywordMatch(t *testing.T) {
	c := Default()

	tests := []struct {
		topic string
		want  string
	}{
		{"Learn Python basics", "Computer Science"},
		{"python", "Computer Science"},
		{"PYTHON PROGRAMMING", "Computer Science"},
		{"quantum mechanics", "Science & Technology"},
		{"Physics", "Science & Technology"},
		{"astronomy for beginners", "Astronomy"},
		{"mathematics olympiad", "Mathematics"},
		{"how to run a startup", "Business & Entrepreneurship"},
		{"philosophy of mind", "Philosophy"},
		{"classic literature", "Literature"},
		{"sports science", "Sports"},
		{"music theory", "Music"},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.topic))
		})
	}
}

func TestClassifyDefaultCategory(t *testing.T) {
	c := Default()

	assert.Equal(t, "Science & Technology", c.Classify("underwater basket weaving"))
	assert.Equal(t, "Science & Technology", c.Classify(""))
}

func TestClassifyFirstMatchWins(t *testing.T) {
	c := Default()

	// Both "mental health" (Psychology) and "health" (Medicine) are
	// substrings; the earlier table entry must win.
	assert.Equal(t, "Psychology", c.Classify("mental health support"))
	assert.Equal(t, "Medicine", c.Classify("public health"))

	// "business" precedes "psychology" in the table.
	assert.Equal(t, "Business & Entrepreneurship", c.Classify("business psychology"))
}

func TestClassifyDeterministic(t *testing.T) {
	c := Default()

	first := c.Classify("quantum computing and ai")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, c.Classify("quantum computing and ai"))
	}
}
