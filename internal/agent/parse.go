package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/curiolabs/curio/internal/persona"
)

var (
	// fencedArrayPattern matches a ```json fenced array anywhere in the
	// answer, across lines.
	fencedArrayPattern = regexp.MustCompile("(?s)```json\\s*(\\[.*?\\])\\s*```")

	// enumeratedLinePattern marks lines that look like "1. ..." entries.
	enumeratedLinePattern = regexp.MustCompile(`^\d+\.`)

	// listPrefixPattern strips leading numbering and bullet characters
	// from an extracted name.
	listPrefixPattern = regexp.MustCompile(`^[\d\-.*]+\s*`)

	// expertLinePattern extracts "Name: description" (or "-"/"—" separated)
	// pairs from free-form model output.
	expertLinePattern = regexp.MustCompile(`([A-Za-z0-9.\s']+?)[-:—]\s*(.+)`)
)

// parsePersonas turns the agent's final free-text answer into persona
// pairs. Three tiers, first hit wins: a fenced JSON array, the whole text
// as a JSON array, then a line-by-line scan of enumerated or bulleted
// "Name: description" entries. Returns nil when nothing parses.
func parsePersonas(text string) []persona.Persona {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if m := fencedArrayPattern.FindStringSubmatch(text); m != nil {
		if personas := personasFromJSON([]byte(m[1])); len(personas) > 0 {
			return personas
		}
	}

	if personas := personasFromJSON([]byte(strings.TrimSpace(text))); len(personas) > 0 {
		return personas
	}

	return personasFromLines(text)
}

// personasFromJSON normalizes a JSON array of persona items. Items may be
// objects with name/description keys or 2+-element string arrays; nameless
// items are dropped, missing descriptions default to "Expert".
func personasFromJSON(data []byte) []persona.Persona {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}

	var personas []persona.Persona
	for _, item := range items {
		var obj struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && strings.TrimSpace(obj.Name) != "" {
			if obj.Description == "" {
				obj.Description = "Expert"
			}
			personas = append(personas, persona.Persona{Name: obj.Name, Description: obj.Description})
			continue
		}

		var pair []string
		if err := json.Unmarshal(item, &pair); err == nil && len(pair) >= 2 {
			personas = append(personas, persona.Persona{Name: pair[0], Description: pair[1]})
		}
	}
	return personas
}

// personasFromLines scans enumerated or bulleted lines for "Name: desc"
// shapes.
func personasFromLines(text string) []persona.Persona {
	var personas []persona.Persona
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !enumeratedLinePattern.MatchString(line) && !strings.HasPrefix(line, "-") {
			continue
		}

		name, desc, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(listPrefixPattern.ReplaceAllString(strings.TrimSpace(name), ""))
		if name == "" {
			continue
		}
		personas = append(personas, persona.Persona{
			Name:        name,
			Description: strings.TrimSpace(desc),
		})
	}
	return personas
}

// parseExpertLines handles the looser output of the direct (non-agentic)
// search prompt: any line shaped like "Name: why they are the expert",
// with numbering stripped and obvious preamble lines skipped.
func parseExpertLines(text string) []persona.Persona {
	var personas []persona.Persona
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := expertLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		desc := strings.TrimSpace(m[2])

		name = strings.TrimSpace(listPrefixPattern.ReplaceAllString(name, ""))
		if len([]rune(name)) < 2 || strings.Contains(name, "Here") {
			continue
		}
		personas = append(personas, persona.Persona{Name: name, Description: desc})
	}
	return personas
}
