package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/curiolabs/curio/internal/knowledge"
	"github.com/curiolabs/curio/internal/llm"
	"github.com/curiolabs/curio/internal/logging"
	"github.com/curiolabs/curio/internal/persona"
)

// wellKnownExperts answers a handful of signature topics instantly,
// skipping the model round-trip. Global searches only: the entries are not
// region-filtered.
var wellKnownExperts = []struct {
	topic   string
	experts [3]string
}{
	{"helicopter shot", [3]string{"Mahendra Singh Dhoni", "Hardik Pandya", "Kieron Pollard"}},
	{"python", [3]string{"Guido van Rossum", "Linus Torvalds", "Peter Norvig"}},
	{"relativity", [3]string{"Albert Einstein", "Stephen Hawking", "Richard Feynman"}},
	{"evolution", [3]string{"Charles Darwin", "Richard Dawkins", "Stephen Jay Gould"}},
}

// SimpleSearch asks the model directly for three experts, with no tool
// loop. It is the non-agentic discovery mode and the agent's middle
// fallback tier; like the agent it always returns exactly three personas.
func SimpleSearch(ctx context.Context, provider llm.Provider, catalog *knowledge.Catalog, topic, region string) []persona.Persona {
	if region == "" {
		region = knowledge.GlobalRegion
	}
	return topUp(catalog, simpleSearch(ctx, provider, topic, region), topic, region)
}

// simpleSearch returns the raw direct-search results, possibly fewer than
// three or none.
func simpleSearch(ctx context.Context, provider llm.Provider, topic, region string) []persona.Persona {
	log := logging.Global().WithComponent("agent")

	if region == knowledge.GlobalRegion {
		topicLower := strings.ToLower(topic)
		for _, entry := range wellKnownExperts {
			if !strings.Contains(topicLower, entry.topic) {
				continue
			}
			log.Debug("instant match for %q", entry.topic)
			personas := make([]persona.Persona, 0, finalCount)
			for _, name := range entry.experts {
				personas = append(personas, persona.Persona{
					Name:        name,
					Description: fmt.Sprintf("Expert in %s", topic),
				})
			}
			return personas
		}
	}

	log.Info("simple persona search: topic=%q region=%q", topic, region)

	resp, err := provider.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: simplePrompt(topic, region)},
		},
	})
	if err != nil {
		log.Warn("simple search failed: %v", err)
		return nil
	}

	personas := parseExpertLines(resp.Content)
	if len(personas) >= finalCount {
		return personas[:finalCount]
	}

	// The model answered but not in a parseable shape; ask once more with
	// the tersest possible format instruction.
	log.Debug("simple search parsed %d personas, retrying with plain format", len(personas))
	resp, err = provider.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf("List 3 famous experts for %s. Format: Name - Description", topic)},
		},
	})
	if err != nil {
		log.Warn("simple search retry failed: %v", err)
		return personas
	}
	if retried := parseExpertLines(resp.Content); len(retried) >= 1 {
		return retried
	}
	return personas
}

// simplePrompt is the direct expert-finder instruction.
func simplePrompt(topic, region string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task: You are an expert finder. Identify exactly 3 real, specific people (historical or modern) who are the ABSOLUTE BEST experts to teach the topic: %q.\n\n", topic)
	sb.WriteString("Context:\n")
	fmt.Fprintf(&sb, "- Topic: %s\n", topic)
	fmt.Fprintf(&sb, "- User Region: %s\n\n", region)
	sb.WriteString("Rules:\n")
	fmt.Fprintf(&sb, "1. CRITICAL: If User Region is NOT \"Global\", you MUST ONLY suggest experts from %s.\n", region)
	fmt.Fprintf(&sb, "2. If the region is %q, finding someone from %s is your TOP PRIORITY.\n", region, region)
	sb.WriteString("3. If key terms like \"helicopter shot\" appear, find the SPECIFIC inventor/legend (e.g., MS Dhoni).\n")
	sb.WriteString("4. If the topic is broad (e.g., \"Physics\") and region is \"Global\", find the biggest names (e.g., Einstein).\n")
	sb.WriteString("5. Do NOT output generic introductions.\n\n")
	sb.WriteString("Output Format (Strictly 3 lines):\n")
	sb.WriteString("Name: Brief description of why they are the expert (one sentence)\n")
	sb.WriteString("Name: Brief description of why they are the expert (one sentence)\n")
	sb.WriteString("Name: Brief description of why they are the expert (one sentence)\n")
	return sb.String()
}
