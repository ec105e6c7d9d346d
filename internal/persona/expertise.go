package persona

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/curiolabs/curio/internal/llm"
	"github.com/curiolabs/curio/internal/logging"
)

// ExpertiseScore is the validator's judgment of how qualified a persona is
// to teach a topic.
type ExpertiseScore struct {
	Score     int    `json:"score"`     // 0-100
	Reasoning string `json:"reasoning"` // brief explanation
	IsExpert  bool   `json:"is_expert"`
}

// Validator scores persona expertise with an LLM call. It never returns an
// error: discovery must keep moving even when validation is down, so any
// failure yields a neutral passing score.
type Validator struct {
	provider llm.Provider
}

// NewValidator creates an expertise validator backed by provider.
func NewValidator(provider llm.Provider) *Validator {
	return &Validator{provider: provider}
}

// fallbackScore is returned whenever the model call or parsing fails.
// Neutral-positive on purpose: an unreachable validator should not veto
// otherwise good candidates.
func fallbackScore() ExpertiseScore {
	return ExpertiseScore{
		Score:     60,
		Reasoning: "Validation unavailable",
		IsExpert:  true,
	}
}

// Validate rates how genuinely expert personaName is in topic, optionally
// grounded on a bio excerpt and a region preference.
func (v *Validator) Validate(ctx context.Context, personaName, topic, bio, region string) ExpertiseScore {
	log := logging.Global().WithComponent("expertise")
	log.Debug("validating expertise: %s in %s", personaName, topic)

	resp, err := v.provider.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildValidationPrompt(personaName, topic, bio, region)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		log.Warn("expertise validation failed for %s: %v", personaName, err)
		return fallbackScore()
	}

	var score ExpertiseScore
	if err := json.Unmarshal([]byte(llm.StripFences(resp.Content)), &score); err != nil {
		log.Warn("expertise validation returned unparseable JSON for %s: %v", personaName, err)
		return fallbackScore()
	}

	log.Debug("expertise score: %s %d/100 - %s", personaName, score.Score, score.Reasoning)
	return score
}

// buildValidationPrompt asks for a strict JSON verdict against a fixed
// 0-100 rubric.
func buildValidationPrompt(personaName, topic, bio, region string) string {
	regionContext := ""
	if region != "" && region != "Global" {
		regionContext = fmt.Sprintf("\nRegion preference: %s", region)
	}

	bioText := "No bio provided"
	if bio != "" {
		bioText = truncateRunes(bio, 500)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze if %s is a genuine expert in %q.%s\n\n", personaName, topic, regionContext)
	fmt.Fprintf(&sb, "Bio: %s\n\n", bioText)
	sb.WriteString("Rate their expertise from 0-100 where:\n")
	sb.WriteString("- 90-100: World-renowned expert, pioneered the field\n")
	sb.WriteString("- 70-89: Significant contributor, well-known in field\n")
	sb.WriteString("- 50-69: Knowledgeable, some contributions\n")
	sb.WriteString("- 30-49: Tangentially related\n")
	sb.WriteString("- 0-29: Not relevant\n\n")
	sb.WriteString("Return ONLY a JSON object with no markdown:\n")
	sb.WriteString("{\n")
	sb.WriteString("    \"score\": <number>,\n")
	sb.WriteString("    \"reasoning\": \"<brief explanation>\",\n")
	sb.WriteString("    \"is_expert\": <true/false>\n")
	sb.WriteString("}\n")
	return sb.String()
}
