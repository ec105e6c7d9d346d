// Package intent extracts structured learning intent from free-form user
// queries and rewrites chat messages into retrieval-friendly form. Both
// operations degrade instead of erroring: intent falls back to a generic
// classification, rewriting falls back to the original text.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/curiolabs/curio/internal/llm"
	"github.com/curiolabs/curio/internal/logging"
)

// intentToolName is the function the model is instructed to call.
const intentToolName = "log_user_intent"

// Fallback classification values for queries the model could not analyze.
const (
	fallbackDomain       = "General"
	fallbackUserStage    = "Unknown"
	fallbackDecisionType = "Exploration"
)

// Intent is the structured reading of what a learner is actually after.
type Intent struct {
	Goal         string `json:"goal"`          // specific objective ("start a company")
	Domain       string `json:"domain"`        // broader field ("Entrepreneurship")
	UserStage    string `json:"user_stage"`    // inferred experience level ("Student")
	DecisionType string `json:"decision_type"` // kind of help needed ("Career Advice")
}

// Parser runs intent extraction and query rewriting over an LLM provider.
type Parser struct {
	provider llm.Provider
	log      *logging.Logger
}

// NewParser creates an intent parser backed by provider.
func NewParser(provider llm.Provider) *Parser {
	return &Parser{
		provider: provider,
		log:      logging.Global().WithComponent("intent"),
	}
}

// fallbackIntent classifies a query the model could not handle.
func fallbackIntent(query string) Intent {
	return Intent{
		Goal:         query,
		Domain:       fallbackDomain,
		UserStage:    fallbackUserStage,
		DecisionType: fallbackDecisionType,
	}
}

// Parse extracts {goal, domain, user_stage, decision_type} from a query via
// a forced function call. Any failure, including the model answering in
// plain text, yields the fixed fallback classification.
func (p *Parser) Parse(ctx context.Context, query string) Intent {
	p.log.Debug("analyzing intent for %q", query)

	resp, err := p.provider.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: parsePrompt(query)},
		},
		Tools: []llm.Tool{intentTool()},
	})
	if err != nil {
		p.log.Warn("intent parse failed: %v", err)
		return fallbackIntent(query)
	}
	if !resp.HasToolCalls() || resp.ToolCalls[0].Name != intentToolName {
		p.log.Debug("no intent tool call in model response")
		return fallbackIntent(query)
	}

	var in Intent
	if err := json.Unmarshal([]byte(resp.ToolCalls[0].Arguments), &in); err != nil {
		p.log.Warn("intent arguments unparseable: %v", err)
		return fallbackIntent(query)
	}

	// The schema marks all four fields required, but models still omit
	// them; blanks take the fallback values so callers never branch on "".
	if in.Goal == "" {
		in.Goal = query
	}
	if in.Domain == "" {
		in.Domain = fallbackDomain
	}
	if in.UserStage == "" {
		in.UserStage = fallbackUserStage
	}
	if in.DecisionType == "" {
		in.DecisionType = fallbackDecisionType
	}

	p.log.Debug("intent detected: goal=%q domain=%q stage=%q decision=%q",
		in.Goal, in.Domain, in.UserStage, in.DecisionType)
	return in
}

// Rewrite compresses a chat message into an intent-rich semantic search
// query of under 20 words. Returns the original message when the model call
// fails or answers empty.
func (p *Parser) Rewrite(ctx context.Context, message string) string {
	resp, err := p.provider.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: rewritePrompt(message)},
		},
	})
	if err != nil {
		p.log.Warn("query rewrite failed: %v", err)
		return message
	}

	cleaned := strings.TrimSpace(resp.Content)
	cleaned = strings.ReplaceAll(cleaned, `"`, "")
	cleaned = strings.ReplaceAll(cleaned, "\n", " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return message
	}
	return cleaned
}

// intentTool declares the extraction function the model must call.
func intentTool() llm.Tool {
	return llm.Tool{
		Name:        intentToolName,
		Description: "Log the structured intent of the learner based on their query.",
		Parameters: llm.ToolParameters{
			Type: "object",
			Properties: map[string]llm.ToolProperty{
				"goal": {
					Type:        "string",
					Description: "The specific objective of the user (e.g., 'start a company', 'learn sorting algorithms').",
				},
				"domain": {
					Type:        "string",
					Description: "The broader field or industry (e.g., 'Entrepreneurship', 'Computer Science').",
				},
				"user_stage": {
					Type:        "string",
					Description: "The inferred experience level or life stage (e.g., 'Student', 'Professional', 'Beginner').",
				},
				"decision_type": {
					Type:        "string",
					Description: "The type of help needed (e.g., 'Career Advice', 'Technical Concept', 'Life Decision').",
				},
			},
			Required: []string{"goal", "domain", "user_stage", "decision_type"},
		},
	}
}

func parsePrompt(query string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze this user query: %q\n\n", query)
	fmt.Fprintf(&sb, "Extract the underlying intent and call `%s`.\n", intentToolName)
	sb.WriteString("Infer the 'user_stage' and 'decision_type' from context if not explicit.\n")
	sb.WriteString("If vague, make a reasonable guess based on likely intent for a learning platform.\n")
	return sb.String()
}

func rewritePrompt(message string) string {
	var sb strings.Builder
	sb.WriteString("Rewrite the following user query for high-signal semantic retrieval.\n")
	sb.WriteString("Focus on decision-making, principles, strategies, and conceptual topics, not biography.\n\n")
	fmt.Fprintf(&sb, "User Query: %q\n\n", message)
	sb.WriteString("Constraints:\n")
	sb.WriteString("1. Expansion: Expand vague language into cognitive topics.\n")
	sb.WriteString("2. Preservation: Preserve the original core meaning.\n")
	sb.WriteString("3. Length: Keep output strictly under 20 words.\n")
	sb.WriteString("4. Output: Return ONLY the rewritten query string. No explanations.\n")
	return sb.String()
}
