// Package agent runs the tool-calling persona discovery loop: given a topic
// and a region preference, it lets the model search the curated catalog,
// pull biographies, validate expertise, and verify region membership before
// emitting a ranked expert list. Every path out of the loop ends in exactly
// three personas.
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

// finalCount is the number of personas every successful search returns.
const finalCount = 3

// defaultMaxIterations bounds the tool-calling loop.
const defaultMaxIterations = 10

// stepOutputLimit caps recorded tool output in the step trace.
const stepOutputLimit = 500

// Search result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// StepEventType identifies the kind of progress event.
type StepEventType string

const (
	EventThinking   StepEventType = "thinking"
	EventToolCall   StepEventType = "tool_call"
	EventToolResult StepEventType = "tool_result"
	EventComplete   StepEventType = "complete"
	EventError      StepEventType = "error"
)

// StepEvent is a progress event emitted while the agent runs. It enables
// live streaming of the reasoning chain to a UI.
type StepEvent struct {
	Type      StepEventType `json:"type"`
	Step      int           `json:"step"`
	Message   string        `json:"message"`
	ToolName  string        `json:"tool_name,omitempty"`
	ToolInput string        `json:"tool_input,omitempty"`
	Output    string        `json:"output,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// StepCallback receives StepEvents during a search.
type StepCallback func(event *StepEvent)

// AgentStep is one recorded entry of the tool-call trace.
type AgentStep struct {
	Step   int    `json:"step"`
	Tool   string `json:"tool"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

// SearchResult is the outcome of a discovery run. Personas holds exactly
// three entries when Status is success; error results carry none, and the
// caller decides whether to retry with the simple search.
type SearchResult struct {
	Status     string            `json:"status"`
	Topic      string            `json:"topic"`
	Region     string            `json:"region"`
	Personas   []persona.Persona `json:"personas,omitempty"`
	Reasoning  string            `json:"reasoning,omitempty"`
	Steps      []AgentStep       `json:"agent_steps"`
	Iterations int               `json:"iterations"`
	Error      string            `json:"error,omitempty"`
}

// Agent orchestrates multi-step persona discovery.
type Agent struct {
	provider      llm.Provider
	executor      *Executor
	catalog       *knowledge.Catalog
	maxIterations int
	onStep        StepCallback
	log           *logging.Logger
}

// Config configures the agent.
type Config struct {
	MaxIterations int          // tool-call budget per search (default 10)
	OnStep        StepCallback // optional progress callback
}

// New creates a discovery agent.
func New(provider llm.Provider, catalog *knowledge.Catalog, bios BioFetcher, validator ExpertiseValidator, cfg *Config) *Agent {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	return &Agent{
		provider:      provider,
		executor:      NewExecutor(catalog, bios, validator),
		catalog:       catalog,
		maxIterations: cfg.MaxIterations,
		onStep:        cfg.OnStep,
		log:           logging.Global().WithComponent("agent"),
	}
}

// emit sends a step event to the callback if configured.
func (a *Agent) emit(event *StepEvent) {
	if a.onStep != nil {
		a.onStep(event)
	}
}

// Search runs the agentic discovery loop for a topic under the region's
// filtering rules. Model or transport failures surface as a status=error
// result; parse shortfalls never do — they degrade through the simple
// search and the deterministic fallback ranking instead.
func (a *Agent) Search(ctx context.Context, topic, region string) *SearchResult {
	if region == "" {
		region = knowledge.GlobalRegion
	}
	a.log.Info("agentic persona search: topic=%q region=%q", topic, region)

	result := &SearchResult{
		Status: StatusSuccess,
		Topic:  topic,
		Region: region,
		Steps:  []AgentStep{},
	}

	a.emit(&StepEvent{
		Type:    EventThinking,
		Message: fmt.Sprintf("Searching for %s experts in %s...", topic, region),
	})

	messages := []llm.Message{
		{Role: llm.RoleUser, Content: searchPrompt(topic, region)},
	}
	tools := Tools()

	var finalText string
	iteration := 0

	for {
		resp, err := a.provider.Chat(ctx, &llm.ChatRequest{
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			a.log.Error("agentic search failed: %v", err)
			a.emit(&StepEvent{Type: EventError, Step: iteration, Message: "model call failed", Error: err.Error()})
			return &SearchResult{
				Status: StatusError,
				Topic:  topic,
				Region: region,
				Error:  err.Error(),
				Steps:  []AgentStep{},
			}
		}

		if !resp.HasToolCalls() {
			finalText = resp.Content
			break
		}
		if iteration >= a.maxIterations {
			a.log.Warn("tool-call budget (%d) exhausted, forcing final ranking", a.maxIterations)
			break
		}

		// The model may batch calls; process the first and let it re-request
		// the rest, which keeps the trace strictly ordered.
		call := resp.ToolCalls[0]
		iteration++

		a.emit(&StepEvent{
			Type:      EventToolCall,
			Step:      iteration,
			Message:   fmt.Sprintf("Calling %s", call.Name),
			ToolName:  call.Name,
			ToolInput: call.Arguments,
		})

		output := a.executor.Execute(ctx, &call)

		result.Steps = append(result.Steps, AgentStep{
			Step:   iteration,
			Tool:   call.Name,
			Input:  call.Arguments,
			Output: truncate(output, stepOutputLimit),
		})

		a.emit(&StepEvent{
			Type:     EventToolResult,
			Step:     iteration,
			Message:  fmt.Sprintf("%s completed", call.Name),
			ToolName: call.Name,
			Output:   truncate(output, stepOutputLimit),
		})

		messages = append(messages,
			llm.Message{Role: llm.RoleAssistant, ToolCall: &call},
			llm.Message{Role: llm.RoleTool, ToolResult: &llm.ToolResult{Name: call.Name, Content: output}},
		)
	}

	result.Iterations = iteration
	result.Reasoning = finalText
	a.log.Info("agent completed in %d iterations", iteration)

	personas := parsePersonas(finalText)
	if len(personas) == 0 {
		a.log.Warn("no parseable personas in agent answer, running simple search")
		personas = simpleSearch(ctx, a.provider, topic, region)
	}
	result.Personas = topUp(a.catalog, personas, topic, region)

	a.emit(&StepEvent{
		Type:    EventComplete,
		Step:    iteration,
		Message: fmt.Sprintf("Found %d experts in %d iterations", len(result.Personas), iteration),
	})
	return result
}

// searchPrompt is the initial instruction. The region rules are stated
// three times over because single mentions were not enough to keep models
// from recommending out-of-region experts.
func searchPrompt(topic, region string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an expert persona discovery agent. Your task is to find the BEST expert persona for learning about %q.\n\n", topic)
	sb.WriteString("CRITICAL CONSTRAINTS:\n")
	fmt.Fprintf(&sb, "1. USER SELECTED REGION: %q\n", region)
	fmt.Fprintf(&sb, "2. IF REGION IS NOT \"Global\": ONLY return personas from %s\n", region)
	sb.WriteString("3. Do NOT return personas from other regions unless explicitly stated\n")
	sb.WriteString("4. Always check_region_match for final recommendations\n\n")
	sb.WriteString("PROCESS:\n")
	fmt.Fprintf(&sb, "1. First, search_expert_database with topic=%q and region=%q\n", topic, region)
	sb.WriteString("2. For top 3 candidates, get_persona_wikipedia_info to verify credentials\n")
	sb.WriteString("3. validate_persona_expertise for each candidate in this topic\n")
	sb.WriteString("4. check_region_match for final filtering - MUST match selected region!\n")
	fmt.Fprintf(&sb, "5. Return top 3 personas with highest scores from %s\n\n", region)
	fmt.Fprintf(&sb, "IMPORTANT: If region is %q, ensure ALL returned personas are from %s.\n", region, region)
	fmt.Fprintf(&sb, "Return personas ONLY from %s unless it's \"Global\".\n", region)
	return sb.String()
}

// topUp guarantees exactly three distinct personas, filling any shortfall
// from the deterministic fallback ranking.
func topUp(catalog *knowledge.Catalog, personas []persona.Persona, topic, region string) []persona.Persona {
	if len(personas) >= finalCount {
		return personas[:finalCount]
	}

	used := make(map[string]bool, len(personas))
	for _, p := range personas {
		used[p.Name] = true
	}
	for _, ranked := range catalog.FallbackRank(topic, region) {
		if len(personas) >= finalCount {
			break
		}
		if used[ranked.Name] {
			continue
		}
		personas = append(personas, persona.Persona{
			Name:        ranked.Name,
			Description: ranked.Description,
		})
		used[ranked.Name] = true
	}
	return personas
}

// truncate shortens a string for traces and logs, collapsing newlines.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
