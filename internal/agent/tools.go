package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/curiolabs/curio/internal/knowledge"
	"github.com/curiolabs/curio/internal/llm"
	"github.com/curiolabs/curio/internal/logging"
	"github.com/curiolabs/curio/internal/persona"
	"github.com/curiolabs/curio/internal/wiki"
)

// Tool names exposed to the model.
const (
	toolSearchDatabase    = "search_expert_database"
	toolWikipediaInfo     = "get_persona_wikipedia_info"
	toolValidateExpertise = "validate_persona_expertise"
	toolCheckRegion       = "check_region_match"
)

// Tools returns the function declarations the discovery agent offers the
// model. The parameter schemas are part of the model contract: the region
// descriptions repeat the filtering rule because models reliably drift back
// to Global without it.
func Tools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        toolSearchDatabase,
			Description: "Search curated database of experts by topic AND REGION. Critical: Must respect regional filtering!",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"topic": {
						Type:        "string",
						Description: "The topic to search experts for (e.g., 'Python', 'Physics', 'Business')",
					},
					"region": {
						Type:        "string",
						Description: "The region to search in (e.g., 'India', 'United States', 'Germany', 'Global'). CRITICAL: You MUST use the exact region name provided by the user. Do NOT default to Global unless user specified Global.",
					},
				},
				Required: []string{"topic", "region"},
			},
		},
		{
			Name:        toolWikipediaInfo,
			Description: "Fetch detailed Wikipedia information about a specific persona including bio and expertise.",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"persona_name": {
						Type:        "string",
						Description: "Full name of the persona to look up",
					},
				},
				Required: []string{"persona_name"},
			},
		},
		{
			Name:        toolValidateExpertise,
			Description: "Validate and score a persona's expertise in a specific topic (0-100 scale).",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"persona_name": {
						Type:        "string",
						Description: "Name of the persona to validate",
					},
					"topic": {
						Type:        "string",
						Description: "Topic to validate expertise in",
					},
					"bio": {
						Type:        "string",
						Description: "Optional biography text to help with validation",
					},
					"region": {
						Type:        "string",
						Description: "Region context for validation",
					},
				},
				Required: []string{"persona_name", "topic"},
			},
		},
		{
			Name:        toolCheckRegion,
			Description: "CRITICAL: Verify if a persona is from the specified region. Use this to filter results!",
			Parameters: llm.ToolParameters{
				Type: "object",
				Properties: map[string]llm.ToolProperty{
					"persona_name": {
						Type:        "string",
						Description: "Name of the persona",
					},
					"region": {
						Type:        "string",
						Description: "Region to check (must match user's selected region exactly)",
					},
				},
				Required: []string{"persona_name", "region"},
			},
		},
	}
}

// BioFetcher supplies Wikipedia biographies. *wiki.Client satisfies it.
type BioFetcher interface {
	Fetch(ctx context.Context, name string) (*wiki.Bio, error)
}

// ExpertiseValidator scores persona expertise. *persona.Validator satisfies it.
type ExpertiseValidator interface {
	Validate(ctx context.Context, personaName, topic, bio, region string) persona.ExpertiseScore
}

// Executor dispatches the discovery tools. Every result is a JSON string
// handed back to the model, including error shapes: the model recovers from
// a described failure, never from a silent one.
type Executor struct {
	catalog   *knowledge.Catalog
	bios      BioFetcher
	validator ExpertiseValidator
	log       *logging.Logger
}

// NewExecutor creates an executor over the given collaborators. Bios and
// validator may be nil when those lookups are disabled; the matching tools
// then report that instead of panicking mid-search.
func NewExecutor(catalog *knowledge.Catalog, bios BioFetcher, validator ExpertiseValidator) *Executor {
	return &Executor{
		catalog:   catalog,
		bios:      bios,
		validator: validator,
		log:       logging.Global().WithComponent("agent"),
	}
}

// toolFailure is the serialized error shape for unknown tools and bad
// arguments.
type toolFailure struct {
	Error string `json:"error"`
}

// bioFailure is the serialized shape when the biography fetch itself fails.
type bioFailure struct {
	Name  string `json:"name"`
	Found bool   `json:"found"`
	Error string `json:"error"`
}

// Execute runs one tool call and returns the JSON result to feed back to
// the model.
func (e *Executor) Execute(ctx context.Context, call *llm.ToolCall) string {
	e.log.Debug("tool call: %s %s", call.Name, truncate(call.Arguments, 200))

	switch call.Name {
	case toolSearchDatabase:
		var in struct {
			Topic  string `json:"topic"`
			Region string `json:"region"`
		}
		if err := e.decode(call, &in); err != nil {
			return marshal(toolFailure{err.Error()})
		}
		if in.Region == "" {
			in.Region = knowledge.GlobalRegion
		}
		return marshal(e.catalog.Retrieve(in.Topic, in.Region))

	case toolWikipediaInfo:
		var in struct {
			PersonaName string `json:"persona_name"`
		}
		if err := e.decode(call, &in); err != nil {
			return marshal(toolFailure{err.Error()})
		}
		if e.bios == nil {
			return marshal(bioFailure{Name: in.PersonaName, Error: "wikipedia lookup disabled"})
		}
		bio, err := e.bios.Fetch(ctx, in.PersonaName)
		if err != nil {
			e.log.Warn("biography fetch failed for %s: %v", in.PersonaName, err)
			return marshal(bioFailure{Name: in.PersonaName, Error: err.Error()})
		}
		return marshal(bio)

	case toolValidateExpertise:
		var in struct {
			PersonaName string `json:"persona_name"`
			Topic       string `json:"topic"`
			Bio         string `json:"bio"`
			Region      string `json:"region"`
		}
		if err := e.decode(call, &in); err != nil {
			return marshal(toolFailure{err.Error()})
		}
		if in.Region == "" {
			in.Region = knowledge.GlobalRegion
		}
		if e.validator == nil {
			return marshal(persona.ExpertiseScore{Score: 60, Reasoning: "Validation disabled", IsExpert: true})
		}
		return marshal(e.validator.Validate(ctx, in.PersonaName, in.Topic, in.Bio, in.Region))

	case toolCheckRegion:
		var in struct {
			PersonaName string `json:"persona_name"`
			Region      string `json:"region"`
		}
		if err := e.decode(call, &in); err != nil {
			return marshal(toolFailure{err.Error()})
		}
		if in.Region == "" {
			in.Region = knowledge.GlobalRegion
		}
		return marshal(e.catalog.CheckRegion(in.PersonaName, in.Region))

	default:
		return marshal(toolFailure{fmt.Sprintf("Unknown tool: %s", call.Name)})
	}
}

func (e *Executor) decode(call *llm.ToolCall, v interface{}) error {
	if err := json.Unmarshal([]byte(call.Arguments), v); err != nil {
		return fmt.Errorf("invalid arguments for %s: %v", call.Name, err)
	}
	return nil
}

func marshal(v interface{}) string {
	data, _ := json.Marshal(v)
	return string(data)
}
