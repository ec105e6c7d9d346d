package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curiolabs/curio/internal/knowledge"
	"github.com/curiolabs/curio/internal/llm"
)

// scriptedTurn is one canned model reply.
type scriptedTurn struct {
	resp *llm.ChatResponse
	err  error
}

// scriptedProvider replays a fixed script of model replies and records each
// request. Messages are copied per call because the agent keeps appending to
// its own slice between turns.
type scriptedProvider struct {
	script []scriptedTurn
	calls  [][]llm.Message
	tools  []int
}

func (s *scriptedProvider) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	msgs := make([]llm.Message, len(req.Messages))
	copy(msgs, req.Messages)
	s.calls = append(s.calls, msgs)
	s.tools = append(s.tools, len(req.Tools))

	if len(s.calls) > len(s.script) {
		return nil, errors.New("unscripted model call")
	}
	turn := s.script[len(s.calls)-1]
	return turn.resp, turn.err
}

func (s *scriptedProvider) Name() string    { return "scripted" }
func (s *scriptedProvider) Available() bool { return true }

func toolCallResponse(name, args string) *llm.ChatResponse {
	return &llm.ChatResponse{
		FinishReason: "tool_calls",
		ToolCalls:    []llm.ToolCall{{Name: name, Arguments: args}},
	}
}

func textResponse(text string) *llm.ChatResponse {
	return &llm.ChatResponse{Content: text, FinishReason: "stop"}
}

func TestSearchToolLoop(t *testing.T) {
	finalAnswer := "Verified all three against the region filter.\n" +
		"```json\n" +
		"[{\"name\": \"C.V. Raman\", \"description\": \"Nobel laureate in physics\"}, " +
		"{\"name\": \"Homi Bhabha\", \"description\": \"Architect of India's nuclear programme\"}, " +
		"{\"name\": \"Vikram Sarabhai\", \"description\": \"Father of the Indian space programme\"}]\n" +
		"```"

	provider := &scriptedProvider{script: []scriptedTurn{
		{resp: toolCallResponse("search_expert_database", `{"topic": "physics", "region": "India"}`)},
		{resp: toolCallResponse("check_region_match", `{"persona_name": "C.V. Raman", "region": "India"}`)},
		{resp: textResponse(finalAnswer)},
	}}

	var events []*StepEvent
	a := New(provider, knowledge.Default(), &stubBios{}, &stubValidator{}, &Config{
		OnStep: func(e *StepEvent) { events = append(events, e) },
	})

	result := a.Search(context.Background(), "physics", "India")

	require.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "physics", result.Topic)
	assert.Equal(t, "India", result.Region)
	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, finalAnswer, result.Reasoning)

	require.Len(t, result.Personas, 3)
	assert.Equal(t, "C.V. Raman", result.Personas[0].Name)
	assert.Equal(t, "Homi Bhabha", result.Personas[1].Name)
	assert.Equal(t, "Vikram Sarabhai", result.Personas[2].Name)

	require.Len(t, result.Steps, 2)
	assert.Equal(t, 1, result.Steps[0].Step)
	assert.Equal(t, "search_expert_database", result.Steps[0].Tool)
	assert.Contains(t, result.Steps[0].Output, "C.V. Raman")
	assert.Equal(t, "check_region_match", result.Steps[1].Tool)

	// The conversation grows by an assistant tool-call echo and a tool
	// result each iteration.
	require.Len(t, provider.calls, 3)
	require.Len(t, provider.calls[0], 1)
	assert.Equal(t, llm.RoleUser, provider.calls[0][0].Role)
	assert.Contains(t, provider.calls[0][0].Content, "physics")
	assert.Equal(t, 4, provider.tools[0])

	require.Len(t, provider.calls[1], 3)
	require.NotNil(t, provider.calls[1][1].ToolCall)
	assert.Equal(t, "search_expert_database", provider.calls[1][1].ToolCall.Name)
	require.NotNil(t, provider.calls[1][2].ToolResult)
	assert.Contains(t, provider.calls[1][2].ToolResult.Content, "C.V. Raman")
	require.Len(t, provider.calls[2], 5)

	types := make([]StepEventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []StepEventType{
		EventThinking,
		EventToolCall, EventToolResult,
		EventToolCall, EventToolResult,
		EventComplete,
	}, types)
}

func TestSearchModelError(t *testing.T) {
	provider := &scriptedProvider{script: []scriptedTurn{
		{err: errors.New("gemini: status 503")},
	}}

	var events []*StepEvent
	a := New(provider, knowledge.Default(), &stubBios{}, &stubValidator{}, &Config{
		OnStep: func(e *StepEvent) { events = append(events, e) },
	})

	result := a.Search(context.Background(), "physics", "India")

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.Error, "503")
	assert.Empty(t, result.Personas)
	assert.Empty(t, result.Steps)

	require.NotEmpty(t, events)
	assert.Equal(t, EventError, events[len(events)-1].Type)
}

func TestSearchUnparseableAnswerRunsSimpleSearch(t *testing.T) {
	provider := &scriptedProvider{script: []scriptedTurn{
		{resp: textResponse("I was unable to assemble a list for this topic.")},
		{resp: textResponse("C.V. Raman: Nobel laureate in physics\n" +
			"Homi Bhabha: Architect of India's nuclear programme\n" +
			"Vikram Sarabhai: Father of the Indian space programme")},
	}}

	a := New(provider, knowledge.Default(), &stubBios{}, &stubValidator{}, nil)
	result := a.Search(context.Background(), "physics", "India")

	require.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 0, result.Iterations)
	require.Len(t, result.Personas, 3)
	assert.Equal(t, "C.V. Raman", result.Personas[0].Name)
	assert.Len(t, provider.calls, 2)
}

func TestSearchIterationCap(t *testing.T) {
	searchArgs := `{"topic": "quantum computing", "region": "Global"}`
	provider := &scriptedProvider{script: []scriptedTurn{
		{resp: toolCallResponse("search_expert_database", searchArgs)},
		{resp: toolCallResponse("search_expert_database", searchArgs)},
		{resp: toolCallResponse("search_expert_database", searchArgs)},
		{resp: textResponse("Richard Feynman: Proposed quantum simulation of physics\n" +
			"David Deutsch: Formulated the quantum Turing machine\n" +
			"Peter Shor: Invented the polynomial-time factoring algorithm")},
	}}

	a := New(provider, knowledge.Default(), &stubBios{}, &stubValidator{}, &Config{MaxIterations: 2})
	result := a.Search(context.Background(), "quantum computing", "")

	require.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "Global", result.Region, "empty region defaults to Global")
	assert.Equal(t, 2, result.Iterations)
	assert.Len(t, result.Steps, 2)
	require.Len(t, result.Personas, 3)
	assert.Equal(t, "Richard Feynman", result.Personas[0].Name)
	assert.Len(t, provider.calls, 4, "three loop turns plus the simple-search fallback")
}

func TestSearchTopsUpShortAnswers(t *testing.T) {
	provider := &scriptedProvider{script: []scriptedTurn{
		{resp: textResponse("```json\n[{\"name\": \"Albert Einstein\", \"description\": \"Developed relativity\"}]\n```")},
	}}

	a := New(provider, knowledge.Default(), &stubBios{}, &stubValidator{}, nil)
	result := a.Search(context.Background(), "physics", "Global")

	require.Len(t, result.Personas, 3)
	assert.Equal(t, "Albert Einstein", result.Personas[0].Name)
	assert.Equal(t, "Isaac Newton", result.Personas[1].Name)
	assert.Equal(t, "Richard Feynman", result.Personas[2].Name)
	assert.Len(t, provider.calls, 1, "a short answer tops up from the catalog, not the model")
}

func TestSimpleSearchInstantMatch(t *testing.T) {
	provider := &scriptedProvider{}

	personas := SimpleSearch(context.Background(), provider, knowledge.Default(), "Python basics", "Global")

	require.Len(t, personas, 3)
	assert.Equal(t, "Guido van Rossum", personas[0].Name)
	assert.Equal(t, "Expert in Python basics", personas[0].Description)
	assert.Empty(t, provider.calls, "signature topics skip the model entirely")
}

func TestSimpleSearchRegionBypassesInstantMatch(t *testing.T) {
	provider := &scriptedProvider{script: []scriptedTurn{
		{resp: textResponse("Sundar Pichai: Leads Google and championed Python internally\n" +
			"Satya Nadella: Oversaw Microsoft's developer-tooling renaissance\n" +
			"Srinivasa Ramanujan: Legendary mathematical intuition")},
	}}

	personas := SimpleSearch(context.Background(), provider, knowledge.Default(), "python", "India")

	require.Len(t, personas, 3)
	assert.Equal(t, "Sundar Pichai", personas[0].Name)
	assert.Len(t, provider.calls, 1)
}

func TestSimpleSearchRetriesWithPlainFormat(t *testing.T) {
	provider := &scriptedProvider{script: []scriptedTurn{
		{resp: textResponse("Sure, happy to help! Several excellent teachers come to mind.")},
		{resp: textResponse("Rob Pike - Co-designed the Go language\n" +
			"Robert Griesemer - Co-designed the Go language")},
	}}

	personas := SimpleSearch(context.Background(), provider, knowledge.Default(), "golang", "Global")

	require.Len(t, provider.calls, 2)
	assert.Contains(t, provider.calls[1][0].Content, "List 3 famous experts for golang")

	require.Len(t, personas, 3)
	assert.Equal(t, "Rob Pike", personas[0].Name)
	assert.Equal(t, "Robert Griesemer", personas[1].Name)
	assert.Equal(t, "Albert Einstein", personas[2].Name, "shortfall filled from the fallback ranking")
}

func TestSimpleSearchProviderErrorFallsBackToRanking(t *testing.T) {
	provider := &scriptedProvider{script: []scriptedTurn{
		{err: errors.New("gemini: status 429")},
	}}

	personas := SimpleSearch(context.Background(), provider, knowledge.Default(), "golang", "Global")

	require.Len(t, personas, 3)
	assert.Equal(t, "Albert Einstein", personas[0].Name)
	assert.Len(t, provider.calls, 1, "the retry is skipped when the first call errors")
}

func TestSearchPromptStatesRegionRules(t *testing.T) {
	p := searchPrompt("physics", "India")
	assert.Contains(t, p, `USER SELECTED REGION: "India"`)
	assert.Contains(t, p, `search_expert_database with topic="physics" and region="India"`)
	assert.Contains(t, p, "check_region_match for final filtering")

	sp := simplePrompt("physics", "India")
	assert.Contains(t, sp, "exactly 3 real, specific people")
	assert.Contains(t, sp, "MUST ONLY suggest experts from India")
}
