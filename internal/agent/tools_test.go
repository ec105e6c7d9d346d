package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curiolabs/curio/internal/knowledge"
	"github.com/curiolabs/curio/internal/llm"
	"github.com/curiolabs/curio/internal/persona"
	"github.com/curiolabs/curio/internal/wiki"
)

// stubBios is a canned BioFetcher that records the requested names.
type stubBios struct {
	bio   *wiki.Bio
	err   error
	calls []string
}

func (s *stubBios) Fetch(_ context.Context, name string) (*wiki.Bio, error) {
	s.calls = append(s.calls, name)
	if s.err != nil {
		return nil, s.err
	}
	if s.bio != nil {
		return s.bio, nil
	}
	return &wiki.Bio{Name: name, Found: false}, nil
}

// stubValidator is a canned ExpertiseValidator that records its arguments.
type stubValidator struct {
	score    persona.ExpertiseScore
	lastName string
	lastArgs [3]string // topic, bio, region
}

func (s *stubValidator) Validate(_ context.Context, personaName, topic, bio, region string) persona.ExpertiseScore {
	s.lastName = personaName
	s.lastArgs = [3]string{topic, bio, region}
	return s.score
}

func newTestExecutor(bios *stubBios, validator *stubValidator) *Executor {
	return NewExecutor(knowledge.Default(), bios, validator)
}

func toolCall(name, args string) *llm.ToolCall {
	return &llm.ToolCall{Name: name, Arguments: args}
}

func TestToolsDeclarations(t *testing.T) {
	tools := Tools()
	require.Len(t, tools, 4)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
		assert.Equal(t, "object", tool.Parameters.Type)
		assert.NotEmpty(t, tool.Description)
	}
	assert.Equal(t, []string{
		"search_expert_database",
		"get_persona_wikipedia_info",
		"validate_persona_expertise",
		"check_region_match",
	}, names)

	search := tools[0]
	assert.Equal(t, []string{"topic", "region"}, search.Parameters.Required)
	assert.Contains(t, search.Parameters.Properties["region"].Description, "Do NOT default to Global")
}

func TestExecuteSearchDatabase(t *testing.T) {
	e := newTestExecutor(&stubBios{}, &stubValidator{})

	out := e.Execute(context.Background(), toolCall("search_expert_database", `{"topic": "physics", "region": "India"}`))

	var candidates []knowledge.Candidate
	require.NoError(t, json.Unmarshal([]byte(out), &candidates))
	require.NotEmpty(t, candidates)

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		assert.Equal(t, "India", c.Region)
		assert.Equal(t, "exact_regional_match", c.MatchType)
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "C.V. Raman")
}

func TestExecuteSearchDefaultsRegionToGlobal(t *testing.T) {
	e := newTestExecutor(&stubBios{}, &stubValidator{})

	out := e.Execute(context.Background(), toolCall("search_expert_database", `{"topic": "physics"}`))

	var candidates []knowledge.Candidate
	require.NoError(t, json.Unmarshal([]byte(out), &candidates))
	require.NotEmpty(t, candidates)
	// Global searches pool the concrete regions, so candidates report a
	// category match rather than a regional one.
	assert.Equal(t, "category_match", candidates[0].MatchType)
	assert.Empty(t, candidates[0].Note)
}

func TestExecuteWikipediaInfo(t *testing.T) {
	bios := &stubBios{bio: &wiki.Bio{
		Name:   "Marie Curie",
		Bio:    "Polish-French physicist and chemist.",
		Source: "wikipedia",
		Found:  true,
	}}
	e := newTestExecutor(bios, &stubValidator{})

	out := e.Execute(context.Background(), toolCall("get_persona_wikipedia_info", `{"persona_name": "Marie Curie"}`))

	assert.Equal(t, []string{"Marie Curie"}, bios.calls)
	var got wiki.Bio
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Found)
	assert.Equal(t, "Polish-French physicist and chemist.", got.Bio)
}

func TestExecuteWikipediaInfoFetchError(t *testing.T) {
	bios := &stubBios{err: errors.New("connection refused")}
	e := newTestExecutor(bios, &stubValidator{})

	out := e.Execute(context.Background(), toolCall("get_persona_wikipedia_info", `{"persona_name": "Marie Curie"}`))

	var failure struct {
		Name  string `json:"name"`
		Found bool   `json:"found"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &failure))
	assert.Equal(t, "Marie Curie", failure.Name)
	assert.False(t, failure.Found)
	assert.Contains(t, failure.Error, "connection refused")
}

func TestExecuteWikipediaInfoDisabled(t *testing.T) {
	e := NewExecutor(knowledge.Default(), nil, &stubValidator{})

	out := e.Execute(context.Background(), toolCall("get_persona_wikipedia_info", `{"persona_name": "Marie Curie"}`))

	var failure struct {
		Name  string `json:"name"`
		Found bool   `json:"found"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &failure))
	assert.Equal(t, "Marie Curie", failure.Name)
	assert.False(t, failure.Found)
	assert.Equal(t, "wikipedia lookup disabled", failure.Error)
}

func TestExecuteValidateExpertise(t *testing.T) {
	validator := &stubValidator{score: persona.ExpertiseScore{Score: 88, Reasoning: "Nobel laureate", IsExpert: true}}
	e := newTestExecutor(&stubBios{}, validator)

	out := e.Execute(context.Background(), toolCall("validate_persona_expertise",
		`{"persona_name": "C.V. Raman", "topic": "optics", "bio": "Indian physicist"}`))

	assert.Equal(t, "C.V. Raman", validator.lastName)
	assert.Equal(t, [3]string{"optics", "Indian physicist", "Global"}, validator.lastArgs,
		"omitted region defaults to Global")

	var score persona.ExpertiseScore
	require.NoError(t, json.Unmarshal([]byte(out), &score))
	assert.Equal(t, 88, score.Score)
	assert.True(t, score.IsExpert)
}

func TestExecuteValidateExpertiseDisabled(t *testing.T) {
	e := NewExecutor(knowledge.Default(), &stubBios{}, nil)

	out := e.Execute(context.Background(), toolCall("validate_persona_expertise",
		`{"persona_name": "C.V. Raman", "topic": "optics"}`))

	var score persona.ExpertiseScore
	require.NoError(t, json.Unmarshal([]byte(out), &score))
	assert.Equal(t, 60, score.Score)
	assert.Equal(t, "Validation disabled", score.Reasoning)
	assert.True(t, score.IsExpert)
}

func TestExecuteCheckRegionGlobal(t *testing.T) {
	e := newTestExecutor(&stubBios{}, &stubValidator{})

	out := e.Execute(context.Background(), toolCall("check_region_match", `{"persona_name": "Anyone At All", "region": "Global"}`))

	var match knowledge.RegionMatch
	require.NoError(t, json.Unmarshal([]byte(out), &match))
	assert.True(t, match.IsFromRegion)
	assert.Zero(t, match.RegionalBonus)
}

func TestExecuteCheckRegionConcrete(t *testing.T) {
	e := newTestExecutor(&stubBios{}, &stubValidator{})

	out := e.Execute(context.Background(), toolCall("check_region_match", `{"persona_name": "C.V. Raman", "region": "India"}`))
	var match knowledge.RegionMatch
	require.NoError(t, json.Unmarshal([]byte(out), &match))
	assert.True(t, match.IsFromRegion)
	assert.Equal(t, 20, match.RegionalBonus)

	out = e.Execute(context.Background(), toolCall("check_region_match", `{"persona_name": "Richard Feynman", "region": "India"}`))
	require.NoError(t, json.Unmarshal([]byte(out), &match))
	assert.False(t, match.IsFromRegion)
}

func TestExecuteUnknownTool(t *testing.T) {
	e := newTestExecutor(&stubBios{}, &stubValidator{})

	out := e.Execute(context.Background(), toolCall("bogus", `{}`))

	assert.JSONEq(t, `{"error": "Unknown tool: bogus"}`, out)
}

func TestExecuteBadArguments(t *testing.T) {
	e := newTestExecutor(&stubBios{}, &stubValidator{})

	out := e.Execute(context.Background(), toolCall("search_expert_database", `{not json`))

	var failure struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &failure))
	assert.Contains(t, failure.Error, "invalid arguments for search_expert_database")
}
