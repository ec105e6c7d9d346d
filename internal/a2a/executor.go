// Package a2a exposes persona discovery to other agents over the A2A
// protocol, using the official a2a-go SDK: agent card discovery at the
// well-known path, JSON-RPC 2.0 transport, streaming status updates while
// a search runs, and artifacts carrying the ranked personas.
package a2a

import (
	"context"
	"encoding/gob"
	"fmt"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/a2aproject/a2a-go/a2asrv/eventqueue"

	"github.com/curiolabs/curio/internal/agent"
	"github.com/curiolabs/curio/internal/data"
	"github.com/curiolabs/curio/internal/knowledge"
	"github.com/curiolabs/curio/internal/llm"
	"github.com/curiolabs/curio/internal/logging"
	"github.com/curiolabs/curio/internal/persona"
)

// validationSkillID selects the expertise-validation path via message
// metadata ("skill" key). Anything else runs discovery.
const validationSkillID = "expertise-validation"

func init() {
	// Artifact payloads are generic maps and slices; register them so the
	// SDK can serialize task state.
	gob.Register(map[string]interface{}{})
	gob.Register([]interface{}{})
	gob.Register([]map[string]interface{}{})
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register([]map[string]any{})
}

// Deps are the collaborators the executor needs. Store is optional and
// only feeds analytics.
type Deps struct {
	Provider  llm.Provider
	Catalog   *knowledge.Catalog
	Bios      agent.BioFetcher
	Validator agent.ExpertiseValidator
	Store     *data.Store
}

// Executor adapts persona discovery to the a2asrv.AgentExecutor
// interface. The message text is the topic; optional metadata keys are
// "region", "skill", and for validation "persona" and "bio".
type Executor struct {
	deps Deps
	log  *logging.Logger
}

// NewExecutor creates an A2A executor over the discovery stack.
func NewExecutor(deps Deps) *Executor {
	return &Executor{
		deps: deps,
		log:  logging.Global().WithComponent("a2a"),
	}
}

// Execute implements a2asrv.AgentExecutor. It reports the working state,
// runs the requested skill, writes its artifact, and completes the task.
func (e *Executor) Execute(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	e.log.Info("execute: task %s", reqCtx.TaskID)

	working := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateWorking, nil)
	if err := queue.Write(ctx, working); err != nil {
		return fmt.Errorf("write working state: %w", err)
	}

	topic := extractText(reqCtx.Message)
	if topic == "" {
		return e.fail(ctx, reqCtx, queue, "empty request: send the topic to search as message text")
	}

	meta := messageMetadata(reqCtx.Message)
	if meta["skill"] == validationSkillID {
		return e.executeValidation(ctx, reqCtx, queue, topic, meta)
	}
	return e.executeDiscovery(ctx, reqCtx, queue, topic, meta["region"])
}

// Cancel implements a2asrv.AgentExecutor.
func (e *Executor) Cancel(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	e.log.Info("cancel: task %s", reqCtx.TaskID)

	canceled := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateCanceled, nil)
	canceled.Final = true
	return queue.Write(ctx, canceled)
}

// executeDiscovery runs the agentic search, streaming each reasoning step
// as a working status update.
func (e *Executor) executeDiscovery(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue, topic, region string) error {
	ag := agent.New(e.deps.Provider, e.deps.Catalog, e.deps.Bios, e.deps.Validator, &agent.Config{
		OnStep: func(step *agent.StepEvent) {
			if step.Message == "" {
				return
			}
			update := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateWorking,
				a2a.NewMessage(a2a.MessageRoleAgent, a2a.TextPart{Text: step.Message}))
			if err := queue.Write(ctx, update); err != nil {
				e.log.Warn("write step update: %v", err)
			}
		},
	})

	result := ag.Search(ctx, topic, region)
	if result.Status != agent.StatusSuccess {
		return e.fail(ctx, reqCtx, queue, "discovery failed: "+result.Error)
	}
	e.logSearch(ctx, result)

	artifact := a2a.NewArtifactEvent(reqCtx, a2a.DataPart{Data: discoveryPayload(result)})
	artifact.Artifact.Name = "discovery"
	artifact.Artifact.Description = "Ranked expert personas with the agent's reasoning trace"
	if err := queue.Write(ctx, artifact); err != nil {
		e.log.Warn("write discovery artifact: %v", err)
	}

	summary := fmt.Sprintf("Found %d experts for %q in %s: %s",
		len(result.Personas), result.Topic, result.Region, personaNames(result.Personas))
	return e.complete(ctx, reqCtx, queue, summary, map[string]any{
		"iterations": result.Iterations,
		"steps":      len(result.Steps),
	})
}

// executeValidation scores one persona's expertise for the topic.
func (e *Executor) executeValidation(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue, topic string, meta map[string]string) error {
	name := meta["persona"]
	if name == "" {
		return e.fail(ctx, reqCtx, queue, "validation needs a \"persona\" metadata key")
	}
	if e.deps.Validator == nil {
		return e.fail(ctx, reqCtx, queue, "expertise validation is not enabled on this agent")
	}

	score := e.deps.Validator.Validate(ctx, name, topic, meta["bio"], meta["region"])

	artifact := a2a.NewArtifactEvent(reqCtx, a2a.DataPart{Data: map[string]any{
		"persona":   name,
		"topic":     topic,
		"region":    meta["region"],
		"score":     score.Score,
		"is_expert": score.IsExpert,
		"reasoning": score.Reasoning,
	}})
	artifact.Artifact.Name = "expertise-score"
	artifact.Artifact.Description = "Expertise score for one persona on one topic"
	if err := queue.Write(ctx, artifact); err != nil {
		e.log.Warn("write score artifact: %v", err)
	}

	summary := fmt.Sprintf("%s scores %d/100 for %q", name, score.Score, topic)
	return e.complete(ctx, reqCtx, queue, summary, nil)
}

// fail closes the task with a failed status carrying the reason.
func (e *Executor) fail(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue, reason string) error {
	e.log.Warn("task %s failed: %s", reqCtx.TaskID, reason)

	msg := a2a.NewMessage(a2a.MessageRoleAgent, a2a.TextPart{Text: reason})
	failed := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateFailed, msg)
	failed.Final = true
	return queue.Write(ctx, failed)
}

// complete closes the task with a summary message and optional metadata.
func (e *Executor) complete(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue, summary string, meta map[string]any) error {
	parts := []a2a.Part{a2a.TextPart{Text: summary}}
	if len(meta) > 0 {
		parts = append(parts, a2a.DataPart{Data: meta})
	}

	completed := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateCompleted,
		a2a.NewMessage(a2a.MessageRoleAgent, parts...))
	completed.Final = true
	if err := queue.Write(ctx, completed); err != nil {
		return fmt.Errorf("write completed state: %w", err)
	}

	e.log.Info("execute: completed task %s", reqCtx.TaskID)
	return nil
}

// logSearch records a search_performed analytics event when a store is
// wired.
func (e *Executor) logSearch(ctx context.Context, result *agent.SearchResult) {
	if e.deps.Store == nil {
		return
	}
	if err := e.deps.Store.LogEvent(ctx, "search_performed", map[string]any{
		"topic":  result.Topic,
		"region": result.Region,
		"status": result.Status,
		"via":    "a2a",
	}); err != nil {
		e.log.Warn("search analytics failed: %v", err)
	}
}

// extractText joins the text parts of a message.
func extractText(msg *a2a.Message) string {
	if msg == nil {
		return ""
	}
	var parts []string
	for _, part := range msg.Parts {
		switch p := part.(type) {
		case a2a.TextPart:
			parts = append(parts, p.Text)
		case *a2a.TextPart:
			parts = append(parts, p.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// messageMetadata flattens a message's string-valued metadata.
func messageMetadata(msg *a2a.Message) map[string]string {
	meta := make(map[string]string)
	if msg == nil {
		return meta
	}
	for k, v := range msg.Metadata {
		if s, ok := v.(string); ok {
			meta[k] = s
		}
	}
	return meta
}

// discoveryPayload converts a search result into the artifact's generic
// map shape.
func discoveryPayload(result *agent.SearchResult) map[string]any {
	personas := make([]map[string]any, 0, len(result.Personas))
	for _, p := range result.Personas {
		personas = append(personas, map[string]any{
			"name":        p.Name,
			"description": p.Description,
			"region":      p.Region,
			"category":    p.Category,
			"image_url":   p.ImageURL,
		})
	}

	steps := make([]map[string]any, 0, len(result.Steps))
	for _, s := range result.Steps {
		steps = append(steps, map[string]any{
			"step":   s.Step,
			"tool":   s.Tool,
			"input":  s.Input,
			"output": s.Output,
		})
	}

	return map[string]any{
		"topic":      result.Topic,
		"region":     result.Region,
		"personas":   personas,
		"steps":      steps,
		"iterations": result.Iterations,
	}
}

func personaNames(personas []persona.Persona) string {
	names := make([]string, 0, len(personas))
	for _, p := range personas {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}
