// Package tutor runs persona-led learning sessions. It assembles the
// system prompt (persona character, biography grounding, past-learning
// context), drives the conversation loop against an LLM provider, and
// persists every turn so sessions survive restarts.
package tutor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/curiolabs/curio/internal/data"
	"github.com/curiolabs/curio/internal/intent"
	"github.com/curiolabs/curio/internal/llm"
	"github.com/curiolabs/curio/internal/logging"
	"github.com/curiolabs/curio/internal/memory"
	"github.com/curiolabs/curio/internal/persona"
	"github.com/curiolabs/curio/internal/wiki"
)

// kickoffPrompt opens every new session on the learner's behalf.
const kickoffPrompt = "Start teaching me this topic like we are having a coffee chat. Use simple analogies and end with a curiosity question."

// defaultMaxHistory bounds the rolling conversation window sent to the model.
const defaultMaxHistory = 20

// snippetEvery is how many exchanges pass between conversation-memory
// snapshots.
const snippetEvery = 3

// snippetReplyLimit caps the assistant text captured in a memory snippet.
const snippetReplyLimit = 200

// BioFetcher supplies biographical context for personas.
type BioFetcher interface {
	Fetch(ctx context.Context, name string) (*wiki.Bio, error)
}

// Tutor creates and resumes learning sessions.
type Tutor struct {
	provider   llm.Provider
	store      *data.Store
	memory     *memory.Store
	intents    *intent.Parser
	bios       BioFetcher
	maxHistory int
	log        *logging.Logger
}

// Config carries the tutor's optional collaborators.
type Config struct {
	// Memory enables cross-session recall. Nil disables it.
	Memory *memory.Store
	// Intent enables intent analytics and retrieval-query rewriting.
	Intent *intent.Parser
	// Bios enriches personas with fetched biographies.
	Bios BioFetcher
	// MaxHistory overrides the rolling window size (default 20).
	MaxHistory int
}

// New creates a tutor backed by provider, persisting to store.
func New(provider llm.Provider, store *data.Store, cfg *Config) *Tutor {
	if cfg == nil {
		cfg = &Config{}
	}
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &Tutor{
		provider:   provider,
		store:      store,
		memory:     cfg.Memory,
		intents:    cfg.Intent,
		bios:       cfg.Bios,
		maxHistory: maxHistory,
		log:        logging.Global().WithComponent("tutor"),
	}
}

// SessionParams describes a new learning session.
type SessionParams struct {
	UserID   string
	Username string
	Topic    string
	Persona  persona.Persona
	Region   string
	Level    persona.Level
}

// Session is one live tutoring conversation. It is not safe for
// concurrent use.
type Session struct {
	ID       int64
	UserID   string
	Topic    string
	Persona  persona.Persona
	Greeting string

	tutor     *Tutor
	system    string
	history   []llm.Message
	exchanges int
}

// StartSession builds the persona prompt, opens the conversation with the
// model, and records the session. The returned session carries the tutor's
// greeting as its first assistant turn. Nothing is persisted when the
// model call fails.
func (t *Tutor) StartSession(ctx context.Context, p SessionParams) (*Session, error) {
	if p.Level == "" {
		p.Level = persona.LevelBeginner
	}

	pers := p.Persona
	t.enrich(ctx, &pers)

	system := pers.BuildSystemPrompt(persona.PromptOptions{
		Topic:    p.Topic,
		Level:    p.Level,
		Username: p.Username,
	})
	system += t.memoryContext(ctx, p.UserID, p.Topic)

	t.logIntent(ctx, p.UserID, p.Topic)

	resp, err := t.provider.Chat(ctx, &llm.ChatRequest{
		SystemPrompt: system,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: kickoffPrompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("open session with %s: %w", pers.Name, err)
	}
	greeting := resp.Content

	id, err := t.store.CreateSession(ctx, data.SessionParams{
		UserID:        p.UserID,
		Topic:         p.Topic,
		Persona:       pers.Name,
		Region:        p.Region,
		StudentLevel:  string(p.Level),
		IsCustomGuide: pers.Custom,
	})
	if err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}
	if err := t.store.AddMessage(ctx, id, llm.RoleAssistant, greeting); err != nil {
		t.log.Warn("persist greeting: %v", err)
	}
	if err := t.store.LogEvent(ctx, "session_started", map[string]any{
		"topic":     p.Topic,
		"persona":   pers.Name,
		"region":    p.Region,
		"is_custom": pers.Custom,
	}); err != nil {
		t.log.Warn("session analytics failed: %v", err)
	}

	t.log.Info("session %d started: %q with %s", id, p.Topic, pers.Name)
	return &Session{
		ID:       id,
		UserID:   p.UserID,
		Topic:    p.Topic,
		Persona:  pers,
		Greeting: greeting,
		tutor:    t,
		system:   system,
		history:  []llm.Message{{Role: llm.RoleAssistant, Content: greeting}},
	}, nil
}

// Resume rebuilds a live session from its stored transcript. The system
// prompt is reconstructed from the stored persona name, level, and topic,
// so a resumed session keeps the original teaching character.
func (t *Tutor) Resume(ctx context.Context, sessionID int64) (*Session, error) {
	details, err := t.store.SessionDetails(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	user, err := t.store.GetOrCreateUser(ctx, data.UserParams{UserID: details.UserID})
	if err != nil {
		return nil, err
	}

	pers := persona.Persona{
		Name:   details.Persona,
		Region: details.Region,
		Custom: details.IsCustomGuide,
	}
	t.enrich(ctx, &pers)

	system := pers.BuildSystemPrompt(persona.PromptOptions{
		Topic:    details.Topic,
		Level:    persona.Level(details.StudentLevel),
		Username: user.Username,
	})
	system += t.memoryContext(ctx, details.UserID, details.Topic)

	history := make([]llm.Message, 0, len(details.Messages))
	for _, m := range details.Messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	if len(history) > t.maxHistory {
		history = history[len(history)-t.maxHistory:]
	}

	t.log.Info("session %d resumed: %d prior messages", sessionID, len(details.Messages))
	return &Session{
		ID:        details.ID,
		UserID:    details.UserID,
		Topic:     details.Topic,
		Persona:   pers,
		tutor:     t,
		system:    system,
		history:   history,
		exchanges: len(details.Messages) / 2,
	}, nil
}

// FunFact asks the model for one lesser-known fact about a persona, drawn
// from their fetched biography. Returns "" when no biography or model
// answer is available; a fun fact is never worth failing over.
func (t *Tutor) FunFact(ctx context.Context, name string) string {
	if t.bios == nil {
		return ""
	}
	bio, err := t.bios.Fetch(ctx, name)
	if err != nil || !bio.Found || bio.Bio == "" {
		return ""
	}

	prompt := fmt.Sprintf(
		"From this biography of %s, extract ONE interesting, lesser-known fun fact.\n\nBio: %s\n\nReturn ONLY the fun fact in one sentence, starting with \"Did you know?\"",
		name, truncateRunes(bio.Bio, 1000))
	resp, err := t.provider.Chat(ctx, &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		t.log.Warn("fun fact failed for %s: %v", name, err)
		return ""
	}
	return strings.TrimSpace(resp.Content)
}

// enrich fills the persona's biography fields from the bio fetcher when
// the persona does not already carry one. Fetch failures are logged and
// skipped; a session without background beats no session.
func (t *Tutor) enrich(ctx context.Context, p *persona.Persona) {
	if t.bios == nil || p.Bio != "" {
		return
	}
	bio, err := t.bios.Fetch(ctx, p.Name)
	if err != nil {
		t.log.Warn("biography fetch failed for %s: %v", p.Name, err)
		return
	}
	if !bio.Found {
		return
	}
	p.Bio = bio.Bio
	if len(p.Facts) == 0 {
		p.Facts = bio.Facts
	}
	if p.ImageURL == "" {
		p.ImageURL = bio.ImageURL
	}
}

// memoryContext renders the past-learning prompt section for userID,
// rewriting the topic into a retrieval query when the intent parser is
// available.
func (t *Tutor) memoryContext(ctx context.Context, userID, topic string) string {
	if t.memory == nil {
		return ""
	}
	query := topic
	if t.intents != nil {
		query = t.intents.Rewrite(ctx, topic)
	}
	return t.memory.ContextBlock(ctx, userID, query)
}

// logIntent records the parsed learning intent as an analytics event.
func (t *Tutor) logIntent(ctx context.Context, userID, topic string) {
	if t.intents == nil {
		return
	}
	parsed := t.intents.Parse(ctx, topic)
	if err := t.store.LogEvent(ctx, "user_intent", map[string]any{
		"user_id":       userID,
		"goal":          parsed.Goal,
		"domain":        parsed.Domain,
		"user_stage":    parsed.UserStage,
		"decision_type": parsed.DecisionType,
	}); err != nil {
		t.log.Warn("intent analytics failed: %v", err)
	}
}

// Send delivers one learner message and returns the tutor's reply. Both
// turns are persisted. The user turn is stored before the model call, so
// a failed reply still leaves the question in the transcript.
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	t := s.tutor

	if err := t.store.AddMessage(ctx, s.ID, llm.RoleUser, text); err != nil {
		t.log.Warn("persist user message: %v", err)
	}
	s.history = append(s.history, llm.Message{Role: llm.RoleUser, Content: text})

	resp, err := t.provider.Chat(ctx, &llm.ChatRequest{
		SystemPrompt: s.system,
		Messages:     s.history,
	})
	if err != nil {
		return "", fmt.Errorf("tutor reply: %w", err)
	}
	reply := resp.Content

	s.history = append(s.history, llm.Message{Role: llm.RoleAssistant, Content: reply})
	if len(s.history) > t.maxHistory {
		s.history = s.history[len(s.history)-t.maxHistory:]
	}

	// The reply exists; cancellation at the request deadline must not
	// lose the transcript or the memory snippet.
	saveCtx, cancel := logging.DetachContextWithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := t.store.AddMessage(saveCtx, s.ID, llm.RoleAssistant, reply); err != nil {
		t.log.Warn("persist tutor reply: %v", err)
	}

	s.exchanges++
	if t.memory != nil && s.exchanges%snippetEvery == 0 {
		s.snapshot(saveCtx, text, reply)
	}
	return reply, nil
}

// snapshot stores the latest exchange as a conversation-memory snippet.
func (s *Session) snapshot(ctx context.Context, question, reply string) {
	t := s.tutor
	err := t.memory.StoreSnippet(ctx, memory.SnippetParams{
		UserID:    s.UserID,
		SessionID: s.ID,
		Topic:     s.Topic,
		Persona:   s.Persona.Name,
		Content:   fmt.Sprintf("User asked: %s\nAssistant: %s", question, truncateRunes(reply, snippetReplyLimit)),
	})
	if err != nil {
		t.log.Warn("memory snapshot failed: %v", err)
	}
}

// End closes the session and records the wrap-up analytics event. It
// runs on a detached context: ending records what already happened.
func (s *Session) End(ctx context.Context) error {
	t := s.tutor
	ctx, cancel := logging.DetachContextWithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := t.store.EndSession(ctx, s.ID); err != nil {
		return err
	}
	if err := t.store.LogEvent(ctx, "session_ended", map[string]any{
		"session_id": s.ID,
		"exchanges":  s.exchanges,
	}); err != nil {
		t.log.Warn("session analytics failed: %v", err)
	}
	t.log.Info("session %d ended after %d exchanges", s.ID, s.exchanges)
	return nil
}

// History returns a copy of the rolling conversation window.
func (s *Session) History() []llm.Message {
	out := make([]llm.Message, len(s.history))
	copy(out, s.history)
	return out
}

// truncateRunes shortens s to at most max runes.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
