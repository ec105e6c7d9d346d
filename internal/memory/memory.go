// Package memory stores conversation snippets and learning insights in
// SQLite and recalls them by embedding similarity, so tutoring sessions can
// build on what a learner already covered.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/curiolabs/curio/internal/llm"
)

// Snippet is one stored conversation excerpt.
type Snippet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SessionID int64     `json:"session_id,omitempty"`
	Topic     string    `json:"topic"`
	Persona   string    `json:"persona"`
	Content   string    `json:"content"`
	Score     float64   `json:"score,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Insight is an observation about how a user learns, such as a strength,
// weakness, or style preference.
type Insight struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Type      string            `json:"type"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Profile summarizes a user's learning patterns.
type Profile struct {
	UserID        string    `json:"user_id"`
	Insights      []Insight `json:"learning_insights"`
	TotalInsights int       `json:"total_insights"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// Store manages conversation memory on an existing database handle. It
// creates and owns its tables rather than sharing the main schema.
type Store struct {
	db         *sql.DB
	embedder   llm.Embedder
	embedModel string
}

// NewStore creates the memory store, creating its tables if needed.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	log.Info().Msg("conversation memory store initialized")
	return s, nil
}

// SetEmbedder enables semantic recall. Without one, Recall scores by
// keyword overlap instead.
func (s *Store) SetEmbedder(e llm.Embedder, model string) {
	s.embedder = e
	s.embedModel = model
	if e != nil {
		log.Info().Str("model", model).Msg("conversation memory: embedder configured")
	}
}

// migrate creates the required database tables.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS memory_snippets (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			session_id INTEGER,
			topic TEXT,
			persona TEXT,
			content TEXT NOT NULL,
			embedding BLOB,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_snippets_user
		ON memory_snippets(user_id, created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS learning_insights (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			insight_type TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata_json TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_insights_user
		ON learning_insights(user_id, created_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Debug().Msg("conversation memory migrations applied")
	return nil
}

// SnippetParams describes a conversation excerpt to remember.
type SnippetParams struct {
	UserID    string
	SessionID int64
	Topic     string
	Persona   string
	Content   string
}

// StoreSnippet saves a conversation excerpt, embedding it for semantic
// recall when an embedder is configured. An embedding failure is not fatal:
// the snippet is stored without a vector and recalled by keyword overlap.
func (s *Store) StoreSnippet(ctx context.Context, p SnippetParams) error {
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("empty snippet content")
	}

	var vector []byte
	if s.embedder != nil {
		embedding, err := s.embedder.Embed(ctx, s.embedModel, p.Content)
		if err != nil {
			log.Warn().Err(err).Str("topic", p.Topic).Msg("embedding failed, storing snippet without vector")
		} else {
			vector = Float32SliceToBytes(embedding)
		}
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_snippets (id, user_id, session_id, topic, persona, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), p.UserID, p.SessionID, p.Topic, p.Persona, p.Content, vector, time.Now()); err != nil {
		return fmt.Errorf("store snippet: %w", err)
	}

	log.Debug().
		Str("user_id", p.UserID).
		Str("topic", p.Topic).
		Bool("embedded", vector != nil).
		Msg("conversation snippet stored")
	return nil
}

// Recall returns the user's most relevant past snippets for a query.
// Snippets with vectors rank by cosine similarity against the embedded
// query; snippets without vectors (or every snippet, when no embedder is
// configured) score by keyword overlap.
func (s *Store) Recall(ctx context.Context, userID, query string, limit int) ([]Snippet, error) {
	if limit <= 0 {
		limit = 3
	}

	snippets, vectors, err := s.userSnippets(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(snippets) == 0 {
		return nil, nil
	}

	var queryVec []float32
	if s.embedder != nil {
		queryVec, err = s.embedder.Embed(ctx, s.embedModel, query)
		if err != nil {
			log.Warn().Err(err).Msg("query embedding failed, falling back to keyword overlap")
			queryVec = nil
		}
	}

	scored := make([]ScoredItem[Snippet], len(snippets))
	for i, sn := range snippets {
		var score float64
		if queryVec != nil && vectors[i] != nil {
			score = CosineSimilarity(queryVec, vectors[i])
		} else {
			score = keywordOverlap(query, sn.Topic+" "+sn.Content)
		}
		sn.Score = score
		scored[i] = ScoredItem[Snippet]{Item: sn, Score: score}
	}

	top := TopK(scored, limit)
	result := make([]Snippet, len(top))
	for i, item := range top {
		result[i] = item.Item
	}

	log.Debug().
		Str("user_id", userID).
		Int("candidates", len(snippets)).
		Int("recalled", len(result)).
		Msg("memory recall complete")
	return result, nil
}

// userSnippets loads all of a user's snippets with their stored vectors.
func (s *Store) userSnippets(ctx context.Context, userID string) ([]Snippet, [][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, session_id, topic, persona, content, embedding, created_at
		FROM memory_snippets WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("query snippets: %w", err)
	}
	defer rows.Close()

	var snippets []Snippet
	var vectors [][]float32
	for rows.Next() {
		var sn Snippet
		var sessionID sql.NullInt64
		var topic, persona sql.NullString
		var blob []byte
		if err := rows.Scan(&sn.ID, &sn.UserID, &sessionID, &topic, &persona,
			&sn.Content, &blob, &sn.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan snippet: %w", err)
		}
		sn.SessionID = sessionID.Int64
		sn.Topic = topic.String
		sn.Persona = persona.String
		snippets = append(snippets, sn)
		vectors = append(vectors, BytesToFloat32Slice(blob))
	}
	return snippets, vectors, rows.Err()
}

// ContextBlock renders the user's relevant past learning as a system prompt
// section. Returns "" when there is nothing worth recalling, so callers can
// always append it.
func (s *Store) ContextBlock(ctx context.Context, userID, topic string) string {
	past, err := s.Recall(ctx, userID, topic, 2)
	if err != nil {
		log.Warn().Err(err).Msg("memory recall failed, continuing without context")
		return ""
	}
	if len(past) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nRELEVANT PAST LEARNING:\n")
	for i, sn := range past {
		fmt.Fprintf(&b, "%d. Previously learned about '%s' with %s\n", i+1, sn.Topic, sn.Persona)
		fmt.Fprintf(&b, "   Context: %s...\n", previewText(sn.Content, 150))
	}
	b.WriteString("\nUse this context to build upon their previous knowledge!\n")
	return b.String()
}

// InsightParams describes an observation to record about a user's learning.
type InsightParams struct {
	UserID   string
	Type     string // e.g. "strength", "weakness", "preference"
	Content  string
	Metadata map[string]string
}

// StoreInsight records a learning pattern observation.
func (s *Store) StoreInsight(ctx context.Context, p InsightParams) error {
	var metadata any
	if len(p.Metadata) > 0 {
		encoded, err := json.Marshal(p.Metadata)
		if err != nil {
			return fmt.Errorf("marshal insight metadata: %w", err)
		}
		metadata = string(encoded)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO learning_insights (id, user_id, insight_type, content, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), p.UserID, p.Type, p.Content, metadata, time.Now()); err != nil {
		return fmt.Errorf("store insight: %w", err)
	}

	log.Debug().
		Str("user_id", p.UserID).
		Str("type", p.Type).
		Msg("learning insight stored")
	return nil
}

// Insights returns a user's recorded learning observations, newest first.
func (s *Store) Insights(ctx context.Context, userID string, limit int) ([]Insight, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, insight_type, content, metadata_json, created_at
		FROM learning_insights WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	var insights []Insight
	for rows.Next() {
		var in Insight
		var metadata sql.NullString
		if err := rows.Scan(&in.ID, &in.UserID, &in.Type, &in.Content, &metadata, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &in.Metadata); err != nil {
				log.Warn().Err(err).Msg("failed to unmarshal insight metadata")
			}
		}
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

// Profile builds a learning profile from the user's stored insights.
func (s *Store) Profile(ctx context.Context, userID string) (*Profile, error) {
	insights, err := s.Insights(ctx, userID, 10)
	if err != nil {
		return nil, err
	}
	return &Profile{
		UserID:        userID,
		Insights:      insights,
		TotalInsights: len(insights),
		GeneratedAt:   time.Now(),
	}, nil
}

// Clear removes all stored memory for a user.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM memory_snippets WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear snippets: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM learning_insights WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear insights: %w", err)
	}

	log.Info().Str("user_id", userID).Msg("user memory cleared")
	return nil
}

// previewText flattens and truncates snippet text for prompt injection.
func previewText(text string, max int) string {
	flat := strings.ReplaceAll(text, "\n", " ")
	runes := []rune(flat)
	if len(runes) <= max {
		return flat
	}
	return string(runes[:max])
}
