package memory

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// The in-memory database lives and dies with its single connection.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(setupTestDB(t))
	require.NoError(t, err)
	return store
}

// stubEmbedder returns canned vectors per input text.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(ctx context.Context, model, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

func TestNewStoreIdempotent(t *testing.T) {
	db := setupTestDB(t)

	_, err := NewStore(db)
	require.NoError(t, err)

	_, err = NewStore(db)
	require.NoError(t, err)
}

func TestRecallRanksBySimilarity(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	pythonSnippet := "We walked through decorators and generators in detail."
	physicsSnippet := "Newton's laws of motion and universal gravitation."
	emb := &stubEmbedder{vectors: map[string][]float32{
		pythonSnippet:      {1, 0, 0},
		physicsSnippet:     {0, 1, 0},
		"python functions": {0.9, 0.1, 0},
	}}
	store.SetEmbedder(emb, "embed-001")

	require.NoError(t, store.StoreSnippet(ctx, SnippetParams{
		UserID: "u1", SessionID: 1, Topic: "python", Persona: "Guido van Rossum", Content: pythonSnippet,
	}))
	require.NoError(t, store.StoreSnippet(ctx, SnippetParams{
		UserID: "u1", SessionID: 2, Topic: "physics", Persona: "Isaac Newton", Content: physicsSnippet,
	}))

	got, err := store.Recall(ctx, "u1", "python functions", 3)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "python", got[0].Topic)
	assert.Equal(t, "Guido van Rossum", got[0].Persona)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestRecallKeywordFallback(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreSnippet(ctx, SnippetParams{
		UserID: "u1", Topic: "python decorators", Persona: "Guido van Rossum",
		Content: "Decorators wrap functions to extend behavior.",
	}))
	require.NoError(t, store.StoreSnippet(ctx, SnippetParams{
		UserID: "u1", Topic: "cooking", Persona: "Julia Child",
		Content: "Fresh pasta needs only flour and eggs.",
	}))

	got, err := store.Recall(ctx, "u1", "python decorators", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "python decorators", got[0].Topic)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}

func TestRecallScopedToUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreSnippet(ctx, SnippetParams{
		UserID: "u-a", Topic: "python", Persona: "Guido van Rossum", Content: "python lists and dicts",
	}))
	require.NoError(t, store.StoreSnippet(ctx, SnippetParams{
		UserID: "u-b", Topic: "python", Persona: "Guido van Rossum", Content: "python classes",
	}))

	got, err := store.Recall(ctx, "u-a", "python", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "u-a", got[0].UserID)
}

func TestRecallEmptyHistory(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.Recall(context.Background(), "nobody", "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoreSnippetSurvivesEmbedderFailure(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	store.SetEmbedder(&stubEmbedder{err: errors.New("embedding service down")}, "embed-001")

	err := store.StoreSnippet(ctx, SnippetParams{
		UserID: "u1", Topic: "python", Persona: "Guido van Rossum",
		Content: "generators yield values lazily",
	})
	require.NoError(t, err)

	// Stored without a vector.
	var withoutVector int
	store.db.QueryRow(
		"SELECT COUNT(*) FROM memory_snippets WHERE user_id = 'u1' AND embedding IS NULL").
		Scan(&withoutVector)
	assert.Equal(t, 1, withoutVector)

	// Recall degrades to keyword overlap when query embedding fails too.
	got, err := store.Recall(ctx, "u1", "generators", 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "python", got[0].Topic)
}

func TestStoreSnippetRejectsEmptyContent(t *testing.T) {
	store := setupTestStore(t)

	err := store.StoreSnippet(context.Background(), SnippetParams{UserID: "u1", Content: "  \n"})
	require.Error(t, err)
}

func TestContextBlock(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	longContent := "We covered list comprehensions\nand generator pipelines" +
		strings.Repeat(" etc", 40)
	require.NoError(t, store.StoreSnippet(ctx, SnippetParams{
		UserID: "u1", Topic: "python basics", Persona: "Guido van Rossum", Content: longContent,
	}))
	require.NoError(t, store.StoreSnippet(ctx, SnippetParams{
		UserID: "u1", Topic: "python tricks", Persona: "Peter Norvig", Content: "python idioms and pitfalls",
	}))
	require.NoError(t, store.StoreSnippet(ctx, SnippetParams{
		UserID: "u1", Topic: "cooking", Persona: "Julia Child", Content: "fresh pasta from scratch",
	}))

	block := store.ContextBlock(ctx, "u1", "python")

	assert.Contains(t, block, "RELEVANT PAST LEARNING:")
	assert.Contains(t, block, "with Guido van Rossum")
	assert.Contains(t, block, "with Peter Norvig")
	assert.NotContains(t, block, "cooking")

	// Only the two most relevant snippets are injected.
	assert.Equal(t, 2, strings.Count(block, "Previously learned about"))

	// Long content is flattened and truncated for the prompt.
	assert.Contains(t, block, "list comprehensions and generator pipelines")
	assert.NotContains(t, block, "comprehensions\nand")
	assert.Contains(t, block, "...")
}

func TestContextBlockEmptyWithoutHistory(t *testing.T) {
	store := setupTestStore(t)

	assert.Empty(t, store.ContextBlock(context.Background(), "nobody", "python"))
}

func TestInsightsRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreInsight(ctx, InsightParams{
		UserID: "u1", Type: "preference", Content: "prefers worked examples",
		Metadata: map[string]string{"topic": "calculus"},
	}))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, store.StoreInsight(ctx, InsightParams{
		UserID: "u1", Type: "strength", Content: "quick with symbolic manipulation",
	}))

	insights, err := store.Insights(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, insights, 2)

	// Newest first.
	assert.Equal(t, "strength", insights[0].Type)
	assert.Empty(t, insights[0].Metadata)
	assert.Equal(t, "preference", insights[1].Type)
	assert.Equal(t, "calculus", insights[1].Metadata["topic"])

	one, err := store.Insights(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
}

func TestProfile(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreInsight(ctx, InsightParams{
		UserID: "u1", Type: "weakness", Content: "skips fundamentals",
	}))
	require.NoError(t, store.StoreInsight(ctx, InsightParams{
		UserID: "u1", Type: "preference", Content: "learns by analogy",
	}))

	profile, err := store.Profile(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, "u1", profile.UserID)
	assert.Equal(t, 2, profile.TotalInsights)
	assert.Len(t, profile.Insights, 2)
	assert.False(t, profile.GeneratedAt.IsZero())
}

func TestClear(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, userID := range []string{"u1", "u2"} {
		require.NoError(t, store.StoreSnippet(ctx, SnippetParams{
			UserID: userID, Topic: "python", Persona: "Guido van Rossum", Content: "python basics",
		}))
		require.NoError(t, store.StoreInsight(ctx, InsightParams{
			UserID: userID, Type: "preference", Content: "likes short sessions",
		}))
	}

	require.NoError(t, store.Clear(ctx, "u1"))

	gone, err := store.Recall(ctx, "u1", "python", 5)
	require.NoError(t, err)
	assert.Empty(t, gone)

	goneInsights, err := store.Insights(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Empty(t, goneInsights)

	// The other user's memory survives.
	kept, err := store.Recall(ctx, "u2", "python", 5)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}
