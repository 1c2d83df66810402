package store

import (
	"context"
	"os"
	"testing"
	"time"

	"zeropoint/api/internal/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	text := analysis.Request{Text: "∫ sin x dx"}
	img := analysis.Request{Text: "∫ sin x dx", Image: &analysis.Image{Data: []byte{1, 2, 3}}}

	assert.Equal(t, Key("gemini", "m", text), Key("gemini", "m", text))
	assert.NotEqual(t, Key("gemini", "m", text), Key("gpt", "m", text))
	assert.NotEqual(t, Key("gemini", "m", text), Key("gemini", "m2", text))
	assert.NotEqual(t, Key("gemini", "m", text), Key("gemini", "m", img))
	assert.Len(t, Key("", "", analysis.Request{}), 64)
}

// Needs a throwaway Postgres: ZEROPOINT_TEST_DATABASE_URL=postgres://...
func TestAnalysisRepo_Postgres(t *testing.T) {
	dsn := os.Getenv("ZEROPOINT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ZEROPOINT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	repo := NewAnalysisRepo(db)
	require.NoError(t, repo.EnsureSchema(ctx))

	key := Key("test", "model", analysis.Request{Text: t.Name() + time.Now().String()})
	_, err = repo.Find(ctx, key, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	res := &analysis.Result{
		OriginalContent: "lim x→0 sin x / x",
		DifficultyLevel: analysis.Intermediate,
		KnowledgeMap:    analysis.KnowledgeMap{TargetConcept: "Limits"},
	}
	require.NoError(t, repo.Upsert(ctx, key, "test", "model", res))

	got, err := repo.Find(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "Limits", got.KnowledgeMap.TargetConcept)

	res.KnowledgeMap.TargetConcept = "Standard limits"
	require.NoError(t, repo.Upsert(ctx, key, "test", "model", res))
	got, err = repo.Find(ctx, key, 0)
	require.NoError(t, err)
	assert.Equal(t, "Standard limits", got.KnowledgeMap.TargetConcept)

	_, err = db.ExecContext(ctx, `update analyses set created_at = now() - interval '2 days' where key = $1`, key)
	require.NoError(t, err)
	_, err = repo.Find(ctx, key, 24*time.Hour)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := repo.PurgeOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}

func TestPurgeOlderThan_RejectsNonPositive(t *testing.T) {
	_, err := (&AnalysisRepo{}).PurgeOlderThan(context.Background(), 0)
	assert.Error(t, err)
}
