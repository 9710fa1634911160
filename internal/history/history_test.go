package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOneEntryPerTask(t *testing.T) {
	repo := NewMemoryRepository()
	repo.RecordCompletion("p1", []string{"food", "drinks"})
	repo.RecordCompletion("p1", []string{"food", "drinks"})
	repo.RecordCompletion("p1", []string{"food"})

	doc, err := NewBuilder(repo).Build(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, doc.TaskCount)
	assert.Equal(t, []string{"food", "drinks", "food", "drinks", "food"}, doc.Categories)
}

func TestBuildDedupsWithinOneTask(t *testing.T) {
	// A multi-category task lists each distinct category once, so it
	// cannot inflate a term's task count.
	repo := NewMemoryRepository()
	repo.RecordCompletion("p1", []string{"food", "food", "errand"})

	doc, err := NewBuilder(repo).Build(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.TaskCount)
	assert.Equal(t, []string{"food", "errand"}, doc.Categories)
}

func TestBuildDedupsCasingVariantsWithinOneTask(t *testing.T) {
	// Dedup runs on the normalized form: casing and whitespace variants
	// of one category are still a single occurrence per task.
	repo := NewMemoryRepository()
	repo.RecordCompletion("p1", []string{"Food", "food ", "errand"})

	doc, err := NewBuilder(repo).Build(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.TaskCount)
	assert.Equal(t, []string{"food", "errand"}, doc.Categories)
}

func TestBuildNoHistory(t *testing.T) {
	repo := NewMemoryRepository()
	doc, err := NewBuilder(repo).Build(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, doc.Empty())
}

func TestBuildDataUnavailable(t *testing.T) {
	repo := NewMemoryRepository()
	repo.SetUnavailable("p1", true)

	doc, err := NewBuilder(repo).Build(context.Background(), "p1")
	require.ErrorIs(t, err, ErrDataUnavailable)
	// The document is still usable as an empty history.
	assert.True(t, doc.Empty())
	assert.Equal(t, "p1", doc.PerformerID)
}
