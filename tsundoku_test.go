package tsundoku

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviriel/tsundoku/pkg/contentstore"
	"github.com/aviriel/tsundoku/pkg/types"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	lib, err := New(Config{
		Paths:  []string{t.TempDir()},
		Logger: log,
	})
	require.NoError(t, err)
	require.NoError(t, lib.Start(context.Background()))
	t.Cleanup(func() { lib.Close(context.Background()) })
	return lib
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestLibrary_NotStarted(t *testing.T) {
	lib, err := New(Config{Paths: []string{t.TempDir()}})
	require.NoError(t, err)

	_, err = lib.Content()
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = lib.Traversal()
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestLibrary_SaveLoadTraverse(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	store, err := lib.Content()
	require.NoError(t, err)

	content := []types.Paragraph{
		{ID: "p1", Text: "the first line"},
		{ID: "p2", Text: "  "},
	}
	didWrite, err := store.SaveChapterContent(ctx, "ch1", content, contentstore.SaveOptions{})
	require.NoError(t, err)
	assert.True(t, didWrite)

	_, err = store.SaveChapterContent(ctx, "ch2", []types.Paragraph{{ID: "p3", Text: "the next chapter"}}, contentstore.SaveOptions{})
	require.NoError(t, err)

	loaded, found := store.LoadChapterContent(ctx, "ch1")
	require.True(t, found)
	assert.Equal(t, content, loaded)

	nav, err := lib.Traversal()
	require.NoError(t, err)

	novel := types.Novel{Volumes: []*types.Volume{{
		Chapters: []*types.Chapter{{ID: "ch1"}, {ID: "ch2"}},
	}}}
	next := nav.NextParagraphs(ctx, &novel, "p1", 1)
	require.Len(t, next, 1)
	assert.Equal(t, "p3", next[0].ID, "blank paragraph skipped, chapter boundary crossed")

	stats, err := lib.StoreStats()
	require.NoError(t, err)
	assert.NotZero(t, stats.Writes)
}

func TestLibrary_ContentSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	lib, err := New(Config{Paths: []string{dir}, Logger: log})
	require.NoError(t, err)
	require.NoError(t, lib.Start(ctx))

	store, err := lib.Content()
	require.NoError(t, err)
	content := []types.Paragraph{{ID: "p1", Text: "durable"}}
	_, err = store.SaveChapterContent(ctx, "ch1", content, contentstore.SaveOptions{})
	require.NoError(t, err)
	require.NoError(t, lib.Close(ctx))

	reopened, err := New(Config{Paths: []string{dir}, Logger: log})
	require.NoError(t, err)
	require.NoError(t, reopened.Start(ctx))
	defer reopened.Close(ctx)

	store, err = reopened.Content()
	require.NoError(t, err)
	loaded, found := store.LoadChapterContent(ctx, "ch1")
	require.True(t, found)
	assert.Equal(t, content, loaded)
}

func TestLibrary_CloseIsIdempotent(t *testing.T) {
	lib := newTestLibrary(t)

	require.NoError(t, lib.Close(context.Background()))
	require.NoError(t, lib.Close(context.Background()))

	_, err := lib.Content()
	assert.ErrorIs(t, err, ErrClosed)
}
