package keyvalstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviriel/tsundoku/internal/testutil"
)

func newTestKV(t *testing.T) *KeyValStore {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	kv, err := NewKeyValStore(StoreConfig{
		Paths:  []string{t.TempDir()},
		Logger: log,
	})
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestKeyValStore_PutGetDelete(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	value := []byte(`{"chapterId":"ch1","content":"[]","lastModified":"2026-01-01T00:00:00Z"}`)
	require.NoError(t, kv.Put(ctx, "chapter_content", "ch1", value))

	got, found, err := kv.Get(ctx, "chapter_content", "ch1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, value, got, "value must survive the compression round trip")

	_, found, err = kv.Get(ctx, "chapter_content", "missing")
	require.NoError(t, err)
	assert.False(t, found, "missing key is absence, not an error")

	require.NoError(t, kv.Delete(ctx, "chapter_content", "ch1"))
	_, found, err = kv.Get(ctx, "chapter_content", "ch1")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is fine.
	require.NoError(t, kv.Delete(ctx, "chapter_content", "ch1"))
}

func TestKeyValStore_CollectionsAreIsolated(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "alpha", "k", []byte("in alpha")))
	require.NoError(t, kv.Put(ctx, "beta", "k", []byte("in beta")))

	got, found, err := kv.Get(ctx, "alpha", "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("in alpha"), got)

	require.NoError(t, kv.Clear(ctx, "alpha"))
	_, found, err = kv.Get(ctx, "alpha", "k")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = kv.Get(ctx, "beta", "k")
	require.NoError(t, err)
	assert.True(t, found, "clearing one collection must not touch another")
}

func TestKeyValStore_BatchRead(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("ch%d", i)
		require.NoError(t, kv.Put(ctx, "chapter_content", key, []byte("content of "+key)))
	}

	found, err := kv.BatchRead(ctx, "chapter_content", []string{"ch0", "ch3", "nope"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, []byte("content of ch0"), found["ch0"])
	assert.Equal(t, []byte("content of ch3"), found["ch3"])
	_, ok := found["nope"]
	assert.False(t, ok)
}

func TestKeyValStore_Keys(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "chapter_content", "ch1", []byte("a")))
	require.NoError(t, kv.Put(ctx, "chapter_content", "ch2", []byte("b")))
	require.NoError(t, kv.Put(ctx, "other", "ch3", []byte("c")))

	keys, err := kv.Keys(ctx, "chapter_content")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ch1", "ch2"}, keys)
}

func TestKeyValStore_Stats(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "chapter_content", "ch1", []byte("a")))
	_, _, err := kv.Get(ctx, "chapter_content", "ch1")
	require.NoError(t, err)

	stats := kv.Stats()
	assert.Equal(t, uint64(1), stats.Writes)
	assert.Equal(t, uint64(1), stats.Reads)
}

func TestKeyValStore_CanceledContext(t *testing.T) {
	kv := newTestKV(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := kv.Put(ctx, "chapter_content", "ch1", []byte("a"))
	assert.Error(t, err)
	_, _, err = kv.Get(ctx, "chapter_content", "ch1")
	assert.Error(t, err)
}

func TestKeyValStore_ManyRecords(t *testing.T) {
	testutil.RequireLong(t)

	kv := newTestKV(t)
	ctx := context.Background()

	const n = 10000
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("ch%d", i)
		require.NoError(t, kv.Put(ctx, "chapter_content", key, []byte("chapter body "+key)))
	}

	keys, err := kv.Keys(ctx, "chapter_content")
	require.NoError(t, err)
	assert.Len(t, keys, n)

	require.NoError(t, kv.Clean())
}

func TestCompressRecordRoundTrip(t *testing.T) {
	original := []byte(`{"chapterId":"ch1","content":"[{\"id\":\"p1\"}]"}`)

	compressed, err := compressRecord(original)
	require.NoError(t, err)

	decoded, err := decompressRecord(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}
