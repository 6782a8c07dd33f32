// Package contentstore is the only path by which chapter paragraph
// content moves between memory and durable storage. It owns the cache
// coherence policy: every read and write keeps the bounded content cache
// in step with the backing store, reads degrade to "absent" on storage
// faults, and writes can be skipped when the content provably has not
// changed since it was last fetched or written.
package contentstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"

	"github.com/aviriel/tsundoku/pkg/contentcache"
	"github.com/aviriel/tsundoku/pkg/types"
)

// Collection is the backing-store collection all chapter records live in.
const Collection = "chapter_content"

// ErrPersistence marks write or delete failures of the backing store.
// Read failures never surface; they degrade to absent.
var ErrPersistence = errors.New("chapter content persistence failed")

// RecordStore is the durable keyed storage the content store runs on.
// A missing key is reported via found == false (Get) or omission from
// the result map (BatchRead); it is not an error. BatchRead resolves all
// keys in one read transaction and returns no partial results when that
// transaction fails.
type RecordStore interface {
	Get(ctx context.Context, collection, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, collection, key string, value []byte) error
	Delete(ctx context.Context, collection, key string) error
	Clear(ctx context.Context, collection string) error
	BatchRead(ctx context.Context, collection string, keys []string) (map[string][]byte, error)
}

// Options configures a Store.
type Options struct {
	// CacheCapacity bounds the in-memory cache; 0 means the default.
	CacheCapacity int
	Logger        *logrus.Logger
}

// Store is the chapter content store façade over a RecordStore and the
// content cache.
type Store struct {
	records RecordStore
	cache   *contentcache.Cache
	log     *logrus.Logger

	// fingerprints maps chapter id to the xxhash of the canonical JSON
	// of the content this store last fetched or durably wrote. Save uses
	// it for value comparison; a reference check would miss in-place
	// mutation of a previously loaded slice.
	fpMu         sync.Mutex
	fingerprints map[string]uint64
}

func New(records RecordStore, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	return &Store{
		records:      records,
		cache:        contentcache.New(opts.CacheCapacity),
		log:          opts.Logger,
		fingerprints: make(map[string]uint64),
	}
}

// Cache exposes the content cache, mainly for tests and diagnostics.
func (s *Store) Cache() *contentcache.Cache {
	return s.cache
}

func fingerprint(encoded string) uint64 {
	return xxhash.Sum64String(encoded)
}

func (s *Store) setFingerprint(chapterID string, fp uint64) {
	s.fpMu.Lock()
	s.fingerprints[chapterID] = fp
	s.fpMu.Unlock()
}

func (s *Store) dropFingerprint(chapterID string) {
	s.fpMu.Lock()
	delete(s.fingerprints, chapterID)
	s.fpMu.Unlock()
}

func (s *Store) lastFingerprint(chapterID string) (uint64, bool) {
	s.fpMu.Lock()
	fp, ok := s.fingerprints[chapterID]
	s.fpMu.Unlock()
	return fp, ok
}

// LoadChapterContent returns the paragraphs stored for a chapter, or
// found == false when no record exists. Results are cached either way, so
// repeated lookups of a missing chapter stay off the backing store. A
// storage or decode fault degrades to absent instead of failing the
// caller.
func (s *Store) LoadChapterContent(ctx context.Context, chapterID string) ([]types.Paragraph, bool) {
	if paragraphs, lookup := s.cache.Get(chapterID); lookup != contentcache.Miss {
		return paragraphs, lookup == contentcache.Hit
	}

	raw, found, err := s.records.Get(ctx, Collection, chapterID)
	if err != nil {
		s.log.WithField("chapterID", chapterID).Warnf("chapter content read failed, treating as absent: %v", err)
		s.cache.PutAbsent(chapterID)
		return nil, false
	}
	if !found {
		s.cache.PutAbsent(chapterID)
		return nil, false
	}

	paragraphs, fp, err := decodeRecord(raw)
	if err != nil {
		s.log.WithField("chapterID", chapterID).Warnf("chapter content malformed, treating as absent: %v", err)
		s.cache.PutAbsent(chapterID)
		return nil, false
	}

	s.setFingerprint(chapterID, fp)
	s.cache.Put(chapterID, paragraphs)
	return paragraphs, true
}

// SaveOptions tunes a save.
type SaveOptions struct {
	// SkipIfUnchanged suppresses the durable write when the paragraphs
	// match, by value, the content last fetched or written for this
	// chapter.
	SkipIfUnchanged bool
}

// SaveChapterContent writes the paragraphs for a chapter and returns
// whether a durable write actually happened. The cache is updated first
// in every case: in-memory state is the latest intent even when the
// durable write is skipped or fails.
func (s *Store) SaveChapterContent(ctx context.Context, chapterID string, paragraphs []types.Paragraph, opts SaveOptions) (bool, error) {
	encoded, err := types.EncodeParagraphs(paragraphs)
	if err != nil {
		return false, fmt.Errorf("%w: encoding chapter %s: %v", ErrPersistence, chapterID, err)
	}
	fp := fingerprint(encoded)

	s.cache.Put(chapterID, paragraphs)

	if opts.SkipIfUnchanged {
		if last, ok := s.lastFingerprint(chapterID); ok && last == fp {
			return false, nil
		}
	}

	rec := types.NewChapterRecord(chapterID, encoded)
	raw, err := types.MarshalRecord(rec)
	if err != nil {
		return false, fmt.Errorf("%w: encoding record for chapter %s: %v", ErrPersistence, chapterID, err)
	}

	if err := s.records.Put(ctx, Collection, chapterID, raw); err != nil {
		// Fingerprint deliberately not updated: a retried save must not
		// be skipped as unchanged when this write never became durable.
		return false, fmt.Errorf("%w: writing chapter %s: %v", ErrPersistence, chapterID, err)
	}

	s.setFingerprint(chapterID, fp)
	return true, nil
}

// DeleteChapterContent removes the durable record and the cache entry.
func (s *Store) DeleteChapterContent(ctx context.Context, chapterID string) error {
	if err := s.records.Delete(ctx, Collection, chapterID); err != nil {
		return fmt.Errorf("%w: deleting chapter %s: %v", ErrPersistence, chapterID, err)
	}
	s.cache.Invalidate(chapterID)
	s.dropFingerprint(chapterID)
	return nil
}

// BulkDeleteChapterContent deletes several chapters, stopping on the
// first backing-store failure.
func (s *Store) BulkDeleteChapterContent(ctx context.Context, chapterIDs []string) error {
	for _, chapterID := range chapterIDs {
		if err := s.DeleteChapterContent(ctx, chapterID); err != nil {
			return err
		}
	}
	return nil
}

// ClearAllChapterContent drops every chapter record and empties the cache.
func (s *Store) ClearAllChapterContent(ctx context.Context) error {
	if err := s.records.Clear(ctx, Collection); err != nil {
		return fmt.Errorf("%w: clearing chapter content: %v", ErrPersistence, err)
	}
	s.cache.InvalidateAll()
	s.fpMu.Lock()
	s.fingerprints = make(map[string]uint64)
	s.fpMu.Unlock()
	return nil
}

// HasChapterContent reports whether a record exists for the chapter.
// Errors count as absent, like the load path.
func (s *Store) HasChapterContent(ctx context.Context, chapterID string) bool {
	_, found := s.LoadChapterContent(ctx, chapterID)
	return found
}

// BatchEntry is one result of a batch load. Found == false is the absent
// state; Paragraphs is nil in that case.
type BatchEntry struct {
	Paragraphs []types.Paragraph
	Found      bool
}

// LoadChapterContentsBatch resolves many chapters with at most one
// backing-store transaction. Cached chapters (including cached absences)
// are served from memory; the rest are read in a single batch
// transaction and cached. If the batch transaction fails as a unit, the
// store falls back to one individual load per uncached chapter.
func (s *Store) LoadChapterContentsBatch(ctx context.Context, chapterIDs []string) map[string]BatchEntry {
	results := make(map[string]BatchEntry, len(chapterIDs))
	var uncached []string

	for _, chapterID := range chapterIDs {
		if _, seen := results[chapterID]; seen {
			continue
		}
		paragraphs, lookup := s.cache.Get(chapterID)
		switch lookup {
		case contentcache.Hit:
			results[chapterID] = BatchEntry{Paragraphs: paragraphs, Found: true}
		case contentcache.HitAbsent:
			results[chapterID] = BatchEntry{}
		default:
			results[chapterID] = BatchEntry{} // placeholder, fixed below
			uncached = append(uncached, chapterID)
		}
	}

	if len(uncached) == 0 {
		return results
	}

	found, err := s.records.BatchRead(ctx, Collection, uncached)
	if err != nil {
		s.log.Warnf("batch read of %d chapters failed, falling back to single loads: %v", len(uncached), err)
		for _, chapterID := range uncached {
			paragraphs, ok := s.LoadChapterContent(ctx, chapterID)
			results[chapterID] = BatchEntry{Paragraphs: paragraphs, Found: ok}
		}
		return results
	}

	for _, chapterID := range uncached {
		raw, ok := found[chapterID]
		if !ok {
			s.cache.PutAbsent(chapterID)
			continue
		}
		paragraphs, fp, err := decodeRecord(raw)
		if err != nil {
			s.log.WithField("chapterID", chapterID).Warnf("chapter content malformed, treating as absent: %v", err)
			s.cache.PutAbsent(chapterID)
			continue
		}
		s.setFingerprint(chapterID, fp)
		s.cache.Put(chapterID, paragraphs)
		results[chapterID] = BatchEntry{Paragraphs: paragraphs, Found: true}
	}
	return results
}

// decodeRecord parses a stored record into paragraphs plus the
// fingerprint of its canonical content encoding.
func decodeRecord(raw []byte) ([]types.Paragraph, uint64, error) {
	rec, err := types.UnmarshalRecord(raw)
	if err != nil {
		return nil, 0, err
	}
	paragraphs, err := types.DecodeParagraphs(rec.Content)
	if err != nil {
		return nil, 0, err
	}
	return paragraphs, fingerprint(rec.Content), nil
}
