// Package tsundoku is the content core of a novel-translation workbench:
// a lazy-loading chapter content store over a durable key-value backing
// store, with a bounded LRU cache and cross-boundary paragraph traversal.
// Chapter paragraph data is fetched on demand and in batches, never
// eagerly for the whole document.
package tsundoku

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/aviriel/tsundoku/internal/keyvalstore"
	"github.com/aviriel/tsundoku/pkg/contentstore"
	"github.com/aviriel/tsundoku/pkg/traversal"
	"github.com/aviriel/tsundoku/pkg/workerpool"
)

var (
	ErrNotStarted = errors.New("tsundoku: library not started")
	ErrClosed     = errors.New("tsundoku: library closed")
)

// Config configures a Library. Only Paths[0] is used at the moment;
// future versions may use multiple paths for tiering.
type Config struct {
	// Paths contains data directories. Currently only Paths[0] is used.
	Paths []string
	// MinimumFreeGB is a free-space threshold checked when the store opens.
	MinimumFreeGB int
	// CacheCapacity bounds the in-memory chapter content cache; 0 means
	// the default of 100 chapters.
	CacheCapacity int
	// Logger is an optional logger. If nil, a stderr logger is used.
	Logger *logrus.Logger
}

// Library is the main handle. It owns the badger-backed record store,
// the chapter content store, and the traversal engine, plus the
// lifecycle of the shared worker pool.
type Library struct {
	log    *logrus.Logger
	config Config

	kvMu sync.RWMutex
	kv   *keyvalstore.KeyValStore

	content *contentstore.Store
	nav     *traversal.Engine
	pool    *workerpool.WorkerPool

	started   atomic.Bool
	startOnce sync.Once
	closeOnce sync.Once
}

// New constructs a library handle. New does not perform heavy I/O; call
// Start to open the backing store.
func New(conf Config) (*Library, error) {
	if len(conf.Paths) == 0 {
		return nil, fmt.Errorf("at least one path must be provided in config")
	}
	if conf.Logger == nil {
		conf.Logger = logrus.New()
	}
	return &Library{
		log:    conf.Logger,
		config: conf,
	}, nil
}

// Start opens the backing store and wires the content store and
// traversal engine. Start is safe to call multiple times; only the
// first call has effect.
func (l *Library) Start(ctx context.Context) error {
	var startErr error
	l.startOnce.Do(func() {
		dataRoot := l.config.Paths[0]
		if err := os.MkdirAll(dataRoot, 0o700); err != nil {
			startErr = fmt.Errorf("mkdir %s: %w", dataRoot, err)
			return
		}

		kv, err := keyvalstore.NewKeyValStore(keyvalstore.StoreConfig{
			Paths:            []string{filepath.Join(dataRoot, "kv")},
			MinimumFreeSpace: l.config.MinimumFreeGB,
			Logger:           l.log,
		})
		if err != nil {
			startErr = fmt.Errorf("init kv: %w", err)
			return
		}

		l.kvMu.Lock()
		l.kv = kv
		l.kvMu.Unlock()

		l.content = contentstore.New(kv, contentstore.Options{
			CacheCapacity: l.config.CacheCapacity,
			Logger:        l.log,
		})
		l.nav = traversal.NewEngine(l.content)
		l.pool = workerpool.NewWorkerPool(workerpool.Config{})

		l.started.Store(true)
		l.log.WithField("path", dataRoot).Info("tsundoku library started")
	})
	return startErr
}

// Close releases the backing store. Close is idempotent.
func (l *Library) Close(ctx context.Context) error {
	var closeErr error
	l.closeOnce.Do(func() {
		l.kvMu.Lock()
		kv := l.kv
		l.kv = nil
		l.kvMu.Unlock()
		if kv != nil {
			if err := kv.Close(); err != nil {
				closeErr = errors.Join(closeErr, fmt.Errorf("close kv: %w", err))
			}
		}
		if l.pool != nil {
			l.pool.Close()
		}

		l.log.Info("tsundoku library closed")
	})
	return closeErr
}

// Content returns the chapter content store.
func (l *Library) Content() (*contentstore.Store, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	return l.content, nil
}

// Traversal returns the document traversal engine.
func (l *Library) Traversal() (*traversal.Engine, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	return l.nav, nil
}

// Pool returns the shared worker pool for bulk loads.
func (l *Library) Pool() (*workerpool.WorkerPool, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	return l.pool, nil
}

// StoreStats returns the backing store's operation counters since open.
func (l *Library) StoreStats() (keyvalstore.Stats, error) {
	if err := l.ready(); err != nil {
		return keyvalstore.Stats{}, err
	}
	l.kvMu.RLock()
	kv := l.kv
	l.kvMu.RUnlock()
	if kv == nil {
		return keyvalstore.Stats{}, ErrClosed
	}
	return kv.Stats(), nil
}

func (l *Library) ready() error {
	if !l.started.Load() {
		return ErrNotStarted
	}
	l.kvMu.RLock()
	kv := l.kv
	l.kvMu.RUnlock()
	if kv == nil {
		return ErrClosed
	}
	return nil
}
