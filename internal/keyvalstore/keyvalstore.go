// Package keyvalstore implements the durable backing store for chapter
// records on badger. Records are kept under collection-prefixed keys and
// the record bodies are lzma-compressed before they hit disk.
package keyvalstore

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

type StoreConfig struct {
	Paths            []string // absolute path, at the moment only first path is supported
	MinimumFreeSpace int      // in GB
	Logger           *logrus.Logger
}

type KeyValStore struct {
	config       StoreConfig
	badgerDB     *badger.DB
	log          *logrus.Logger
	readCounter  uint64
	writeCounter uint64
}

// Stats is a snapshot of the operation counters since open.
type Stats struct {
	Reads  uint64
	Writes uint64
}

func NewKeyValStore(config StoreConfig) (*KeyValStore, error) {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	log := config.Logger

	if len(config.Paths) == 0 {
		return nil, fmt.Errorf("no storage path configured for KeyValStore")
	}

	opts := badger.DefaultOptions(config.Paths[0])
	opts.Logger = nil
	opts.ValueLogFileSize = 1024 * 1024 * 100 // max size of each value log file, 100MB
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("error opening badger at %s: %w", config.Paths[0], err)
	}

	if err := displayDiskUsage(log, config.Paths, config.MinimumFreeSpace); err != nil {
		db.Close()
		return nil, err
	}

	return &KeyValStore{
		config:   config,
		badgerDB: db,
		log:      log,
	}, nil
}

// recordKey namespaces a record key under its collection.
func recordKey(collection, key string) []byte {
	return []byte(collection + "/" + key)
}

// Get returns the record bytes for key, or found == false if the
// collection has no record for it.
func (k *KeyValStore) Get(ctx context.Context, collection, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	atomic.AddUint64(&k.readCounter, 1)

	var value []byte
	err := k.badgerDB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(collection, key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error reading %s/%s: %w", collection, key, err)
	}

	decoded, err := decompressRecord(value)
	if err != nil {
		return nil, false, fmt.Errorf("error decompressing %s/%s: %w", collection, key, err)
	}
	return decoded, true, nil
}

// Put writes the record bytes for key, replacing any previous value.
func (k *KeyValStore) Put(ctx context.Context, collection, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	atomic.AddUint64(&k.writeCounter, 1)

	compressed, err := compressRecord(value)
	if err != nil {
		return fmt.Errorf("error compressing %s/%s: %w", collection, key, err)
	}

	err = k.badgerDB.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(collection, key), compressed)
	})
	if err != nil {
		return fmt.Errorf("error writing %s/%s: %w", collection, key, err)
	}
	return nil
}

// Delete removes the record for key. Deleting a missing key is not an error.
func (k *KeyValStore) Delete(ctx context.Context, collection, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	atomic.AddUint64(&k.writeCounter, 1)

	err := k.badgerDB.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(collection, key))
	})
	if err != nil {
		return fmt.Errorf("error deleting %s/%s: %w", collection, key, err)
	}
	return nil
}

// Clear drops every record in the collection.
func (k *KeyValStore) Clear(ctx context.Context, collection string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	atomic.AddUint64(&k.writeCounter, 1)

	if err := k.badgerDB.DropPrefix([]byte(collection + "/")); err != nil {
		return fmt.Errorf("error clearing collection %s: %w", collection, err)
	}
	return nil
}

// BatchRead resolves all keys inside a single read transaction. Keys with
// no record are simply absent from the returned map. If the transaction
// fails as a unit no partial results are returned.
func (k *KeyValStore) BatchRead(ctx context.Context, collection string, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found := make(map[string][]byte, len(keys))
	err := k.badgerDB.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			atomic.AddUint64(&k.readCounter, 1)
			item, err := txn.Get(recordKey(collection, key))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			decoded, err := decompressRecord(value)
			if err != nil {
				return err
			}
			found[key] = decoded
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error batch-reading %d keys from %s: %w", len(keys), collection, err)
	}
	return found, nil
}

// Keys lists every record key in the collection, without values.
func (k *KeyValStore) Keys(ctx context.Context, collection string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	atomic.AddUint64(&k.readCounter, 1)

	prefix := []byte(collection + "/")
	var keys []string
	err := k.badgerDB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			keys = append(keys, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error listing keys in %s: %w", collection, err)
	}
	return keys, nil
}

func (k *KeyValStore) Stats() Stats {
	return Stats{
		Reads:  atomic.LoadUint64(&k.readCounter),
		Writes: atomic.LoadUint64(&k.writeCounter),
	}
}

func (k *KeyValStore) Close() error {
	if err := k.badgerDB.Sync(); err != nil {
		k.log.Errorf("error syncing db on close: %v", err)
	}
	return k.badgerDB.Close()
}

// Clean syncs and compacts the value log. Safe to call periodically.
func (k *KeyValStore) Clean() error {
	if err := k.badgerDB.Sync(); err != nil {
		return fmt.Errorf("error syncing db: %w", err)
	}

	err := k.badgerDB.RunValueLogGC(0.1)
	if err != nil && err != badger.ErrNoRewrite {
		return fmt.Errorf("error cleaning db: %w", err)
	}
	return nil
}
