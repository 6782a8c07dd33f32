// Soak tool: writes a large number of chapters through the content
// store, reads them back through cold and warm caches, and reports the
// backing-store operation counts. Useful for eyeballing badger behavior
// under sustained chapter churn.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tsundoku "github.com/aviriel/tsundoku"
	"github.com/aviriel/tsundoku/internal/config"
	"github.com/aviriel/tsundoku/pkg/contentstore"
	"github.com/aviriel/tsundoku/pkg/types"
)

var (
	chapters   = flag.Int("chapters", 1000, "number of chapters to write")
	paragraphs = flag.Int("paragraphs", 50, "paragraphs per chapter")
	keep       = flag.Bool("keep", false, "keep the data directory afterwards")
)

func main() {
	flag.Parse()

	conf, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %s", err)
	}

	dataDir := filepath.Join(conf.DataDir, fmt.Sprintf("torture-%d", time.Now().UnixNano()))
	if !*keep {
		defer os.RemoveAll(dataDir)
	}

	lib, err := tsundoku.New(tsundoku.Config{
		Paths:         []string{dataDir},
		MinimumFreeGB: conf.MinimumFreeGB,
		CacheCapacity: conf.CacheCapacity,
	})
	if err != nil {
		log.Fatalf("Failed to initialize library: %s", err)
	}

	ctx := context.Background()
	if err := lib.Start(ctx); err != nil {
		log.Fatalf("Failed to start library: %s", err)
	}
	defer lib.Close(ctx)

	store, err := lib.Content()
	if err != nil {
		log.Fatal(err)
	}

	writeStart := time.Now()
	for i := 0; i < *chapters; i++ {
		content := make([]types.Paragraph, *paragraphs)
		for j := range content {
			content[j] = types.Paragraph{
				ID:   fmt.Sprintf("ch%d-p%d", i, j),
				Text: fmt.Sprintf("Paragraph %d of chapter %d, repeated filler text for compression.", j, i),
			}
		}
		if _, err := store.SaveChapterContent(ctx, fmt.Sprintf("ch%d", i), content, contentstore.SaveOptions{}); err != nil {
			log.Fatalf("Error writing chapter %d: %s", i, err)
		}
	}
	fmt.Printf("wrote %d chapters in %s\n", *chapters, time.Since(writeStart))

	// Cold pass: batch loads in slabs larger than the cache.
	readStart := time.Now()
	slab := 200
	for lo := 0; lo < *chapters; lo += slab {
		ids := make([]string, 0, slab)
		for i := lo; i < lo+slab && i < *chapters; i++ {
			ids = append(ids, fmt.Sprintf("ch%d", i))
		}
		results := store.LoadChapterContentsBatch(ctx, ids)
		for _, id := range ids {
			if !results[id].Found {
				log.Fatalf("chapter %s went missing", id)
			}
		}
	}
	fmt.Printf("batch-read %d chapters in %s\n", *chapters, time.Since(readStart))

	// Warm pass: the last slab should be mostly cache hits.
	warmStart := time.Now()
	for i := *chapters - 50; i < *chapters; i++ {
		if i < 0 {
			continue
		}
		if _, ok := store.LoadChapterContent(ctx, fmt.Sprintf("ch%d", i)); !ok {
			log.Fatalf("chapter ch%d went missing", i)
		}
	}
	fmt.Printf("warm-read 50 chapters in %s\n", time.Since(warmStart))

	stats, err := lib.StoreStats()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("store ops: %d reads, %d writes\n", stats.Reads, stats.Writes)
}
