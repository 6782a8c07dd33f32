package main

import (
	"context"
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

func main() {
	fmt.Println("Starting tsundoku example")

	conf, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %s", err)
	}

	dataDir := filepath.Join(conf.DataDir, fmt.Sprintf("example-%d", time.Now().UnixNano()))
	defer os.RemoveAll(dataDir)

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

	// Persist two chapters' worth of paragraphs.
	_, err = store.SaveChapterContent(ctx, "ch1", []types.Paragraph{
		{ID: "p1", Text: "It was a dark and stormy night."},
		{ID: "p2", Text: "   "}, // layout-only blank line
	}, contentstore.SaveOptions{})
	if err != nil {
		log.Fatalf("Error saving chapter: %s", err)
	}
	_, err = store.SaveChapterContent(ctx, "ch2", []types.Paragraph{
		{ID: "p3", Text: "The rain fell in torrents."},
	}, contentstore.SaveOptions{})
	if err != nil {
		log.Fatalf("Error saving chapter: %s", err)
	}

	// Build a document tree whose chapters are not loaded yet.
	novel := types.Novel{
		ID:    "n1",
		Title: "Example",
		Volumes: []*types.Volume{{
			ID: "v1",
			Chapters: []*types.Chapter{
				{ID: "ch1", Title: "One"},
				{ID: "ch2", Title: "Two"},
			},
		}},
	}

	nav, err := lib.Traversal()
	if err != nil {
		log.Fatal(err)
	}

	// Walk across the chapter boundary; ch2 is loaded on demand and the
	// blank paragraph is skipped.
	next := nav.NextParagraphs(ctx, &novel, "p1", 1)
	for _, p := range next {
		fmt.Printf("next paragraph: %s: %q\n", p.ID, p.Text)
	}

	stats, _ := lib.StoreStats()
	fmt.Printf("store ops: %d reads, %d writes\n", stats.Reads, stats.Writes)
}
