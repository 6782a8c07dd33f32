// Package traversal locates paragraphs anywhere in a multi-volume
// document tree and walks their neighbors across chapter and volume
// boundaries, loading chapter content on demand through the content
// store. Loading is batched: both the locate path and the neighbor walk
// first collect the ids of every chapter they may need and fetch them in
// one call, instead of paying one backing-store round trip per chapter.
package traversal

import (
	"context"

	"github.com/aviriel/tsundoku/pkg/contentstore"
	"github.com/aviriel/tsundoku/pkg/types"
)

// Direction of a traversal walk.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Location pins a paragraph inside the document tree.
type Location struct {
	VolumeIndex    int
	ChapterIndex   int
	ParagraphIndex int
	Volume         *types.Volume
	Chapter        *types.Chapter
	Paragraph      types.Paragraph
}

// Engine walks a document tree backed by a content store.
type Engine struct {
	store *contentstore.Store
}

func NewEngine(store *contentstore.Store) *Engine {
	return &Engine{store: store}
}

// FindParagraphLocation finds a paragraph by id, loading chapter content
// as needed. It scans every already-loaded chapter first and only then
// batch-loads the chapters that were still unloaded, in a single call;
// the newly loaded content is assigned back onto the tree.
func (e *Engine) FindParagraphLocation(ctx context.Context, novel *types.Novel, paragraphID string) (Location, bool) {
	if loc, ok := LocateParagraph(novel, paragraphID); ok {
		return loc, true
	}

	var wanted []string
	var unloaded []*types.Chapter
	for _, vol := range novel.Volumes {
		for _, chapter := range vol.Chapters {
			if !chapter.ContentLoaded {
				wanted = append(wanted, chapter.ID)
				unloaded = append(unloaded, chapter)
			}
		}
	}
	if len(wanted) == 0 {
		return Location{}, false
	}

	loaded := e.store.LoadChapterContentsBatch(ctx, wanted)
	for _, chapter := range unloaded {
		chapter.SetContent(loaded[chapter.ID].Paragraphs)
	}

	// Scan just the chapters that were unloaded a moment ago.
	for vi, vol := range novel.Volumes {
		for ci, chapter := range vol.Chapters {
			if !wasUnloaded(unloaded, chapter) {
				continue
			}
			for pi, p := range chapter.Content {
				if p.ID == paragraphID {
					return Location{
						VolumeIndex:    vi,
						ChapterIndex:   ci,
						ParagraphIndex: pi,
						Volume:         vol,
						Chapter:        chapter,
						Paragraph:      p,
					}, true
				}
			}
		}
	}
	return Location{}, false
}

func wasUnloaded(unloaded []*types.Chapter, chapter *types.Chapter) bool {
	for _, ch := range unloaded {
		if ch == chapter {
			return true
		}
	}
	return false
}

// LocateParagraph finds a paragraph by id among the chapters whose
// content is already resident. It never touches the store.
func LocateParagraph(novel *types.Novel, paragraphID string) (Location, bool) {
	for vi, vol := range novel.Volumes {
		for ci, chapter := range vol.Chapters {
			if !chapter.ContentLoaded {
				continue
			}
			for pi, p := range chapter.Content {
				if p.ID == paragraphID {
					return Location{
						VolumeIndex:    vi,
						ChapterIndex:   ci,
						ParagraphIndex: pi,
						Volume:         vol,
						Chapter:        chapter,
						Paragraph:      p,
					}, true
				}
			}
		}
	}
	return Location{}, false
}

// ensureFunc makes a chapter's content resident before the walk inspects
// it. Nil means "resident chapters only": unloaded chapters are stepped
// over as if they were empty.
type ensureFunc func(*types.Chapter)

// step moves the cursor one paragraph in the given direction, crossing
// chapter and volume boundaries. It reports false when the document is
// exhausted; there is no wraparound.
func step(novel *types.Novel, vi, ci, pi int, dir Direction, ensure ensureFunc) (int, int, int, bool) {
	chapter := novel.Volumes[vi].Chapters[ci]

	if dir == Forward {
		if pi+1 < len(chapter.Content) {
			return vi, ci, pi + 1, true
		}
		for {
			ci++
			for ci >= len(novel.Volumes[vi].Chapters) {
				vi++
				if vi >= len(novel.Volumes) {
					return 0, 0, 0, false
				}
				ci = 0
			}
			next := novel.Volumes[vi].Chapters[ci]
			if ensure != nil {
				ensure(next)
			}
			if next.ContentLoaded && len(next.Content) > 0 {
				return vi, ci, 0, true
			}
		}
	}

	if pi-1 >= 0 {
		return vi, ci, pi - 1, true
	}
	for {
		ci--
		for ci < 0 {
			vi--
			if vi < 0 {
				return 0, 0, 0, false
			}
			ci = len(novel.Volumes[vi].Chapters) - 1
		}
		prev := novel.Volumes[vi].Chapters[ci]
		if ensure != nil {
			ensure(prev)
		}
		if prev.ContentLoaded && len(prev.Content) > 0 {
			return vi, ci, len(prev.Content) - 1, true
		}
	}
}

// nextChapter moves a chapter-level cursor one chapter in the given
// direction, used by the prefetch pass.
func nextChapter(novel *types.Novel, vi, ci int, dir Direction) (int, int, bool) {
	if dir == Forward {
		ci++
		for ci >= len(novel.Volumes[vi].Chapters) {
			vi++
			if vi >= len(novel.Volumes) {
				return 0, 0, false
			}
			ci = 0
		}
		return vi, ci, true
	}

	ci--
	for ci < 0 {
		vi--
		if vi < 0 {
			return 0, 0, false
		}
		ci = len(novel.Volumes[vi].Chapters) - 1
	}
	return vi, ci, true
}
