package traversal

import (
	"context"

	"github.com/aviriel/tsundoku/pkg/types"
)

// Neighbor enumeration. Both directions skip empty paragraphs (blank or
// whitespace-only text); those never count toward the requested count
// and are never returned.

// NextParagraphs returns up to count non-empty paragraphs after the
// paragraph with the given id, nearest first, crossing chapter and
// volume boundaries and loading content on demand. Fewer than count
// results means the document was exhausted.
func (e *Engine) NextParagraphs(ctx context.Context, novel *types.Novel, paragraphID string, count int) []types.Paragraph {
	return e.neighbors(ctx, novel, paragraphID, count, Forward)
}

// PreviousParagraphs returns up to count non-empty paragraphs before the
// paragraph with the given id, ordered farthest to nearest, so that
// result + anchor + NextParagraphs reads in document order.
func (e *Engine) PreviousParagraphs(ctx context.Context, novel *types.Novel, paragraphID string, count int) []types.Paragraph {
	return e.neighbors(ctx, novel, paragraphID, count, Backward)
}

func (e *Engine) neighbors(ctx context.Context, novel *types.Novel, paragraphID string, count int, dir Direction) []types.Paragraph {
	if count <= 0 {
		return nil
	}
	loc, ok := e.FindParagraphLocation(ctx, novel, paragraphID)
	if !ok {
		return nil
	}

	e.prefetch(ctx, novel, loc, dir, count)

	ensure := func(chapter *types.Chapter) {
		if chapter.ContentLoaded {
			return
		}
		// The exploratory pass under-collected (long runs of empty
		// paragraphs can do that); fall back to a single load.
		paragraphs, _ := e.store.LoadChapterContent(ctx, chapter.ID)
		chapter.SetContent(paragraphs)
	}
	return walk(novel, loc, dir, count, ensure)
}

// prefetch walks up to 2×count steps ahead of the anchor at chapter
// granularity, collecting the ids of chapters that are not loaded yet,
// and batch-loads them in one call. Each paragraph of a loaded chapter
// costs one step; an unloaded chapter is collected and skipped over for
// one step. The ×2 over-collection is a heuristic so that runs of empty
// paragraphs do not leave the consuming walk short.
func (e *Engine) prefetch(ctx context.Context, novel *types.Novel, loc Location, dir Direction, count int) {
	budget := 2 * count
	if dir == Forward {
		budget -= len(loc.Chapter.Content) - loc.ParagraphIndex - 1
	} else {
		budget -= loc.ParagraphIndex
	}

	vi, ci := loc.VolumeIndex, loc.ChapterIndex
	var wanted []string
	var unloaded []*types.Chapter
	for budget > 0 {
		var ok bool
		vi, ci, ok = nextChapter(novel, vi, ci, dir)
		if !ok {
			break
		}
		chapter := novel.Volumes[vi].Chapters[ci]
		if chapter.ContentLoaded {
			budget -= len(chapter.Content)
			continue
		}
		wanted = append(wanted, chapter.ID)
		unloaded = append(unloaded, chapter)
		budget--
	}
	if len(wanted) == 0 {
		return
	}

	loaded := e.store.LoadChapterContentsBatch(ctx, wanted)
	for _, chapter := range unloaded {
		chapter.SetContent(loaded[chapter.ID].Paragraphs)
	}
}

// walk is the consuming pass shared by the async and resident variants.
func walk(novel *types.Novel, loc Location, dir Direction, count int, ensure ensureFunc) []types.Paragraph {
	var out []types.Paragraph
	vi, ci, pi := loc.VolumeIndex, loc.ChapterIndex, loc.ParagraphIndex
	for len(out) < count {
		var ok bool
		vi, ci, pi, ok = step(novel, vi, ci, pi, dir, ensure)
		if !ok {
			break
		}
		p := novel.Volumes[vi].Chapters[ci].Content[pi]
		if p.IsEmpty() {
			continue
		}
		out = append(out, p)
	}

	if dir == Backward {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// NextParagraphsResident is NextParagraphs for documents whose content
// is already fully memory-resident; it never touches the store and
// steps over unloaded chapters as if they were empty.
func NextParagraphsResident(novel *types.Novel, paragraphID string, count int) []types.Paragraph {
	return neighborsResident(novel, paragraphID, count, Forward)
}

// PreviousParagraphsResident is the resident counterpart of
// PreviousParagraphs.
func PreviousParagraphsResident(novel *types.Novel, paragraphID string, count int) []types.Paragraph {
	return neighborsResident(novel, paragraphID, count, Backward)
}

func neighborsResident(novel *types.Novel, paragraphID string, count int, dir Direction) []types.Paragraph {
	if count <= 0 {
		return nil
	}
	loc, ok := LocateParagraph(novel, paragraphID)
	if !ok {
		return nil
	}
	return walk(novel, loc, dir, count, nil)
}
