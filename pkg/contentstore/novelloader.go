package contentstore

import (
	"context"

	"github.com/aviriel/tsundoku/pkg/types"
	"github.com/aviriel/tsundoku/pkg/workerpool"
)

// Whole-document loaders. They materialize content for every chapter of
// a tree that has not been loaded yet; chapters already stamped loaded
// are never retried. Loaded-empty is a terminal state.

// LoadAllChapterContents loads content into the passed chapters in
// place. Independent chapters are fetched concurrently through the
// worker pool; each chapter ends up with content set (absent becomes an
// empty list) and ContentLoaded true.
func (s *Store) LoadAllChapterContents(ctx context.Context, pool *workerpool.WorkerPool, chapters []*types.Chapter) {
	var pending []*types.Chapter
	for _, chapter := range chapters {
		if chapter == nil || chapter.ContentLoaded {
			continue
		}
		pending = append(pending, chapter)
	}
	if len(pending) == 0 {
		return
	}

	if pool == nil {
		for _, chapter := range pending {
			paragraphs, _ := s.LoadChapterContent(ctx, chapter.ID)
			chapter.SetContent(paragraphs)
		}
		return
	}

	room := pool.CreateRoom(len(pending))
	for _, chapter := range pending {
		chapter := chapter
		room.NewTaskWaitForFreeSlot(func() interface{} {
			paragraphs, _ := s.LoadChapterContent(ctx, chapter.ID)
			chapter.SetContent(paragraphs)
			return chapter.ID
		})
	}
	room.Collect()
}

// LoadAllChapterContentsForNovel returns a copy of the novel with every
// chapter's content materialized. The passed novel is not mutated.
func (s *Store) LoadAllChapterContentsForNovel(ctx context.Context, novel types.Novel) types.Novel {
	out := novel.Clone()

	var wanted []string
	for _, vol := range out.Volumes {
		for _, chapter := range vol.Chapters {
			if !chapter.ContentLoaded {
				wanted = append(wanted, chapter.ID)
			}
		}
	}
	if len(wanted) == 0 {
		return out
	}

	loaded := s.LoadChapterContentsBatch(ctx, wanted)
	for _, vol := range out.Volumes {
		for _, chapter := range vol.Chapters {
			if chapter.ContentLoaded {
				continue
			}
			chapter.SetContent(loaded[chapter.ID].Paragraphs)
		}
	}
	return out
}

// LoadAllChapterContentsForNovels is LoadAllChapterContentsForNovel over
// several novels.
func (s *Store) LoadAllChapterContentsForNovels(ctx context.Context, novels []types.Novel) []types.Novel {
	out := make([]types.Novel, len(novels))
	for i, novel := range novels {
		out[i] = s.LoadAllChapterContentsForNovel(ctx, novel)
	}
	return out
}
