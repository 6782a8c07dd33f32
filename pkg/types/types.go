package types

import (
	"strings"
	"time"
)

// Translation is one candidate rendering of a paragraph, produced by a
// human or by a model identified by AIModelID.
type Translation struct {
	ID          string `json:"id"`
	Translation string `json:"translation"`
	AIModelID   string `json:"aiModelId"`
}

// Paragraph is the smallest addressable unit of narrative text. The ID is
// stable and unique within the owning chapter.
type Paragraph struct {
	ID                    string        `json:"id"`
	Text                  string        `json:"text"`
	SelectedTranslationID string        `json:"selectedTranslationId"`
	Translations          []Translation `json:"translations"`
}

// IsEmpty reports whether the paragraph carries no visible text. Layout-only
// blank lines count as empty and are skipped by neighbor enumeration.
func (p Paragraph) IsEmpty() bool {
	return strings.TrimSpace(p.Text) == ""
}

// SelectedTranslation returns the currently selected translation, if any.
func (p Paragraph) SelectedTranslation() (Translation, bool) {
	for _, tr := range p.Translations {
		if tr.ID == p.SelectedTranslationID {
			return tr, true
		}
	}
	return Translation{}, false
}

// Chapter holds a title and, once loaded, an ordered paragraph list.
//
// Content is tri-state: ContentLoaded == false means the paragraphs have
// not been fetched yet (whatever Content holds is meaningless);
// ContentLoaded == true with an empty Content means the chapter was
// fetched and is confirmed empty. The two must never be conflated: a
// paragraph count of zero is not "not tried yet".
type Chapter struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	Content       []Paragraph `json:"content,omitempty"`
	ContentLoaded bool        `json:"contentLoaded"`
}

// SetContent stamps the chapter as loaded. A nil slice is normalized to an
// empty one so "loaded empty" is representable without a nil check.
func (c *Chapter) SetContent(paragraphs []Paragraph) {
	if paragraphs == nil {
		paragraphs = []Paragraph{}
	}
	c.Content = paragraphs
	c.ContentLoaded = true
}

// Volume is an ordered grouping of chapters.
type Volume struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Chapters []*Chapter `json:"chapters"`
}

// Novel is the root of the document tree.
type Novel struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Volumes []*Volume `json:"volumes"`
}

// Clone returns a deep copy of the novel. Volumes and chapters are fresh
// allocations; paragraph slices are copied element-wise (paragraphs are
// treated as values by everything in this module).
func (n Novel) Clone() Novel {
	out := n
	out.Volumes = make([]*Volume, len(n.Volumes))
	for vi, vol := range n.Volumes {
		volCopy := *vol
		volCopy.Chapters = make([]*Chapter, len(vol.Chapters))
		for ci, ch := range vol.Chapters {
			chCopy := *ch
			if ch.Content != nil {
				chCopy.Content = append([]Paragraph(nil), ch.Content...)
			}
			volCopy.Chapters[ci] = &chCopy
		}
		out.Volumes[vi] = &volCopy
	}
	return out
}
