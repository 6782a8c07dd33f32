package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChapterRecord is the persisted shape of a chapter's paragraph content.
// Content is itself a JSON-encoded ordered array of Paragraph; keeping it
// as a string makes the record round-trippable without knowing the
// paragraph schema and gives the store a canonical byte form to
// fingerprint.
type ChapterRecord struct {
	ChapterID    string `json:"chapterId"`
	Content      string `json:"content"`
	LastModified string `json:"lastModified"`
}

// EncodeParagraphs produces the canonical JSON form of a paragraph list.
// A nil slice encodes as an empty array, not null, so that "loaded empty"
// survives a round trip.
func EncodeParagraphs(paragraphs []Paragraph) (string, error) {
	if paragraphs == nil {
		paragraphs = []Paragraph{}
	}
	data, err := json.Marshal(paragraphs)
	if err != nil {
		return "", fmt.Errorf("encoding paragraphs: %w", err)
	}
	return string(data), nil
}

// DecodeParagraphs parses the canonical JSON form back into paragraphs.
func DecodeParagraphs(content string) ([]Paragraph, error) {
	var paragraphs []Paragraph
	if err := json.Unmarshal([]byte(content), &paragraphs); err != nil {
		return nil, fmt.Errorf("decoding paragraphs: %w", err)
	}
	if paragraphs == nil {
		paragraphs = []Paragraph{}
	}
	return paragraphs, nil
}

// NewChapterRecord builds a record for chapterID around already-encoded
// content, stamped with the current time.
func NewChapterRecord(chapterID, content string) ChapterRecord {
	return ChapterRecord{
		ChapterID:    chapterID,
		Content:      content,
		LastModified: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// MarshalRecord serializes a record for the backing store.
func MarshalRecord(rec ChapterRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding chapter record %s: %w", rec.ChapterID, err)
	}
	return data, nil
}

// UnmarshalRecord parses a record read from the backing store.
func UnmarshalRecord(data []byte) (ChapterRecord, error) {
	var rec ChapterRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ChapterRecord{}, fmt.Errorf("decoding chapter record: %w", err)
	}
	return rec, nil
}
