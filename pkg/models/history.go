package models

import (
	"time"

	"github.com/goccy/go-json"
)

// AppendOnlyLog is an ordered history. Entries can be appended and read but
// never modified or removed.
type AppendOnlyLog[T any] struct {
	entries []T
}

// NewAppendOnlyLog builds a log from entries already stored, oldest first
func NewAppendOnlyLog[T any](entries ...T) AppendOnlyLog[T] {
	cp := make([]T, len(entries))
	copy(cp, entries)
	return AppendOnlyLog[T]{entries: cp}
}

// Append adds an entry at the end of the log. It is the log's only mutator;
// the store builds logs from persisted rows with NewAppendOnlyLog.
func (l *AppendOnlyLog[T]) Append(entry T) {
	l.entries = append(l.entries, entry)
}

// Len returns the number of entries
func (l AppendOnlyLog[T]) Len() int {
	return len(l.entries)
}

// Latest returns the most recently appended entry
func (l AppendOnlyLog[T]) Latest() (T, bool) {
	if len(l.entries) == 0 {
		var zero T
		return zero, false
	}
	return l.entries[len(l.entries)-1], true
}

// Entries returns a copy of all entries, oldest first
func (l AppendOnlyLog[T]) Entries() []T {
	cp := make([]T, len(l.entries))
	copy(cp, l.entries)
	return cp
}

func (l AppendOnlyLog[T]) MarshalJSON() ([]byte, error) {
	if l.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.entries)
}

func (l *AppendOnlyLog[T]) UnmarshalJSON(data []byte) error {
	var entries []T
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	l.entries = entries
	return nil
}

// ProfileStatsEntry is one captured set of profile counters
type ProfileStatsEntry struct {
	FollowerCount  int64     `json:"followerCount"`
	FollowingCount int64     `json:"followingCount"`
	PostCount      int64     `json:"postCount"`
	CapturedAt     time.Time `json:"scrapedAt"`
}

// PostStatsEntry is one captured set of post counters. ViewCount is nil for
// content kinds without views.
type PostStatsEntry struct {
	LikeCount    int64     `json:"likeCount"`
	CommentCount int64     `json:"commentCount"`
	ViewCount    *int64    `json:"viewCount,omitempty"`
	CapturedAt   time.Time `json:"scrapedAt"`
}
