// Package content is the reference-text collaborator: given a subject (a
// drink, a piece of lore), it returns flavor text the reply generator can
// lean on. It has no say in arbitration.
package content

import (
	"context"
	"strings"
)

// Store retrieves reference text for a subject. A miss is a valid outcome,
// reported through the found flag so callers choose their own default.
type Store interface {
	Lookup(ctx context.Context, subject string) (text string, found bool, err error)
	Upsert(ctx context.Context, subject, text string) error
	Close() error
}

// NewStore opens a sqlite-backed store when a path is configured, otherwise
// the built-in static set.
func NewStore(dbPath string) (Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return NewStaticStore(), nil
	}
	return NewSQLiteStore(dbPath)
}

// StaticStore serves a fixed in-process reference set for local/dev use.
type StaticStore struct {
	entries map[string]string
}

func NewStaticStore() *StaticStore {
	return &StaticStore{entries: map[string]string{
		"ale":     "A dark, malty house ale, brewed in the cellar and served just shy of cool.",
		"mead":    "Honey mead from the northern apiaries, sweet up front with a dry finish.",
		"whiskey": "Oak-aged whiskey kept behind the counter for regulars and bad nights.",
		"tavern":  "The tavern sits at the old crossroads; the hearth has not gone cold in living memory.",
	}}
}

func (s *StaticStore) Lookup(_ context.Context, subject string) (string, bool, error) {
	text, ok := s.entries[strings.ToLower(strings.TrimSpace(subject))]
	return text, ok, nil
}

func (s *StaticStore) Upsert(_ context.Context, subject, text string) error {
	s.entries[strings.ToLower(strings.TrimSpace(subject))] = text
	return nil
}

func (s *StaticStore) Close() error { return nil }
