package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

// ErrCorpusLoad is returned when the word corpus cannot be built.
var ErrCorpusLoad = errors.New("corpus load failed")

// Corpus is an immutable in-memory index of word groups.
// It is built once at startup and shared read-only by all quiz sessions.
type Corpus struct {
	groups          map[string]entities.Group
	order           []string
	all             []entities.WordEntry
	allMeanings     []string
	fallback        []entities.WordEntry
	fallbackFromAll bool
}

// NewCorpus indexes the data produced by a corpus source.
// Rows with an empty word or meaning are dropped, and so are groups left
// without rows. Group names must be unique case-insensitively.
func NewCorpus(data entities.CorpusData) (*Corpus, error) {
	c := &Corpus{
		groups: make(map[string]entities.Group, len(data.Groups)),
	}

	seen := make(map[string]struct{}, len(data.Groups))
	for _, g := range data.Groups {
		key := strings.ToLower(strings.TrimSpace(g.Name))
		if key == "" {
			return nil, fmt.Errorf("%w: group with empty name", ErrCorpusLoad)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate group %q", ErrCorpusLoad, g.Name)
		}
		seen[key] = struct{}{}

		entries := cleanEntries(g.Entries)
		if len(entries) == 0 {
			continue
		}

		c.groups[key] = entities.Group{Name: key, Entries: entries}
		c.order = append(c.order, key)
		c.all = append(c.all, entries...)
	}

	if len(c.all) == 0 {
		return nil, fmt.Errorf("%w: no word entries", ErrCorpusLoad)
	}

	c.allMeanings = make([]string, 0, len(c.all))
	for _, e := range c.all {
		c.allMeanings = append(c.allMeanings, e.Meaning)
	}

	fallback := cleanEntries(data.Fallback)
	if !data.HasFallback || len(fallback) == 0 {
		c.fallback = c.all
		c.fallbackFromAll = true
	} else {
		c.fallback = fallback
	}

	return c, nil
}

// LookupGroup returns the group with the given name, ignoring case.
func (c *Corpus) LookupGroup(name string) (entities.Group, bool) {
	g, ok := c.groups[strings.ToLower(strings.TrimSpace(name))]
	return g, ok
}

// GroupNames returns the lowercased group names in source order.
func (c *Corpus) GroupNames() []string {
	return append([]string(nil), c.order...)
}

// All returns every entry of every group.
func (c *Corpus) All() []entities.WordEntry {
	return c.all
}

// Fallback returns the entries used when no group is requested.
func (c *Corpus) Fallback() []entities.WordEntry {
	return c.fallback
}

// FallbackFromAll reports whether Fallback degraded to all entries.
func (c *Corpus) FallbackFromAll() bool {
	return c.fallbackFromAll
}

// DistractorPool returns every meaning that differs from excludeMeaning by
// value. Duplicate meanings are kept.
func (c *Corpus) DistractorPool(excludeMeaning string) []string {
	pool := make([]string, 0, len(c.allMeanings))
	for _, m := range c.allMeanings {
		if m != excludeMeaning {
			pool = append(pool, m)
		}
	}
	return pool
}

func cleanEntries(in []entities.WordEntry) []entities.WordEntry {
	out := make([]entities.WordEntry, 0, len(in))
	for _, e := range in {
		word := strings.TrimSpace(e.Word)
		meaning := strings.TrimSpace(e.Meaning)
		if word == "" || meaning == "" {
			continue
		}
		out = append(out, entities.WordEntry{Word: word, Meaning: meaning})
	}
	return out
}
