// Package lemma provides the lemma confirmation API over an annotation store,
// including the import of legacy word-index to lemma maps.
package lemma

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/motheatensoul/tei-scribe/internal/domain"
	"github.com/motheatensoul/tei-scribe/internal/store"
)

// Source is recorded in the metadata of lemmas imported from legacy maps
const Source = "legacy-confirmations"

// Facade confirms and unconfirms lemmas through a store
type Facade struct {
	store  *store.Store
	author string
	now    func() time.Time
}

// NewFacade wraps a store. Author, when not empty, is recorded on confirmed lemmas.
func NewFacade(s *store.Store, author string) *Facade {
	return &Facade{store: s, author: author, now: time.Now}
}

// Store returns the wrapped store
func (f *Facade) Store() *store.Store {
	return f.store
}

// Annotation builds the canonical lemma annotation of a word
func (f *Facade) Annotation(wordIndex int, lemma, msa, normalized string) domain.Annotation {
	a := domain.Annotation{
		ID:     domain.LemmaID(wordIndex),
		Type:   domain.TypeLemma,
		Target: domain.WordTarget(wordIndex),
		Value:  domain.LemmaValue{Lemma: lemma, Msa: msa, Normalized: normalized},
	}
	if f.author != "" {
		now := f.now().UTC()
		a.Metadata = &domain.Metadata{Author: f.author, Created: &now}
	}
	return a
}

// ConfirmLemma records the lemma of a word. Confirming an already confirmed
// word replaces it and is recorded as an update.
func (f *Facade) ConfirmLemma(wordIndex int, lemma, msa, normalized string) (domain.HistoryAction, error) {
	return f.confirm(f.Annotation(wordIndex, lemma, msa, normalized), true)
}

// ConfirmLemmaSilently is ConfirmLemma without a history record
func (f *Facade) ConfirmLemmaSilently(wordIndex int, lemma, msa, normalized string) (domain.HistoryAction, error) {
	return f.confirm(f.Annotation(wordIndex, lemma, msa, normalized), false)
}

func (f *Facade) confirm(a domain.Annotation, recordHistory bool) (domain.HistoryAction, error) {
	if strings.TrimSpace(a.Value.(domain.LemmaValue).Lemma) == "" {
		return domain.HistoryAction{}, fmt.Errorf("%w: empty lemma for word %d", domain.ErrInvalidAnnotation, a.Target.WordIndex)
	}
	// Re-confirmation keeps the original creation time
	if a.Metadata != nil && a.Metadata.Created != nil {
		if previous, ok := f.store.Get(a.ID); ok && previous.Metadata != nil && previous.Metadata.Created != nil {
			a.Metadata.Modified = a.Metadata.Created
			a.Metadata.Created = previous.Metadata.Created
		}
	}
	return f.store.Add(a, recordHistory)
}

// UnconfirmLemma removes the lemma of a word. It returns false when the word had none.
func (f *Facade) UnconfirmLemma(wordIndex int) (domain.HistoryAction, bool) {
	return f.store.Remove(domain.LemmaID(wordIndex), true)
}

// IsLemmaConfirmed reports whether the word holds a lemma annotation
func (f *Facade) IsLemmaConfirmed(wordIndex int) bool {
	_, ok := f.store.Get(domain.LemmaID(wordIndex))
	return ok
}

// GetLemmaMapping returns the confirmed lemma of a word
func (f *Facade) GetLemmaMapping(wordIndex int) (domain.LemmaMapping, bool) {
	a, ok := f.store.Get(domain.LemmaID(wordIndex))
	if !ok {
		return domain.LemmaMapping{}, false
	}
	v, ok := a.Value.(domain.LemmaValue)
	if !ok {
		return domain.LemmaMapping{}, false
	}
	return domain.LemmaMapping{Lemma: v.Lemma, Msa: v.Msa, Normalized: v.Normalized}, true
}

// LemmaMappings returns every confirmed lemma in the legacy shape, keyed by decimal word index
func (f *Facade) LemmaMappings() map[string]domain.LemmaMapping {
	mappings := f.store.LemmaMappings()
	result := make(map[string]domain.LemmaMapping, len(mappings))
	for w, m := range mappings {
		result[strconv.Itoa(w)] = m
	}
	return result
}

// MigrationResult summarizes a legacy import
type MigrationResult struct {
	Imported int
	Skipped  []string
}

// LoadLegacyConfirmations imports a legacy word-index to lemma map. Entries whose
// key is not a non-negative integer, or whose lemma is rejected, are skipped and
// reported; the remaining entries are still imported. The import is not undoable
// entry by entry.
func (f *Facade) LoadLegacyConfirmations(confirmations map[string]domain.LemmaMapping) MigrationResult {
	type entry struct {
		key       string
		wordIndex int
	}
	var result MigrationResult
	entries := make([]entry, 0, len(confirmations))
	for key := range confirmations {
		wordIndex, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || wordIndex < 0 {
			result.Skipped = append(result.Skipped, key)
			continue
		}
		entries = append(entries, entry{key: key, wordIndex: wordIndex})
	}
	sort.Strings(result.Skipped)
	for _, key := range result.Skipped {
		log.Printf("lemma: skipping legacy confirmation with key %q", key)
	}
	// word order, with keys that parse to the same index ordered by their text
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].wordIndex != entries[j].wordIndex {
			return entries[i].wordIndex < entries[j].wordIndex
		}
		return entries[i].key < entries[j].key
	})

	for _, e := range entries {
		m := confirmations[e.key]
		a := f.Annotation(e.wordIndex, m.Lemma, m.Msa, m.Normalized)
		if a.Metadata == nil {
			a.Metadata = &domain.Metadata{}
		}
		a.Metadata.Source = Source
		if _, err := f.confirm(a, false); err != nil {
			log.Printf("lemma: skipping legacy confirmation %q: %s", e.key, err)
			result.Skipped = append(result.Skipped, e.key)
			continue
		}
		result.Imported++
	}
	return result
}
