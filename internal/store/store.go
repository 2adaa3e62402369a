// Package store owns the canonical annotation set of an open document.
package store

import (
	"fmt"
	"log"
	"sort"

	"github.com/motheatensoul/tei-scribe/internal/domain"
	"github.com/motheatensoul/tei-scribe/internal/history"
)

// Store keeps the annotations of one document together with its undo/redo history.
// Derived views are computed from the annotation list on every call.
//
// Store is not safe for concurrent use; callers that share it must serialize access.
type Store struct {
	set     domain.AnnotationSet
	history *history.Stack
}

// New creates an empty store whose history keeps at most maxHistory actions
func New(maxHistory int) *Store {
	return &Store{
		set:     domain.NewAnnotationSet(),
		history: history.New(maxHistory),
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.set.Annotations {
		if s.set.Annotations[i].ID == id {
			return i
		}
	}
	return -1
}

// Add inserts the annotation, or replaces the annotation with the same id in place.
// The returned action describes what happened; it is pushed onto the history
// unless recordHistory is false. Invalid annotations are rejected without any change.
func (s *Store) Add(a domain.Annotation, recordHistory bool) (domain.HistoryAction, error) {
	if err := domain.Validate(a); err != nil {
		return domain.HistoryAction{}, err
	}
	a = a.Clone()

	var action domain.HistoryAction
	if i := s.indexOf(a.ID); i >= 0 {
		previous := s.set.Annotations[i]
		s.set.Annotations[i] = a
		action = domain.HistoryAction{Kind: domain.ActionUpdate, Annotation: a.Clone(), PreviousAnnotation: &previous}
	} else {
		s.set.Annotations = append(s.set.Annotations, a)
		action = domain.HistoryAction{Kind: domain.ActionAdd, Annotation: a.Clone()}
	}

	if recordHistory {
		s.history.Push(action)
	}
	return action, nil
}

// Remove deletes the annotation with the given id. It returns false, and records
// nothing, when no such annotation exists.
func (s *Store) Remove(id string, recordHistory bool) (domain.HistoryAction, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return domain.HistoryAction{}, false
	}
	removed := s.set.Annotations[i]
	s.set.Annotations = append(s.set.Annotations[:i], s.set.Annotations[i+1:]...)

	previous := removed.Clone()
	action := domain.HistoryAction{Kind: domain.ActionRemove, Annotation: removed, PreviousAnnotation: &previous}
	if recordHistory {
		s.history.Push(action)
	}
	return action, true
}

// Get returns the annotation with the given id
func (s *Store) Get(id string) (domain.Annotation, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.set.Annotations[i].Clone(), true
	}
	return domain.Annotation{}, false
}

// GetForWord returns every annotation whose target covers the word, in insertion order
func (s *Store) GetForWord(wordIndex int) []domain.Annotation {
	result := []domain.Annotation{}
	for _, a := range s.set.Annotations {
		if domain.TargetIncludesWord(a.Target, wordIndex) {
			result = append(result, a.Clone())
		}
	}
	return result
}

// GetByType returns every annotation of the given type, in insertion order
func (s *Store) GetByType(t domain.AnnotationType) []domain.Annotation {
	result := []domain.Annotation{}
	for _, a := range s.set.Annotations {
		if a.Type == t {
			result = append(result, a.Clone())
		}
	}
	return result
}

// Len returns the number of annotations
func (s *Store) Len() int {
	return len(s.set.Annotations)
}

// Set returns a snapshot of the whole annotation set
func (s *Store) Set() domain.AnnotationSet {
	return s.set.Clone()
}

// AnnotationsByWordIndex maps every covered word index to its annotations.
// Span annotations appear under each word they cover.
func (s *Store) AnnotationsByWordIndex() map[int][]domain.Annotation {
	result := make(map[int][]domain.Annotation)
	for _, a := range s.set.Annotations {
		start, end := a.Target.Bounds()
		for w := start; w <= end; w++ {
			result[w] = append(result[w], a.Clone())
		}
	}
	return result
}

// ConfirmedLemmaIndices returns the sorted word indices holding a word-level lemma annotation
func (s *Store) ConfirmedLemmaIndices() []int {
	seen := make(map[int]struct{})
	for _, a := range s.set.Annotations {
		if a.Type == domain.TypeLemma && a.Target.Type == domain.TargetWord {
			seen[a.Target.WordIndex] = struct{}{}
		}
	}
	result := make([]int, 0, len(seen))
	for w := range seen {
		result = append(result, w)
	}
	sort.Ints(result)
	return result
}

// Counts returns the number of annotations per type
func (s *Store) Counts() map[domain.AnnotationType]int {
	result := make(map[domain.AnnotationType]int, len(domain.AnnotationTypes))
	for _, t := range domain.AnnotationTypes {
		result[t] = 0
	}
	for _, a := range s.set.Annotations {
		result[a.Type]++
	}
	return result
}

// LemmaMappings projects every lemma annotation onto its word index
func (s *Store) LemmaMappings() map[int]domain.LemmaMapping {
	result := make(map[int]domain.LemmaMapping)
	for _, a := range s.set.Annotations {
		if a.Type != domain.TypeLemma {
			continue
		}
		v, ok := a.Value.(domain.LemmaValue)
		if !ok {
			continue
		}
		start, _ := a.Target.Bounds()
		result[start] = domain.LemmaMapping{Lemma: v.Lemma, Msa: v.Msa, Normalized: v.Normalized}
	}
	return result
}

// LoadSet replaces the whole annotation set and clears the history.
// Annotations that are invalid or repeat an earlier id are dropped; the number
// of dropped annotations is returned.
func (s *Store) LoadSet(set domain.AnnotationSet) int {
	loaded := domain.AnnotationSet{Version: set.Version, Annotations: make([]domain.Annotation, 0, len(set.Annotations))}
	if loaded.Version == "" {
		loaded.Version = domain.SetVersion
	}

	seen := make(map[string]struct{}, len(set.Annotations))
	dropped := 0
	for _, a := range set.Annotations {
		if err := domain.Validate(a); err != nil {
			log.Printf("store: dropping annotation %q: %s", a.ID, err)
			dropped++
			continue
		}
		if _, ok := seen[a.ID]; ok {
			log.Printf("store: dropping duplicate annotation %q", a.ID)
			dropped++
			continue
		}
		seen[a.ID] = struct{}{}
		loaded.Annotations = append(loaded.Annotations, a.Clone())
	}

	s.set = loaded
	s.history.Clear()
	return dropped
}

// Clear resets the store to an empty set and clears the history
func (s *Store) Clear() {
	s.set = domain.NewAnnotationSet()
	s.history.Clear()
}

// Undo reverts the most recent recorded action and returns it.
// It returns false when there is nothing to undo.
func (s *Store) Undo() (domain.HistoryAction, bool) {
	action, ok := s.history.Undo()
	if !ok {
		return action, false
	}
	switch action.Kind {
	case domain.ActionAdd:
		s.Remove(action.Annotation.ID, false)
	case domain.ActionRemove, domain.ActionUpdate:
		if action.PreviousAnnotation != nil {
			s.replay(*action.PreviousAnnotation)
		}
	}
	return action, true
}

// Redo re-applies the most recently undone action and returns it.
// It returns false when there is nothing to redo.
func (s *Store) Redo() (domain.HistoryAction, bool) {
	action, ok := s.history.Redo()
	if !ok {
		return action, false
	}
	switch action.Kind {
	case domain.ActionAdd, domain.ActionUpdate:
		s.replay(action.Annotation)
	case domain.ActionRemove:
		s.Remove(action.Annotation.ID, false)
	}
	return action, true
}

func (s *Store) replay(a domain.Annotation) {
	// Recorded annotations were validated when first added
	if _, err := s.Add(a, false); err != nil {
		log.Printf("store: %s", fmt.Errorf("while replaying annotation %q: %w", a.ID, err))
	}
}

func (s *Store) CanUndo() bool {
	return s.history.CanUndo()
}

func (s *Store) CanRedo() bool {
	return s.history.CanRedo()
}

// SetMaxHistory changes the history bound, discarding the oldest actions beyond it
func (s *Store) SetMaxHistory(n int) {
	s.history.SetMaxHistory(n)
}

// History exposes the underlying stack for inspection
func (s *Store) History() *history.Stack {
	return s.history
}
