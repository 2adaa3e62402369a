package annotation

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/motheatensoul/tei-scribe/internal/archive"
	"github.com/motheatensoul/tei-scribe/internal/domain"
	"github.com/motheatensoul/tei-scribe/internal/lemma"
	"github.com/motheatensoul/tei-scribe/internal/store"
)

// Session is the single owner of the annotations of an open document.
// Mutations are serialized; readers get detached snapshots.
type Session struct {
	mu      sync.RWMutex
	facade  *lemma.Facade
	project *archive.Project

	// Repository, when set, receives a copy of every saved set under DocumentID
	Repository domain.AnnotationRepository
	DocumentID string
}

func NewSession(maxHistory int, author string) *Session {
	return &Session{facade: lemma.NewFacade(store.New(maxHistory), author)}
}

func (s *Session) store() *store.Store {
	return s.facade.Store()
}

// Open loads a project, replacing the current annotations and clearing history
func (s *Session) Open(project *archive.Project) (archive.OpenResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := project.Open(s.facade)
	if err != nil {
		return result, err
	}
	s.project = project
	return result, nil
}

// Save writes the annotations to the open project and, if configured, the repository
func (s *Session) Save(ctx context.Context) error {
	set, err := s.saveProject()
	if err != nil {
		return err
	}
	if s.Repository != nil {
		if err := s.Repository.SaveSet(ctx, s.DocumentID, set); err != nil {
			return fmt.Errorf("while saving to database: %w", err)
		}
	}
	log.Printf("session: saved %d annotations", len(set.Annotations))
	return nil
}

// saveProject holds the write lock since the project tracks the saved digest
func (s *Session) saveProject() (domain.AnnotationSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return domain.AnnotationSet{}, fmt.Errorf("no project is open")
	}
	set := s.store().Set()
	if err := s.project.Save(set); err != nil {
		return set, err
	}
	return set, nil
}

func (s *Session) ConfirmLemma(wordIndex int, lemma, msa, normalized string) (domain.HistoryAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facade.ConfirmLemma(wordIndex, lemma, msa, normalized)
}

func (s *Session) UnconfirmLemma(wordIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.facade.UnconfirmLemma(wordIndex)
	return ok
}

// Add stores an annotation, assigning an id when it has none. Lemma
// annotations get the id derived from their word.
func (s *Session) Add(a domain.Annotation) (domain.HistoryAction, error) {
	if a.ID == "" {
		if a.Type == domain.TypeLemma {
			a.ID = domain.LemmaID(a.Target.WordIndex)
		} else {
			a.ID = domain.NewAnnotationID(a.Type)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store().Add(a, true)
}

func (s *Session) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.store().Remove(id, true)
	return ok
}

func (s *Session) Undo() (domain.HistoryAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store().Undo()
}

func (s *Session) Redo() (domain.HistoryAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store().Redo()
}

// Snapshot is a read-only view of a session at one point in time
type Snapshot struct {
	Set       domain.AnnotationSet
	Counts    map[domain.AnnotationType]int
	Confirmed []int
	Lemmas    map[string]domain.LemmaMapping
	// LemmasByWord holds the same mappings as Lemmas keyed by word index
	LemmasByWord map[int]domain.LemmaMapping
	CanUndo      bool
	CanRedo      bool
	Dirty        bool
}

func (s *Session) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.store()
	snap := &Snapshot{
		Set:          st.Set(),
		Counts:       st.Counts(),
		Confirmed:    st.ConfirmedLemmaIndices(),
		Lemmas:       s.facade.LemmaMappings(),
		LemmasByWord: st.LemmaMappings(),
		CanUndo:      st.CanUndo(),
		CanRedo:      st.CanRedo(),
	}
	if s.project != nil {
		snap.Dirty = s.project.Dirty(snap.Set)
	}
	return snap
}

func (s *Session) WordAnnotations(wordIndex int) []domain.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store().GetForWord(wordIndex)
}
