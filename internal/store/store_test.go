package store

import (
	"errors"
	"slices"
	"testing"

	"github.com/motheatensoul/tei-scribe/internal/domain"
)

func note(id string, target domain.Target, text string) domain.Annotation {
	return domain.Annotation{ID: id, Type: domain.TypeNote, Target: target, Value: domain.NoteValue{Text: text}}
}

func lemma(wordIndex int, text, msa string) domain.Annotation {
	return domain.Annotation{
		ID:     domain.LemmaID(wordIndex),
		Type:   domain.TypeLemma,
		Target: domain.WordTarget(wordIndex),
		Value:  domain.LemmaValue{Lemma: text, Msa: msa},
	}
}

func TestStore_Add(t *testing.T) {
	t.Run("appends new annotations", func(t *testing.T) {
		s := New(0)
		action, err := s.Add(note("n1", domain.WordTarget(1), "first"), true)
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if action.Kind != domain.ActionAdd || action.PreviousAnnotation != nil {
			t.Errorf("action = %+v, want add without previous", action)
		}
		if s.Len() != 1 || !s.CanUndo() {
			t.Errorf("Len() = %d, CanUndo() = %v", s.Len(), s.CanUndo())
		}
	})

	t.Run("replaces annotations with the same id in place", func(t *testing.T) {
		s := New(0)
		s.Add(note("n1", domain.WordTarget(1), "first"), true)
		s.Add(note("n2", domain.WordTarget(2), "second"), true)

		action, err := s.Add(note("n1", domain.WordTarget(1), "changed"), true)
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if action.Kind != domain.ActionUpdate {
			t.Fatalf("Kind = %s, want update", action.Kind)
		}
		if got := action.PreviousAnnotation.Value.(domain.NoteValue).Text; got != "first" {
			t.Errorf("previous text = %q, want first", got)
		}
		set := s.Set()
		if len(set.Annotations) != 2 || set.Annotations[0].ID != "n1" {
			t.Errorf("update should keep position, got %+v", set.Annotations)
		}
	})

	t.Run("rejects mismatched type and value", func(t *testing.T) {
		s := New(0)
		bad := domain.Annotation{ID: "x", Type: domain.TypeLemma, Target: domain.WordTarget(1), Value: domain.NoteValue{Text: "a"}}
		if _, err := s.Add(bad, true); !errors.Is(err, domain.ErrInvalidAnnotation) {
			t.Fatalf("Add() error = %v, want ErrInvalidAnnotation", err)
		}
		if s.Len() != 0 || s.CanUndo() {
			t.Error("rejected annotation should leave the store untouched")
		}
	})

	t.Run("keeps one lemma per word", func(t *testing.T) {
		s := New(0)
		s.Add(lemma(3, "hund", "nsm"), true)
		other := domain.Annotation{ID: "x", Type: domain.TypeLemma, Target: domain.WordTarget(3), Value: domain.LemmaValue{Lemma: "kottr", Msa: "nsm"}}
		if _, err := s.Add(other, true); !errors.Is(err, domain.ErrInvalidAnnotation) {
			t.Fatalf("Add() error = %v, want ErrInvalidAnnotation", err)
		}
		if got := s.GetByType(domain.TypeLemma); len(got) != 1 {
			t.Fatalf("GetByType(lemma) = %d annotations, want 1", len(got))
		}
		if got := s.LemmaMappings()[3].Lemma; got != "hund" {
			t.Errorf("LemmaMappings()[3].Lemma = %q, want hund", got)
		}
	})

	t.Run("does not record history when asked not to", func(t *testing.T) {
		s := New(0)
		s.Add(note("n1", domain.WordTarget(1), "first"), false)
		if s.CanUndo() {
			t.Error("CanUndo() should be false")
		}
	})

	t.Run("new mutations clear the redo stack", func(t *testing.T) {
		s := New(0)
		s.Add(note("n1", domain.WordTarget(1), "first"), true)
		s.Undo()
		if !s.CanRedo() {
			t.Fatal("CanRedo() should be true after undo")
		}
		s.Add(note("n2", domain.WordTarget(2), "second"), true)
		if s.CanRedo() {
			t.Error("CanRedo() should be false after a new mutation")
		}
	})
}

func TestStore_Remove(t *testing.T) {
	s := New(0)
	s.Add(note("n1", domain.WordTarget(1), "first"), true)

	t.Run("no-op for unknown ids", func(t *testing.T) {
		if _, ok := s.Remove("missing", true); ok {
			t.Error("Remove() should report nothing happened")
		}
		if s.History().UndoLen() != 1 {
			t.Error("no-op removal should not be recorded")
		}
	})

	t.Run("records removed annotation", func(t *testing.T) {
		action, ok := s.Remove("n1", true)
		if !ok {
			t.Fatal("Remove() should succeed")
		}
		if action.Kind != domain.ActionRemove || action.PreviousAnnotation == nil || action.PreviousAnnotation.ID != "n1" {
			t.Errorf("action = %+v", action)
		}
		if action.Annotation.ID != "n1" {
			t.Errorf("Annotation.ID = %q, want n1", action.Annotation.ID)
		}
		if s.Len() != 0 {
			t.Errorf("Len() = %d, want 0", s.Len())
		}
	})
}

func TestStore_Queries(t *testing.T) {
	s := New(0)
	s.Add(lemma(3, "hundr", "nsm"), true)
	s.Add(note("n1", domain.SpanTarget(2, 4), "formula"), true)
	s.Add(domain.Annotation{
		ID:     "p1",
		Type:   domain.TypePaleographic,
		Target: domain.CharTarget(5, 0, 1),
		Value:  domain.PaleographicValue{ObservationType: "ligature"},
	}, true)
	s.Add(domain.Annotation{
		ID:     "lemma-7",
		Type:   domain.TypeLemma,
		Target: domain.CharTarget(7, 0, 3),
		Value:  domain.LemmaValue{Lemma: "til", Msa: "prep"},
	}, true)

	t.Run("GetForWord", func(t *testing.T) {
		got := s.GetForWord(3)
		if len(got) != 2 || got[0].ID != "lemma-3" || got[1].ID != "n1" {
			t.Errorf("GetForWord(3) = %+v", got)
		}
		if got := s.GetForWord(5); len(got) != 1 || got[0].ID != "p1" {
			t.Errorf("GetForWord(5) = %+v", got)
		}
		if got := s.GetForWord(100); got == nil || len(got) != 0 {
			t.Errorf("GetForWord(100) = %#v, want empty list", got)
		}
	})

	t.Run("GetByType", func(t *testing.T) {
		if got := s.GetByType(domain.TypeLemma); len(got) != 2 {
			t.Errorf("GetByType(lemma) = %d annotations, want 2", len(got))
		}
		if got := s.GetByType(domain.TypeSyntax); len(got) != 0 {
			t.Errorf("GetByType(syntax) = %d annotations, want 0", len(got))
		}
	})

	t.Run("AnnotationsByWordIndex fans spans out", func(t *testing.T) {
		byWord := s.AnnotationsByWordIndex()
		for _, w := range []int{2, 3, 4} {
			found := false
			for _, a := range byWord[w] {
				if a.ID == "n1" {
					found = true
				}
			}
			if !found {
				t.Errorf("word %d should list the span note", w)
			}
		}
		if _, ok := byWord[6]; ok {
			t.Error("word 6 should have no entry")
		}
	})

	t.Run("ConfirmedLemmaIndices only counts word targets", func(t *testing.T) {
		if got := s.ConfirmedLemmaIndices(); !slices.Equal(got, []int{3}) {
			t.Errorf("ConfirmedLemmaIndices() = %v, want [3]", got)
		}
	})

	t.Run("Counts", func(t *testing.T) {
		counts := s.Counts()
		if counts[domain.TypeLemma] != 2 || counts[domain.TypeNote] != 1 || counts[domain.TypePaleographic] != 1 {
			t.Errorf("Counts() = %v", counts)
		}
		if counts[domain.TypeCustom] != 0 {
			t.Errorf("Counts()[custom] = %d, want 0", counts[domain.TypeCustom])
		}
	})

	t.Run("LemmaMappings", func(t *testing.T) {
		mappings := s.LemmaMappings()
		if mappings[3].Lemma != "hundr" || mappings[3].Msa != "nsm" {
			t.Errorf("LemmaMappings()[3] = %+v", mappings[3])
		}
	})

	t.Run("snapshots are detached", func(t *testing.T) {
		set := s.Set()
		set.Annotations[0].ID = "changed"
		if _, ok := s.Get("lemma-3"); !ok {
			t.Error("mutating a snapshot must not change the store")
		}
	})
}

func TestStore_UndoRedo(t *testing.T) {
	t.Run("undo of add removes, redo re-adds", func(t *testing.T) {
		s := New(0)
		s.Add(note("n1", domain.WordTarget(1), "first"), true)

		action, ok := s.Undo()
		if !ok || action.Kind != domain.ActionAdd {
			t.Fatalf("Undo() = %+v, %v", action, ok)
		}
		if s.Len() != 0 {
			t.Errorf("Len() = %d after undo, want 0", s.Len())
		}

		if _, ok := s.Redo(); !ok {
			t.Fatal("Redo() should succeed")
		}
		if _, ok := s.Get("n1"); !ok {
			t.Error("redo should restore n1")
		}
		if s.History().UndoLen() != 1 || s.CanRedo() {
			t.Error("redo should move the action back onto the undo stack only")
		}
	})

	t.Run("undo of update restores previous value", func(t *testing.T) {
		s := New(0)
		s.Add(lemma(3, "hund", "nsm"), true)
		s.Add(lemma(3, "hundr", "nsm"), true)

		s.Undo()
		a, _ := s.Get(domain.LemmaID(3))
		if got := a.Value.(domain.LemmaValue).Lemma; got != "hund" {
			t.Errorf("lemma after undo = %q, want hund", got)
		}
		if s.Len() != 1 {
			t.Errorf("Len() = %d, want 1", s.Len())
		}

		s.Redo()
		a, _ = s.Get(domain.LemmaID(3))
		if got := a.Value.(domain.LemmaValue).Lemma; got != "hundr" {
			t.Errorf("lemma after redo = %q, want hundr", got)
		}
	})

	t.Run("undo of remove re-adds", func(t *testing.T) {
		s := New(0)
		s.Add(lemma(3, "hund", "nsm"), true)
		s.Remove(domain.LemmaID(3), true)
		if got := s.GetForWord(3); len(got) != 0 {
			t.Fatalf("GetForWord(3) = %v, want empty", got)
		}

		s.Undo()
		got := s.GetForWord(3)
		if len(got) != 1 || got[0].Value.(domain.LemmaValue).Lemma != "hund" {
			t.Errorf("GetForWord(3) after undo = %+v", got)
		}

		s.Redo()
		if s.Len() != 0 {
			t.Errorf("Len() after redo = %d, want 0", s.Len())
		}
	})

	t.Run("replay does not touch history", func(t *testing.T) {
		s := New(0)
		s.Add(note("n1", domain.WordTarget(1), "a"), true)
		s.Add(note("n2", domain.WordTarget(2), "b"), true)
		s.Undo()
		if s.History().UndoLen() != 1 || s.History().RedoLen() != 1 {
			t.Errorf("stacks = %d/%d, want 1/1", s.History().UndoLen(), s.History().RedoLen())
		}
	})

	t.Run("empty history is a no-op", func(t *testing.T) {
		s := New(0)
		if _, ok := s.Undo(); ok {
			t.Error("Undo() should report nothing happened")
		}
		if _, ok := s.Redo(); ok {
			t.Error("Redo() should report nothing happened")
		}
	})
}

func TestStore_LoadSetAndClear(t *testing.T) {
	s := New(0)
	s.Add(note("n1", domain.WordTarget(1), "a"), true)
	s.Undo()

	dropped := s.LoadSet(domain.AnnotationSet{
		Annotations: []domain.Annotation{
			lemma(1, "a", "x"),
			lemma(1, "dup", "x"),
			{ID: "lemma-five", Type: domain.TypeLemma, Target: domain.WordTarget(5), Value: domain.LemmaValue{Lemma: "b", Msa: "y"}},
			{ID: "bad", Type: domain.TypeNote, Target: domain.SpanTarget(3, 1), Value: domain.NoteValue{Text: "a"}},
			note("n2", domain.WordTarget(2), "b"),
		},
	})

	if dropped != 3 {
		t.Errorf("dropped = %d, want 3", dropped)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if _, ok := s.Get("lemma-five"); ok {
		t.Error("lemma with a non-derived id should be dropped")
	}
	if s.Set().Version != domain.SetVersion {
		t.Errorf("Version = %q, want default", s.Set().Version)
	}
	if s.CanUndo() || s.CanRedo() {
		t.Error("LoadSet should clear history")
	}

	s.Add(note("n3", domain.WordTarget(3), "c"), true)
	s.Clear()
	if s.Len() != 0 || s.CanUndo() || s.CanRedo() {
		t.Error("Clear should empty annotations and history")
	}
}

func TestStore_SetMaxHistory(t *testing.T) {
	s := New(3)
	for i := 0; i < 5; i++ {
		s.Add(lemma(i, "a", "x"), true)
	}
	if s.History().UndoLen() != 3 {
		t.Fatalf("UndoLen() = %d, want 3", s.History().UndoLen())
	}
	s.SetMaxHistory(1)
	if s.History().UndoLen() != 1 {
		t.Errorf("UndoLen() = %d, want 1", s.History().UndoLen())
	}
}
