package history

import (
	"strconv"
	"testing"

	"github.com/motheatensoul/tei-scribe/internal/domain"
)

func action(id string) domain.HistoryAction {
	return domain.HistoryAction{
		Kind: domain.ActionAdd,
		Annotation: domain.Annotation{
			ID:     id,
			Type:   domain.TypeNote,
			Target: domain.WordTarget(0),
			Value:  domain.NoteValue{Text: id},
		},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		maxSize int
		want    int
	}{
		{"default size when 0", 0, DefaultMaxHistory},
		{"default size when negative", -3, DefaultMaxHistory},
		{"custom size", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.maxSize)
			if s.MaxHistory() != tt.want {
				t.Errorf("MaxHistory() = %d, want %d", s.MaxHistory(), tt.want)
			}
			if s.CanUndo() || s.CanRedo() {
				t.Error("new stack should have nothing to undo or redo")
			}
		})
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := New(10)
	s.Push(action("a"))
	s.Push(action("b"))

	undoLen, redoLen := s.UndoLen(), s.RedoLen()

	undone, ok := s.Undo()
	if !ok || undone.Annotation.ID != "b" {
		t.Fatalf("Undo() = %v, %v, want b", undone.Annotation.ID, ok)
	}
	if !s.CanRedo() {
		t.Error("CanRedo() should be true after undo")
	}

	redone, ok := s.Redo()
	if !ok || redone.Annotation.ID != "b" {
		t.Fatalf("Redo() = %v, %v, want b", redone.Annotation.ID, ok)
	}
	if s.UndoLen() != undoLen || s.RedoLen() != redoLen {
		t.Errorf("lengths = %d/%d, want %d/%d", s.UndoLen(), s.RedoLen(), undoLen, redoLen)
	}
}

func TestEmptyStacks(t *testing.T) {
	s := New(5)
	if _, ok := s.Undo(); ok {
		t.Error("Undo() on empty stack should report nothing happened")
	}
	if _, ok := s.Redo(); ok {
		t.Error("Redo() on empty stack should report nothing happened")
	}
}

func TestPushClearsRedo(t *testing.T) {
	s := New(5)
	s.Push(action("a"))
	s.Push(action("b"))
	s.Undo()
	s.Undo()
	if s.RedoLen() != 2 {
		t.Fatalf("RedoLen() = %d, want 2", s.RedoLen())
	}

	s.Push(action("c"))
	if s.CanRedo() {
		t.Error("Push should empty the redo stack")
	}
	if s.UndoLen() != 1 {
		t.Errorf("UndoLen() = %d, want 1", s.UndoLen())
	}
}

func TestBoundedHistory(t *testing.T) {
	const maxHistory = 5
	s := New(maxHistory)
	for i := 0; i < maxHistory+3; i++ {
		s.Push(action(strconv.Itoa(i)))
	}

	if s.UndoLen() != maxHistory {
		t.Fatalf("UndoLen() = %d, want %d", s.UndoLen(), maxHistory)
	}
	for i, a := range s.UndoActions() {
		if want := strconv.Itoa(i + 3); a.Annotation.ID != want {
			t.Errorf("entry %d = %s, want %s", i, a.Annotation.ID, want)
		}
	}
}

func TestSetMaxHistory(t *testing.T) {
	s := New(10)
	for i := 0; i < 8; i++ {
		s.Push(action(strconv.Itoa(i)))
	}

	s.SetMaxHistory(3)
	entries := s.UndoActions()
	if len(entries) != 3 {
		t.Fatalf("UndoLen() = %d, want 3", len(entries))
	}
	if entries[0].Annotation.ID != "5" || entries[2].Annotation.ID != "7" {
		t.Errorf("kept %s..%s, want 5..7", entries[0].Annotation.ID, entries[2].Annotation.ID)
	}

	s.SetMaxHistory(0)
	if s.MaxHistory() != DefaultMaxHistory {
		t.Errorf("MaxHistory() = %d, want default", s.MaxHistory())
	}
}

func TestClear(t *testing.T) {
	s := New(5)
	s.Push(action("a"))
	s.Push(action("b"))
	s.Undo()

	s.Clear()
	if s.CanUndo() || s.CanRedo() {
		t.Error("Clear() should empty both stacks")
	}
}
