// Package history keeps the bounded undo/redo stacks of annotation mutations.
package history

import "github.com/motheatensoul/tei-scribe/internal/domain"

// DefaultMaxHistory is the default number of undoable actions kept
const DefaultMaxHistory = 50

// Stack holds the undo and redo stacks. The zero value is not usable; use New.
//
// Stack is not safe for concurrent use; it is owned by a single store.
type Stack struct {
	undo       []domain.HistoryAction
	redo       []domain.HistoryAction
	maxHistory int
}

// New creates a stack bounded to maxHistory undoable actions.
// If maxHistory is 0 or negative, DefaultMaxHistory is used.
func New(maxHistory int) *Stack {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Stack{
		undo:       make([]domain.HistoryAction, 0, maxHistory),
		maxHistory: maxHistory,
	}
}

// Push records a new action. The oldest action is evicted once the bound is
// exceeded, and the redo stack is always emptied.
func (s *Stack) Push(action domain.HistoryAction) {
	s.undo = append(s.undo, action)
	s.trim()
	s.redo = s.redo[:0]
}

// Undo pops the most recent action and moves it onto the redo stack.
// It returns false when there is nothing to undo.
func (s *Stack) Undo() (domain.HistoryAction, bool) {
	if len(s.undo) == 0 {
		return domain.HistoryAction{}, false
	}
	action := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, action)
	return action, true
}

// Redo pops the most recently undone action and moves it back onto the undo stack.
// It returns false when there is nothing to redo.
func (s *Stack) Redo() (domain.HistoryAction, bool) {
	if len(s.redo) == 0 {
		return domain.HistoryAction{}, false
	}
	action := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, action)
	s.trim()
	return action, true
}

// Clear empties both stacks
func (s *Stack) Clear() {
	s.undo = s.undo[:0]
	s.redo = s.redo[:0]
}

// SetMaxHistory changes the bound, keeping only the most recent n undoable actions.
// If n is 0 or negative, DefaultMaxHistory is used.
func (s *Stack) SetMaxHistory(n int) {
	if n <= 0 {
		n = DefaultMaxHistory
	}
	s.maxHistory = n
	s.trim()
}

// MaxHistory returns the current bound
func (s *Stack) MaxHistory() int {
	return s.maxHistory
}

func (s *Stack) CanUndo() bool {
	return len(s.undo) > 0
}

func (s *Stack) CanRedo() bool {
	return len(s.redo) > 0
}

func (s *Stack) UndoLen() int {
	return len(s.undo)
}

func (s *Stack) RedoLen() int {
	return len(s.redo)
}

// UndoActions returns a copy of the undo stack, oldest first
func (s *Stack) UndoActions() []domain.HistoryAction {
	result := make([]domain.HistoryAction, len(s.undo))
	copy(result, s.undo)
	return result
}

func (s *Stack) trim() {
	if excess := len(s.undo) - s.maxHistory; excess > 0 {
		// Shift entries down so the backing array does not grow without bound
		n := copy(s.undo, s.undo[excess:])
		clear(s.undo[n:])
		s.undo = s.undo[:n]
	}
}
