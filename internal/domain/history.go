package domain

// ActionKind is the kind of mutation recorded in the history
type ActionKind string

const (
	ActionAdd    ActionKind = "add"
	ActionRemove ActionKind = "remove"
	ActionUpdate ActionKind = "update"
)

// HistoryAction records one mutation of an annotation set.
// Annotation is the post-state; for removals it repeats the deleted annotation.
// PreviousAnnotation is the pre-state of updates and removals.
type HistoryAction struct {
	Kind               ActionKind
	Annotation         Annotation
	PreviousAnnotation *Annotation
}
