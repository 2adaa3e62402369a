package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidAnnotation is wrapped by every validation failure
var ErrInvalidAnnotation = errors.New("invalid annotation")

// SetVersion is the format version written into new annotation sets
const SetVersion = "1.0"

// AnnotationType is the category of an annotation
type AnnotationType string

const (
	TypeLemma        AnnotationType = "lemma"
	TypeSemantic     AnnotationType = "semantic"
	TypeNote         AnnotationType = "note"
	TypePaleographic AnnotationType = "paleographic"
	TypeSyntax       AnnotationType = "syntax"
	TypeReference    AnnotationType = "reference"
	TypeCustom       AnnotationType = "custom"
)

// AnnotationTypes lists every known type in display order
var AnnotationTypes = []AnnotationType{
	TypeLemma, TypeSemantic, TypeNote, TypePaleographic, TypeSyntax, TypeReference, TypeCustom,
}

// IsValid returns true if the annotation type is known
func (t AnnotationType) IsValid() bool {
	for _, known := range AnnotationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Metadata records provenance of an annotation
type Metadata struct {
	Author     string     `json:"author,omitempty"`
	Created    *time.Time `json:"created,omitempty"`
	Modified   *time.Time `json:"modified,omitempty"`
	Confidence *float64   `json:"confidence,omitempty"`
	Source     string     `json:"source,omitempty"`
	Note       string     `json:"note,omitempty"`
}

// Annotation is a typed record anchored to positions of the transcription.
// Annotations are replaced, never mutated in place.
type Annotation struct {
	ID       string
	Type     AnnotationType
	Target   Target
	Value    Value
	Metadata *Metadata
}

// AnnotationSet is the persisted collection of annotations of a document
type AnnotationSet struct {
	Version     string       `json:"version"`
	Annotations []Annotation `json:"annotations"`
}

// LemmaMapping is the legacy projection of a confirmed lemma
type LemmaMapping struct {
	Lemma      string `json:"lemma"`
	Msa        string `json:"msa"`
	Normalized string `json:"normalized,omitempty"`
}

// NewAnnotationSet returns an empty set with the current version
func NewAnnotationSet() AnnotationSet {
	return AnnotationSet{Version: SetVersion, Annotations: []Annotation{}}
}

// LemmaID returns the canonical id of the lemma annotation of a word
func LemmaID(wordIndex int) string {
	return "lemma-" + strconv.Itoa(wordIndex)
}

// NewAnnotationID returns a fresh id for annotations that have no canonical id
func NewAnnotationID(t AnnotationType) string {
	return fmt.Sprintf("%s-%s", t, uuid.NewString())
}

// Validate checks the cross-field invariants of an annotation
func Validate(a Annotation) error {
	if a.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidAnnotation)
	}
	if !a.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAnnotation, a.Type)
	}
	if a.Value == nil {
		return fmt.Errorf("%w: annotation %s has no value", ErrInvalidAnnotation, a.ID)
	}
	if !a.Value.Kind().CompatibleWith(a.Type) {
		return fmt.Errorf("%w: value kind %q does not match type %q", ErrInvalidAnnotation, a.Value.Kind(), a.Type)
	}
	if err := a.Target.Validate(); err != nil {
		return fmt.Errorf("annotation %s: %w", a.ID, err)
	}
	if a.Type == TypeLemma {
		if a.Target.Type != TargetWord && a.Target.Type != TargetChar {
			return fmt.Errorf("%w: lemma %s must target a word", ErrInvalidAnnotation, a.ID)
		}
		// one lemma per word: the id is derived from the word index
		if want := LemmaID(a.Target.WordIndex); a.ID != want {
			return fmt.Errorf("%w: lemma id %q for word %d, want %q", ErrInvalidAnnotation, a.ID, a.Target.WordIndex, want)
		}
	}
	if a.Metadata != nil && a.Metadata.Confidence != nil {
		if c := *a.Metadata.Confidence; c < 0 || c > 1 {
			return fmt.Errorf("%w: confidence %v outside [0, 1]", ErrInvalidAnnotation, c)
		}
	}
	return nil
}

// Clone returns a deep copy of the annotation
func (a Annotation) Clone() Annotation {
	c := a
	if a.Value != nil {
		c.Value = cloneValue(a.Value)
	}
	if a.Metadata != nil {
		m := *a.Metadata
		if m.Created != nil {
			t := *m.Created
			m.Created = &t
		}
		if m.Modified != nil {
			t := *m.Modified
			m.Modified = &t
		}
		if m.Confidence != nil {
			f := *m.Confidence
			m.Confidence = &f
		}
		c.Metadata = &m
	}
	return c
}

// Clone returns a deep copy of the set
func (s AnnotationSet) Clone() AnnotationSet {
	c := AnnotationSet{Version: s.Version, Annotations: make([]Annotation, len(s.Annotations))}
	for i, a := range s.Annotations {
		c.Annotations[i] = a.Clone()
	}
	return c
}

type annotationJSON struct {
	ID       string          `json:"id"`
	Type     AnnotationType  `json:"type"`
	Target   Target          `json:"target"`
	Value    json.RawMessage `json:"value"`
	Metadata *Metadata       `json:"metadata,omitempty"`
}

func (a Annotation) MarshalJSON() ([]byte, error) {
	value, err := MarshalValue(a.Value)
	if err != nil {
		return nil, fmt.Errorf("while encoding annotation %s: %w", a.ID, err)
	}
	return json.Marshal(annotationJSON{
		ID:       a.ID,
		Type:     a.Type,
		Target:   a.Target,
		Value:    value,
		Metadata: a.Metadata,
	})
}

func (a *Annotation) UnmarshalJSON(data []byte) error {
	var raw annotationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	value, err := UnmarshalValue(raw.Value)
	if err != nil {
		return fmt.Errorf("while decoding annotation %s: %w", raw.ID, err)
	}
	*a = Annotation{
		ID:       raw.ID,
		Type:     raw.Type,
		Target:   raw.Target,
		Value:    value,
		Metadata: raw.Metadata,
	}
	return nil
}

// DocumentSummary describes a document stored in an AnnotationRepository
type DocumentSummary struct {
	DocumentID      string
	Version         string
	AnnotationCount int64
	SavedAt         time.Time
}

// AnnotationStats provides statistics about stored annotations
type AnnotationStats struct {
	Documents        int64
	TotalAnnotations int64
	ByType           map[AnnotationType]int64
}

// AnnotationRepository defines the interface for annotation set storage operations
type AnnotationRepository interface {
	// SaveSet replaces the stored annotations of a document
	SaveSet(ctx context.Context, documentID string, set AnnotationSet) error

	// LoadSet retrieves the annotations of a document, nil if unknown
	LoadSet(ctx context.Context, documentID string) (*AnnotationSet, error)

	// FindByWord retrieves the annotations of a document covering a word
	FindByWord(ctx context.Context, documentID string, wordIndex int) ([]Annotation, error)

	// ListDocuments retrieves all stored documents
	ListDocuments(ctx context.Context) ([]*DocumentSummary, error)

	// DeleteDocument removes a document and its annotations
	DeleteDocument(ctx context.Context, documentID string) error

	// GetStats returns overall annotation statistics
	GetStats(ctx context.Context) (*AnnotationStats, error)
}
