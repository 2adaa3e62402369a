package domain

import (
	"encoding/json"
	"fmt"
)

// TargetType discriminates the anchor of an annotation
type TargetType string

const (
	TargetWord TargetType = "word"
	TargetChar TargetType = "char"
	TargetSpan TargetType = "span"
)

// Target anchors an annotation to one word, a character range inside a word,
// or an inclusive range of words. Only the fields of the active Type are meaningful.
type Target struct {
	Type      TargetType
	WordIndex int
	CharStart int
	CharEnd   int
	StartWord int
	EndWord   int
}

// WordTarget anchors an annotation to a single word
func WordTarget(wordIndex int) Target {
	return Target{Type: TargetWord, WordIndex: wordIndex}
}

// CharTarget anchors an annotation to characters [charStart, charEnd] of a word
func CharTarget(wordIndex, charStart, charEnd int) Target {
	return Target{Type: TargetChar, WordIndex: wordIndex, CharStart: charStart, CharEnd: charEnd}
}

// SpanTarget anchors an annotation to the words startWord..endWord, both included
func SpanTarget(startWord, endWord int) Target {
	return Target{Type: TargetSpan, StartWord: startWord, EndWord: endWord}
}

// Bounds returns the first and last word index covered by the target
func (t Target) Bounds() (int, int) {
	switch t.Type {
	case TargetSpan:
		return t.StartWord, t.EndWord
	default:
		return t.WordIndex, t.WordIndex
	}
}

// WordIndicesOf expands a target into every word index it covers
func WordIndicesOf(t Target) []int {
	start, end := t.Bounds()
	if end < start {
		return nil
	}
	indices := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		indices = append(indices, i)
	}
	return indices
}

// TargetIncludesWord reports whether wordIndex is covered by the target
func TargetIncludesWord(t Target, wordIndex int) bool {
	start, end := t.Bounds()
	return wordIndex >= start && wordIndex <= end
}

// Validate checks the index constraints of the active target type
func (t Target) Validate() error {
	switch t.Type {
	case TargetWord:
		if t.WordIndex < 0 {
			return fmt.Errorf("%w: negative word index %d", ErrInvalidAnnotation, t.WordIndex)
		}
	case TargetChar:
		if t.WordIndex < 0 {
			return fmt.Errorf("%w: negative word index %d", ErrInvalidAnnotation, t.WordIndex)
		}
		if t.CharStart < 0 || t.CharStart > t.CharEnd {
			return fmt.Errorf("%w: invalid character range %d..%d", ErrInvalidAnnotation, t.CharStart, t.CharEnd)
		}
	case TargetSpan:
		if t.StartWord < 0 {
			return fmt.Errorf("%w: negative span start %d", ErrInvalidAnnotation, t.StartWord)
		}
		if t.StartWord > t.EndWord {
			return fmt.Errorf("%w: span start %d after end %d", ErrInvalidAnnotation, t.StartWord, t.EndWord)
		}
	default:
		return fmt.Errorf("%w: unknown target type %q", ErrInvalidAnnotation, t.Type)
	}
	return nil
}

type wordTargetJSON struct {
	Type      TargetType `json:"type"`
	WordIndex int        `json:"wordIndex"`
}

type charTargetJSON struct {
	Type      TargetType `json:"type"`
	WordIndex int        `json:"wordIndex"`
	CharStart int        `json:"charStart"`
	CharEnd   int        `json:"charEnd"`
}

type spanTargetJSON struct {
	Type      TargetType `json:"type"`
	StartWord int        `json:"startWord"`
	EndWord   int        `json:"endWord"`
}

func (t Target) MarshalJSON() ([]byte, error) {
	switch t.Type {
	case TargetWord:
		return json.Marshal(wordTargetJSON{Type: t.Type, WordIndex: t.WordIndex})
	case TargetChar:
		return json.Marshal(charTargetJSON{Type: t.Type, WordIndex: t.WordIndex, CharStart: t.CharStart, CharEnd: t.CharEnd})
	case TargetSpan:
		return json.Marshal(spanTargetJSON{Type: t.Type, StartWord: t.StartWord, EndWord: t.EndWord})
	default:
		return nil, fmt.Errorf("cannot encode target of type %q", t.Type)
	}
}

func (t *Target) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type      TargetType `json:"type"`
		WordIndex int        `json:"wordIndex"`
		CharStart int        `json:"charStart"`
		CharEnd   int        `json:"charEnd"`
		StartWord int        `json:"startWord"`
		EndWord   int        `json:"endWord"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case TargetWord:
		*t = WordTarget(raw.WordIndex)
	case TargetChar:
		*t = CharTarget(raw.WordIndex, raw.CharStart, raw.CharEnd)
	case TargetSpan:
		*t = SpanTarget(raw.StartWord, raw.EndWord)
	default:
		return fmt.Errorf("unknown target type %q", raw.Type)
	}
	return nil
}
