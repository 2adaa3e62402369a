package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// ValueKind is the discriminant carried by every annotation value
type ValueKind string

const (
	KindLemma              ValueKind = "lemma"
	KindSemantic           ValueKind = "semantic"
	KindNote               ValueKind = "note"
	KindPaleographic       ValueKind = "paleographic"
	KindMenotaPaleographic ValueKind = "menota-paleographic"
	KindSyntax             ValueKind = "syntax"
	KindReference          ValueKind = "reference"
	KindCustom             ValueKind = "custom"
)

// CompatibleWith reports whether a value of this kind may be stored under the annotation type
func (k ValueKind) CompatibleWith(t AnnotationType) bool {
	switch k {
	case KindMenotaPaleographic:
		return t == TypePaleographic
	default:
		return string(k) == string(t)
	}
}

// Value is the closed set of annotation payloads. Implementations live in this package only.
type Value interface {
	Kind() ValueKind
	isValue()
}

type LemmaValue struct {
	Lemma      string `json:"lemma"`
	Msa        string `json:"msa"`
	Normalized string `json:"normalized,omitempty"`
	OnpID      string `json:"onpId,omitempty"`
}

type SemanticValue struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Identifier  string `json:"identifier,omitempty"`
	Label       string `json:"label,omitempty"`
}

type NoteValue struct {
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
}

type PaleographicValue struct {
	ObservationType string `json:"observationType"`
	Description     string `json:"description,omitempty"`
	Certainty       string `json:"certainty,omitempty"`
}

// MenotaPaleographicValue carries the MENOTA-specific observation attributes
// (unclear, add, del, supplied and character-level markup).
type MenotaPaleographicValue struct {
	ObservationType   string `json:"observationType"`
	UnclearReason     string `json:"unclearReason,omitempty"`
	AdditionPlace     string `json:"additionPlace,omitempty"`
	AdditionType      string `json:"additionType,omitempty"`
	DeletionRendering string `json:"deletionRendering,omitempty"`
	SuppliedReason    string `json:"suppliedReason,omitempty"`
	SuppliedResp      string `json:"suppliedResp,omitempty"`
	SuppliedSource    string `json:"suppliedSource,omitempty"`
	CharType          string `json:"charType,omitempty"`
	CharSize          string `json:"charSize,omitempty"`
	Certainty         string `json:"certainty,omitempty"`
	Description       string `json:"description,omitempty"`
}

type SyntaxValue struct {
	Function string `json:"function"`
	Details  string `json:"details,omitempty"`
}

type ReferenceValue struct {
	Target  string `json:"target"`
	RefType string `json:"refType"`
	Label   string `json:"label,omitempty"`
}

type CustomValue struct {
	CustomType string            `json:"customType"`
	Data       map[string]string `json:"data"`
}

func (LemmaValue) Kind() ValueKind              { return KindLemma }
func (SemanticValue) Kind() ValueKind           { return KindSemantic }
func (NoteValue) Kind() ValueKind               { return KindNote }
func (PaleographicValue) Kind() ValueKind       { return KindPaleographic }
func (MenotaPaleographicValue) Kind() ValueKind { return KindMenotaPaleographic }
func (SyntaxValue) Kind() ValueKind             { return KindSyntax }
func (ReferenceValue) Kind() ValueKind          { return KindReference }
func (CustomValue) Kind() ValueKind             { return KindCustom }

func (LemmaValue) isValue()              {}
func (SemanticValue) isValue()           {}
func (NoteValue) isValue()               {}
func (PaleographicValue) isValue()       {}
func (MenotaPaleographicValue) isValue() {}
func (SyntaxValue) isValue()             {}
func (ReferenceValue) isValue()          {}
func (CustomValue) isValue()             {}

// cloneValue returns a copy that shares no mutable state with v
func cloneValue(v Value) Value {
	if c, ok := v.(CustomValue); ok {
		c.Data = maps.Clone(c.Data)
		return c
	}
	return v
}

// MarshalValue encodes v as a JSON object with its "kind" discriminant first
func MarshalValue(v Value) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("cannot encode nil value")
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"kind":%q`, v.Kind())
	if body := bytes.TrimSpace(payload[1 : len(payload)-1]); len(body) > 0 {
		buf.WriteByte(',')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalValue decodes a value object using its "kind" discriminant
func UnmarshalValue(data []byte) (Value, error) {
	var head struct {
		Kind ValueKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Kind {
	case KindLemma:
		return decodeAs[LemmaValue](data)
	case KindSemantic:
		return decodeAs[SemanticValue](data)
	case KindNote:
		return decodeAs[NoteValue](data)
	case KindPaleographic:
		return decodeAs[PaleographicValue](data)
	case KindMenotaPaleographic:
		return decodeAs[MenotaPaleographicValue](data)
	case KindSyntax:
		return decodeAs[SyntaxValue](data)
	case KindReference:
		return decodeAs[ReferenceValue](data)
	case KindCustom:
		return decodeAs[CustomValue](data)
	default:
		return nil, fmt.Errorf("unknown value kind %q", head.Kind)
	}
}

func decodeAs[T Value](data []byte) (Value, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
