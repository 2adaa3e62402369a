// Package archive reads and writes the persisted forms of annotation sets:
// the annotation set JSON document and the legacy lemma confirmation map.
package archive

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/zeebo/blake3"

	"github.com/motheatensoul/tei-scribe/internal/domain"
)

// ErrUnsupportedVersion is returned for annotation sets written by a newer format
var ErrUnsupportedVersion = errors.New("unsupported annotation set version")

const schemaURL = "annotation-set.schema.json"

//go:embed schema/annotation-set.schema.json
var schemaContent []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func setSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaContent))
		if err != nil {
			schemaErr = fmt.Errorf("while parsing annotation set schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("while loading annotation set schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// ValidateSetJSON checks an encoded annotation set against the embedded schema
func ValidateSetJSON(data []byte) error {
	sch, err := setSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("while parsing annotation set: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("annotation set does not match schema: %w", err)
	}
	return nil
}

// DecodeSet parses and validates an annotation set document
func DecodeSet(data []byte) (domain.AnnotationSet, error) {
	if err := ValidateSetJSON(data); err != nil {
		return domain.AnnotationSet{}, err
	}
	var set domain.AnnotationSet
	if err := json.Unmarshal(data, &set); err != nil {
		return domain.AnnotationSet{}, fmt.Errorf("while decoding annotation set: %w", err)
	}
	if set.Version != domain.SetVersion {
		return domain.AnnotationSet{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, set.Version)
	}
	if set.Annotations == nil {
		set.Annotations = []domain.Annotation{}
	}
	return set, nil
}

// EncodeSet writes an annotation set document
func EncodeSet(set domain.AnnotationSet) ([]byte, error) {
	if set.Version == "" {
		set.Version = domain.SetVersion
	}
	if set.Annotations == nil {
		set.Annotations = []domain.Annotation{}
	}
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("while encoding annotation set: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseSetOrDefault decodes an annotation set, substituting an empty set when
// the document cannot be used. ok is false when the empty set was substituted.
func ParseSetOrDefault(data []byte) (set domain.AnnotationSet, ok bool) {
	set, err := DecodeSet(data)
	if err != nil {
		log.Printf("archive: ignoring unreadable annotation set: %s", err)
		return domain.NewAnnotationSet(), false
	}
	return set, true
}

// DecodeLegacy parses a legacy confirmation map keyed by word index
func DecodeLegacy(data []byte) (map[string]domain.LemmaMapping, error) {
	var confirmations map[string]domain.LemmaMapping
	if err := json.Unmarshal(data, &confirmations); err != nil {
		return nil, fmt.Errorf("while decoding legacy confirmations: %w", err)
	}
	if confirmations == nil {
		confirmations = map[string]domain.LemmaMapping{}
	}
	return confirmations, nil
}

// EncodeLegacy writes lemma mappings in the legacy confirmation map shape
func EncodeLegacy(mappings map[string]domain.LemmaMapping) ([]byte, error) {
	data, err := json.MarshalIndent(mappings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("while encoding legacy confirmations: %w", err)
	}
	return append(data, '\n'), nil
}

// Digest returns the BLAKE3 hex digest of the canonical encoding of a set
func Digest(set domain.AnnotationSet) (string, error) {
	data, err := EncodeSet(set)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
