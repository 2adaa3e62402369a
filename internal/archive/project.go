package archive

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/util"

	"github.com/motheatensoul/tei-scribe/internal/domain"
	"github.com/motheatensoul/tei-scribe/internal/lemma"
)

const (
	// AnnotationsFile holds the annotation set of a project
	AnnotationsFile = "annotations.json"
	// LegacyFile holds the lemma confirmations of projects saved before annotation sets existed
	LegacyFile = "confirmations.json"
	// BackupFile keeps an unreadable annotation set that was replaced by an empty one
	BackupFile = AnnotationsFile + ".bak"
)

// OpenSource tells where the annotations of an opened project came from
type OpenSource string

const (
	SourceAnnotations OpenSource = "annotations"
	SourceLegacy      OpenSource = "legacy"
	SourceEmpty       OpenSource = "empty"
)

// OpenResult describes what Project.Open loaded
type OpenResult struct {
	Source    OpenSource
	Dropped   int
	Migration lemma.MigrationResult
	// Unreadable is set when annotations.json could not be decoded and was copied to BackupFile
	Unreadable bool
}

// Project reads and writes the annotation files of a project directory
type Project struct {
	fs          billy.Filesystem
	savedDigest string
}

// NewProject creates a project rooted at fs
func NewProject(fs billy.Filesystem) *Project {
	return &Project{fs: fs}
}

func (p *Project) readFile(name string) ([]byte, bool, error) {
	data, err := util.ReadFile(p.fs, name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("while reading %s: %w", name, err)
	}
	return data, true, nil
}

// Open replaces the content of the facade's store with the project annotations.
// The annotation set file is preferred; the legacy confirmation map is migrated
// when it is the only one present. An unreadable annotation set yields an empty,
// dirty set and is copied to BackupFile first. History is always cleared.
func (p *Project) Open(f *lemma.Facade) (OpenResult, error) {
	s := f.Store()

	data, ok, err := p.readFile(AnnotationsFile)
	if err != nil {
		return OpenResult{}, err
	}
	if ok {
		set, readable := ParseSetOrDefault(data)
		dropped := s.LoadSet(set)
		if !readable {
			// left dirty so the empty set is not taken for the saved one
			if err := util.WriteFile(p.fs, BackupFile, data, 0o644); err != nil {
				return OpenResult{}, fmt.Errorf("while writing %s: %w", BackupFile, err)
			}
			p.savedDigest = ""
			log.Printf("archive: kept unreadable %s as %s", AnnotationsFile, BackupFile)
			return OpenResult{Source: SourceAnnotations, Unreadable: true}, nil
		}
		p.remember(s.Set())
		return OpenResult{Source: SourceAnnotations, Dropped: dropped}, nil
	}

	data, ok, err = p.readFile(LegacyFile)
	if err != nil {
		return OpenResult{}, err
	}
	s.Clear()
	if !ok {
		p.remember(s.Set())
		return OpenResult{Source: SourceEmpty}, nil
	}

	confirmations, err := DecodeLegacy(data)
	if err != nil {
		log.Printf("archive: ignoring unreadable legacy confirmations: %s", err)
		p.remember(s.Set())
		return OpenResult{Source: SourceEmpty}, nil
	}
	migration := f.LoadLegacyConfirmations(confirmations)
	s.History().Clear()
	log.Printf("archive: migrated %d legacy confirmations, skipped %d", migration.Imported, len(migration.Skipped))
	return OpenResult{Source: SourceLegacy, Migration: migration}, nil
}

// Save writes the annotation set file through a temporary file and a rename
func (p *Project) Save(set domain.AnnotationSet) error {
	data, err := EncodeSet(set)
	if err != nil {
		return err
	}
	tmp := AnnotationsFile + ".tmp"
	if err := util.WriteFile(p.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("while writing %s: %w", tmp, err)
	}
	if err := p.fs.Rename(tmp, AnnotationsFile); err != nil {
		p.fs.Remove(tmp)
		return fmt.Errorf("while replacing %s: %w", AnnotationsFile, err)
	}
	p.remember(set)
	return nil
}

// Dirty reports whether set differs from what was last opened or saved
func (p *Project) Dirty(set domain.AnnotationSet) bool {
	digest, err := Digest(set)
	if err != nil {
		return true
	}
	return digest != p.savedDigest
}

func (p *Project) remember(set domain.AnnotationSet) {
	digest, err := Digest(set)
	if err != nil {
		log.Printf("archive: while computing digest: %s", err)
		p.savedDigest = ""
		return
	}
	p.savedDigest = digest
}
