package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/motheatensoul/tei-scribe/internal/domain"
)

// AnnotationRepository implements domain.AnnotationRepository on SQLite
type AnnotationRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewAnnotationRepository creates a new AnnotationRepository
func NewAnnotationRepository(db *sql.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db, now: time.Now}
}

// SaveSet replaces the stored annotations of a document
func (r *AnnotationRepository) SaveSet(ctx context.Context, documentID string, set domain.AnnotationSet) error {
	if set.Version == "" {
		set.Version = domain.SetVersion
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("while starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO documents (id, version, saved_at) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET version = excluded.version, saved_at = excluded.saved_at`,
		documentID, set.Version, r.now().Unix())
	if err != nil {
		return fmt.Errorf("while saving document %s: %w", documentID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM annotations WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("while clearing annotations of %s: %w", documentID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO annotations (document_id, position, id, type, word_start, word_end, target, value, metadata)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for position, a := range set.Annotations {
		if err := domain.Validate(a); err != nil {
			return err
		}
		row, err := toRow(a)
		if err != nil {
			return err
		}
		start, end := a.Target.Bounds()
		_, err = stmt.ExecContext(ctx, documentID, position, a.ID, string(a.Type), start, end, row.target, row.value, row.metadata)
		if err != nil {
			return fmt.Errorf("while saving annotation %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// LoadSet retrieves the annotations of a document, nil if the document is unknown
func (r *AnnotationRepository) LoadSet(ctx context.Context, documentID string) (*domain.AnnotationSet, error) {
	var version string
	err := r.db.QueryRowContext(ctx, "SELECT version FROM documents WHERE id = ?", documentID).Scan(&version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	annotations, err := r.query(ctx, `
SELECT target, value, metadata, id, type FROM annotations
WHERE document_id = ? ORDER BY position`, documentID)
	if err != nil {
		return nil, err
	}

	return &domain.AnnotationSet{Version: version, Annotations: annotations}, nil
}

// FindByWord retrieves the annotations of a document covering a word
func (r *AnnotationRepository) FindByWord(ctx context.Context, documentID string, wordIndex int) ([]domain.Annotation, error) {
	return r.query(ctx, `
SELECT target, value, metadata, id, type FROM annotations
WHERE document_id = ? AND word_start <= ? AND word_end >= ? ORDER BY position`,
		documentID, wordIndex, wordIndex)
}

// ListDocuments retrieves all stored documents
func (r *AnnotationRepository) ListDocuments(ctx context.Context) ([]*domain.DocumentSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT d.id, d.version, d.saved_at, COUNT(a.id)
FROM documents d LEFT JOIN annotations a ON a.document_id = d.id
GROUP BY d.id, d.version, d.saved_at
ORDER BY d.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.DocumentSummary{}
	for rows.Next() {
		var summary domain.DocumentSummary
		var savedAt int64
		if err := rows.Scan(&summary.DocumentID, &summary.Version, &savedAt, &summary.AnnotationCount); err != nil {
			return nil, err
		}
		summary.SavedAt = time.Unix(savedAt, 0).UTC()
		result = append(result, &summary)
	}
	return result, rows.Err()
}

// DeleteDocument removes a document and its annotations
func (r *AnnotationRepository) DeleteDocument(ctx context.Context, documentID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM annotations WHERE document_id = ?", documentID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetStats returns overall annotation statistics
func (r *AnnotationRepository) GetStats(ctx context.Context) (*domain.AnnotationStats, error) {
	stats := &domain.AnnotationStats{ByType: make(map[domain.AnnotationType]int64)}
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&stats.Documents); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, "SELECT type, COUNT(*) FROM annotations GROUP BY type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var t string
		var count int64
		if err := rows.Scan(&t, &count); err != nil {
			return nil, err
		}
		stats.ByType[domain.AnnotationType(t)] = count
		stats.TotalAnnotations += count
	}
	return stats, rows.Err()
}

func (r *AnnotationRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Annotation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Annotation{}
	for rows.Next() {
		var row annotationRow
		var id, annotationType string
		if err := rows.Scan(&row.target, &row.value, &row.metadata, &id, &annotationType); err != nil {
			return nil, err
		}
		a, err := row.toDomain(id, domain.AnnotationType(annotationType))
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// annotationRow holds the JSON columns of an annotation row
type annotationRow struct {
	target   string
	value    string
	metadata sql.NullString
}

func toRow(a domain.Annotation) (annotationRow, error) {
	var row annotationRow
	target, err := json.Marshal(a.Target)
	if err != nil {
		return row, fmt.Errorf("while encoding target of %s: %w", a.ID, err)
	}
	value, err := domain.MarshalValue(a.Value)
	if err != nil {
		return row, fmt.Errorf("while encoding value of %s: %w", a.ID, err)
	}
	row.target, row.value = string(target), string(value)
	if a.Metadata != nil {
		metadata, err := json.Marshal(a.Metadata)
		if err != nil {
			return row, fmt.Errorf("while encoding metadata of %s: %w", a.ID, err)
		}
		row.metadata = sql.NullString{String: string(metadata), Valid: true}
	}
	return row, nil
}

func (row annotationRow) toDomain(id string, annotationType domain.AnnotationType) (domain.Annotation, error) {
	a := domain.Annotation{ID: id, Type: annotationType}
	if err := json.Unmarshal([]byte(row.target), &a.Target); err != nil {
		return a, fmt.Errorf("while decoding target of %s: %w", id, err)
	}
	value, err := domain.UnmarshalValue([]byte(row.value))
	if err != nil {
		return a, fmt.Errorf("while decoding value of %s: %w", id, err)
	}
	a.Value = value
	if row.metadata.Valid {
		a.Metadata = &domain.Metadata{}
		if err := json.Unmarshal([]byte(row.metadata.String), a.Metadata); err != nil {
			return a, fmt.Errorf("while decoding metadata of %s: %w", id, err)
		}
	}
	return a, nil
}

// Verify that AnnotationRepository implements domain.AnnotationRepository
var _ domain.AnnotationRepository = (*AnnotationRepository)(nil)
