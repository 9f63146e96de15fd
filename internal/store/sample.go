package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ayusman/ghostcoach/internal/geom"
	"github.com/ayusman/ghostcoach/internal/landmark"
)

// Sample is one recorded take of a reference pose.
type Sample struct {
	ID          int64
	ReferenceID string
	SampleIndex int
	Set         landmark.Set
	CreatedAt   time.Time
}

// sampleData is the JSON encoding of a sample's landmarks.
type sampleData struct {
	Points     [][2]float64 `json:"points"`
	Confidence []float64    `json:"confidence,omitempty"`
}

func encodeSample(s landmark.Set) (string, error) {
	d := sampleData{Points: make([][2]float64, s.Len()), Confidence: s.Confidence}
	for i, p := range s.Points {
		d.Points[i] = [2]float64{p.X, p.Y}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeSample(data string) (landmark.Set, error) {
	var d sampleData
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return landmark.Set{}, err
	}
	points := make([]geom.Point, len(d.Points))
	for i, p := range d.Points {
		points[i] = geom.Point{X: p[0], Y: p[1]}
	}
	return landmark.Set{Points: points, Confidence: d.Confidence}, nil
}

// SampleRepository provides CRUD operations for reference samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Replace stores samples for a reference in a single transaction, dropping
// any earlier samples. It also updates the sample count on the reference.
func (r *SampleRepository) Replace(referenceID string, samples []landmark.Set) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE refs SET samples = ?, updated_at = ? WHERE id = ?`,
		len(samples), time.Now(), referenceID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(`DELETE FROM ref_samples WHERE ref_id = ?`, referenceID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO ref_samples (ref_id, sample_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, set := range samples {
		data, err := encodeSample(set)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(referenceID, i, data); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByReferenceID retrieves all samples for a given reference.
func (r *SampleRepository) GetByReferenceID(referenceID string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, ref_id, sample_index, data, created_at
		 FROM ref_samples
		 WHERE ref_id = ?
		 ORDER BY sample_index`,
		referenceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var data string
		if err := rows.Scan(&s.ID, &s.ReferenceID, &s.SampleIndex, &data, &s.CreatedAt); err != nil {
			return nil, err
		}
		if s.Set, err = decodeSample(data); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// Sets returns just the landmark sets of samples, in order.
func Sets(samples []Sample) []landmark.Set {
	sets := make([]landmark.Set, len(samples))
	for i, s := range samples {
		sets[i] = s.Set
	}
	return sets
}
