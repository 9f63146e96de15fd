package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ayusman/ghostcoach/internal/geom"
	"github.com/ayusman/ghostcoach/internal/landmark"
	"github.com/ayusman/ghostcoach/internal/reference"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Reference is the catalog row of a stored reference.
type Reference struct {
	ID        string
	Name      string
	Kind      landmark.Kind
	FPS       float64
	Frames    int
	Samples   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReferenceRepository provides CRUD operations for references.
type ReferenceRepository struct {
	db *sql.DB
}

// References returns the reference repository for this store.
func (s *Store) References() *ReferenceRepository {
	return &ReferenceRepository{db: s.db}
}

const referenceColumns = `id, name, kind, fps, frames, samples, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanReference(row scanner) (*Reference, error) {
	ref := &Reference{}
	var kind string
	err := row.Scan(&ref.ID, &ref.Name, &kind, &ref.FPS, &ref.Frames, &ref.Samples, &ref.CreatedAt, &ref.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if ref.Kind, err = landmark.ParseKind(kind); err != nil {
		return nil, err
	}
	return ref, nil
}

func (r *ReferenceRepository) get(where string, arg any) (*Reference, error) {
	ref, err := scanReference(r.db.QueryRow(`SELECT `+referenceColumns+` FROM refs WHERE `+where+` = ?`, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ref, nil
}

// GetByID retrieves a reference by its ID.
func (r *ReferenceRepository) GetByID(id string) (*Reference, error) {
	return r.get("id", id)
}

// GetByName retrieves a reference by its name.
func (r *ReferenceRepository) GetByName(name string) (*Reference, error) {
	return r.get("name", name)
}

// List retrieves all references ordered by name.
func (r *ReferenceRepository) List() ([]*Reference, error) {
	rows, err := r.db.Query(`SELECT ` + referenceColumns + ` FROM refs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []*Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return refs, nil
}

// Delete removes a reference, its frames and its samples.
func (r *ReferenceRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM refs WHERE id = ?`, id)
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

	return nil
}

// Save stores seq under its name, replacing the frames of an existing
// reference with the same name. The sample count is kept.
func (r *ReferenceRepository) Save(seq reference.Sequence) (*Reference, error) {
	if err := seq.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	ref, err := scanReference(tx.QueryRow(`SELECT `+referenceColumns+` FROM refs WHERE name = ?`, seq.Name))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		ref = &Reference{ID: uuid.New().String(), Name: seq.Name, CreatedAt: now}
		_, err = tx.Exec(
			`INSERT INTO refs (id, name, kind, fps, frames, samples, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
			ref.ID, seq.Name, seq.Kind.String(), seq.FPS, len(seq.Frames), now, now,
		)
	case err == nil:
		_, err = tx.Exec(
			`UPDATE refs SET kind = ?, fps = ?, frames = ?, updated_at = ? WHERE id = ?`,
			seq.Kind.String(), seq.FPS, len(seq.Frames), now, ref.ID,
		)
		if err == nil {
			_, err = tx.Exec(`DELETE FROM ref_points WHERE ref_id = ?`, ref.ID)
		}
	}
	if err != nil {
		return nil, err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO ref_points (ref_id, frame_index, landmark_index, x, y, confidence)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for fi, frame := range seq.Frames {
		for li, p := range frame.Points {
			if !p.IsFinite() {
				continue
			}
			var conf sql.NullFloat64
			if frame.Confidence != nil {
				conf = sql.NullFloat64{Float64: frame.Conf(li), Valid: true}
			}
			if _, err := stmt.Exec(ref.ID, fi, li, p.X, p.Y, conf); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	ref.Kind = seq.Kind
	ref.FPS = seq.FPS
	ref.Frames = len(seq.Frames)
	ref.UpdatedAt = now
	return ref, nil
}

// Load reads the named reference back as a sequence. Landmarks that were
// not stored come back as NaN points with zero confidence.
func (r *ReferenceRepository) Load(name string) (reference.Sequence, error) {
	ref, err := r.GetByName(name)
	if err != nil {
		return reference.Sequence{}, err
	}
	n, err := ref.Kind.Cardinality()
	if err != nil {
		return reference.Sequence{}, err
	}
	limit := n
	if ref.Kind == landmark.Hand {
		limit = landmark.MaxHandLandmarks
	}

	rows, err := r.db.Query(
		`SELECT frame_index, landmark_index, x, y, confidence
		 FROM ref_points
		 WHERE ref_id = ?
		 ORDER BY frame_index, landmark_index`,
		ref.ID,
	)
	if err != nil {
		return reference.Sequence{}, err
	}
	defer rows.Close()

	frames := make([]landmark.Set, ref.Frames)
	for i := range frames {
		frames[i] = emptySet(n)
	}
	hasConf := make([]bool, ref.Frames)

	for rows.Next() {
		var fi, li int
		var p geom.Point
		var conf sql.NullFloat64
		if err := rows.Scan(&fi, &li, &p.X, &p.Y, &conf); err != nil {
			return reference.Sequence{}, err
		}
		if fi < 0 || fi >= len(frames) || li < 0 || li >= limit {
			return reference.Sequence{}, fmt.Errorf("reference %q: point %d/%d out of range", name, fi, li)
		}
		for li >= frames[fi].Len() {
			frames[fi].Points = append(frames[fi].Points, geom.Point{X: math.NaN(), Y: math.NaN()})
			frames[fi].Confidence = append(frames[fi].Confidence, 0)
		}
		frames[fi].Points[li] = p
		frames[fi].Confidence[li] = 1
		if conf.Valid {
			frames[fi].Confidence[li] = conf.Float64
			hasConf[fi] = true
		}
	}
	if err := rows.Err(); err != nil {
		return reference.Sequence{}, err
	}

	for i := range frames {
		if !hasConf[i] && complete(frames[i]) {
			frames[i].Confidence = nil
		}
	}

	return reference.Sequence{Name: ref.Name, Kind: ref.Kind, FPS: ref.FPS, Frames: frames}, nil
}

func emptySet(n int) landmark.Set {
	s := landmark.Set{
		Points:     make([]geom.Point, n),
		Confidence: make([]float64, n),
	}
	for i := range s.Points {
		s.Points[i] = geom.Point{X: math.NaN(), Y: math.NaN()}
	}
	return s
}

// complete reports whether every point of s was stored.
func complete(s landmark.Set) bool {
	for _, p := range s.Points {
		if !p.IsFinite() {
			return false
		}
	}
	return true
}
