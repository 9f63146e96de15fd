package store

import (
	"errors"
	"math"
	"testing"

	"github.com/ayusman/ghostcoach/internal/landmark"
	"github.com/ayusman/ghostcoach/internal/reference"
)

func curlSequence(name string) reference.Sequence {
	frames := make([]landmark.Set, 3)
	for i := range frames {
		frames[i] = landmark.SyntheticHand([5]float64{0, float64(i) * 0.5, 0, 0, 0})
	}
	return reference.Sequence{Name: name, Kind: landmark.Hand, FPS: 15, Frames: frames}
}

func assertSameSets(t *testing.T, want, got []landmark.Set) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("expected %d frames, got %d", len(want), len(got))
	}
	for f := range want {
		if want[f].Len() != got[f].Len() {
			t.Fatalf("frame %d: expected %d landmarks, got %d", f, want[f].Len(), got[f].Len())
		}
		for i := range want[f].Points {
			if want[f].Points[i] != got[f].Points[i] {
				t.Errorf("frame %d landmark %d: expected %v, got %v", f, i, want[f].Points[i], got[f].Points[i])
			}
			if want[f].Conf(i) != got[f].Conf(i) {
				t.Errorf("frame %d landmark %d: expected confidence %v, got %v", f, i, want[f].Conf(i), got[f].Conf(i))
			}
		}
	}
}

func TestReferenceRepository_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)
	repo := s.References()

	seq := curlSequence("index-curl")
	ref, err := repo.Save(seq)
	if err != nil {
		t.Fatalf("failed to save reference: %v", err)
	}

	if ref.ID == "" {
		t.Error("ID should be assigned on save")
	}
	if ref.Frames != 3 {
		t.Errorf("expected 3 frames, got %d", ref.Frames)
	}
	if ref.CreatedAt.IsZero() || ref.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after save")
	}

	loaded, err := repo.Load("index-curl")
	if err != nil {
		t.Fatalf("failed to load reference: %v", err)
	}
	if loaded.Name != seq.Name || loaded.Kind != seq.Kind || loaded.FPS != seq.FPS {
		t.Errorf("expected %s/%s/%v, got %s/%s/%v", seq.Name, seq.Kind, seq.FPS, loaded.Name, loaded.Kind, loaded.FPS)
	}
	assertSameSets(t, seq.Frames, loaded.Frames)
	if loaded.Frames[0].Confidence != nil {
		t.Error("frames saved without confidence should load without confidence")
	}
}

func TestReferenceRepository_Confidence(t *testing.T) {
	s := newTestStore(t)
	repo := s.References()

	pose := landmark.TPose()
	pose.Confidence = make([]float64, pose.Len())
	for i := range pose.Confidence {
		pose.Confidence[i] = 0.9
	}
	pose.Points[landmark.LeftAnkle].X = math.NaN()

	if _, err := repo.Save(reference.Static("t-pose", landmark.Body, pose)); err != nil {
		t.Fatalf("failed to save reference: %v", err)
	}

	loaded, err := repo.Load("t-pose")
	if err != nil {
		t.Fatalf("failed to load reference: %v", err)
	}
	got := loaded.Frames[0]

	if got.Conf(int(landmark.Nose)) != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", got.Conf(int(landmark.Nose)))
	}
	if got.Points[landmark.LeftAnkle].IsFinite() {
		t.Error("missing landmark should load as NaN")
	}
	if got.Valid(int(landmark.LeftAnkle), 0) {
		t.Error("missing landmark should not be valid")
	}
}

func TestReferenceRepository_SaveReplaces(t *testing.T) {
	s := newTestStore(t)
	repo := s.References()

	first, err := repo.Save(curlSequence("wave"))
	if err != nil {
		t.Fatalf("failed to save reference: %v", err)
	}

	replacement := reference.Static("wave", landmark.Hand, landmark.OpenPalm())
	second, err := repo.Save(replacement)
	if err != nil {
		t.Fatalf("failed to replace reference: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("replacing should keep the ID: %s != %s", second.ID, first.ID)
	}

	loaded, err := repo.Load("wave")
	if err != nil {
		t.Fatalf("failed to load reference: %v", err)
	}
	if !loaded.IsStatic() {
		t.Errorf("expected a static reference, got %d frames", len(loaded.Frames))
	}
	assertSameSets(t, replacement.Frames, loaded.Frames)

	var points int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM ref_points WHERE ref_id = ?`, first.ID).Scan(&points); err != nil {
		t.Fatalf("failed to count points: %v", err)
	}
	if points != landmark.NumHandLandmarks {
		t.Errorf("expected %d stored points, got %d", landmark.NumHandLandmarks, points)
	}
}

func TestReferenceRepository_SaveInvalid(t *testing.T) {
	s := newTestStore(t)

	_, err := s.References().Save(reference.Sequence{Name: "empty", Kind: landmark.Hand})
	if !errors.Is(err, reference.ErrEmptySequence) {
		t.Errorf("expected ErrEmptySequence, got %v", err)
	}
}

func TestReferenceRepository_GetAndList(t *testing.T) {
	s := newTestStore(t)
	repo := s.References()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := repo.Save(reference.Static(name, landmark.Hand, landmark.Fist())); err != nil {
			t.Fatalf("failed to save %s: %v", name, err)
		}
	}

	refs, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list references: %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("expected 3 references, got %d", len(refs))
	}
	for i, want := range []string{"alpha", "mid", "zeta"} {
		if refs[i].Name != want {
			t.Errorf("position %d: expected %s, got %s", i, want, refs[i].Name)
		}
	}

	byName, err := repo.GetByName("mid")
	if err != nil {
		t.Fatalf("failed to get by name: %v", err)
	}
	byID, err := repo.GetByID(byName.ID)
	if err != nil {
		t.Fatalf("failed to get by id: %v", err)
	}
	if byID.Name != "mid" || byID.Kind != landmark.Hand {
		t.Errorf("unexpected reference %+v", byID)
	}

	if _, err := repo.GetByName("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReferenceRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.References()

	ref, err := repo.Save(curlSequence("gone"))
	if err != nil {
		t.Fatalf("failed to save reference: %v", err)
	}
	if err := s.Samples().Replace(ref.ID, []landmark.Set{landmark.OpenPalm()}); err != nil {
		t.Fatalf("failed to save samples: %v", err)
	}

	if err := repo.Delete(ref.ID); err != nil {
		t.Fatalf("failed to delete reference: %v", err)
	}

	if _, err := repo.GetByID(ref.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	for _, table := range []string{"ref_points", "ref_samples"} {
		var n int
		if err := s.DB().QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE ref_id = ?`, ref.ID).Scan(&n); err != nil {
			t.Fatalf("failed to count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s should cascade on delete, %d rows left", table, n)
		}
	}

	if err := repo.Delete(ref.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}
