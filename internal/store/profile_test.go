package store

import (
	"errors"
	"testing"
)

func TestProfileRepository_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := &CalibrationProfile{
		Name:      "evening",
		LowBound:  0.35,
		MidBound:  0.65,
		HighBound: 1.0,
	}
	if err := repo.Create(p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" {
		t.Fatal("Create should generate an ID")
	}

	got, err := repo.GetByName("evening")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got.LowBound != 0.35 || got.MidBound != 0.65 || got.HighBound != 1.0 {
		t.Errorf("bounds = %v/%v/%v, want 0.35/0.65/1.0", got.LowBound, got.MidBound, got.HighBound)
	}
	if got.Active {
		t.Error("new profile should not be active")
	}
}

func TestProfileRepository_SetActiveIsExclusive(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	a := &CalibrationProfile{Name: "a", LowBound: 0.3, MidBound: 0.6, HighBound: 1.0}
	b := &CalibrationProfile{Name: "b", LowBound: 0.4, MidBound: 0.7, HighBound: 1.0}
	repo.Create(a)
	repo.Create(b)

	if err := repo.SetActive(a.ID); err != nil {
		t.Fatalf("SetActive a: %v", err)
	}
	if err := repo.SetActive(b.ID); err != nil {
		t.Fatalf("SetActive b: %v", err)
	}

	active, err := repo.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active.ID != b.ID {
		t.Errorf("active = %s, want %s", active.Name, "b")
	}

	profiles, _ := repo.List()
	activeCount := 0
	for _, p := range profiles {
		if p.Active {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Errorf("%d active profiles, want exactly 1", activeCount)
	}
}

func TestProfileRepository_ActiveNone(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Profiles().Active(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Active with no profiles = %v, want ErrNotFound", err)
	}
}

func TestProfileRepository_SetActiveUnknown(t *testing.T) {
	s := newTestStore(t)

	if err := s.Profiles().SetActive("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetActive unknown = %v, want ErrNotFound", err)
	}
}

func TestProfileRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := &CalibrationProfile{Name: "gone", LowBound: 0.3, MidBound: 0.6, HighBound: 1.0}
	repo.Create(p)

	if err := repo.Delete(p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByName("gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted profile lookup = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}
