package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fixmyhinge/fixmyhinge/internal/logging"
)

func seedRateable(t *testing.T, repo Repository, id, name string, photos int) {
	t.Helper()
	now := time.Now().UTC()
	err := repo.Create(context.Background(), Document{
		ID:          id,
		PhoneNumber: "+1555" + id,
		Name:        name,
		CreatedAt:   now,
		LastLoginAt: now,
		Profile:     &Sub{Name: name, HasPhotos: photos > 0, PhotoCount: photos},
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestListExcludesTheViewer(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, logging.Discard())

	seedRateable(t, repo, "a", "Alice", 10)
	seedRateable(t, repo, "b", "Bob", 12)
	seedRateable(t, repo, "c", "Cam", 11)

	got, err := svc.List(context.Background(), "a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "c" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestListIncludesEveryoneForAnonymousViewers(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, logging.Discard())

	seedRateable(t, repo, "a", "Alice", 10)
	seedRateable(t, repo, "b", "Bob", 12)

	got, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}
}

func TestListSkipsProfilesWithoutPhotos(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, logging.Discard())

	seedRateable(t, repo, "a", "Alice", 10)

	// Signed up but never uploaded: no profile sub-object at all.
	now := time.Now().UTC()
	if err := repo.Create(context.Background(), Document{ID: "b", Name: "Bob", CreatedAt: now, LastLoginAt: now}); err != nil {
		t.Fatalf("seed b: %v", err)
	}
	// Explicitly zero photos.
	seedRateable(t, repo, "c", "Cam", 0)

	got, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected only alice, got %+v", got)
	}
}

func TestListDefaultsMissingNames(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, logging.Discard())

	seedRateable(t, repo, "a", "", 10)

	got, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Anonymous" {
		t.Fatalf("expected Anonymous, got %+v", got)
	}
}

type failingRepo struct {
	Repository
}

func (failingRepo) QueryWithPhotos(context.Context) ([]Document, error) {
	return nil, errors.New("permission denied")
}

func TestListSurfacesOneFixedError(t *testing.T) {
	svc := NewService(failingRepo{}, logging.Discard())

	_, err := svc.List(context.Background(), "a")
	if !errors.Is(err, ErrListUnavailable) {
		t.Fatalf("expected ErrListUnavailable, got %v", err)
	}
	if err.Error() != "Missing or insufficient permissions." {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
