package intake

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fixmyhinge/fixmyhinge/internal/photo"
	"github.com/fixmyhinge/fixmyhinge/internal/profile"
	"github.com/fixmyhinge/fixmyhinge/internal/storage"
)

func newUploaderFixture(t *testing.T) (*Uploader, *storage.MemoryStore, photo.Repository, profile.Repository) {
	t.Helper()
	objects := storage.NewMemoryStore()
	photos := photo.NewMemoryRepository()
	profiles := profile.NewMemoryRepository()

	err := profiles.Create(context.Background(), profile.Document{
		ID:          "u1",
		PhoneNumber: "+15550100",
		Name:        "Drew",
		CreatedAt:   time.Now().UTC(),
		LastLoginAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	return NewUploader(objects, photos, profiles), objects, photos, profiles
}

func TestUploadRequiresMinimum(t *testing.T) {
	up, objects, _, _ := newUploaderFixture(t)

	sel := NewSelection(10, 20)
	if err := sel.Add(batch(9)...); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := up.Upload(context.Background(), "u1", sel, nil)
	var min *MinimumError
	if !errors.As(err, &min) {
		t.Fatalf("expected MinimumError, got %v", err)
	}
	want := "Please select at least 10 photos."
	if min.Error() != want {
		t.Fatalf("expected %q, got %q", want, min.Error())
	}
	if objects.Len() != 0 {
		t.Fatalf("nothing may be uploaded below the minimum")
	}
}

func TestUploadStoresBatchSequentially(t *testing.T) {
	up, objects, photos, profiles := newUploaderFixture(t)
	ctx := context.Background()

	sel := NewSelection(10, 20)
	if err := sel.Add(batch(10)...); err != nil {
		t.Fatalf("add: %v", err)
	}

	var progress []Progress
	if err := up.Upload(ctx, "u1", sel, func(p Progress) { progress = append(progress, p) }); err != nil {
		t.Fatalf("upload: %v", err)
	}

	if len(progress) != 10 {
		t.Fatalf("expected 10 progress reports, got %d", len(progress))
	}
	for i, p := range progress {
		if p.Completed != i+1 || p.Total != 10 {
			t.Fatalf("report %d: expected %d/10, got %d/%d", i, i+1, p.Completed, p.Total)
		}
	}

	if objects.Len() != 10 {
		t.Fatalf("expected 10 stored objects, got %d", objects.Len())
	}
	refs, err := objects.List(ctx, OwnerPrefix("u1"))
	if err != nil {
		t.Fatalf("list objects: %v", err)
	}
	if len(refs) != 10 {
		t.Fatalf("every object must live under the owner prefix, found %d", len(refs))
	}

	records, err := photos.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("expected 10 photo records, got %d", len(records))
	}
	for _, rec := range records {
		if !strings.HasPrefix(rec.ObjectKey, OwnerPrefix("u1")) {
			t.Fatalf("record key %s outside the owner prefix", rec.ObjectKey)
		}
		if !strings.HasSuffix(rec.ObjectKey, "-"+rec.Filename) {
			t.Fatalf("key %s must embed the filename %s", rec.ObjectKey, rec.Filename)
		}
	}

	doc, err := profiles.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if doc.Profile == nil || !doc.Profile.HasPhotos || doc.Profile.PhotoCount != 10 {
		t.Fatalf("expected hasPhotos with count 10, got %+v", doc.Profile)
	}
	if doc.Profile.Name != "Drew" {
		t.Fatalf("profile sub-object must carry the display name, got %q", doc.Profile.Name)
	}

	if sel.Count() != 0 {
		t.Fatalf("selection must be cleared after a successful upload")
	}
}

func TestUploadAbortsOnFirstFailure(t *testing.T) {
	up, objects, photos, profiles := newUploaderFixture(t)
	ctx := context.Background()

	sel := NewSelection(10, 20)
	if err := sel.Add(batch(10)...); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Files upload in order, so failing the fourth leaves exactly three.
	objects.FailPut = "photo-03.jpg"

	var progress []Progress
	err := up.Upload(ctx, "u1", sel, func(p Progress) { progress = append(progress, p) })
	if err == nil {
		t.Fatalf("expected the upload to fail")
	}
	if len(progress) != 3 {
		t.Fatalf("expected 3 completed files before the failure, got %d", len(progress))
	}
	if objects.Len() != 3 {
		t.Fatalf("expected 3 stored objects, got %d", objects.Len())
	}

	if sel.Count() != 10 {
		t.Fatalf("a failed upload must keep the selection for retry, got %d", sel.Count())
	}

	records, _ := photos.ListByOwner(ctx, "u1")
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	// The profile is only refreshed after a fully successful batch.
	doc, _ := profiles.Get(ctx, "u1")
	if doc.Profile != nil {
		t.Fatalf("profile must stay untouched after a failed batch, got %+v", doc.Profile)
	}
}

func TestObjectKeyLayout(t *testing.T) {
	ts := time.UnixMilli(1700000000000)
	key := ObjectKey("u1", ts, "beach.jpg")
	if key != "users/u1/photos/1700000000000-beach.jpg" {
		t.Fatalf("unexpected key %s", key)
	}
	if !strings.HasPrefix(key, OwnerPrefix("u1")) {
		t.Fatalf("key must fall under the owner prefix")
	}
}
