package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/fixmyhinge/fixmyhinge/internal/photo"
	"github.com/fixmyhinge/fixmyhinge/internal/profile"
	"github.com/fixmyhinge/fixmyhinge/internal/storage"
)

// Progress is the aggregate state reported after each completed file.
type Progress struct {
	Completed int
	Total     int
}

// ObjectKey builds the object path for one photo, namespaced by owner and
// stamped with the upload time.
func ObjectKey(ownerID string, ts time.Time, filename string) string {
	return fmt.Sprintf("users/%s/photos/%d-%s", ownerID, ts.UnixMilli(), filename)
}

// OwnerPrefix is the object-store prefix holding all of an identity's photos.
func OwnerPrefix(ownerID string) string {
	return fmt.Sprintf("users/%s/photos/", ownerID)
}

// Uploader performs the sequential batch upload: each file is stored, then
// recorded in the photo sub-collection, before the next one starts. The
// ordering is deliberate; there is no parallelism and no resumption of a
// partially uploaded batch.
type Uploader struct {
	objects  storage.ObjectStore
	photos   photo.Repository
	profiles profile.Repository
	now      func() time.Time
}

// NewUploader builds an uploader over the platform stores.
func NewUploader(objects storage.ObjectStore, photos photo.Repository, profiles profile.Repository) *Uploader {
	return &Uploader{objects: objects, photos: photos, profiles: profiles, now: time.Now}
}

// Upload sends the selection in order, invoking onProgress after each
// completed file. Any single failure aborts the whole operation and leaves
// the selection intact so the user can retry; on full success the selection
// is cleared and the owner's profile document is merged with the new photo
// count.
func (u *Uploader) Upload(ctx context.Context, ownerID string, sel *Selection, onProgress func(Progress)) error {
	count := sel.Count()
	if count < sel.Min() {
		return &MinimumError{Min: sel.Min()}
	}
	if count > sel.Max() {
		return &LimitError{Max: sel.Max()}
	}

	completed := 0
	for _, f := range sel.Files() {
		key := ObjectKey(ownerID, u.now(), f.Name)
		if err := u.objects.Put(ctx, key, f.Data, f.ContentType); err != nil {
			return fmt.Errorf("upload %s: %w", f.Name, err)
		}
		if err := u.photos.Put(ctx, photo.Record{
			OwnerID:     ownerID,
			ObjectKey:   key,
			Filename:    f.Name,
			ContentType: f.ContentType,
			SizeBytes:   int64(len(f.Data)),
			UploadedAt:  u.now().UTC(),
		}); err != nil {
			return fmt.Errorf("record %s: %w", f.Name, err)
		}
		completed++
		if onProgress != nil {
			onProgress(Progress{Completed: completed, Total: count})
		}
	}

	if err := u.refreshProfile(ctx, ownerID); err != nil {
		return err
	}

	sel.clear()
	return nil
}

// refreshProfile merges the owner's profile sub-object with the current photo
// totals; the rating list is derived from these fields.
func (u *Uploader) refreshProfile(ctx context.Context, ownerID string) error {
	records, err := u.photos.ListByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("count photos: %w", err)
	}

	doc, err := u.profiles.Get(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	sub := profile.Sub{
		Name:       doc.Name,
		HasPhotos:  len(records) > 0,
		PhotoCount: len(records),
	}
	if err := u.profiles.Merge(ctx, ownerID, profile.Patch{Profile: &sub}); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}
