// Package deletion implements the re-verified account deletion flow and its
// best-effort cascading cleanup.
package deletion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fixmyhinge/fixmyhinge/internal/identity"
	"github.com/fixmyhinge/fixmyhinge/internal/intake"
	"github.com/fixmyhinge/fixmyhinge/internal/photo"
	"github.com/fixmyhinge/fixmyhinge/internal/profile"
	"github.com/fixmyhinge/fixmyhinge/internal/storage"
)

// Step names the four cascade stages, executed strictly in this order.
type Step string

const (
	StepObjects  Step = "objects"
	StepRecords  Step = "photo_records"
	StepProfile  Step = "profile_document"
	StepIdentity Step = "identity"
)

// Status classifies a step's outcome. Cleanup steps may partially fail and
// still let the cascade proceed; only the identity step is fatal.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial_failure_logged"
	StatusFatal   Status = "fatal"
)

// StepResult records one stage's outcome. "Nothing to delete" is StatusOK
// with zero deletions; StatusPartial means at least one genuine deletion
// failure was logged and swallowed.
type StepResult struct {
	Step    Step   `json:"step"`
	Status  Status `json:"status"`
	Deleted int    `json:"deleted"`
	Failed  int    `json:"failed"`
	Err     error  `json:"-"`
}

// Cascade deletes everything stored under one identity: objects, photo
// records, the profile document, and finally the identity record itself.
// Failures in the first three steps are logged and do not abort the cascade
// (best-effort full cleanup over strict atomicity); a failure deleting the
// identity aborts without rolling anything back.
type Cascade struct {
	objects  storage.ObjectStore
	photos   photo.Repository
	profiles profile.Repository
	provider identity.Provider
	logger   *slog.Logger
}

// NewCascade builds a cascade over the platform stores.
func NewCascade(objects storage.ObjectStore, photos photo.Repository, profiles profile.Repository, provider identity.Provider, logger *slog.Logger) *Cascade {
	return &Cascade{objects: objects, photos: photos, profiles: profiles, provider: provider, logger: logger}
}

// Run executes the cascade for the re-authenticated session. The returned
// results always cover every step attempted; err is non-nil only when the
// identity step failed.
func (c *Cascade) Run(ctx context.Context, sess identity.Session) ([]StepResult, error) {
	ownerID := sess.Identity.ID
	results := make([]StepResult, 0, 4)

	res := c.deleteObjects(ctx, ownerID)
	c.logStep(res, ownerID)
	results = append(results, res)

	res = c.deleteRecords(ctx, ownerID)
	c.logStep(res, ownerID)
	results = append(results, res)

	res = c.deleteProfile(ctx, ownerID)
	c.logStep(res, ownerID)
	results = append(results, res)

	if err := c.provider.DeleteIdentity(ctx, sess); err != nil {
		res = StepResult{Step: StepIdentity, Status: StatusFatal, Err: err}
		c.logStep(res, ownerID)
		return append(results, res), fmt.Errorf("delete identity: %w", err)
	}
	results = append(results, StepResult{Step: StepIdentity, Status: StatusOK, Deleted: 1})

	return results, nil
}

func (c *Cascade) deleteObjects(ctx context.Context, ownerID string) StepResult {
	res := StepResult{Step: StepObjects, Status: StatusOK}

	refs, err := c.objects.List(ctx, intake.OwnerPrefix(ownerID))
	if err != nil {
		res.Status = StatusPartial
		res.Err = err
		return res
	}
	// An empty listing means nothing to delete; that is success, not failure.
	for _, ref := range refs {
		if err := c.objects.Delete(ctx, ref); err != nil {
			res.Failed++
			res.Err = err
			continue
		}
		res.Deleted++
	}
	if res.Failed > 0 {
		res.Status = StatusPartial
	}
	return res
}

func (c *Cascade) deleteRecords(ctx context.Context, ownerID string) StepResult {
	res := StepResult{Step: StepRecords, Status: StatusOK}

	records, err := c.photos.ListByOwner(ctx, ownerID)
	if err != nil {
		res.Status = StatusPartial
		res.Err = err
		return res
	}
	for _, rec := range records {
		if err := c.photos.Delete(ctx, ownerID, rec.ObjectKey); err != nil {
			res.Failed++
			res.Err = err
			continue
		}
		res.Deleted++
	}
	if res.Failed > 0 {
		res.Status = StatusPartial
	}
	return res
}

func (c *Cascade) deleteProfile(ctx context.Context, ownerID string) StepResult {
	err := c.profiles.Delete(ctx, ownerID)
	switch {
	case err == nil:
		return StepResult{Step: StepProfile, Status: StatusOK, Deleted: 1}
	case err == profile.ErrNotFound:
		return StepResult{Step: StepProfile, Status: StatusOK}
	default:
		return StepResult{Step: StepProfile, Status: StatusPartial, Failed: 1, Err: err}
	}
}

func (c *Cascade) logStep(res StepResult, ownerID string) {
	if c.logger == nil {
		return
	}
	attrs := []any{
		slog.String("step", string(res.Step)),
		slog.String("status", string(res.Status)),
		slog.Int("deleted", res.Deleted),
		slog.Int("failed", res.Failed),
		slog.String("user_id", ownerID),
	}
	if res.Err != nil {
		attrs = append(attrs, slog.Any("error", res.Err))
	}
	switch res.Status {
	case StatusOK:
		c.logger.Info("deletion step", attrs...)
	default:
		c.logger.Warn("deletion step", attrs...)
	}
}
