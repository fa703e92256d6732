package profile

import (
	"context"
	"errors"
	"log/slog"
	"sort"
)

// ErrListUnavailable is the one fixed message the rating list surfaces for
// any underlying store failure, permission or otherwise.
var ErrListUnavailable = errors.New("Missing or insufficient permissions.")

const anonymousName = "Anonymous"

// Service produces the list of users eligible for rating.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds a profile listing service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns rateable profile summaries. An authenticated viewer never sees
// their own profile; anonymous viewers (empty viewerID) see the full set.
func (s *Service) List(ctx context.Context, viewerID string) ([]Summary, error) {
	docs, err := s.repo.QueryWithPhotos(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("profile query failed", "error", err)
		}
		return nil, ErrListUnavailable
	}

	summaries := make([]Summary, 0, len(docs))
	for _, doc := range docs {
		if viewerID != "" && doc.ID == viewerID {
			continue
		}
		if doc.Profile == nil {
			continue
		}
		name := doc.Profile.Name
		if name == "" {
			name = anonymousName
		}
		summaries = append(summaries, Summary{
			ID:         doc.ID,
			Name:       name,
			PhotoCount: doc.Profile.PhotoCount,
		})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}
