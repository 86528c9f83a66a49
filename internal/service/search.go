package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/akozyrev/TrainingEvents/internal/service/ports"
	"github.com/wb-go/wbf/logger"
)

// collabOverfetch is the fixed page multiple fetched when sorting by
// popularity among the viewer's collaborators. That sort depends on a
// per-viewer dynamic set absent from the index schema, so the candidates
// are over-fetched and re-sorted in memory.
const collabOverfetch = 3

// SearchService exposes the two read profiles over the event_index
// projection.
type SearchService struct {
	index         ports.IndexQuery
	collaborators ports.CollaboratorReader
	logger        logger.Logger
}

func NewSearchService(index ports.IndexQuery, collaborators ports.CollaboratorReader, logger logger.Logger) *SearchService {
	return &SearchService{
		index:         index,
		collaborators: collaborators,
		logger:        logger,
	}
}

// OrganizerEvents lists a team's events, newest first by creation time.
func (s *SearchService) OrganizerEvents(ctx context.Context, teamID string, page domain.Page) ([]*domain.IndexedEvent, error) {
	return s.index.QueryByTeam(ctx, teamID, page)
}

// UserEvents lists the events visible to the viewer, sorted by recency,
// overall popularity, or popularity among the viewer's collaborators.
func (s *SearchService) UserEvents(ctx context.Context, viewerID string, sortBy domain.UserEventSort, page domain.Page) ([]*domain.IndexedEvent, error) {
	if sortBy != domain.SortByCollaboratorPopularity {
		return s.index.QueryForUser(ctx, viewerID, sortBy, page.Size, page.Offset())
	}

	// Fetch enough candidates to cover every page up to the requested one.
	limit := (page.Number + 1) * page.Size * collabOverfetch
	candidates, err := s.index.QueryForUser(ctx, viewerID, domain.SortByPopularity, limit, 0)
	if err != nil {
		return nil, err
	}

	collabs, err := s.collaborators.GetCollaborators(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load collaborators: %w", err)
	}
	collabSet := make(map[string]struct{}, len(collabs))
	for _, id := range collabs {
		collabSet[id] = struct{}{}
	}

	scores := make(map[string]int, len(candidates))
	for _, e := range candidates {
		n := 0
		for _, attendee := range e.Attendees {
			if _, ok := collabSet[attendee]; ok {
				n++
			}
		}
		scores[e.EventID] = n
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return scores[candidates[i].EventID] > scores[candidates[j].EventID]
	})

	start := page.Offset()
	if start >= len(candidates) {
		return nil, nil
	}
	end := start + page.Size
	if end > len(candidates) {
		end = len(candidates)
	}
	return candidates[start:end], nil
}
