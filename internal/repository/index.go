package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

const indexColumns = `event_id, team_id, name, description, category_id, audience, status,
	is_registration_closed, start_at, end_at, registered_count, max_participants,
	attendees, audience_members, created_on`

// IndexRepository owns the event_index projection: a denormalized,
// eventually-consistent read copy of the events table restricted to an
// allow-listed field set.
type IndexRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewIndexRepo(db *dbpg.DB) *IndexRepository {
	return &IndexRepository{
		db: db,
		strategy: retry.Strategy{
			Attempts: 3,
			Delay:    500 * time.Millisecond,
			Backoff:  2,
		},
	}
}

// Rebuild projects the primary store into the index in one idempotent pass:
// upsert every live event, drop rows whose source is removed or gone.
func (r *IndexRepository) Rebuild(ctx context.Context) error {
	upsert := `INSERT INTO event_index (` + indexColumns + `, indexed_at)
			   SELECT e.id, e.team_id, e.name, e.description, e.category_id, e.audience, e.status,
					  e.is_registration_closed,
					  (e.start_date::date + e.start_time::time) AT TIME ZONE 'UTC',
					  (e.end_date::date + e.end_time::time) AT TIME ZONE 'UTC',
					  e.registered_count, e.max_participants,
					  e.registered_attendees || e.auto_registered_attendees,
					  e.mandatory_attendees || e.optional_attendees,
					  e.created_on, now()
			   FROM events e
			   WHERE NOT e.is_removed
			   ON CONFLICT (event_id) DO UPDATE SET
					name = EXCLUDED.name,
					description = EXCLUDED.description,
					category_id = EXCLUDED.category_id,
					audience = EXCLUDED.audience,
					status = EXCLUDED.status,
					is_registration_closed = EXCLUDED.is_registration_closed,
					start_at = EXCLUDED.start_at,
					end_at = EXCLUDED.end_at,
					registered_count = EXCLUDED.registered_count,
					max_participants = EXCLUDED.max_participants,
					attendees = EXCLUDED.attendees,
					audience_members = EXCLUDED.audience_members,
					indexed_at = EXCLUDED.indexed_at`
	if _, err := r.db.ExecWithRetry(ctx, r.strategy, upsert); err != nil {
		return fmt.Errorf("rebuild index upsert: %w", err)
	}

	prune := `DELETE FROM event_index i
			  WHERE NOT EXISTS (
				  SELECT 1 FROM events e WHERE e.id = i.event_id AND NOT e.is_removed
			  )`
	if _, err := r.db.ExecWithRetry(ctx, r.strategy, prune); err != nil {
		return fmt.Errorf("rebuild index prune: %w", err)
	}

	return nil
}

// QueryByTeam is the organizer-facing profile.
func (r *IndexRepository) QueryByTeam(ctx context.Context, teamID string, page domain.Page) ([]*domain.IndexedEvent, error) {
	query := `SELECT ` + indexColumns + `
			  FROM event_index
			  WHERE team_id = $1
			  ORDER BY created_on DESC
			  LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, teamID, page.Size, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("query index by team: %w", err)
	}
	defer rows.Close()

	return collectIndexed(rows)
}

// QueryForUser is the end-user-facing profile: only active, unfinished
// events the viewer is allowed to see.
func (r *IndexRepository) QueryForUser(ctx context.Context, userID string, sort domain.UserEventSort, limit, offset int) ([]*domain.IndexedEvent, error) {
	order := "created_on DESC"
	if sort == domain.SortByPopularity || sort == domain.SortByCollaboratorPopularity {
		order = "registered_count DESC, created_on DESC"
	}

	query := `SELECT ` + indexColumns + `
			  FROM event_index
			  WHERE status = $2
				AND end_at >= now()
				AND (audience = $3 OR $1 = ANY(audience_members))
			  ORDER BY ` + order + `
			  LIMIT $4 OFFSET $5`

	rows, err := r.db.QueryWithRetry(
		ctx, r.strategy, query,
		userID, domain.EventStatusActive, domain.AudiencePublic, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query index for user: %w", err)
	}
	defer rows.Close()

	return collectIndexed(rows)
}

func collectIndexed(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*domain.IndexedEvent, error) {
	var res []*domain.IndexedEvent
	for rows.Next() {
		var e domain.IndexedEvent
		if err := rows.Scan(
			&e.EventID, &e.TeamID, &e.Name, &e.Description, &e.CategoryID,
			&e.Audience, &e.Status, &e.IsRegistrationClosed,
			&e.StartAt, &e.EndAt, &e.RegisteredCount, &e.MaxParticipants,
			pq.Array(&e.Attendees), pq.Array(&e.AudienceMembers), &e.CreatedOn,
		); err != nil {
			return nil, fmt.Errorf("scan indexed event: %w", err)
		}
		res = append(res, &e)
	}

	return res, rows.Err()
}
