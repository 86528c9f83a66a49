package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

const eventColumns = `id, team_id, name, description, venue, meeting_link, selected_color,
	photo_url, type, category_id, status, is_removed, is_registration_closed,
	start_date, end_date, start_time, end_time, number_of_occurrences,
	audience, selected_spec, mandatory_attendees, optional_attendees,
	is_auto_register, auto_registered_attendees, registered_attendees,
	registered_count, max_participants, graph_event_id, team_card_activity_id,
	created_by, created_on, updated_by, updated_on, version`

type EventRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewEventRepo(db *dbpg.DB) *EventRepository {
	return &EventRepository{
		db: db,
		strategy: retry.Strategy{
			Attempts: 3,
			Delay:    500 * time.Millisecond,
			Backoff:  2,
		},
	}
}

func (r *EventRepository) Get(ctx context.Context, teamID, eventID string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
			  FROM events
			  WHERE team_id = $1 AND id = $2`

	row, err := r.db.QueryRowWithRetry(ctx, r.strategy, query, teamID, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	e, err := scanEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}

	return e, nil
}

func (r *EventRepository) Insert(ctx context.Context, e *domain.Event) error {
	spec, err := json.Marshal(e.SelectedSpec)
	if err != nil {
		return fmt.Errorf("marshal selected spec: %w", err)
	}

	query := `INSERT INTO events (` + eventColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
					  $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
					  $27, $28, $29, $30, $31, $32, $33, 1)`
	_, err = r.db.ExecWithRetry(
		ctx, r.strategy, query,
		e.ID, e.TeamID, e.Name, e.Description, e.Venue, e.MeetingLink,
		e.SelectedColor, e.PhotoURL, e.Type, e.CategoryID, e.Status,
		e.IsRemoved, e.IsRegistrationClosed,
		e.StartDate, e.EndDate, e.StartTime, e.EndTime, e.NumberOfOccurrences,
		e.Audience, spec,
		pq.Array(stringSet(e.MandatoryAttendees)), pq.Array(stringSet(e.OptionalAttendees)),
		e.IsAutoRegister, pq.Array(stringSet(e.AutoRegisteredAttendees)),
		pq.Array(stringSet(e.RegisteredAttendees)),
		e.RegisteredCount, e.MaxParticipants, e.GraphEventID, e.TeamCardActivityID,
		e.CreatedBy, e.CreatedOn, e.UpdatedBy, e.UpdatedOn,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	e.Version = 1
	return nil
}

// Update writes the event conditionally on the version read by the caller.
// A stale version yields domain.ErrConflict so the conflict retry policy
// can re-read and reapply.
func (r *EventRepository) Update(ctx context.Context, e *domain.Event) error {
	spec, err := json.Marshal(e.SelectedSpec)
	if err != nil {
		return fmt.Errorf("marshal selected spec: %w", err)
	}

	query := `UPDATE events SET
				name = $4, description = $5, venue = $6, meeting_link = $7,
				selected_color = $8, photo_url = $9, type = $10, category_id = $11,
				status = $12, is_removed = $13, is_registration_closed = $14,
				start_date = $15, end_date = $16, start_time = $17, end_time = $18,
				number_of_occurrences = $19, audience = $20, selected_spec = $21,
				mandatory_attendees = $22, optional_attendees = $23,
				is_auto_register = $24, auto_registered_attendees = $25,
				registered_attendees = $26, registered_count = $27,
				max_participants = $28, graph_event_id = $29,
				team_card_activity_id = $30, updated_by = $31, updated_on = $32,
				version = version + 1
			  WHERE team_id = $1 AND id = $2 AND version = $3`
	res, err := r.db.ExecWithRetry(
		ctx, r.strategy, query,
		e.TeamID, e.ID, e.Version,
		e.Name, e.Description, e.Venue, e.MeetingLink,
		e.SelectedColor, e.PhotoURL, e.Type, e.CategoryID,
		e.Status, e.IsRemoved, e.IsRegistrationClosed,
		e.StartDate, e.EndDate, e.StartTime, e.EndTime,
		e.NumberOfOccurrences, e.Audience, spec,
		pq.Array(stringSet(e.MandatoryAttendees)), pq.Array(stringSet(e.OptionalAttendees)),
		e.IsAutoRegister, pq.Array(stringSet(e.AutoRegisteredAttendees)),
		pq.Array(stringSet(e.RegisteredAttendees)), e.RegisteredCount,
		e.MaxParticipants, e.GraphEventID,
		e.TeamCardActivityID, e.UpdatedBy, e.UpdatedOn,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event rows affected: %w", err)
	}
	if rows == 0 {
		// Distinguish a stale version from a missing record.
		var exists bool
		checkQuery := `SELECT EXISTS (SELECT 1 FROM events WHERE team_id = $1 AND id = $2)`
		row, err := r.db.QueryRowWithRetry(ctx, r.strategy, checkQuery, e.TeamID, e.ID)
		if err != nil {
			return fmt.Errorf("check event existence: %w", err)
		}
		if err := row.Scan(&exists); err != nil {
			return fmt.Errorf("scan event existence: %w", err)
		}
		if exists {
			return domain.ErrConflict
		}
		return domain.ErrEventNotFound
	}

	e.Version++
	return nil
}

// ListUpcoming returns the live active events whose start falls inside
// [from, to). The scheduler feeds these into the reminder sweep.
func (r *EventRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
			  FROM events
			  WHERE NOT is_removed
				AND status = $1
				AND (start_date::date + start_time::time) >= $2
				AND (start_date::date + start_time::time) < $3
			  ORDER BY start_date, start_time`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, domain.EventStatusActive, from, to)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan upcoming event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate upcoming events: %w", err)
	}
	return events, nil
}

func scanEvent(scan func(dest ...any) error) (*domain.Event, error) {
	var e domain.Event
	var spec []byte
	err := scan(
		&e.ID, &e.TeamID, &e.Name, &e.Description, &e.Venue, &e.MeetingLink,
		&e.SelectedColor, &e.PhotoURL, &e.Type, &e.CategoryID, &e.Status,
		&e.IsRemoved, &e.IsRegistrationClosed,
		&e.StartDate, &e.EndDate, &e.StartTime, &e.EndTime, &e.NumberOfOccurrences,
		&e.Audience, &spec,
		pq.Array(&e.MandatoryAttendees), pq.Array(&e.OptionalAttendees),
		&e.IsAutoRegister, pq.Array(&e.AutoRegisteredAttendees),
		pq.Array(&e.RegisteredAttendees),
		&e.RegisteredCount, &e.MaxParticipants, &e.GraphEventID, &e.TeamCardActivityID,
		&e.CreatedBy, &e.CreatedOn, &e.UpdatedBy, &e.UpdatedOn, &e.Version,
	)
	if err != nil {
		return nil, err
	}
	if len(spec) > 0 {
		if err := json.Unmarshal(spec, &e.SelectedSpec); err != nil {
			return nil, fmt.Errorf("unmarshal selected spec: %w", err)
		}
	}
	return &e, nil
}

// stringSet keeps pq from writing NULL for nil slices.
func stringSet(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
