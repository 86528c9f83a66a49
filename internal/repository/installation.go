package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

type InstallationRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewInstallationRepo(db *dbpg.DB) *InstallationRepository {
	return &InstallationRepository{
		db: db,
		strategy: retry.Strategy{
			Attempts: 3,
			Delay:    500 * time.Millisecond,
			Backoff:  2,
		},
	}
}

func (r *InstallationRepository) SaveUser(ctx context.Context, inst *domain.UserInstallation) error {
	query := `INSERT INTO user_installations (user_id, chat_id, service_url, created_at)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (user_id) DO UPDATE
			  SET chat_id = EXCLUDED.chat_id, service_url = EXCLUDED.service_url`
	_, err := r.db.ExecWithRetry(ctx, r.strategy, query, inst.UserID, inst.ChatID, inst.ServiceURL, inst.CreatedAt)
	if err != nil {
		return fmt.Errorf("save user installation: %w", err)
	}
	return nil
}

func (r *InstallationRepository) DeleteUser(ctx context.Context, userID string) error {
	query := `DELETE FROM user_installations WHERE user_id = $1`
	res, err := r.db.ExecWithRetry(ctx, r.strategy, query, userID)
	if err != nil {
		return fmt.Errorf("delete user installation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user installation rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrInstallationNotFound
	}
	return nil
}

// GetUsers returns installations for the requested users only; users who
// never installed the bot are simply absent from the result.
func (r *InstallationRepository) GetUsers(ctx context.Context, userIDs []string) ([]*domain.UserInstallation, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `SELECT user_id, chat_id, service_url, created_at
			  FROM user_installations
			  WHERE user_id = ANY($1)`
	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("get user installations: %w", err)
	}
	defer rows.Close()

	var res []*domain.UserInstallation
	for rows.Next() {
		var inst domain.UserInstallation
		if err = rows.Scan(&inst.UserID, &inst.ChatID, &inst.ServiceURL, &inst.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user installation: %w", err)
		}
		res = append(res, &inst)
	}

	return res, rows.Err()
}

func (r *InstallationRepository) SaveTeam(ctx context.Context, inst *domain.TeamInstallation) error {
	query := `INSERT INTO team_installations (team_id, chat_id, service_url, created_at)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (team_id) DO UPDATE
			  SET chat_id = EXCLUDED.chat_id, service_url = EXCLUDED.service_url`
	_, err := r.db.ExecWithRetry(ctx, r.strategy, query, inst.TeamID, inst.ChatID, inst.ServiceURL, inst.CreatedAt)
	if err != nil {
		return fmt.Errorf("save team installation: %w", err)
	}
	return nil
}

func (r *InstallationRepository) DeleteTeam(ctx context.Context, teamID string) error {
	query := `DELETE FROM team_installations WHERE team_id = $1`
	res, err := r.db.ExecWithRetry(ctx, r.strategy, query, teamID)
	if err != nil {
		return fmt.Errorf("delete team installation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete team installation rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrInstallationNotFound
	}
	return nil
}

func (r *InstallationRepository) GetTeam(ctx context.Context, teamID string) (*domain.TeamInstallation, error) {
	query := `SELECT team_id, chat_id, service_url, created_at
			  FROM team_installations
			  WHERE team_id = $1`

	row, err := r.db.QueryRowWithRetry(ctx, r.strategy, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("get team installation: %w", err)
	}

	var inst domain.TeamInstallation
	if err = row.Scan(&inst.TeamID, &inst.ChatID, &inst.ServiceURL, &inst.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInstallationNotFound
		}
		return nil, fmt.Errorf("scan team installation: %w", err)
	}

	return &inst, nil
}
