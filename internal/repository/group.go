package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

const memberPageSize = 500

// GroupRepository reads the org directory tables. Membership queries page
// internally and return a flattened member list.
type GroupRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewGroupRepo(db *dbpg.DB) *GroupRepository {
	return &GroupRepository{
		db: db,
		strategy: retry.Strategy{
			Attempts: 3,
			Delay:    500 * time.Millisecond,
			Backoff:  2,
		},
	}
}

func (r *GroupRepository) GetMembers(ctx context.Context, groupID string) ([]string, error) {
	query := `SELECT user_id FROM group_members
			  WHERE group_id = $1
			  ORDER BY user_id
			  LIMIT $2 OFFSET $3`

	var members []string
	for offset := 0; ; offset += memberPageSize {
		rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, groupID, memberPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("get group members: %w", err)
		}

		batch := 0
		for rows.Next() {
			var userID string
			if err = rows.Scan(&userID); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan group member: %w", err)
			}
			members = append(members, userID)
			batch++
		}
		if err = rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		if batch < memberPageSize {
			return members, nil
		}
	}
}

// GetCollaborators returns every user sharing at least one group with the
// given user, excluding the user themselves.
func (r *GroupRepository) GetCollaborators(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT DISTINCT gm2.user_id
			  FROM group_members gm1
			  JOIN group_members gm2 ON gm2.group_id = gm1.group_id
			  WHERE gm1.user_id = $1 AND gm2.user_id <> $1`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get collaborators: %w", err)
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan collaborator: %w", err)
		}
		res = append(res, id)
	}

	return res, rows.Err()
}
