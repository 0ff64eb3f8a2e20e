package activity

import (
	"context"
	"fmt"

	"github.com/malmutairi/divvy/internal/database"
)

// Repository handles activity data persistence
type Repository struct {
	db *database.DB
}

// NewRepository creates a new activity repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Record inserts an activity row. Accepts a Querier so callers can write the
// entry inside the same transaction as the change it describes.
func (r *Repository) Record(ctx context.Context, q database.Querier, groupID, userID int64, activityType, description string) error {
	query := `INSERT INTO activities (group_id, user_id, type, description) VALUES ($1, $2, $3, $4)`
	if _, err := q.ExecContext(ctx, query, groupID, userID, activityType, description); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// ListByGroup retrieves a group's activities, newest first
func (r *Repository) ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*Activity, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM activities WHERE group_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	query := `
		SELECT a.id, a.group_id, a.user_id, a.type, a.description, a.created_at,
		       COALESCE(u.username, '')
		FROM activities a
		LEFT JOIN users u ON a.user_id = u.id
		WHERE a.group_id = $1
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		activity := &Activity{}
		if err := rows.Scan(
			&activity.ID,
			&activity.GroupID,
			&activity.UserID,
			&activity.Type,
			&activity.Description,
			&activity.CreatedAt,
			&activity.Username,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, activity)
	}

	return activities, total, rows.Err()
}
