package activity

import "time"

// Activity is one entry in a group's audit trail
type Activity struct {
	ID          int64     `json:"id"`
	GroupID     int64     `json:"group_id"`
	UserID      *int64    `json:"user_id,omitempty"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	// Populated via JOIN
	Username string `json:"username,omitempty"`
}

// ActivityResponse represents an activity in API responses
type ActivityResponse struct {
	ID          int64  `json:"id"`
	GroupID     int64  `json:"group_id"`
	UserID      *int64 `json:"user_id,omitempty"`
	Username    string `json:"username,omitempty"`
	Type        string `json:"type"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// ToResponse converts an Activity model to an ActivityResponse DTO
func (a *Activity) ToResponse() *ActivityResponse {
	return &ActivityResponse{
		ID:          a.ID,
		GroupID:     a.GroupID,
		UserID:      a.UserID,
		Username:    a.Username,
		Type:        a.Type,
		Description: a.Description,
		CreatedAt:   a.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
