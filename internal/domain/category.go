package domain

import "time"

// Category is an organizer-managed reference entity. IsInUse is computed
// from the existence of any event referencing the category; a category in
// use cannot be deleted.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsInUse     bool      `json:"is_in_use"`
	CreatedBy   string    `json:"created_by"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedBy   string    `json:"updated_by"`
	UpdatedOn   time.Time `json:"updated_on"`
}
