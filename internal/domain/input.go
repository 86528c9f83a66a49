package domain

import "time"

// EventInput is the caller-supplied payload for creating or editing an
// event. Only these fields are ever copied onto the stored snapshot;
// server-controlled fields (status, audit, graph linkage, registration
// counts) are computed or carried forward by the lifecycle engine.
type EventInput struct {
	TeamID  string
	EventID string

	Name          string
	Description   string
	Venue         string
	MeetingLink   string
	SelectedColor string
	PhotoURL      string
	Type          EventType
	CategoryID    string

	StartDate time.Time
	EndDate   time.Time
	StartTime time.Time
	EndTime   time.Time

	MaxParticipants int

	Audience       Audience
	Selections     []Selection
	IsAutoRegister bool

	CallerID string
}

type CategoryInput struct {
	ID          string
	Name        string
	Description string
	CallerID    string
}
