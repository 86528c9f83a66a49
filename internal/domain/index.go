package domain

import "time"

// IndexedEvent is the denormalized read projection of an event. Only the
// allow-listed fields below are ever copied into the index; the primary
// store remains the system of record.
type IndexedEvent struct {
	EventID              string    `json:"event_id"`
	TeamID               string    `json:"team_id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	CategoryID           string    `json:"category_id"`
	Audience             Audience  `json:"audience"`
	Status               EventStatus `json:"status"`
	IsRegistrationClosed bool      `json:"is_registration_closed"`
	StartAt              time.Time `json:"start_at"`
	EndAt                time.Time `json:"end_at"`
	RegisteredCount      int       `json:"registered_count"`
	MaxParticipants      int       `json:"max_participants"`
	Attendees            []string  `json:"attendees"`
	AudienceMembers      []string  `json:"audience_members"`
	CreatedOn            time.Time `json:"created_on"`
}

// EffectiveStatus mirrors Event.EffectiveStatus for projection consumers.
func (e *IndexedEvent) EffectiveStatus(now time.Time) EventStatus {
	if e.Status == EventStatusActive && e.EndAt.Before(now) {
		return EventStatusCompleted
	}
	return e.Status
}

type UserEventSort string

const (
	SortByRecency                UserEventSort = "recent"
	SortByPopularity             UserEventSort = "popular"
	SortByCollaboratorPopularity UserEventSort = "collaborators"
)

type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	if p.Number <= 0 {
		return 0
	}
	return p.Number * p.Size
}
