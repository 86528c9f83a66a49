package domain

import "time"

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

type Audience string

const (
	AudiencePublic  Audience = "public"
	AudiencePrivate Audience = "private"
)

type EventType string

const (
	EventTypeInPerson EventType = "inperson"
	EventTypeTeams    EventType = "teams"
	EventTypeExternal EventType = "external"
)

// Selection is one entry of the declarative audience specification:
// a single user or a whole group, flagged mandatory or optional.
type Selection struct {
	ID          string `json:"id"`
	IsGroup     bool   `json:"is_group"`
	IsMandatory bool   `json:"is_mandatory"`
}

// Event is the central aggregate. TeamID is the owning organizer group and
// is immutable after creation; Version is the optimistic-concurrency token
// checked by every conditional store update.
type Event struct {
	ID     string `json:"id"`
	TeamID string `json:"team_id"`

	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Venue         string    `json:"venue"`
	MeetingLink   string    `json:"meeting_link"`
	SelectedColor string    `json:"selected_color"`
	PhotoURL      string    `json:"photo_url"`
	Type          EventType `json:"type"`
	CategoryID    string    `json:"category_id"`

	Status               EventStatus `json:"status"`
	IsRemoved            bool        `json:"is_removed"`
	IsRegistrationClosed bool        `json:"is_registration_closed"`

	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	NumberOfOccurrences int       `json:"number_of_occurrences"`

	Audience                Audience    `json:"audience"`
	SelectedSpec            []Selection `json:"selected_spec"`
	MandatoryAttendees      []string    `json:"mandatory_attendees"`
	OptionalAttendees       []string    `json:"optional_attendees"`
	IsAutoRegister          bool        `json:"is_auto_register"`
	AutoRegisteredAttendees []string    `json:"auto_registered_attendees"`

	RegisteredAttendees []string `json:"registered_attendees"`
	RegisteredCount     int      `json:"registered_count"`
	MaxParticipants     int      `json:"max_participants"`

	GraphEventID       string `json:"graph_event_id"`
	TeamCardActivityID string `json:"team_card_activity_id"`

	CreatedBy string    `json:"created_by"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedBy string    `json:"updated_by"`
	UpdatedOn time.Time `json:"updated_on"`

	Version int64 `json:"-"`
}

// CombineDateTime merges the calendar day of date with the clock of tod.
func CombineDateTime(date, tod time.Time) time.Time {
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		tod.Hour(), tod.Minute(), 0, 0, time.UTC,
	)
}

func (e *Event) StartAt() time.Time {
	return CombineDateTime(e.StartDate, e.StartTime)
}

func (e *Event) EndAt() time.Time {
	return CombineDateTime(e.EndDate, e.EndTime)
}

// OccurrenceSpan is the inclusive day span between start and end date.
func (e *Event) OccurrenceSpan() int {
	start := e.StartDate.Truncate(24 * time.Hour)
	end := e.EndDate.Truncate(24 * time.Hour)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// EffectiveStatus treats an active event whose end has passed as completed.
// Completed is never stored; every consumer applies this derivation.
func (e *Event) EffectiveStatus(now time.Time) EventStatus {
	if e.Status == EventStatusActive && e.EndAt().Before(now) {
		return EventStatusCompleted
	}
	return e.Status
}

// IsValidTransition reports whether to is reachable from from.
// Drafts may only activate; an active event may move anywhere but back to
// draft; cancelled and completed are terminal.
func IsValidTransition(from, to EventStatus) bool {
	switch from {
	case EventStatusDraft:
		return to == EventStatusActive
	case EventStatusActive:
		return to != EventStatusDraft
	default:
		return false
	}
}

// AllAttendees is the union of explicitly registered and auto-registered
// users, preserving first-seen order.
func (e *Event) AllAttendees() []string {
	seen := make(map[string]struct{}, len(e.RegisteredAttendees)+len(e.AutoRegisteredAttendees))
	union := make([]string, 0, len(e.RegisteredAttendees)+len(e.AutoRegisteredAttendees))
	for _, set := range [][]string{e.RegisteredAttendees, e.AutoRegisteredAttendees} {
		for _, id := range set {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}
	return union
}

func (e *Event) IsRegistered(userID string) bool {
	return contains(e.RegisteredAttendees, userID) || contains(e.AutoRegisteredAttendees, userID)
}

func (e *Event) IsInvited(userID string) bool {
	return contains(e.MandatoryAttendees, userID) || contains(e.OptionalAttendees, userID)
}

// SyncRegisteredCount restores the count invariant after any mutation of
// the registered or auto-registered sets.
func (e *Event) SyncRegisteredCount() {
	e.RegisteredCount = len(e.AllAttendees())
}

// ResetAudience clears every attendee-related field. Applied when a private
// event is edited to public.
func (e *Event) ResetAudience() {
	e.SelectedSpec = nil
	e.MandatoryAttendees = nil
	e.OptionalAttendees = nil
	e.AutoRegisteredAttendees = nil
	e.RegisteredAttendees = nil
	e.RegisteredCount = 0
}

func contains(set []string, id string) bool {
	for _, s := range set {
		if s == id {
			return true
		}
	}
	return false
}
