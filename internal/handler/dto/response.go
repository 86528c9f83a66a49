package dto

import (
	"time"

	"github.com/akozyrev/TrainingEvents/internal/domain"
)

type EventResponse struct {
	ID                   string             `json:"id"`
	TeamID               string             `json:"team_id"`
	Name                 string             `json:"name"`
	Description          string             `json:"description"`
	Venue                string             `json:"venue,omitempty"`
	MeetingLink          string             `json:"meeting_link,omitempty"`
	SelectedColor        string             `json:"selected_color,omitempty"`
	PhotoURL             string             `json:"photo_url,omitempty"`
	Type                 string             `json:"type"`
	CategoryID           string             `json:"category_id,omitempty"`
	Status               string             `json:"status"`
	IsRegistrationClosed bool               `json:"is_registration_closed"`
	StartDate            string             `json:"start_date"`
	EndDate              string             `json:"end_date"`
	StartTime            string             `json:"start_time"`
	EndTime              string             `json:"end_time"`
	NumberOfOccurrences  int                `json:"number_of_occurrences"`
	Audience             string             `json:"audience"`
	Selections           []SelectionRequest `json:"selections,omitempty"`
	MandatoryAttendees   []string           `json:"mandatory_attendees,omitempty"`
	OptionalAttendees    []string           `json:"optional_attendees,omitempty"`
	IsAutoRegister       bool               `json:"is_auto_register"`
	AutoRegistered       []string           `json:"auto_registered_attendees,omitempty"`
	RegisteredAttendees  []string           `json:"registered_attendees,omitempty"`
	RegisteredCount      int                `json:"registered_count"`
	MaxParticipants      int                `json:"max_participants"`
	CreatedBy            string             `json:"created_by"`
	CreatedOn            string             `json:"created_on"`
	UpdatedBy            string             `json:"updated_by,omitempty"`
	UpdatedOn            string             `json:"updated_on,omitempty"`
}

func ToEventResponse(e *domain.Event, now time.Time) EventResponse {
	selections := make([]SelectionRequest, 0, len(e.SelectedSpec))
	for _, s := range e.SelectedSpec {
		selections = append(selections, SelectionRequest{
			ID:          s.ID,
			IsGroup:     s.IsGroup,
			IsMandatory: s.IsMandatory,
		})
	}

	return EventResponse{
		ID:                   e.ID,
		TeamID:               e.TeamID,
		Name:                 e.Name,
		Description:          e.Description,
		Venue:                e.Venue,
		MeetingLink:          e.MeetingLink,
		SelectedColor:        e.SelectedColor,
		PhotoURL:             e.PhotoURL,
		Type:                 string(e.Type),
		CategoryID:           e.CategoryID,
		Status:               string(e.EffectiveStatus(now)),
		IsRegistrationClosed: e.IsRegistrationClosed,
		StartDate:            e.StartDate.Format(time.RFC3339),
		EndDate:              e.EndDate.Format(time.RFC3339),
		StartTime:            e.StartTime.Format(time.RFC3339),
		EndTime:              e.EndTime.Format(time.RFC3339),
		NumberOfOccurrences:  e.NumberOfOccurrences,
		Audience:             string(e.Audience),
		Selections:           selections,
		MandatoryAttendees:   e.MandatoryAttendees,
		OptionalAttendees:    e.OptionalAttendees,
		IsAutoRegister:       e.IsAutoRegister,
		AutoRegistered:       e.AutoRegisteredAttendees,
		RegisteredAttendees:  e.RegisteredAttendees,
		RegisteredCount:      e.RegisteredCount,
		MaxParticipants:      e.MaxParticipants,
		CreatedBy:            e.CreatedBy,
		CreatedOn:            e.CreatedOn.Format(time.RFC3339),
		UpdatedBy:            e.UpdatedBy,
		UpdatedOn:            formatOptional(e.UpdatedOn),
	}
}

type IndexedEventResponse struct {
	EventID              string `json:"event_id"`
	TeamID               string `json:"team_id"`
	Name                 string `json:"name"`
	Description          string `json:"description"`
	CategoryID           string `json:"category_id,omitempty"`
	Audience             string `json:"audience"`
	Status               string `json:"status"`
	IsRegistrationClosed bool   `json:"is_registration_closed"`
	StartAt              string `json:"start_at"`
	EndAt                string `json:"end_at"`
	RegisteredCount      int    `json:"registered_count"`
	MaxParticipants      int    `json:"max_participants"`
}

func ToIndexedEventResponse(e *domain.IndexedEvent, now time.Time) IndexedEventResponse {
	return IndexedEventResponse{
		EventID:              e.EventID,
		TeamID:               e.TeamID,
		Name:                 e.Name,
		Description:          e.Description,
		CategoryID:           e.CategoryID,
		Audience:             string(e.Audience),
		Status:               string(e.EffectiveStatus(now)),
		IsRegistrationClosed: e.IsRegistrationClosed,
		StartAt:              e.StartAt.Format(time.RFC3339),
		EndAt:                e.EndAt.Format(time.RFC3339),
		RegisteredCount:      e.RegisteredCount,
		MaxParticipants:      e.MaxParticipants,
	}
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsInUse     bool   `json:"is_in_use"`
	CreatedBy   string `json:"created_by"`
	CreatedOn   string `json:"created_on"`
}

func ToCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		IsInUse:     c.IsInUse,
		CreatedBy:   c.CreatedBy,
		CreatedOn:   c.CreatedOn.Format(time.RFC3339),
	}
}

type ErrorResponse struct {
	Error  string             `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func formatOptional(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
