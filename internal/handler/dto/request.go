package dto

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/akozyrev/TrainingEvents/internal/domain"
)

var validate = validator.New()

type SelectionRequest struct {
	ID          string `json:"id" validate:"required"`
	IsGroup     bool   `json:"is_group"`
	IsMandatory bool   `json:"is_mandatory"`
}

type EventRequest struct {
	Name            string             `json:"name" validate:"required"`
	Description     string             `json:"description"`
	Venue           string             `json:"venue"`
	MeetingLink     string             `json:"meeting_link"`
	SelectedColor   string             `json:"selected_color"`
	PhotoURL        string             `json:"photo_url"`
	Type            string             `json:"type" validate:"required,oneof=inperson teams external"`
	CategoryID      string             `json:"category_id"`
	StartDate       string             `json:"start_date" validate:"required"`
	EndDate         string             `json:"end_date" validate:"required"`
	StartTime       string             `json:"start_time" validate:"required"`
	EndTime         string             `json:"end_time" validate:"required"`
	MaxParticipants int                `json:"max_participants" validate:"required,gt=0"`
	Audience        string             `json:"audience" validate:"required,oneof=public private"`
	Selections      []SelectionRequest `json:"selections" validate:"dive"`
	IsAutoRegister  bool               `json:"is_auto_register"`
	CallerID        string             `json:"caller_id" validate:"required"`
}

func (r *EventRequest) Validate() error {
	return validate.Struct(r)
}

// ToEventInput parses the wire format into the service input. Dates are
// RFC3339; times carry only the clock component.
func (r *EventRequest) ToEventInput(teamID, eventID string) (domain.EventInput, error) {
	startDate, err := parseTime("start_date", r.StartDate)
	if err != nil {
		return domain.EventInput{}, err
	}
	endDate, err := parseTime("end_date", r.EndDate)
	if err != nil {
		return domain.EventInput{}, err
	}
	startTime, err := parseTime("start_time", r.StartTime)
	if err != nil {
		return domain.EventInput{}, err
	}
	endTime, err := parseTime("end_time", r.EndTime)
	if err != nil {
		return domain.EventInput{}, err
	}

	selections := make([]domain.Selection, 0, len(r.Selections))
	for _, s := range r.Selections {
		selections = append(selections, domain.Selection{
			ID:          s.ID,
			IsGroup:     s.IsGroup,
			IsMandatory: s.IsMandatory,
		})
	}

	return domain.EventInput{
		TeamID:          teamID,
		EventID:         eventID,
		Name:            r.Name,
		Description:     r.Description,
		Venue:           r.Venue,
		MeetingLink:     r.MeetingLink,
		SelectedColor:   r.SelectedColor,
		PhotoURL:        r.PhotoURL,
		Type:            domain.EventType(r.Type),
		CategoryID:      r.CategoryID,
		StartDate:       startDate,
		EndDate:         endDate,
		StartTime:       startTime,
		EndTime:         endTime,
		MaxParticipants: r.MaxParticipants,
		Audience:        domain.Audience(r.Audience),
		Selections:      selections,
		IsAutoRegister:  r.IsAutoRegister,
		CallerID:        r.CallerID,
	}, nil
}

func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s, expected RFC3339", field)
	}
	return t.UTC(), nil
}

type StatusRequest struct {
	Status   string `json:"status" validate:"required,oneof=active cancelled completed"`
	CallerID string `json:"caller_id" validate:"required"`
}

func (r *StatusRequest) Validate() error {
	return validate.Struct(r)
}

type RegistrationRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (r *RegistrationRequest) Validate() error {
	return validate.Struct(r)
}

type CallerRequest struct {
	CallerID string `json:"caller_id" validate:"required"`
}

func (r *CallerRequest) Validate() error {
	return validate.Struct(r)
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	CallerID    string `json:"caller_id" validate:"required"`
}

func (r *CategoryRequest) Validate() error {
	return validate.Struct(r)
}

type UserInstallRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	ChatID     int64  `json:"chat_id" validate:"required"`
	ServiceURL string `json:"service_url"`
}

func (r *UserInstallRequest) Validate() error {
	return validate.Struct(r)
}

type TeamInstallRequest struct {
	TeamID     string `json:"team_id" validate:"required"`
	ChatID     int64  `json:"chat_id" validate:"required"`
	ServiceURL string `json:"service_url"`
}

func (r *TeamInstallRequest) Validate() error {
	return validate.Struct(r)
}
