package notification

import (
	"fmt"
	"strings"

	"github.com/akozyrev/TrainingEvents/internal/domain"
)

const dateLayout = "02.01.2006 15:04"

func organizerCard(e *domain.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", e.Name)
	if e.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", e.Description)
	}
	fmt.Fprintf(&b, "Starts (UTC): %s\n", e.StartAt().Format(dateLayout))
	fmt.Fprintf(&b, "Ends (UTC): %s\n", e.EndAt().Format(dateLayout))
	if e.Venue != "" {
		fmt.Fprintf(&b, "Venue: %s\n", e.Venue)
	}
	fmt.Fprintf(&b, "Registered: %d / %d", e.RegisteredCount, e.MaxParticipants)
	if e.Status == domain.EventStatusCancelled {
		b.WriteString("\n\n_This event has been cancelled._")
	}
	return b.String()
}

func updatedCard(e *domain.Event) string {
	return fmt.Sprintf(
		"*Training updated*\n\n%s\nStarts (UTC): %s",
		e.Name, e.StartAt().Format(dateLayout),
	)
}

func cancelledCard(e *domain.Event) string {
	return fmt.Sprintf(
		"*Training cancelled*\n\n%s\nWas scheduled for (UTC): %s",
		e.Name, e.StartAt().Format(dateLayout),
	)
}

func autoRegisteredCard(e *domain.Event) string {
	return fmt.Sprintf(
		"*You have been registered*\n\n%s\nStarts (UTC): %s\nAttendance is mandatory for you.",
		e.Name, e.StartAt().Format(dateLayout),
	)
}

func reminderCard(e *domain.Event) string {
	return fmt.Sprintf(
		"*Upcoming training*\n\n%s\nStarts (UTC): %s",
		e.Name, e.StartAt().Format(dateLayout),
	)
}
