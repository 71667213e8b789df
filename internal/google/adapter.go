package google

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"g2ical/internal/event"
	"g2ical/internal/ical"
)

// Adapter returns the conversion from a Google Calendar event into an
// event record, with all timestamps rendered as wall-clock time in loc.
// The returned events satisfy the builder invariants or the adapter fails.
func Adapter(loc *time.Location) ical.Adapter[*calendar.Event] {
	return func(item *calendar.Event) (*event.Event, error) {
		return adapt(item, loc)
	}
}

func adapt(item *calendar.Event, loc *time.Location) (*event.Event, error) {
	b := event.NewBuilder().
		UID(item.Id).
		Summary(item.Summary).
		Description(item.Description).
		Location(item.Location)

	start, err := parseEventDateTime(item.Start, loc)
	if err != nil {
		return nil, fmt.Errorf("event %s: start: %w", item.Id, err)
	}
	if !start.IsZero() {
		b.Start(start)
	}
	end, err := parseEventDateTime(item.End, loc)
	if err != nil {
		return nil, fmt.Errorf("event %s: end: %w", item.Id, err)
	}
	if !end.IsZero() {
		b.End(end)
	}

	if item.Created != "" {
		created, err := time.Parse(time.RFC3339, item.Created)
		if err != nil {
			return nil, fmt.Errorf("event %s: created: %w", item.Id, err)
		}
		b.Created(created.In(loc))
	}
	if item.Updated != "" {
		updated, err := time.Parse(time.RFC3339, item.Updated)
		if err != nil {
			return nil, fmt.Errorf("event %s: updated: %w", item.Id, err)
		}
		b.LastModified(updated.In(loc))
	}

	if item.Organizer != nil && item.Organizer.Email != "" {
		b.Organizer(formatCalAddress(item.Organizer.DisplayName, item.Organizer.Email))
	}
	for _, attendee := range item.Attendees {
		if attendee.Email == "" {
			continue
		}
		value := formatCalAddress(attendee.DisplayName, attendee.Email)
		if attendee.ResponseStatus != "" {
			value += ";PARTSTAT=" + partStat(attendee.ResponseStatus)
		}
		b.AddAttendee(value)
	}

	if item.Status != "" {
		b.Status(eventStatus(item.Status))
	}
	if item.Transparency != "" {
		b.Transparency(strings.ToUpper(item.Transparency))
	}
	if item.Visibility != "" {
		b.Classification(classification(item.Visibility))
	}
	if item.HtmlLink != "" {
		b.URL(item.HtmlLink)
	}

	// Google stores recurrence as a list of strings; take the first RRULE
	// and strip the property prefix, leaving the rule text untouched.
	for _, rule := range item.Recurrence {
		if strings.HasPrefix(rule, "RRULE:") {
			b.RecurrenceRule(strings.TrimPrefix(rule, "RRULE:"))
			break
		}
	}

	if item.Reminders != nil {
		for _, reminder := range item.Reminders.Overrides {
			if reminder.Method == "popup" {
				b.AlarmMinutesBefore(int(reminder.Minutes))
				break
			}
		}
	}

	return b.Build()
}

// parseEventDateTime extracts a wall-clock time from a Google EventDateTime,
// which carries either a timed DateTime or an all-day Date.
func parseEventDateTime(edt *calendar.EventDateTime, loc *time.Location) (time.Time, error) {
	if edt == nil {
		return time.Time{}, nil
	}
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return time.Time{}, err
		}
		return t.In(loc), nil
	}
	if edt.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", edt.Date, loc)
		if err != nil {
			return time.Time{}, err
		}
		return t, nil
	}
	return time.Time{}, nil
}

// formatCalAddress renders an organizer or attendee value:
// "MAILTO:<email>", or "CN=<name>:MAILTO:<email>" when a display name is known.
func formatCalAddress(name, email string) string {
	if name != "" {
		return "CN=" + name + ":MAILTO:" + email
	}
	return "MAILTO:" + email
}

func eventStatus(status string) string {
	switch strings.ToLower(status) {
	case "tentative":
		return event.StatusTentative
	case "cancelled":
		return event.StatusCancelled
	default:
		return event.StatusConfirmed
	}
}

func partStat(responseStatus string) string {
	switch strings.ToLower(responseStatus) {
	case "accepted":
		return event.PartStatAccepted
	case "declined":
		return event.PartStatDeclined
	case "tentative":
		return event.PartStatTentative
	default:
		return event.PartStatNeedsAction
	}
}

func classification(visibility string) string {
	switch strings.ToLower(visibility) {
	case "private":
		return event.ClassPrivate
	case "confidential":
		return event.ClassConfidential
	default:
		return event.ClassPublic
	}
}
