package event

import (
	"fmt"
	"time"
)

// Event status values as defined by RFC 5545 for VEVENT components.
const (
	StatusConfirmed = "CONFIRMED"
	StatusTentative = "TENTATIVE"
	StatusCancelled = "CANCELLED"
)

// Time transparency values.
const (
	TranspOpaque      = "OPAQUE"
	TranspTransparent = "TRANSPARENT"
)

// Access classification values.
const (
	ClassPublic       = "PUBLIC"
	ClassPrivate      = "PRIVATE"
	ClassConfidential = "CONFIDENTIAL"
)

// Participation status values carried on ATTENDEE lines.
const (
	PartStatAccepted    = "ACCEPTED"
	PartStatDeclined    = "DECLINED"
	PartStatTentative   = "TENTATIVE"
	PartStatNeedsAction = "NEEDS-ACTION"
)

// ValidationError is returned when an event cannot be constructed because
// one of its invariants does not hold. The caller must fix the input; the
// error is never retryable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event field %s: %s", e.Field, e.Reason)
}

// Event is a single calendar event with every field relevant to iCalendar
// export. It is constructed through a Builder and is immutable afterwards,
// except for the Update* methods which also refresh LastModified.
//
// Start and End are local wall-clock times; the serializer emits them as
// floating time without a zone designator. A zero time means unset.
type Event struct {
	uid          string
	summary      string
	description  string
	location     string
	start        time.Time
	end          time.Time
	created      time.Time
	lastModified time.Time

	organizer string
	attendees []string

	status         string
	transparency   string
	classification string
	priority       int

	recurrenceRule  string
	recurrenceDates []time.Time
	exceptionDates  []time.Time

	url        string
	categories []string
	comment    string
	contact    string

	alarmMinutesBefore *int
}

func (e *Event) UID() string { return e.uid }

func (e *Event) Summary() string { return e.summary }

func (e *Event) Description() string { return e.description }

func (e *Event) Location() string { return e.location }

func (e *Event) Start() time.Time { return e.start }

func (e *Event) End() time.Time { return e.end }

func (e *Event) Created() time.Time { return e.created }

func (e *Event) LastModified() time.Time { return e.lastModified }

func (e *Event) Organizer() string { return e.organizer }

func (e *Event) Status() string { return e.status }

func (e *Event) Transparency() string { return e.transparency }

func (e *Event) Classification() string { return e.classification }

func (e *Event) Priority() int { return e.priority }

func (e *Event) RecurrenceRule() string { return e.recurrenceRule }

func (e *Event) URL() string { return e.url }

func (e *Event) Comment() string { return e.comment }

func (e *Event) Contact() string { return e.contact }

// Attendees returns a copy of the attendee list.
func (e *Event) Attendees() []string {
	return append([]string(nil), e.attendees...)
}

// RecurrenceDates returns a copy of the RDATE timestamps.
func (e *Event) RecurrenceDates() []time.Time {
	return append([]time.Time(nil), e.recurrenceDates...)
}

// ExceptionDates returns a copy of the EXDATE timestamps.
func (e *Event) ExceptionDates() []time.Time {
	return append([]time.Time(nil), e.exceptionDates...)
}

// Categories returns a copy of the category list.
func (e *Event) Categories() []string {
	return append([]string(nil), e.categories...)
}

// AlarmMinutesBefore reports the display-alarm lead time in minutes.
// ok is false when no alarm is set.
func (e *Event) AlarmMinutesBefore() (minutes int, ok bool) {
	if e.alarmMinutesBefore == nil {
		return 0, false
	}
	return *e.alarmMinutesBefore, true
}

// UpdateSummary replaces the summary and refreshes LastModified.
func (e *Event) UpdateSummary(summary string) {
	e.summary = summary
	e.touch()
}

// UpdateDescription replaces the description and refreshes LastModified.
func (e *Event) UpdateDescription(description string) {
	e.description = description
	e.touch()
}

// UpdateLocation replaces the location and refreshes LastModified.
func (e *Event) UpdateLocation(location string) {
	e.location = location
	e.touch()
}

// UpdateStart replaces the start time and refreshes LastModified.
func (e *Event) UpdateStart(start time.Time) {
	e.start = start
	e.touch()
}

// UpdateEnd replaces the end time and refreshes LastModified. Setting an
// end on an event with no start violates the construction invariant and
// is rejected.
func (e *Event) UpdateEnd(end time.Time) error {
	if !end.IsZero() && e.start.IsZero() {
		return &ValidationError{Field: "end", Reason: "end without start"}
	}
	e.end = end
	e.touch()
	return nil
}

func (e *Event) touch() {
	e.lastModified = time.Now()
}
