package event

import (
	"time"

	"github.com/google/uuid"
)

// Builder accumulates event fields and produces an immutable Event.
// Setters store values without validation and return the builder for
// chaining; Build applies defaults and checks the invariants. A Builder
// never shares state with the events it builds, so it can be reused.
type Builder struct {
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

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) UID(uid string) *Builder {
	b.uid = uid
	return b
}

func (b *Builder) Summary(summary string) *Builder {
	b.summary = summary
	return b
}

func (b *Builder) Description(description string) *Builder {
	b.description = description
	return b
}

func (b *Builder) Location(location string) *Builder {
	b.location = location
	return b
}

func (b *Builder) Start(start time.Time) *Builder {
	b.start = start
	return b
}

func (b *Builder) End(end time.Time) *Builder {
	b.end = end
	return b
}

func (b *Builder) Created(created time.Time) *Builder {
	b.created = created
	return b
}

func (b *Builder) LastModified(lastModified time.Time) *Builder {
	b.lastModified = lastModified
	return b
}

// Organizer takes a pre-formatted value, e.g. "MAILTO:a@example.com" or
// "CN=Ada:MAILTO:a@example.com".
func (b *Builder) Organizer(organizer string) *Builder {
	b.organizer = organizer
	return b
}

// AddAttendee appends one pre-formatted attendee line value.
func (b *Builder) AddAttendee(attendee string) *Builder {
	b.attendees = append(b.attendees, attendee)
	return b
}

// Attendees replaces the attendee list with a copy of the given slice.
func (b *Builder) Attendees(attendees []string) *Builder {
	b.attendees = append([]string(nil), attendees...)
	return b
}

func (b *Builder) Status(status string) *Builder {
	b.status = status
	return b
}

func (b *Builder) Transparency(transparency string) *Builder {
	b.transparency = transparency
	return b
}

func (b *Builder) Classification(classification string) *Builder {
	b.classification = classification
	return b
}

func (b *Builder) Priority(priority int) *Builder {
	b.priority = priority
	return b
}

// RecurrenceRule stores RRULE text verbatim; it is not parsed or validated.
func (b *Builder) RecurrenceRule(rule string) *Builder {
	b.recurrenceRule = rule
	return b
}

func (b *Builder) AddRecurrenceDate(t time.Time) *Builder {
	b.recurrenceDates = append(b.recurrenceDates, t)
	return b
}

func (b *Builder) RecurrenceDates(dates []time.Time) *Builder {
	b.recurrenceDates = append([]time.Time(nil), dates...)
	return b
}

func (b *Builder) AddExceptionDate(t time.Time) *Builder {
	b.exceptionDates = append(b.exceptionDates, t)
	return b
}

func (b *Builder) ExceptionDates(dates []time.Time) *Builder {
	b.exceptionDates = append([]time.Time(nil), dates...)
	return b
}

func (b *Builder) URL(url string) *Builder {
	b.url = url
	return b
}

func (b *Builder) AddCategory(category string) *Builder {
	b.categories = append(b.categories, category)
	return b
}

func (b *Builder) Categories(categories []string) *Builder {
	b.categories = append([]string(nil), categories...)
	return b
}

func (b *Builder) Comment(comment string) *Builder {
	b.comment = comment
	return b
}

func (b *Builder) Contact(contact string) *Builder {
	b.contact = contact
	return b
}

// AlarmMinutesBefore arms a display alarm the given number of minutes
// before the event start.
func (b *Builder) AlarmMinutesBefore(minutes int) *Builder {
	m := minutes
	b.alarmMinutesBefore = &m
	return b
}

// Build validates the accumulated fields and returns the event. Defaults
// are applied here, not in the setters: UID falls back to a random v4
// UUID, Created and LastModified to the current time, Status to
// CONFIRMED, Transparency to OPAQUE, Classification to PUBLIC.
func (b *Builder) Build() (*Event, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	e := &Event{
		uid:            b.uid,
		summary:        b.summary,
		description:    b.description,
		location:       b.location,
		start:          b.start,
		end:            b.end,
		created:        b.created,
		lastModified:   b.lastModified,
		organizer:      b.organizer,
		status:         b.status,
		transparency:   b.transparency,
		classification: b.classification,
		priority:       b.priority,
		recurrenceRule: b.recurrenceRule,
		url:            b.url,
		comment:        b.comment,
		contact:        b.contact,
	}

	// Copy collections so later builder reuse cannot alias the event.
	e.attendees = append([]string(nil), b.attendees...)
	e.recurrenceDates = append([]time.Time(nil), b.recurrenceDates...)
	e.exceptionDates = append([]time.Time(nil), b.exceptionDates...)
	e.categories = append([]string(nil), b.categories...)
	if b.alarmMinutesBefore != nil {
		m := *b.alarmMinutesBefore
		e.alarmMinutesBefore = &m
	}

	if e.uid == "" {
		e.uid = uuid.NewString()
	}
	now := time.Now()
	if e.created.IsZero() {
		e.created = now
	}
	if e.lastModified.IsZero() {
		e.lastModified = now
	}
	if e.status == "" {
		e.status = StatusConfirmed
	}
	if e.transparency == "" {
		e.transparency = TranspOpaque
	}
	if e.classification == "" {
		e.classification = ClassPublic
	}

	return e, nil
}

func (b *Builder) validate() error {
	if !b.end.IsZero() && b.start.IsZero() {
		return &ValidationError{Field: "end", Reason: "end without start"}
	}
	if b.priority < 0 || b.priority > 9 {
		return &ValidationError{Field: "priority", Reason: "must be in [0, 9]"}
	}
	if b.alarmMinutesBefore != nil && *b.alarmMinutesBefore < 0 {
		return &ValidationError{Field: "alarmMinutesBefore", Reason: "must not be negative"}
	}
	switch b.status {
	case "", StatusConfirmed, StatusTentative, StatusCancelled:
	default:
		return &ValidationError{Field: "status", Reason: "unknown status " + b.status}
	}
	switch b.transparency {
	case "", TranspOpaque, TranspTransparent:
	default:
		return &ValidationError{Field: "transparency", Reason: "unknown transparency " + b.transparency}
	}
	switch b.classification {
	case "", ClassPublic, ClassPrivate, ClassConfidential:
	default:
		return &ValidationError{Field: "classification", Reason: "unknown classification " + b.classification}
	}
	return nil
}
