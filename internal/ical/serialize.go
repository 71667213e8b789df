package ical

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"g2ical/internal/event"
)

const (
	prodID = "-//g2ical//EN"

	// Floating local time, no zone designator.
	dateTimeLayout = "20060102T150405"

	// RFC 5545 §3.1: content lines no longer than 75 octets, continuation
	// lines carry a leading space plus at most 74 octets of payload.
	maxLineOctets = 75
	contOctets    = 74
)

// escaper handles TEXT value escaping. strings.Replacer substitutes each
// match exactly once without rescanning its own output, which gives the
// required backslash-first ordering.
var escaper = strings.NewReplacer(
	`\`, `\\`,
	",", `\,`,
	";", `\;`,
	"\n", `\n`,
	"\r", "",
)

// SerializationError reports a record that failed the defensive invariant
// re-check before emission. With events built through the builder this is
// unreachable; it exists as a boundary, not a control path.
type SerializationError struct {
	UID    string
	Field  string
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serializing event %q: field %s: %s", e.UID, e.Field, e.Reason)
}

// ICalText renders the calendar as a complete VCALENDAR document:
// UTF-8, CRLF terminated, lines folded at 75 octets.
func (c *Calendar) ICalText() (string, error) {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:" + prodID + "\r\n")

	now := time.Now()
	for _, ev := range c.events {
		if err := recheck(ev); err != nil {
			return "", err
		}
		writeEvent(&b, ev, now)
	}

	b.WriteString("END:VCALENDAR\r\n")
	return foldLines(b.String()), nil
}

// recheck re-validates the invariants the builder enforced. Events only
// reach the serializer through the builder, so a failure here means the
// record was tampered with.
func recheck(ev *event.Event) error {
	if ev.UID() == "" {
		return &SerializationError{Field: "uid", Reason: "empty"}
	}
	if !ev.End().IsZero() && ev.Start().IsZero() {
		return &SerializationError{UID: ev.UID(), Field: "end", Reason: "end without start"}
	}
	if p := ev.Priority(); p < 0 || p > 9 {
		return &SerializationError{UID: ev.UID(), Field: "priority", Reason: "out of range"}
	}
	return nil
}

// writeEvent emits one VEVENT block. Property order is fixed; optional
// properties with absent or empty values produce no line at all.
func writeEvent(b *strings.Builder, ev *event.Event, now time.Time) {
	b.WriteString("BEGIN:VEVENT\r\n")

	prop(b, "UID", ev.UID())
	if !ev.Start().IsZero() {
		prop(b, "DTSTART", formatDateTime(ev.Start()))
	}
	if !ev.End().IsZero() {
		prop(b, "DTEND", formatDateTime(ev.End()))
	}
	// DTSTAMP is always the serialization time, never a stored field.
	prop(b, "DTSTAMP", formatDateTime(now))

	textProp(b, "SUMMARY", ev.Summary())
	textProp(b, "DESCRIPTION", ev.Description())
	textProp(b, "LOCATION", ev.Location())
	prop(b, "ORGANIZER", ev.Organizer())
	if !ev.Created().IsZero() {
		prop(b, "CREATED", formatDateTime(ev.Created()))
	}
	if !ev.LastModified().IsZero() {
		prop(b, "LAST-MODIFIED", formatDateTime(ev.LastModified()))
	}
	prop(b, "STATUS", ev.Status())
	prop(b, "TRANSP", ev.Transparency())
	prop(b, "CLASS", ev.Classification())
	if ev.Priority() > 0 {
		prop(b, "PRIORITY", strconv.Itoa(ev.Priority()))
	}
	prop(b, "RRULE", ev.RecurrenceRule())
	prop(b, "URL", ev.URL())
	textProp(b, "COMMENT", ev.Comment())
	textProp(b, "CONTACT", ev.Contact())

	for _, attendee := range ev.Attendees() {
		prop(b, "ATTENDEE", attendee)
	}
	// Category text is joined verbatim; RFC 5545 defines no escaping here.
	if cats := ev.Categories(); len(cats) > 0 {
		prop(b, "CATEGORIES", strings.Join(cats, ","))
	}
	for _, rdate := range ev.RecurrenceDates() {
		prop(b, "RDATE", formatDateTime(rdate))
	}
	for _, exdate := range ev.ExceptionDates() {
		prop(b, "EXDATE", formatDateTime(exdate))
	}

	if minutes, ok := ev.AlarmMinutesBefore(); ok {
		b.WriteString("BEGIN:VALARM\r\n")
		prop(b, "TRIGGER", fmt.Sprintf("-PT%dM", minutes))
		prop(b, "ACTION", "DISPLAY")
		prop(b, "DESCRIPTION", "Reminder")
		b.WriteString("END:VALARM\r\n")
	}

	b.WriteString("END:VEVENT\r\n")
}

// prop writes one unfolded content line, skipping empty values.
func prop(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(name)
	b.WriteByte(':')
	b.WriteString(value)
	b.WriteString("\r\n")
}

// textProp writes a TEXT-typed property with value escaping applied.
func textProp(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	prop(b, name, escaper.Replace(value))
}

func formatDateTime(t time.Time) string {
	return t.Format(dateTimeLayout)
}

// foldLines wraps every content line longer than 75 octets. The first
// segment carries 75 octets, each continuation a space plus up to 74
// octets. Budgets are measured in bytes, never characters, with the cut
// backed off so multi-byte UTF-8 sequences stay intact.
func foldLines(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	for _, line := range strings.Split(text, "\r\n") {
		if line == "" {
			continue
		}
		budget := maxLineOctets
		for len(line) > budget {
			cut := splitPoint(line, budget)
			out.WriteString(line[:cut])
			out.WriteString("\r\n ")
			line = line[cut:]
			budget = contOctets
		}
		out.WriteString(line)
		out.WriteString("\r\n")
	}
	return out.String()
}

// splitPoint returns the largest byte offset <= max that does not land in
// the middle of a UTF-8 sequence.
func splitPoint(line string, max int) int {
	cut := max
	for cut > 0 && !utf8.RuneStart(line[cut]) {
		cut--
	}
	return cut
}
