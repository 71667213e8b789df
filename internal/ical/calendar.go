// Package ical renders calendar events as RFC 5545 iCalendar text.
//
// The package owns the wire format: property ordering, text escaping,
// floating date-time formatting and 75-octet line folding. It performs no
// I/O beyond WriteTo handing finished bytes to the filesystem.
package ical

import (
	"fmt"
	"os"

	"g2ical/internal/event"
)

// Adapter converts one provider-native event representation into an
// event record. Implementations must return events that satisfy the
// builder's invariants; returning an error aborts the conversion.
type Adapter[T any] func(T) (*event.Event, error)

// Calendar is an ordered sequence of events. Insertion order is the
// VEVENT emission order. The zero value is usable.
type Calendar struct {
	events []*event.Event
}

// New returns an empty Calendar.
func New() *Calendar {
	return &Calendar{}
}

// From builds a Calendar by running every item through the adapter.
// It fails on the first item the adapter rejects.
func From[T any](items []T, adapt Adapter[T]) (*Calendar, error) {
	cal := New()
	for i, item := range items {
		ev, err := adapt(item)
		if err != nil {
			return nil, fmt.Errorf("adapting event %d: %w", i, err)
		}
		cal.Add(ev)
	}
	return cal, nil
}

// Add appends events in order.
func (c *Calendar) Add(events ...*event.Event) {
	c.events = append(c.events, events...)
}

// Len reports the number of events.
func (c *Calendar) Len() int {
	return len(c.events)
}

// Events returns a copy of the event sequence.
func (c *Calendar) Events() []*event.Event {
	return append([]*event.Event(nil), c.events...)
}

// ExportError reports a failure to write the calendar to a file.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("exporting calendar to %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// WriteTo serializes the calendar and writes it to path. The bytes are
// UTF-8 with CRLF line terminators, as produced by ICalText.
func (c *Calendar) WriteTo(path string) error {
	text, err := c.ICalText()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return &ExportError{Path: path, Err: err}
	}
	return nil
}
