package google

import (
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"

	"g2ical/internal/event"
)

func adaptOne(t *testing.T, item *calendar.Event, loc *time.Location) *event.Event {
	t.Helper()
	ev, err := Adapter(loc)(item)
	if err != nil {
		t.Fatalf("adapt returned error: %v", err)
	}
	return ev
}

func TestAdaptBasicFields(t *testing.T) {
	loc := time.FixedZone("TST", 2*60*60)
	ev := adaptOne(t, &calendar.Event{
		Id:          "gid-1",
		Summary:     "Standup",
		Description: "daily sync",
		Location:    "room 1",
		HtmlLink:    "https://calendar.google.com/event?eid=abc",
		Start:       &calendar.EventDateTime{DateTime: "2025-07-29T09:00:00+02:00"},
		End:         &calendar.EventDateTime{DateTime: "2025-07-29T09:15:00+02:00"},
		Created:     "2025-07-01T08:00:00Z",
		Updated:     "2025-07-20T08:00:00Z",
	}, loc)

	if ev.UID() != "gid-1" {
		t.Errorf("UID = %q", ev.UID())
	}
	if ev.Summary() != "Standup" || ev.Description() != "daily sync" || ev.Location() != "room 1" {
		t.Error("descriptive fields not mapped")
	}
	if ev.URL() != "https://calendar.google.com/event?eid=abc" {
		t.Errorf("URL = %q", ev.URL())
	}
	if got := ev.Start(); got.Hour() != 9 || got.Minute() != 0 {
		t.Errorf("start wall clock = %v, want 09:00 in TST", got)
	}
	if got := ev.End(); got.Hour() != 9 || got.Minute() != 15 {
		t.Errorf("end wall clock = %v, want 09:15 in TST", got)
	}
	if got := ev.Created(); got.Hour() != 10 {
		t.Errorf("created = %v, want 10:00 wall clock in TST", got)
	}
}

func TestAdaptAllDayEventUsesDateField(t *testing.T) {
	loc := time.UTC
	ev := adaptOne(t, &calendar.Event{
		Id:    "allday",
		Start: &calendar.EventDateTime{Date: "2025-07-29"},
		End:   &calendar.EventDateTime{Date: "2025-07-30"},
	}, loc)

	want := time.Date(2025, 7, 29, 0, 0, 0, 0, loc)
	if !ev.Start().Equal(want) {
		t.Errorf("start = %v, want %v", ev.Start(), want)
	}
}

func TestAdaptStatusMapping(t *testing.T) {
	cases := map[string]string{
		"confirmed": event.StatusConfirmed,
		"tentative": event.StatusTentative,
		"cancelled": event.StatusCancelled,
		"":          event.StatusConfirmed, // builder default
		"unknown":   event.StatusConfirmed,
	}
	for googleStatus, want := range cases {
		ev := adaptOne(t, &calendar.Event{Id: "s", Status: googleStatus}, time.UTC)
		if ev.Status() != want {
			t.Errorf("status %q mapped to %q, want %q", googleStatus, ev.Status(), want)
		}
	}
}

func TestAdaptVisibilityMapping(t *testing.T) {
	cases := map[string]string{
		"public":       event.ClassPublic,
		"private":      event.ClassPrivate,
		"confidential": event.ClassConfidential,
		"default":      event.ClassPublic,
	}
	for visibility, want := range cases {
		ev := adaptOne(t, &calendar.Event{Id: "v", Visibility: visibility}, time.UTC)
		if ev.Classification() != want {
			t.Errorf("visibility %q mapped to %q, want %q", visibility, ev.Classification(), want)
		}
	}
}

func TestAdaptTransparencyUppercased(t *testing.T) {
	ev := adaptOne(t, &calendar.Event{Id: "t", Transparency: "transparent"}, time.UTC)
	if ev.Transparency() != event.TranspTransparent {
		t.Errorf("transparency = %q", ev.Transparency())
	}
}

func TestAdaptOrganizerAndAttendees(t *testing.T) {
	ev := adaptOne(t, &calendar.Event{
		Id:        "ppl",
		Organizer: &calendar.EventOrganizer{Email: "ada@example.com", DisplayName: "Ada Lovelace"},
		Attendees: []*calendar.EventAttendee{
			{Email: "bob@example.com", ResponseStatus: "accepted"},
			{Email: "carol@example.com", DisplayName: "Carol", ResponseStatus: "needsAction"},
			{DisplayName: "no email, skipped"},
			{Email: "dan@example.com"},
		},
	}, time.UTC)

	if got := ev.Organizer(); got != "CN=Ada Lovelace:MAILTO:ada@example.com" {
		t.Errorf("organizer = %q", got)
	}
	want := []string{
		"MAILTO:bob@example.com;PARTSTAT=ACCEPTED",
		"CN=Carol:MAILTO:carol@example.com;PARTSTAT=NEEDS-ACTION",
		"MAILTO:dan@example.com",
	}
	got := ev.Attendees()
	if len(got) != len(want) {
		t.Fatalf("attendees = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("attendee %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAdaptRecurrenceRulePrefixStripped(t *testing.T) {
	ev := adaptOne(t, &calendar.Event{
		Id:         "rec",
		Recurrence: []string{"EXDATE;VALUE=DATE:20250801", "RRULE:FREQ=WEEKLY;BYDAY=TU", "RRULE:FREQ=DAILY"},
	}, time.UTC)

	if got := ev.RecurrenceRule(); got != "FREQ=WEEKLY;BYDAY=TU" {
		t.Errorf("recurrence rule = %q, want first RRULE with prefix stripped", got)
	}
}

func TestAdaptPopupReminderBecomesAlarm(t *testing.T) {
	ev := adaptOne(t, &calendar.Event{
		Id: "rem",
		Reminders: &calendar.EventReminders{
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 60},
				{Method: "popup", Minutes: 10},
				{Method: "popup", Minutes: 30},
			},
		},
	}, time.UTC)

	minutes, ok := ev.AlarmMinutesBefore()
	if !ok || minutes != 10 {
		t.Errorf("alarm = (%d, %v), want first popup override (10, true)", minutes, ok)
	}

	noPopup := adaptOne(t, &calendar.Event{Id: "none"}, time.UTC)
	if _, ok := noPopup.AlarmMinutesBefore(); ok {
		t.Error("event without popup reminders should carry no alarm")
	}
}

func TestAdaptBadTimestampFails(t *testing.T) {
	_, err := Adapter(time.UTC)(&calendar.Event{
		Id:    "bad",
		Start: &calendar.EventDateTime{DateTime: "not-a-time"},
	})
	if err == nil {
		t.Fatal("expected error for malformed start timestamp")
	}
}
