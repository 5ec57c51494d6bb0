package calendar

import (
	"bytes"
	"fmt"
	"net/url"
	"time"

	"github.com/emersion/go-ical"
)

const prodID = "-//session-scheduler//invite//EN"

// Invite describes a single VEVENT rendered into an .ics document.
type Invite struct {
	UID         string
	Summary     string
	Location    string
	Description string
	Organizer   string
	Attendee    string
	Start       time.Time
	End         time.Time
	Status      string
}

// Encode renders inv as an iCalendar document. Times are written in UTC so
// the file does not depend on a VTIMEZONE block.
func (inv Invite) Encode(stamp time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropMethod, "PUBLISH")

	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, inv.UID)
	ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ev.Props.SetDateTime(ical.PropDateTimeStart, inv.Start.UTC())
	ev.Props.SetDateTime(ical.PropDateTimeEnd, inv.End.UTC())
	ev.Props.SetText(ical.PropSummary, inv.Summary)
	if inv.Location != "" {
		ev.Props.SetText(ical.PropLocation, inv.Location)
	}
	if inv.Description != "" {
		ev.Props.SetText(ical.PropDescription, inv.Description)
	}
	if inv.Status != "" {
		ev.Props.SetText(ical.PropStatus, inv.Status)
	}
	if inv.Organizer != "" {
		ev.Props.SetURI(ical.PropOrganizer, mailto(inv.Organizer))
	}
	if inv.Attendee != "" {
		ev.Props.SetURI(ical.PropAttendee, mailto(inv.Attendee))
	}
	cal.Children = append(cal.Children, ev.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode invite: %w", err)
	}
	return buf.Bytes(), nil
}

func mailto(addr string) *url.URL {
	return &url.URL{Scheme: "mailto", Opaque: addr}
}
