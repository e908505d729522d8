// Package icalfeed serialises scheduled events into an iCalendar (RFC 5545) feed.
package icalfeed

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// ContentType is the MIME type served for feeds.
const ContentType = "text/calendar; charset=utf-8"

const productID = "-//church-ops-api//events//EN"

// Event is a single feed entry.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	UpdatedAt   time.Time
	Cancelled   bool
	Private     bool
}

// Encode renders events as a published calendar named name.
func Encode(name, domain string, events []Event) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, ev := range events {
		if ev.UID == "" {
			return "", fmt.Errorf("feed event without uid")
		}
		if ev.EndsAt.Before(ev.StartsAt) {
			return "", fmt.Errorf("feed event %s ends before it starts", ev.UID)
		}
		vevent := cal.AddEvent(uid(ev.UID, domain))
		stamp := ev.UpdatedAt
		if stamp.IsZero() {
			stamp = time.Now()
		}
		vevent.SetDtStampTime(stamp.UTC())
		vevent.SetModifiedAt(stamp.UTC())
		vevent.SetStartAt(ev.StartsAt.UTC())
		vevent.SetEndAt(ev.EndsAt.UTC())
		vevent.SetSummary(ev.Summary)
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			vevent.SetLocation(ev.Location)
		}
		if ev.Cancelled {
			vevent.SetStatus(ics.ObjectStatusCancelled)
		} else {
			vevent.SetStatus(ics.ObjectStatusConfirmed)
		}
		if ev.Private {
			vevent.SetClass(ics.ClassificationPrivate)
		}
	}

	return cal.Serialize(), nil
}

func uid(id, domain string) string {
	if domain == "" || strings.Contains(id, "@") {
		return id
	}
	return id + "@" + domain
}
