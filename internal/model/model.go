package model

import "time"

// ScheduledSession is the private record kept for every scheduled meeting.
// StartDate is a wall-clock time in the calendar's time zone.
type ScheduledSession struct {
	SessionName   string
	PassCode      string
	StartDate     time.Time
	HostEmail     string
	AttendeeEmail string
	CreatedAt     time.Time
}
