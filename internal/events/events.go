package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const SubjectScheduled = "sessions.scheduled"

// SessionScheduled is published once a session is stored. It never carries
// the passcode.
type SessionScheduled struct {
	SessionName string    `json:"sessionName"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	EventID     string    `json:"eventId"`
}

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

type Publisher struct {
	nc      Conn
	subject string
}

func NewPublisher(nc Conn) *Publisher {
	return &Publisher{nc: nc, subject: SubjectScheduled}
}

// Connect dials NATS with reconnects enabled for the life of the process.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("session-scheduler"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}

func (p *Publisher) SessionScheduled(ctx context.Context, ev SessionScheduled) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}
