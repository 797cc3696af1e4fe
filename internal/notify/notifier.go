// Package notify turns booking events into emails for the configured
// coordinators.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"time"

	"github.com/diagnosis/mentor-bookings/internal/repository"
	"github.com/diagnosis/mentor-bookings/pkg/events"
	"github.com/diagnosis/mentor-bookings/pkg/logger"
	"github.com/diagnosis/mentor-bookings/pkg/mailer"
)

const queueGroup = "mentor-bookings-notify"

type Notifier struct {
	bus        events.Subscriber
	directory  repository.AvailabilityStore
	mail       mailer.Service
	recipients []string
}

func New(bus events.Subscriber, directory repository.AvailabilityStore, mail mailer.Service, recipients []string) *Notifier {
	return &Notifier{bus: bus, directory: directory, mail: mail, recipients: recipients}
}

// Start registers the queue subscriptions. Handlers run on the bus's
// delivery goroutines until the bus is closed.
func (n *Notifier) Start() error {
	if len(n.recipients) == 0 {
		logger.Info("Booking notifications disabled, no recipients configured")
		return nil
	}
	if err := n.bus.QueueSubscribe(events.BookingAllocated, queueGroup, n.handleAllocated); err != nil {
		return fmt.Errorf("subscribe %s: %w", events.BookingAllocated, err)
	}
	if err := n.bus.QueueSubscribe(events.BookingCanceled, queueGroup, n.handleCanceled); err != nil {
		return fmt.Errorf("subscribe %s: %w", events.BookingCanceled, err)
	}
	logger.Info("Booking notifier started", "recipients", len(n.recipients))
	return nil
}

func (n *Notifier) handleAllocated(msg *events.Message) {
	var evt events.BookingAllocatedEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		logger.Error("Failed to decode event", "subject", msg.Subject, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	student, mentor := n.names(ctx, evt.StudentID, evt.MentorID)
	subject := fmt.Sprintf("Session booked: %s with %s", student, mentor)
	text := fmt.Sprintf(
		"Booking %d (ref %s)\nStudent: %s\nMentor: %s\nScheduled time: %d\nDuration: %d min\nSession cost: %s\n",
		evt.BookingID, evt.Reference, student, mentor, evt.ScheduledTime, evt.Duration, formatCost(evt.SessionCost),
	)
	n.deliver(ctx, subject, text, "booking_id", evt.BookingID)
}

func (n *Notifier) handleCanceled(msg *events.Message) {
	var evt events.BookingCanceledEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		logger.Error("Failed to decode event", "subject", msg.Subject, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	student, mentor := n.names(ctx, evt.StudentID, evt.MentorID)
	subject := fmt.Sprintf("Session canceled: %s with %s", student, mentor)
	text := fmt.Sprintf(
		"Booking %d was canceled.\nStudent: %s\nMentor: %s\nScheduled time: %d\n",
		evt.BookingID, student, mentor, evt.ScheduledTime,
	)
	n.deliver(ctx, subject, text, "booking_id", evt.BookingID)
}

// names falls back to "#<id>" when a record is gone or the lookup fails.
func (n *Notifier) names(ctx context.Context, studentID, mentorID int64) (string, string) {
	student := fmt.Sprintf("student #%d", studentID)
	mentor := fmt.Sprintf("mentor #%d", mentorID)

	if s, err := n.directory.GetStudentByID(ctx, studentID); err != nil {
		logger.WarnContext(ctx, "Failed to load student for notification", "error", err, "student_id", studentID)
	} else if s != nil {
		student = s.Name
	}
	if m, err := n.directory.GetMentorByID(ctx, mentorID); err != nil {
		logger.WarnContext(ctx, "Failed to load mentor for notification", "error", err, "mentor_id", mentorID)
	} else if m != nil {
		mentor = m.Name
	}
	return student, mentor
}

func (n *Notifier) deliver(ctx context.Context, subject, text string, attrs ...any) {
	body := "<pre>" + html.EscapeString(text) + "</pre>"
	for _, to := range n.recipients {
		id, err := n.mail.Send(ctx, to, "", subject, text, body)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to send notification", append(attrs, "to", to, "error", err)...)
			continue
		}
		logger.DebugContext(ctx, "Notification sent", append(attrs, "to", to, "message_id", id)...)
	}
}

func formatCost(cost float64) string {
	if cost == 0 {
		return "free"
	}
	return fmt.Sprintf("%.2f", cost)
}
