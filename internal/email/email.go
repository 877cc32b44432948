package email

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/smtp"

	"github.com/Domenick1991/flightticket/config"
	"github.com/Domenick1991/flightticket/internal/kafka"
	"github.com/domodwyer/mailyak/v3"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Compose renders the mail for a ticket event.
func Compose(event kafka.TicketEvent) Message {
	seat := event.SeatNumber
	if seat == "" {
		seat = "Unassigned"
	}

	if event.Type == kafka.EventTicketCancelled {
		return Message{
			To:      event.Email,
			Subject: fmt.Sprintf("Your Ticket #%d Cancellation", event.TicketID),
			Text: fmt.Sprintf("Hello %s,\n\nYour ticket (#%d) for flight %d, seat %s, has been cancelled.\n",
				event.PassengerName, event.TicketID, event.FlightID, seat),
			HTML: fmt.Sprintf("<p>Hello %s,</p>\n<p>Your ticket (#%d) for flight %d, seat %s, has been cancelled.</p>",
				html.EscapeString(event.PassengerName), event.TicketID, event.FlightID, html.EscapeString(seat)),
		}
	}

	return Message{
		To:      event.Email,
		Subject: fmt.Sprintf("Your Ticket #%d Confirmation", event.TicketID),
		Text: fmt.Sprintf("Hello %s,\n\nYour ticket (#%d) for flight %d is confirmed.\nSeat: %s\nBooking reference: %s\n\nThank you for booking with us.\n",
			event.PassengerName, event.TicketID, event.FlightID, seat, event.Reference),
		HTML: fmt.Sprintf(`<p>Hello %s,</p>
<ul>
  <li><strong>Ticket ID:</strong> %d</li>
  <li><strong>Flight ID:</strong> %d</li>
  <li><strong>Seat:</strong> %s</li>
  <li><strong>Reference:</strong> %s</li>
</ul>
<p>Thank you for booking with us.</p>`,
			html.EscapeString(event.PassengerName), event.TicketID, event.FlightID, html.EscapeString(seat), event.Reference),
	}
}

type Sender struct {
	cfg config.SMTPConfig
}

func NewSender(cfg config.SMTPConfig) *Sender {
	return &Sender{cfg: cfg}
}

func (s *Sender) Send(ctx context.Context, event kafka.TicketEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := Compose(event)
	if msg.To == "" {
		slog.Warn("ticket event without recipient", "ticket_id", event.TicketID, "event", event.Type)
		return nil
	}
	if s.cfg.Host == "" {
		slog.Info("smtp not configured, mail skipped", "to", msg.To, "subject", msg.Subject)
		return nil
	}

	if err := s.build(msg).Send(); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	slog.Info("mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (s *Sender) build(msg Message) *mailyak.MailYak {
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	mail := mailyak.New(s.cfg.Addr(), auth)
	mail.To(msg.To)
	mail.From(s.cfg.From)
	mail.Subject(msg.Subject)
	mail.Plain().Set(msg.Text)
	mail.HTML().Set(msg.HTML)
	return mail
}
