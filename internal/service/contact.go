package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/kpp-site/internal/store"
)

const (
	maxContactField   = 200
	maxContactMessage = 5000
)

// ContactService stores enquiries from the public contact form.
type ContactService struct {
	queries *store.Queries
}

// NewContactService creates a ContactService.
func NewContactService(db *sql.DB) *ContactService {
	return &ContactService{queries: store.New(db)}
}

// ContactInput is a submitted contact form.
type ContactInput struct {
	Name    string
	Email   string
	Company string
	Subject string
	Message string
	IP      string
}

// Submit validates and stores a message.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (store.ContactMessage, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Company = strings.TrimSpace(in.Company)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)

	switch {
	case in.Name == "":
		return store.ContactMessage{}, invalid("name", "is required")
	case utf8.RuneCountInString(in.Name) > maxContactField:
		return store.ContactMessage{}, invalid("name", "is too long")
	case utf8.RuneCountInString(in.Company) > maxContactField:
		return store.ContactMessage{}, invalid("company", "is too long")
	case utf8.RuneCountInString(in.Subject) > maxContactField:
		return store.ContactMessage{}, invalid("subject", "is too long")
	case in.Message == "":
		return store.ContactMessage{}, invalid("message", "is required")
	case utf8.RuneCountInString(in.Message) > maxContactMessage:
		return store.ContactMessage{}, invalid("message", "must be at most %d characters", maxContactMessage)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || !strings.Contains(in.Email, "@") {
		return store.ContactMessage{}, invalid("email", "must be a valid email address")
	}

	msg, err := s.queries.CreateContactMessage(ctx, store.CreateContactMessageParams{
		Name:      in.Name,
		Email:     in.Email,
		Company:   in.Company,
		Subject:   in.Subject,
		Message:   in.Message,
		IPAddress: anonymizeIP(in.IP),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return store.ContactMessage{}, fmt.Errorf("storing contact message: %w", err)
	}
	slog.Info("contact message received", "id", msg.ID)
	return msg, nil
}

// List returns messages newest first.
func (s *ContactService) List(ctx context.Context, unreadOnly bool, limit, offset int64) ([]store.ContactMessage, int64, error) {
	msgs, err := s.queries.ListContactMessages(ctx, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing contact messages: %w", err)
	}
	total, err := s.queries.CountContactMessages(ctx, unreadOnly)
	if err != nil {
		return nil, 0, fmt.Errorf("counting contact messages: %w", err)
	}
	return msgs, total, nil
}

// MarkRead sets the read flag.
func (s *ContactService) MarkRead(ctx context.Context, id int64, read bool) (store.ContactMessage, error) {
	n, err := s.queries.MarkContactMessageRead(ctx, id, read)
	if err != nil {
		return store.ContactMessage{}, fmt.Errorf("marking contact message: %w", err)
	}
	if n == 0 {
		return store.ContactMessage{}, fmt.Errorf("contact message %w", ErrNotFound)
	}
	msg, err := s.queries.GetContactMessage(ctx, id)
	if err != nil {
		return store.ContactMessage{}, storeErr(err, "contact message")
	}
	return msg, nil
}

// Delete removes a message.
func (s *ContactService) Delete(ctx context.Context, id int64) error {
	n, err := s.queries.DeleteContactMessage(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting contact message: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("contact message %w", ErrNotFound)
	}
	return nil
}

// UnreadCount returns the number of unread messages.
func (s *ContactService) UnreadCount(ctx context.Context) (int64, error) {
	return s.queries.CountContactMessages(ctx, true)
}
