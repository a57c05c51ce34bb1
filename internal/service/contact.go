package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/portalapi/portal-api/internal/model"
)

const (
	MaxMessageLength = 5000

	DefaultContactPageSize = 50
	MaxContactPageSize     = 200
)

// ContactService handles contact form submissions.
type ContactService struct {
	db StoreProvider
}

// NewContactService creates a new ContactService.
func NewContactService(db StoreProvider) *ContactService {
	return &ContactService{db: db}
}

// Send stores a contact form submission.
func (s *ContactService) Send(ctx context.Context, req model.ContactRequest) (model.ContactMessage, error) {
	msg := model.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Message: strings.TrimSpace(req.Message),
	}
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return model.ContactMessage{}, ErrContactFieldsRequired
	}
	if utf8.RuneCountInString(msg.Message) > MaxMessageLength {
		return model.ContactMessage{}, ErrMessageTooLong
	}

	store, err := s.db.EnsureReady(ctx)
	if err != nil {
		return model.ContactMessage{}, err
	}

	if err := store.Contacts().Create(ctx, &msg); err != nil {
		return model.ContactMessage{}, err
	}
	return msg, nil
}

// List returns stored messages newest first. Out-of-range paging values are clamped.
func (s *ContactService) List(ctx context.Context, opts model.ContactListOptions) ([]model.ContactMessage, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultContactPageSize
	}
	if opts.Limit > MaxContactPageSize {
		opts.Limit = MaxContactPageSize
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	store, err := s.db.EnsureReady(ctx)
	if err != nil {
		return nil, err
	}
	return store.Contacts().List(ctx, opts)
}
