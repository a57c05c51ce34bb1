package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portalapi/portal-api/internal/model"
)

func TestSend_MissingFields(t *testing.T) {
	svc := NewContactService(staticProvider{})

	_, err := svc.Send(context.Background(), model.ContactRequest{Name: "Ann", Email: "ann@x.com", Message: "  "})
	if err != ErrContactFieldsRequired {
		t.Errorf("expected ErrContactFieldsRequired, got %v", err)
	}
}

func TestSend_MessageTooLong(t *testing.T) {
	svc := NewContactService(staticProvider{})

	_, err := svc.Send(context.Background(), model.ContactRequest{
		Name: "Ann", Email: "ann@x.com", Message: strings.Repeat("x", MaxMessageLength+1),
	})
	if err != ErrMessageTooLong {
		t.Errorf("expected ErrMessageTooLong, got %v", err)
	}
}

func TestSendAndList(t *testing.T) {
	svc := NewContactService(staticProvider{store: newTestStore(t)})
	ctx := context.Background()

	sent, err := svc.Send(ctx, model.ContactRequest{Name: " Ann ", Email: "ann@x.com", Message: "Hello there"})
	require.NoError(t, err)
	assert.NotEmpty(t, sent.ID)
	assert.Equal(t, "Ann", sent.Name)
	assert.False(t, sent.CreatedAt.IsZero())

	list, err := svc.List(ctx, model.ContactListOptions{Limit: -5, Offset: -1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sent.ID, list[0].ID)
	assert.Equal(t, "Hello there", list[0].Message)
}
