package mocks

import (
	"context"

	"github.com/cinexhq/seat-hold-service/internal/events"
	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBookingCommitted(ctx context.Context, event events.BookingCommitted) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
