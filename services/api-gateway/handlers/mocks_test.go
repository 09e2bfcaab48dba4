// services/api-gateway/handlers/mocks_test.go
package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/example/checkout-adapter/services/api-gateway/clients"
	"github.com/example/checkout-adapter/services/api-gateway/queue"
)

type MockCheckout struct {
	mock.Mock
}

func NewMockCheckout(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCheckout {
	m := &MockCheckout{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCheckout) CreatePaymentLink(ctx context.Context, in clients.PaymentLinkRequest, idempotencyKey string) (*clients.PaymentLink, error) {
	args := m.Called(ctx, in, idempotencyKey)
	link, _ := args.Get(0).(*clients.PaymentLink)
	return link, args.Error(1)
}

func (m *MockCheckout) GetPayment(ctx context.Context, paymentID string) (*clients.Payment, error) {
	args := m.Called(ctx, paymentID)
	p, _ := args.Get(0).(*clients.Payment)
	return p, args.Error(1)
}

func (m *MockCheckout) FindPaymentByReference(ctx context.Context, reference string) (*clients.Payment, error) {
	args := m.Called(ctx, reference)
	p, _ := args.Get(0).(*clients.Payment)
	return p, args.Error(1)
}

func (m *MockCheckout) GetPaymentActions(ctx context.Context, paymentID string) ([]clients.PaymentAction, error) {
	args := m.Called(ctx, paymentID)
	actions, _ := args.Get(0).([]clients.PaymentAction)
	return actions, args.Error(1)
}

func (m *MockCheckout) RefundPayment(ctx context.Context, paymentID string, in clients.RefundRequest, idempotencyKey string) (*clients.RefundAccepted, error) {
	args := m.Called(ctx, paymentID, in, idempotencyKey)
	res, _ := args.Get(0).(*clients.RefundAccepted)
	return res, args.Error(1)
}

func (m *MockCheckout) SearchLatestPayment(ctx context.Context, email string) (*clients.Payment, error) {
	args := m.Called(ctx, email)
	p, _ := args.Get(0).(*clients.Payment)
	return p, args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e queue.Event) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockPublisher) Close() error { return nil }
