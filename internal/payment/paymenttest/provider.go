// Package paymenttest provides a testify mock of payment.Provider.
package paymenttest

import (
	"context"

	"therapylink_backend/internal/payment"

	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

var _ payment.Provider = (*MockProvider)(nil)

func (m *MockProvider) CreateAccount(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) CreateOnboardingLink(ctx context.Context, accountID string) (string, error) {
	args := m.Called(ctx, accountID)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) GetAccountStatus(ctx context.Context, accountID string) (payment.AccountStatus, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(payment.AccountStatus), args.Error(1)
}
