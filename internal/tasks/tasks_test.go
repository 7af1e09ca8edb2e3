package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/config"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/tasks"
)

// --- Mocks ---

// MockBillingService
type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) GenerateDueInvoices(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func (m *MockBillingService) SweepOverdueInvoices(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// --- Tests ---

func TestHandleInvoiceGenerateTask_Success(t *testing.T) {
	mockBilling := new(MockBillingService)
	mockBilling.On("GenerateDueInvoices", mock.Anything, mock.AnythingOfType("time.Time")).Return(3, nil)

	p := tasks.NewTaskProcessor(&config.Config{}, mockBilling)
	task := asynq.NewTask(tasks.TypeInvoiceGenerate, nil)

	err := p.HandleInvoiceGenerateTask(context.Background(), task)
	assert.NoError(t, err)
	mockBilling.AssertExpectations(t)
}

func TestHandleInvoiceGenerateTask_ErrorPropagatesForRetry(t *testing.T) {
	mockBilling := new(MockBillingService)
	expectedErr := errors.New("mongo unavailable")
	mockBilling.On("GenerateDueInvoices", mock.Anything, mock.AnythingOfType("time.Time")).Return(0, expectedErr)

	p := tasks.NewTaskProcessor(&config.Config{}, mockBilling)
	task := asynq.NewTask(tasks.TypeInvoiceGenerate, nil)

	err := p.HandleInvoiceGenerateTask(context.Background(), task)
	assert.ErrorIs(t, err, expectedErr)
	mockBilling.AssertExpectations(t)
}

func TestHandleInvoiceCheckOverdueTask_Success(t *testing.T) {
	mockBilling := new(MockBillingService)
	mockBilling.On("SweepOverdueInvoices", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(2), nil)

	p := tasks.NewTaskProcessor(&config.Config{}, mockBilling)
	task := asynq.NewTask(tasks.TypeInvoiceCheckOverdue, nil)

	err := p.HandleInvoiceCheckOverdueTask(context.Background(), task)
	assert.NoError(t, err)
	mockBilling.AssertExpectations(t)
}

func TestHandleInvoiceCheckOverdueTask_Error(t *testing.T) {
	mockBilling := new(MockBillingService)
	mockBilling.On("SweepOverdueInvoices", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(0), errors.New("boom"))

	p := tasks.NewTaskProcessor(&config.Config{}, mockBilling)
	task := asynq.NewTask(tasks.TypeInvoiceCheckOverdue, nil)

	err := p.HandleInvoiceCheckOverdueTask(context.Background(), task)
	assert.Error(t, err)
	mockBilling.AssertExpectations(t)
}
