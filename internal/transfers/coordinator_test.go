package transfers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	custom_error "github.com/nadirsultanli/order-management-system-sub008/pkg/errors"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) ValidateTransfer(ctx context.Context, req models.ValidateTransferRequest) (*models.ValidationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ValidationResult), args.Error(1)
}

// gatedValidator holds every request until the test answers it.
type gatedValidator struct {
	requests chan *gatedRequest
}

type gatedRequest struct {
	req    models.ValidateTransferRequest
	answer chan *models.ValidationResult
}

func newGatedValidator() *gatedValidator {
	return &gatedValidator{requests: make(chan *gatedRequest, 8)}
}

func (g *gatedValidator) ValidateTransfer(_ context.Context, req models.ValidateTransferRequest) (*models.ValidationResult, error) {
	r := &gatedRequest{req: req, answer: make(chan *models.ValidationResult, 1)}
	g.requests <- r
	return <-r.answer, nil
}

func (g *gatedValidator) next(t *testing.T) *gatedRequest {
	t.Helper()
	select {
	case r := <-g.requests:
		return r
	case <-time.After(time.Second):
		t.Fatal("validation request was not issued")
		return nil
	}
}

func completeContext() ValidationContext {
	return ValidationContext{
		SourceWarehouseID:      "w1",
		DestinationWarehouseID: "w2",
		TransferDate:           models.NewDate(2026, time.October, 16),
	}
}

func TestNoValidationWhileSelectionEmpty(t *testing.T) {
	v := new(MockValidator)
	c := NewCoordinator(v, NewSelection(), nil)

	contexts := []ValidationContext{
		{},
		{SourceWarehouseID: "w1"},
		completeContext(),
		{SourceWarehouseID: "w3", DestinationWarehouseID: "w4", TransferDate: models.NewDate(2026, time.November, 1)},
	}
	for _, vctx := range contexts {
		state, err := c.Validate(context.Background(), vctx)
		require.NoError(t, err)
		assert.Equal(t, ValidationUnknown, state.Status)
	}

	v.AssertNotCalled(t, "ValidateTransfer", mock.Anything, mock.Anything)
}

func TestNoValidationWithIncompleteContext(t *testing.T) {
	v := new(MockValidator)
	s := NewSelection()
	require.NoError(t, s.AddItem(cylinder("P1", 13, nil), 1, models.StockInfo{}))
	c := NewCoordinator(v, s, nil)

	state, err := c.Validate(context.Background(), ValidationContext{SourceWarehouseID: "w1", DestinationWarehouseID: "w2"})
	require.NoError(t, err)
	assert.Equal(t, ValidationUnknown, state.Status)
	v.AssertNotCalled(t, "ValidateTransfer", mock.Anything, mock.Anything)
}

func TestValidationAppliesResultAndReconciles(t *testing.T) {
	v := new(MockValidator)
	s := NewSelection()
	require.NoError(t, s.AddItem(cylinder("P1", 13, nil), 4, models.StockInfo{}))
	c := NewCoordinator(v, s, nil)

	v.On("ValidateTransfer", mock.Anything, mock.MatchedBy(func(req models.ValidateTransferRequest) bool {
		return req.SourceWarehouseID == "w1" && len(req.Items) == 1 && req.Items[0].Quantity == 4
	})).Return(&models.ValidationResult{IsValid: false, BlockedItems: []string{"P1"}}, nil).Once()

	state, err := c.Validate(context.Background(), completeContext())
	require.NoError(t, err)
	assert.Equal(t, ValidationInvalid, state.Status)
	assert.False(t, state.Passed())

	item, _ := s.Find("P1", nil)
	assert.False(t, item.IsValid)
	v.AssertExpectations(t)
}

func TestPassedForMatchesValidatedInputsOnly(t *testing.T) {
	v := new(MockValidator)
	v.On("ValidateTransfer", mock.Anything, mock.Anything).Return(&models.ValidationResult{IsValid: true}, nil)
	s := NewSelection()
	require.NoError(t, s.AddItem(cylinder("P1", 13, nil), 2, models.StockInfo{}))
	c := NewCoordinator(v, s, nil)

	_, err := c.Validate(context.Background(), completeContext())
	require.NoError(t, err)
	assert.True(t, c.PassedFor(completeContext()))

	other := completeContext()
	other.DestinationWarehouseID = "w9"
	assert.False(t, c.PassedFor(other))

	require.NoError(t, s.UpdateQuantity("P1", nil, 3))
	assert.True(t, c.State().Passed(), "the stored verdict itself is unchanged")
	assert.False(t, c.PassedFor(completeContext()))

	require.NoError(t, s.UpdateQuantity("P1", nil, 2))
	assert.True(t, c.PassedFor(completeContext()))

	c.Reset()
	assert.False(t, c.PassedFor(completeContext()))
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	v := newGatedValidator()
	s := NewSelection()
	require.NoError(t, s.AddItem(cylinder("P1", 13, nil), 1, models.StockInfo{}))
	c := NewCoordinator(v, s, nil)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = c.Validate(context.Background(), completeContext())
	}()
	first := v.next(t)

	require.NoError(t, s.AddItem(cylinder("P2", 6, nil), 2, models.StockInfo{}))
	secondDone := make(chan ValidationState, 1)
	go func() {
		state, err := c.Validate(context.Background(), completeContext())
		assert.NoError(t, err)
		secondDone <- state
	}()
	second := v.next(t)
	assert.Len(t, second.req.Items, 2)

	second.answer <- &models.ValidationResult{IsValid: true}
	secondState := <-secondDone
	assert.Equal(t, ValidationValid, secondState.Status)

	first.answer <- &models.ValidationResult{IsValid: false, BlockedItems: []string{"P1"}}
	wg.Wait()

	assert.ErrorIs(t, firstErr, ErrStaleResponse)
	state := c.State()
	assert.Equal(t, ValidationValid, state.Status)
	assert.True(t, state.Passed())
	item, _ := s.Find("P1", nil)
	assert.True(t, item.IsValid)
}

func TestResponseForChangedSelectionIsDiscarded(t *testing.T) {
	v := newGatedValidator()
	s := NewSelection()
	require.NoError(t, s.AddItem(cylinder("P1", 13, nil), 1, models.StockInfo{}))
	c := NewCoordinator(v, s, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Validate(context.Background(), completeContext())
		done <- err
	}()
	r := v.next(t)

	require.NoError(t, s.UpdateQuantity("P1", nil, 7))
	r.answer <- &models.ValidationResult{IsValid: true}

	assert.ErrorIs(t, <-done, ErrStaleResponse)
	assert.Equal(t, ValidationPending, c.State().Status)
}

func TestValidationFailureIsTyped(t *testing.T) {
	v := new(MockValidator)
	s := NewSelection()
	require.NoError(t, s.AddItem(cylinder("P1", 13, nil), 1, models.StockInfo{}))
	c := NewCoordinator(v, s, nil)

	timeout := custom_error.NewTransportError("validate transfer", context.DeadlineExceeded)
	v.On("ValidateTransfer", mock.Anything, mock.Anything).Return(nil, timeout).Once()

	state, err := c.Validate(context.Background(), completeContext())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, ValidationFailed, state.Status)
	assert.True(t, state.Retryable)
	assert.NotEmpty(t, state.Message)
	assert.False(t, state.Passed())
}

func TestResetForgetsResult(t *testing.T) {
	v := new(MockValidator)
	s := NewSelection()
	require.NoError(t, s.AddItem(cylinder("P1", 13, nil), 1, models.StockInfo{}))
	c := NewCoordinator(v, s, nil)
	v.On("ValidateTransfer", mock.Anything, mock.Anything).Return(&models.ValidationResult{IsValid: true}, nil)

	_, err := c.Validate(context.Background(), completeContext())
	require.NoError(t, err)
	require.True(t, c.State().Passed())

	c.Reset()
	assert.Equal(t, ValidationUnknown, c.State().Status)
}
