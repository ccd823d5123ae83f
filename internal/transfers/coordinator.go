package transfers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	custom_error "github.com/nadirsultanli/order-management-system-sub008/pkg/errors"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"go.uber.org/zap"
)

// ErrStaleResponse is returned when a validation response arrived after its inputs
// were superseded. The response has been discarded and nothing was changed.
var ErrStaleResponse = errors.New("validation response superseded by newer input")

type Validator interface {
	ValidateTransfer(ctx context.Context, req models.ValidateTransferRequest) (*models.ValidationResult, error)
}

type ValidationStatus string

const (
	ValidationUnknown ValidationStatus = "unknown"
	ValidationPending ValidationStatus = "pending"
	ValidationValid   ValidationStatus = "valid"
	ValidationInvalid ValidationStatus = "invalid"
	ValidationFailed  ValidationStatus = "failed"
)

// ValidationContext holds the header fields a validation request depends on.
type ValidationContext struct {
	SourceWarehouseID      string
	DestinationWarehouseID string
	TransferDate           models.Date
}

func (v ValidationContext) complete() bool {
	return v.SourceWarehouseID != "" && v.DestinationWarehouseID != "" && !v.TransferDate.IsZero()
}

type ValidationState struct {
	Status     ValidationStatus         `json:"status"`
	Result     *models.ValidationResult `json:"result,omitempty"`
	Err        error                    `json:"-"`
	Message    string                   `json:"error,omitempty"`
	Retryable  bool                     `json:"retryable"`
	Generation uint64                   `json:"generation"`
}

// Passed reports whether the latest applied result allows submission.
func (s ValidationState) Passed() bool {
	return s.Status == ValidationValid && s.Result != nil && s.Result.IsValid
}

// Coordinator issues validation requests for a selection and applies only the
// response matching the latest inputs.
type Coordinator struct {
	validator Validator
	selection *Selection
	logger    *zap.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	inputs ValidationContext
	state  ValidationState
	// validated is the fingerprint of the request that produced state.Result.
	validated string
}

func NewCoordinator(validator Validator, selection *Selection, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		validator: validator,
		selection: selection,
		logger:    logger,
		state:     ValidationState{Status: ValidationUnknown},
	}
}

func (c *Coordinator) State() ValidationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Validate supersedes any in-flight request and, when the selection is non-empty
// and the context complete, asks the validator about the current inputs.
func (c *Coordinator) Validate(ctx context.Context, vctx ValidationContext) (ValidationState, error) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.inputs = vctx
	c.validated = ""
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if c.selection.Len() == 0 || !vctx.complete() {
		c.state = ValidationState{Status: ValidationUnknown, Generation: gen}
		c.mu.Unlock()
		c.selection.ResetFlags()
		return c.state, nil
	}

	req := requestFor(vctx, c.selection.Lines())
	fingerprint, err := fingerprintOf(req)
	if err != nil {
		c.mu.Unlock()
		return ValidationState{}, err
	}

	callCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = ValidationState{Status: ValidationPending, Generation: gen}
	c.mu.Unlock()

	result, callErr := c.validator.ValidateTransfer(callCtx, req)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLocked(gen, fingerprint) {
		c.logger.Debug("Discarding stale validation response",
			zap.Uint64("generation", gen),
			zap.Uint64("current_generation", c.gen))
		return c.state, ErrStaleResponse
	}
	c.cancel = nil

	if callErr != nil {
		c.state = ValidationState{
			Status:     ValidationFailed,
			Err:        callErr,
			Message:    callErr.Error(),
			Retryable:  custom_error.IsRetryable(callErr),
			Generation: gen,
		}
		c.logger.Warn("Transfer validation failed",
			zap.Error(callErr),
			zap.Bool("retryable", c.state.Retryable))
		return c.state, callErr
	}

	status := ValidationInvalid
	if result.IsValid {
		status = ValidationValid
	}
	c.state = ValidationState{Status: status, Result: result, Generation: gen}
	c.validated = fingerprint
	c.selection.Reconcile(result)

	return c.state, nil
}

// Reset cancels any in-flight request and forgets the last result.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.inputs = ValidationContext{}
	c.validated = ""
	c.state = ValidationState{Status: ValidationUnknown, Generation: c.gen}
}

// PassedFor reports whether the applied result passes and was issued for exactly
// vctx and the selection as it is now.
func (c *Coordinator) PassedFor(vctx ValidationContext) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Passed() || c.validated == "" {
		return false
	}
	current, err := fingerprintOf(requestFor(vctx, c.selection.Lines()))
	return err == nil && current == c.validated
}

func (c *Coordinator) currentLocked(gen uint64, fingerprint string) bool {
	if gen != c.gen {
		return false
	}
	current, err := fingerprintOf(requestFor(c.inputs, c.selection.Lines()))
	return err == nil && current == fingerprint
}

func requestFor(vctx ValidationContext, lines []models.TransferLine) models.ValidateTransferRequest {
	return models.ValidateTransferRequest{
		SourceWarehouseID:      vctx.SourceWarehouseID,
		DestinationWarehouseID: vctx.DestinationWarehouseID,
		TransferDate:           vctx.TransferDate,
		Items:                  lines,
	}
}

func fingerprintOf(req models.ValidateTransferRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
