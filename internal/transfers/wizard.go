package transfers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/metadata"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"go.uber.org/zap"
)

var (
	ErrWizardBusy      = errors.New("transfer submission already in progress")
	ErrWizardSubmitted = errors.New("transfer already submitted")
)

type Step string

const (
	StepSetup    Step = "setup"
	StepProducts Step = "products"
	StepReview   Step = "review"
)

// Steps lists wizard steps in order.
var Steps = []Step{StepSetup, StepProducts, StepReview}

func (s Step) index() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

// StepBlockedError explains why the wizard cannot move past Step.
type StepBlockedError struct {
	Step   Step
	Reason string
}

func (e *StepBlockedError) Error() string {
	return fmt.Sprintf("cannot leave step %s: %s", e.Step, e.Reason)
}

type FormData struct {
	SourceWarehouseID      string            `json:"source_warehouse_id"`
	DestinationWarehouseID string            `json:"destination_warehouse_id"`
	TransferDate           models.Date       `json:"transfer_date"`
	Priority               metadata.Priority `json:"priority"`
	TransferReference      string            `json:"transfer_reference,omitempty"`
	Reason                 string            `json:"reason,omitempty"`
	Notes                  string            `json:"notes,omitempty"`
	Instructions           string            `json:"instructions,omitempty"`
}

func (f FormData) validationContext() ValidationContext {
	return ValidationContext{
		SourceWarehouseID:      f.SourceWarehouseID,
		DestinationWarehouseID: f.DestinationWarehouseID,
		TransferDate:           f.TransferDate,
	}
}

type Creator interface {
	CreateTransfer(ctx context.Context, req models.CreateTransferRequest) (*models.Transfer, error)
}

// gates holds the precondition for leaving each step forward.
var gates = map[Step]func(w *Wizard) error{
	StepSetup: func(w *Wizard) error {
		switch {
		case w.form.SourceWarehouseID == "":
			return &StepBlockedError{Step: StepSetup, Reason: "source warehouse is required"}
		case w.form.DestinationWarehouseID == "":
			return &StepBlockedError{Step: StepSetup, Reason: "destination warehouse is required"}
		case w.form.SourceWarehouseID == w.form.DestinationWarehouseID:
			return &StepBlockedError{Step: StepSetup, Reason: "source and destination warehouses must differ"}
		case w.form.TransferDate.IsZero():
			return &StepBlockedError{Step: StepSetup, Reason: "transfer date is required"}
		}
		return nil
	},
	StepProducts: func(w *Wizard) error {
		if w.selection.Len() == 0 {
			return &StepBlockedError{Step: StepProducts, Reason: "select at least one item"}
		}
		return nil
	},
	StepReview: func(w *Wizard) error {
		if !w.coordinator.PassedFor(w.form.validationContext()) {
			return &StepBlockedError{Step: StepReview, Reason: "transfer has not passed validation"}
		}
		return nil
	},
}

// Wizard drives a transfer through setup, product selection, review and submission.
type Wizard struct {
	ID uuid.UUID

	selection   *Selection
	coordinator *Coordinator
	creator     Creator
	logger      *zap.Logger

	mu           sync.Mutex
	step         Step
	form         FormData
	busy         bool
	submitted    *models.Transfer
	lastErr      error
	lastActivity time.Time
}

func NewWizard(validator Validator, creator Creator, logger *zap.Logger) *Wizard {
	if logger == nil {
		logger = zap.NewNop()
	}
	selection := NewSelection()
	return &Wizard{
		ID:           uuid.New(),
		selection:    selection,
		coordinator:  NewCoordinator(validator, selection, logger),
		creator:      creator,
		logger:       logger,
		step:         StepSetup,
		form:         FormData{Priority: metadata.PriorityNormal},
		lastActivity: time.Now(),
	}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Selection() *Selection {
	return w.selection
}

func (w *Wizard) Validation() ValidationState {
	return w.coordinator.State()
}

func (w *Wizard) touch() {
	w.lastActivity = time.Now()
}

// Next advances one step if the current step's gate passes.
func (w *Wizard) Next() (Step, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	idx := w.step.index()
	if idx == len(Steps)-1 {
		return w.step, &StepBlockedError{Step: w.step, Reason: "already at the last step"}
	}
	if err := gates[w.step](w); err != nil {
		return w.step, err
	}
	w.step = Steps[idx+1]
	return w.step, nil
}

// Previous steps back without any precondition.
func (w *Wizard) Previous() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	if idx := w.step.index(); idx > 0 {
		w.step = Steps[idx-1]
	}
	return w.step
}

// SetForm replaces the header fields and revalidates. A header that no longer
// passes the setup gate sends the wizard back to setup.
func (w *Wizard) SetForm(ctx context.Context, form FormData) (ValidationState, error) {
	if form.Priority == "" {
		form.Priority = metadata.PriorityNormal
	}

	w.mu.Lock()
	if err := w.mutableLocked(); err != nil {
		w.mu.Unlock()
		return w.coordinator.State(), err
	}
	w.form = form
	if w.step != StepSetup && gates[StepSetup](w) != nil {
		w.step = StepSetup
	}
	vctx := form.validationContext()
	w.mu.Unlock()

	return w.validate(ctx, vctx)
}

func (w *Wizard) Form() FormData {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// AddItem selects a product and revalidates.
func (w *Wizard) AddItem(ctx context.Context, product models.Product, quantity int, stock models.StockInfo) (ValidationState, error) {
	return w.mutate(ctx, func() error {
		return w.selection.AddItem(product, quantity, stock)
	})
}

func (w *Wizard) UpdateQuantity(ctx context.Context, productID string, variantName *string, quantity int) (ValidationState, error) {
	return w.mutate(ctx, func() error {
		return w.selection.UpdateQuantity(productID, variantName, quantity)
	})
}

func (w *Wizard) RemoveItem(ctx context.Context, productID string, variantName *string) (ValidationState, error) {
	return w.mutate(ctx, func() error {
		w.selection.RemoveItem(productID, variantName)
		return nil
	})
}

// Revalidate reissues validation for the current inputs, e.g. after a failed attempt.
func (w *Wizard) Revalidate(ctx context.Context) (ValidationState, error) {
	return w.mutate(ctx, func() error { return nil })
}

func (w *Wizard) mutate(ctx context.Context, change func() error) (ValidationState, error) {
	w.mu.Lock()
	if err := w.mutableLocked(); err != nil {
		w.mu.Unlock()
		return w.coordinator.State(), err
	}
	if err := change(); err != nil {
		w.mu.Unlock()
		return w.coordinator.State(), err
	}
	vctx := w.form.validationContext()
	w.mu.Unlock()

	return w.validate(ctx, vctx)
}

func (w *Wizard) mutableLocked() error {
	w.touch()
	if w.submitted != nil {
		return ErrWizardSubmitted
	}
	if w.busy {
		return ErrWizardBusy
	}
	return nil
}

func (w *Wizard) validate(ctx context.Context, vctx ValidationContext) (ValidationState, error) {
	state, err := w.coordinator.Validate(ctx, vctx)
	if errors.Is(err, ErrStaleResponse) {
		return w.coordinator.State(), nil
	}
	return state, err
}

// Submit creates the transfer. It is allowed only from the review step with a passing
// validation result, and only once at a time.
func (w *Wizard) Submit(ctx context.Context) (*models.Transfer, error) {
	w.mu.Lock()
	if err := w.mutableLocked(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.step != StepReview {
		w.mu.Unlock()
		return nil, &StepBlockedError{Step: w.step, Reason: "submission is only possible from review"}
	}
	for _, step := range Steps {
		if err := gates[step](w); err != nil {
			w.mu.Unlock()
			return nil, err
		}
	}

	w.busy = true
	req := models.CreateTransferRequest{
		SourceWarehouseID:      w.form.SourceWarehouseID,
		DestinationWarehouseID: w.form.DestinationWarehouseID,
		TransferDate:           w.form.TransferDate,
		Priority:               w.form.Priority,
		TransferReference:      w.form.TransferReference,
		Reason:                 w.form.Reason,
		Notes:                  w.form.Notes,
		Instructions:           w.form.Instructions,
		Items:                  w.selection.Lines(),
	}
	w.mu.Unlock()

	transfer, err := w.creator.CreateTransfer(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false

	if err != nil {
		w.lastErr = err
		w.logger.Error("Failed to create transfer",
			zap.String("wizard_id", w.ID.String()),
			zap.Error(err))
		return nil, err
	}

	w.lastErr = nil
	w.submitted = transfer
	return transfer, nil
}

// Reset clears the selection and form and returns to the first step.
func (w *Wizard) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.busy {
		return ErrWizardBusy
	}
	w.coordinator.Reset()
	w.selection.Clear()
	w.step = StepSetup
	w.form = FormData{Priority: metadata.PriorityNormal}
	w.submitted = nil
	w.lastErr = nil
	w.touch()
	return nil
}

type WizardView struct {
	ID         uuid.UUID        `json:"id"`
	Step       Step             `json:"step"`
	Form       FormData         `json:"form"`
	Items      []Item           `json:"items"`
	Summary    Summary          `json:"summary"`
	Validation ValidationState  `json:"validation"`
	Busy       bool             `json:"busy"`
	LastError  string           `json:"last_error,omitempty"`
	Submitted  *models.Transfer `json:"submitted,omitempty"`
}

func (w *Wizard) View() WizardView {
	w.mu.Lock()
	defer w.mu.Unlock()

	view := WizardView{
		ID:         w.ID,
		Step:       w.step,
		Form:       w.form,
		Items:      w.selection.Items(),
		Summary:    w.selection.Summary(),
		Validation: w.coordinator.State(),
		Busy:       w.busy,
		Submitted:  w.submitted,
	}
	if w.lastErr != nil {
		view.LastError = w.lastErr.Error()
	}
	return view
}
