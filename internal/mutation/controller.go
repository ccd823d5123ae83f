package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nadirsultanli/order-management-system-sub008/internal/querycache"
	"go.uber.org/zap"
)

var ErrBusy = errors.New("a mutation for this resource is already in progress")

// Kind names a family of mutations, e.g. truck loading.
type Kind string

// Store is the part of the query cache the controller is allowed to write.
type Store interface {
	Snapshot(keys ...querycache.Key) *querycache.Snapshot
	Restore(snap *querycache.Snapshot)
	Invalidate(keys ...querycache.Key)
}

type Spec struct {
	Kind       Kind
	ResourceID string
	// AffectedKeys are captured before the call and restored on failure.
	AffectedKeys []querycache.Key
	// InvalidateKeys are marked stale on success. Defaults to AffectedKeys.
	InvalidateKeys []querycache.Key
	Call           func(ctx context.Context) (interface{}, error)
}

// Outcome is the terminal result of one mutation instance.
type Outcome struct {
	InstanceID uuid.UUID
	Kind       Kind
	ResourceID string
	State      State
	Result     interface{}
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

type instance struct {
	id       uuid.UUID
	state    State
	snapshot *querycache.Snapshot
}

func (i *instance) transition(to State) error {
	if !canTransition(i.state, to) {
		return &InvalidTransitionError{From: i.state, To: to}
	}
	i.state = to
	return nil
}

type Controller struct {
	store   Store
	timeout time.Duration
	logger  *zap.Logger

	mu       sync.Mutex
	inflight map[string]uuid.UUID
}

func NewController(store Store, timeout time.Duration, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:    store,
		timeout:  timeout,
		logger:   logger,
		inflight: make(map[string]uuid.UUID),
	}
}

func flightKey(kind Kind, resourceID string) string {
	return fmt.Sprintf("%s:%s", kind, resourceID)
}

// Optimistic reports whether a mutation of kind is in flight for resourceID.
func (c *Controller) Optimistic(kind Kind, resourceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[flightKey(kind, resourceID)]
	return ok
}

// flightKeys lists every guard a run holds: its own resource plus each affected
// cache key, so two mutations sharing a snapshot key never overlap.
func flightKeys(spec Spec) []string {
	keys := []string{flightKey(spec.Kind, spec.ResourceID)}
	for _, k := range spec.AffectedKeys {
		keys = append(keys, "key:"+string(k))
	}
	return keys
}

// acquire takes all keys or none.
func (c *Controller) acquire(keys []string, id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if holder, busy := c.inflight[key]; busy && holder != id {
			return false
		}
	}
	for _, key := range keys {
		c.inflight[key] = id
	}
	return true
}

func (c *Controller) release(keys []string, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if c.inflight[key] == id {
			delete(c.inflight, key)
		}
	}
}

// Run drives one mutation instance from idle to committed or rolled back.
// A failed call returns the outcome together with the call's error.
func (c *Controller) Run(ctx context.Context, spec Spec) (*Outcome, error) {
	if spec.Call == nil {
		return nil, errors.New("mutation spec has no call")
	}

	inst := &instance{id: uuid.New(), state: StateIdle}
	keys := flightKeys(spec)
	if !c.acquire(keys, inst.id) {
		return nil, ErrBusy
	}
	defer c.release(keys, inst.id)

	outcome := &Outcome{
		InstanceID: inst.id,
		Kind:       spec.Kind,
		ResourceID: spec.ResourceID,
		StartedAt:  time.Now(),
	}

	inst.snapshot = c.store.Snapshot(spec.AffectedKeys...)
	if err := inst.transition(StateOptimistic); err != nil {
		return nil, err
	}

	c.logger.Debug("Mutation dispatched",
		zap.String("kind", string(spec.Kind)),
		zap.String("resource_id", spec.ResourceID),
		zap.String("instance_id", inst.id.String()),
	)

	result, callErr := c.call(ctx, inst, spec)

	if callErr != nil {
		c.store.Restore(inst.snapshot)
		inst.snapshot = nil
		if err := inst.transition(StateRolledBack); err != nil {
			return nil, err
		}

		outcome.State = inst.state
		outcome.Err = callErr
		outcome.FinishedAt = time.Now()

		c.logger.Info("Mutation rolled back",
			zap.String("kind", string(spec.Kind)),
			zap.String("resource_id", spec.ResourceID),
			zap.Error(callErr),
		)
		return outcome, callErr
	}

	inst.snapshot = nil
	if err := inst.transition(StateCommitted); err != nil {
		return nil, err
	}

	invalidate := spec.InvalidateKeys
	if invalidate == nil {
		invalidate = spec.AffectedKeys
	}
	c.store.Invalidate(invalidate...)

	outcome.State = inst.state
	outcome.Result = result
	outcome.FinishedAt = time.Now()

	c.logger.Info("Mutation committed",
		zap.String("kind", string(spec.Kind)),
		zap.String("resource_id", spec.ResourceID),
	)
	return outcome, nil
}

func (c *Controller) call(ctx context.Context, inst *instance, spec Spec) (result interface{}, err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			c.store.Restore(inst.snapshot)
			inst.snapshot = nil
			_ = inst.transition(StateRolledBack)
			panic(p)
		}
	}()

	return spec.Call(ctx)
}
