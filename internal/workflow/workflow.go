package workflow

import (
	"context"
	"sync"

	"github.com/nadirsultanli/order-management-system-sub008/pkg/metadata"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"go.uber.org/zap"
)

type Source interface {
	GetTransferWorkflow(ctx context.Context) (*models.TransferWorkflow, error)
}

// Default builds the workflow from the typed status enum.
func Default() *models.TransferWorkflow {
	statuses := make([]models.WorkflowStatus, 0, len(metadata.TransferStatuses))
	for _, status := range metadata.TransferStatuses {
		statuses = append(statuses, models.WorkflowStatus{
			Status: status,
			Label:  status.Label(),
			Color:  status.Color(),
			Next:   status.DefaultNextStatuses(),
		})
	}
	return &models.TransferWorkflow{Statuses: statuses}
}

// Cache holds the transfer workflow metadata fetched from the remote API. It is
// injected where needed and falls back to Default while the remote is unavailable.
type Cache struct {
	source Source
	logger *zap.Logger

	mu       sync.RWMutex
	workflow *models.TransferWorkflow
	remote   bool
}

func NewCache(source Source, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{source: source, logger: logger}
}

// Init loads the workflow once. A failure leaves the default in place and is returned.
func (c *Cache) Init(ctx context.Context) error {
	wf, err := c.source.GetTransferWorkflow(ctx)
	if err != nil {
		c.logger.Warn("Using default transfer workflow", zap.Error(err))
		c.mu.Lock()
		if c.workflow == nil {
			c.workflow = Default()
		}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.workflow = wf
	c.remote = true
	c.mu.Unlock()
	return nil
}

// Get returns the remote workflow, retrying the load while only the default is held.
func (c *Cache) Get(ctx context.Context) *models.TransferWorkflow {
	c.mu.RLock()
	wf, remote := c.workflow, c.remote
	c.mu.RUnlock()

	if remote {
		return wf
	}
	_ = c.Init(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.workflow
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.workflow = nil
	c.remote = false
	c.mu.Unlock()
}

// Lookup returns the metadata for one status.
func (c *Cache) Lookup(ctx context.Context, status metadata.TransferStatus) (models.WorkflowStatus, bool) {
	for _, s := range c.Get(ctx).Statuses {
		if s.Status == status {
			return s, true
		}
	}
	return models.WorkflowStatus{}, false
}

// CanTransition mirrors the remote transition rule for display. The remote API
// still decides every status change.
func (c *Cache) CanTransition(ctx context.Context, from, to metadata.TransferStatus) bool {
	s, ok := c.Lookup(ctx, from)
	if !ok {
		return false
	}
	for _, next := range s.Next {
		if next == to {
			return true
		}
	}
	return false
}
