package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	custom_error "github.com/nadirsultanli/order-management-system-sub008/pkg/errors"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/metadata"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBackend(t *testing.T, register func(r *gin.Engine)) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	register(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return NewClient(Options{
		BaseURL:           server.URL + "/api/v1/",
		ValidationTimeout: time.Second,
		MutationTimeout:   time.Second,
		RequestTimeout:    time.Second,
	})
}

func TestValidateTransferDecodesResult(t *testing.T) {
	var received models.ValidateTransferRequest
	client := setupBackend(t, func(r *gin.Engine) {
		r.POST("/api/v1/transfers/validate", func(c *gin.Context) {
			if err := c.ShouldBindJSON(&received); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"is_valid":      false,
				"errors":        []string{"Insufficient stock for CYL-13"},
				"warnings":      []string{},
				"blocked_items": []string{"p-13"},
			})
		})
	})

	result, err := client.ValidateTransfer(context.Background(), models.ValidateTransferRequest{
		SourceWarehouseID:      "w1",
		DestinationWarehouseID: "w2",
		TransferDate:           models.NewDate(2026, time.October, 16),
		Items: []models.TransferLine{
			{ProductID: "p-13", Quantity: 4, UnitWeight: decimal.NewFromInt(13), TotalWeight: decimal.NewFromInt(52)},
		},
	})

	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"p-13"}, result.BlockedItems)
	assert.Equal(t, "w1", received.SourceWarehouseID)
	assert.Equal(t, "2026-10-16", received.TransferDate.String())
	require.Len(t, received.Items, 1)
	assert.Equal(t, 4, received.Items[0].Quantity)
}

func TestRemoteErrorsAreClassified(t *testing.T) {
	client := setupBackend(t, func(r *gin.Engine) {
		r.POST("/api/v1/trucks/:id/load", func(c *gin.Context) {
			c.JSON(http.StatusConflict, gin.H{"message": "insufficient stock"})
		})
		r.GET("/api/v1/trucks/:id/inventory", func(c *gin.Context) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database unavailable"})
		})
		r.GET("/api/v1/trucks/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"id": 42, "capacity_kg": "lots"})
		})
	})

	_, err := client.LoadTruck(context.Background(), models.LoadTruckRequest{TruckID: "t1", WarehouseID: "w1"})
	remoteErr, ok := custom_error.AsRemote(err)
	require.True(t, ok)
	assert.Equal(t, custom_error.KindRejected, remoteErr.Kind)
	assert.Equal(t, "insufficient stock", remoteErr.Message)
	assert.False(t, remoteErr.Retryable())

	_, err = client.GetTruckInventory(context.Background(), "t1")
	remoteErr, ok = custom_error.AsRemote(err)
	require.True(t, ok)
	assert.Equal(t, custom_error.KindServer, remoteErr.Kind)
	assert.True(t, remoteErr.Retryable())

	_, err = client.GetTruck(context.Background(), "t1")
	remoteErr, ok = custom_error.AsRemote(err)
	require.True(t, ok)
	assert.Equal(t, custom_error.KindContract, remoteErr.Kind)
}

func TestValidationTimeoutIsRetryable(t *testing.T) {
	client := setupBackend(t, func(r *gin.Engine) {
		r.POST("/api/v1/transfers/validate", func(c *gin.Context) {
			<-c.Request.Context().Done()
		})
	})
	client.validationTimeout = 20 * time.Millisecond

	_, err := client.ValidateTransfer(context.Background(), models.ValidateTransferRequest{})
	remoteErr, ok := custom_error.AsRemote(err)
	require.True(t, ok)
	assert.Equal(t, custom_error.KindTimeout, remoteErr.Kind)
	assert.True(t, remoteErr.Retryable())
}

func TestListTransfersSendsFilters(t *testing.T) {
	var query map[string]string
	client := setupBackend(t, func(r *gin.Engine) {
		r.GET("/api/v1/transfers", func(c *gin.Context) {
			query = map[string]string{
				"source":  c.Query("source_warehouse_id"),
				"status":  c.Query("status"),
				"from":    c.Query("date_from"),
				"page":    c.Query("page"),
				"sort_by": c.Query("sort_by"),
			}
			c.JSON(http.StatusOK, gin.H{
				"transfers":   []gin.H{{"id": "tr-1", "status": "pending", "transfer_date": "2026-10-16"}},
				"total_count": 1,
			})
		})
	})

	page, err := client.ListTransfers(context.Background(), models.TransferFilter{
		SourceWarehouseID: "w1",
		Status:            metadata.StatusPending,
		DateFrom:          models.NewDate(2026, time.October, 1),
		Page:              2,
		SortBy:            "transfer_date",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Transfers, 1)
	assert.Equal(t, metadata.StatusPending, page.Transfers[0].Status)
	assert.Equal(t, map[string]string{
		"source":  "w1",
		"status":  "pending",
		"from":    "2026-10-01",
		"page":    "2",
		"sort_by": "transfer_date",
	}, query)
}
