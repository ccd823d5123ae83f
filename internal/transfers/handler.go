package transfers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	custom_error "github.com/nadirsultanli/order-management-system-sub008/pkg/errors"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/metadata"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"go.uber.org/zap"
)

type TransferHandler struct {
	service  *Service
	sessions *Sessions
	logger   *zap.Logger
}

func NewHandler(service *Service, sessions *Sessions, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{service: service, sessions: sessions, logger: logger}
}

func (h *TransferHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/transfers", h.ListTransfers)
	router.GET("/transfers/workflow", h.GetWorkflow)
	router.GET("/transfers/:id", h.GetTransfer)
	router.PATCH("/transfers/:id/status", h.UpdateStatus)

	router.GET("/warehouses/:id/stock", h.GetWarehouseStock)
	router.GET("/products", h.SearchProducts)

	router.POST("/transfer-wizards", h.OpenWizard)
	router.GET("/transfer-wizards/:id", h.GetWizard)
	router.DELETE("/transfer-wizards/:id", h.DiscardWizard)
	router.PUT("/transfer-wizards/:id/form", h.SetForm)
	router.POST("/transfer-wizards/:id/items", h.AddItem)
	router.PATCH("/transfer-wizards/:id/items/:product_id", h.UpdateItem)
	router.DELETE("/transfer-wizards/:id/items/:product_id", h.RemoveItem)
	router.POST("/transfer-wizards/:id/validate", h.Validate)
	router.POST("/transfer-wizards/:id/next", h.Next)
	router.POST("/transfer-wizards/:id/previous", h.Previous)
	router.POST("/transfer-wizards/:id/reset", h.Reset)
	router.POST("/transfer-wizards/:id/submit", h.Submit)
}

func (h *TransferHandler) respondError(c *gin.Context, err error) {
	var blocked *StepBlockedError
	switch {
	case errors.As(err, &blocked):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Step requirements not met", "details": blocked.Reason, "step": blocked.Step})
	case errors.Is(err, ErrWizardNotFound), errors.Is(err, ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrWizardBusy), errors.Is(err, ErrWizardSubmitted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		status := custom_error.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": "Remote request failed", "details": err.Error(), "retryable": custom_error.IsRetryable(err)})
	}
}

func (h *TransferHandler) ListTransfers(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query", "details": err.Error()})
		return
	}

	list, err := h.service.ListTransfers(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func parseListQuery(c *gin.Context) (ListQuery, error) {
	var q ListQuery
	var err error

	q.Remote.SourceWarehouseID = c.Query("from_warehouse_id")
	q.Remote.DestinationWarehouseID = c.Query("to_warehouse_id")

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := metadata.NewTransferStatus(strings.TrimSpace(part))
			if err != nil {
				return q, err
			}
			q.Local.Statuses = append(q.Local.Statuses, status)
		}
		if len(q.Local.Statuses) == 1 {
			q.Remote.Status = q.Local.Statuses[0]
		}
	}

	if raw := c.Query("priority"); raw != "" {
		if q.Local.Priority, err = metadata.NewPriority(raw); err != nil {
			return q, err
		}
	}
	if raw := c.Query("date_from"); raw != "" {
		if q.Remote.DateFrom, err = models.ParseDate(raw); err != nil {
			return q, err
		}
	}
	if raw := c.Query("date_to"); raw != "" {
		if q.Remote.DateTo, err = models.ParseDate(raw); err != nil {
			return q, err
		}
	}
	if q.Remote.Page, err = intQuery(c, "page"); err != nil {
		return q, err
	}
	if q.Remote.Limit, err = intQuery(c, "limit"); err != nil {
		return q, err
	}
	if raw := c.Query("sort"); raw != "" {
		if q.SortField, err = NewSortField(raw); err != nil {
			return q, err
		}
	}
	if q.SortDir, err = NewSortDirection(c.Query("order")); err != nil {
		return q, err
	}
	q.Local.Search = c.Query("q")

	return q, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.New("invalid " + key)
	}
	return value, nil
}

func (h *TransferHandler) GetWorkflow(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Workflow(c.Request.Context()))
}

func (h *TransferHandler) GetTransfer(c *gin.Context) {
	transfer, err := h.service.GetTransfer(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transfer)
}

func (h *TransferHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	status, err := metadata.NewTransferStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "details": err.Error()})
		return
	}

	transfer, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), models.UpdateStatusRequest{Status: status, Notes: req.Notes})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transfer)
}

func (h *TransferHandler) GetWarehouseStock(c *gin.Context) {
	filter := models.StockFilter{
		InStockOnly:     c.Query("in_stock_only") == "true",
		IncludeReserved: c.Query("include_reserved") == "true",
	}

	rows, err := h.service.WarehouseStock(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *TransferHandler) SearchProducts(c *gin.Context) {
	q := models.ProductQuery{
		Search:          c.Query("q"),
		WarehouseID:     c.Query("warehouse_id"),
		IncludeVariants: c.Query("variants") != "false",
	}
	var err error
	if q.Page, err = intQuery(c, "page"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Limit, err = intQuery(c, "limit"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.service.SearchProducts(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *TransferHandler) wizard(c *gin.Context) (*Wizard, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wizard ID"})
		return nil, false
	}
	w, err := h.sessions.Get(id)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return w, true
}

type wizardResponse struct {
	WizardView
	Notice string `json:"notice,omitempty"`
}

// respondWizard renders the wizard after a change. Validation failures are part of the
// wizard state, so they do not fail the request.
func (h *TransferHandler) respondWizard(c *gin.Context, w *Wizard, err error, notice string) {
	if err != nil {
		if _, ok := custom_error.AsRemote(err); !ok {
			h.respondError(c, err)
			return
		}
		h.service.NotifyValidationFailure(c.Request.Context(), w.ID, err)
	}
	c.JSON(http.StatusOK, wizardResponse{WizardView: w.View(), Notice: notice})
}

func (h *TransferHandler) OpenWizard(c *gin.Context) {
	w := h.sessions.Open()
	c.JSON(http.StatusCreated, w.View())
}

func (h *TransferHandler) GetWizard(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, w.View())
}

func (h *TransferHandler) DiscardWizard(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	h.sessions.Close(w.ID)
	c.Status(http.StatusNoContent)
}

func (h *TransferHandler) SetForm(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}

	var req struct {
		SourceWarehouseID      string      `json:"source_warehouse_id"`
		DestinationWarehouseID string      `json:"destination_warehouse_id"`
		TransferDate           models.Date `json:"transfer_date"`
		Priority               string      `json:"priority"`
		TransferReference      string      `json:"transfer_reference"`
		Reason                 string      `json:"reason"`
		Notes                  string      `json:"notes"`
		Instructions           string      `json:"instructions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	priority, err := metadata.NewPriority(req.Priority)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority", "details": err.Error()})
		return
	}

	_, err = w.SetForm(c.Request.Context(), FormData{
		SourceWarehouseID:      req.SourceWarehouseID,
		DestinationWarehouseID: req.DestinationWarehouseID,
		TransferDate:           req.TransferDate,
		Priority:               priority,
		TransferReference:      req.TransferReference,
		Reason:                 req.Reason,
		Notes:                  req.Notes,
		Instructions:           req.Instructions,
	})
	h.respondWizard(c, w, err, "")
}

func (h *TransferHandler) AddItem(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}

	var req struct {
		Product  models.Product    `json:"product"`
		Quantity int               `json:"quantity" binding:"required"`
		Stock    *models.StockInfo `json:"stock"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	if req.Product.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
		return
	}

	var stock models.StockInfo
	known := true
	if req.Stock != nil {
		stock = *req.Stock
	} else if source := w.Form().SourceWarehouseID; source != "" {
		var err error
		stock, err = h.service.StockFor(c.Request.Context(), source, req.Product.ID, req.Product.VariantName)
		if err != nil {
			h.respondError(c, err)
			return
		}
	} else {
		known = false
	}

	var notice string
	if known {
		notice = CheckAvailability(req.Quantity, stock.Available)
	}

	_, err := w.AddItem(c.Request.Context(), req.Product, req.Quantity, stock)
	h.respondWizard(c, w, err, notice)
}

func (h *TransferHandler) UpdateItem(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}

	var req struct {
		VariantName *string `json:"variant_name"`
		Quantity    int     `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	productID := c.Param("product_id")
	var notice string
	if item, found := w.Selection().Find(productID, req.VariantName); found {
		notice = CheckAvailability(req.Quantity, item.AvailableStock)
	}

	_, err := w.UpdateQuantity(c.Request.Context(), productID, req.VariantName, req.Quantity)
	h.respondWizard(c, w, err, notice)
}

func (h *TransferHandler) RemoveItem(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}

	var variant *string
	if v, present := c.GetQuery("variant_name"); present {
		variant = &v
	}

	_, err := w.RemoveItem(c.Request.Context(), c.Param("product_id"), variant)
	h.respondWizard(c, w, err, "")
}

func (h *TransferHandler) Validate(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	_, err := w.Revalidate(c.Request.Context())
	h.respondWizard(c, w, err, "")
}

func (h *TransferHandler) Next(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	if _, err := w.Next(); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w.View())
}

func (h *TransferHandler) Previous(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	w.Previous()
	c.JSON(http.StatusOK, w.View())
}

func (h *TransferHandler) Reset(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	if err := w.Reset(); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w.View())
}

func (h *TransferHandler) Submit(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}

	transfer, err := w.Submit(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.sessions.Close(w.ID)
	c.JSON(http.StatusCreated, gin.H{"transfer_id": transfer.ID, "transfer": transfer})
}
