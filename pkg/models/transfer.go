package models

import (
	"time"

	"github.com/nadirsultanli/order-management-system-sub008/pkg/metadata"
	"github.com/shopspring/decimal"
)

type Transfer struct {
	ID                       string                  `json:"id"`
	TransferReference        string                  `json:"transfer_reference,omitempty"`
	SourceWarehouseID        string                  `json:"source_warehouse_id"`
	SourceWarehouseName      string                  `json:"source_warehouse_name,omitempty"`
	DestinationWarehouseID   string                  `json:"destination_warehouse_id"`
	DestinationWarehouseName string                  `json:"destination_warehouse_name,omitempty"`
	TransferDate             Date                    `json:"transfer_date"`
	Status                   metadata.TransferStatus `json:"status"`
	Priority                 metadata.Priority       `json:"priority,omitempty"`
	TotalItems               int                     `json:"total_items"`
	TotalQuantity            int                     `json:"total_quantity"`
	TotalWeight              decimal.Decimal         `json:"total_weight_kg"`
	Notes                    string                  `json:"notes,omitempty"`
	CreatedAt                time.Time               `json:"created_at"`
	Items                    []TransferLine          `json:"items,omitempty"`
}

func (t *Transfer) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   t.ID,
		ResourceType: "transfer",
	}
}

// TransferLine is the wire form of a selected item, without client-only state.
type TransferLine struct {
	ProductID   string           `json:"product_id"`
	SKU         string           `json:"product_sku,omitempty"`
	ProductName string           `json:"product_name,omitempty"`
	VariantName *string          `json:"variant_name,omitempty"`
	Quantity    int              `json:"quantity_to_transfer"`
	UnitWeight  decimal.Decimal  `json:"unit_weight_kg"`
	TotalWeight decimal.Decimal  `json:"total_weight_kg"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalCost   *decimal.Decimal `json:"total_cost,omitempty"`
}

type TransferFilter struct {
	SourceWarehouseID      string
	DestinationWarehouseID string
	Status                 metadata.TransferStatus
	DateFrom               Date
	DateTo                 Date
	Page                   int
	Limit                  int
	SortBy                 string
	SortOrder              string
}

type TransferPage struct {
	Transfers []Transfer `json:"transfers"`
	Total     int        `json:"total_count"`
}

type ValidateTransferRequest struct {
	SourceWarehouseID      string         `json:"source_warehouse_id"`
	DestinationWarehouseID string         `json:"destination_warehouse_id"`
	TransferDate           Date           `json:"transfer_date"`
	Items                  []TransferLine `json:"items"`
}

type ValidationResult struct {
	IsValid      bool     `json:"is_valid"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
	BlockedItems []string `json:"blocked_items"`
}

// IsBlocked reports whether the validator flagged productID as unfulfillable.
func (v *ValidationResult) IsBlocked(productID string) bool {
	for _, id := range v.BlockedItems {
		if id == productID {
			return true
		}
	}
	return false
}

type CreateTransferRequest struct {
	SourceWarehouseID      string            `json:"source_warehouse_id"`
	DestinationWarehouseID string            `json:"destination_warehouse_id"`
	TransferDate           Date              `json:"transfer_date"`
	Priority               metadata.Priority `json:"priority"`
	TransferReference      string            `json:"transfer_reference,omitempty"`
	Reason                 string            `json:"reason,omitempty"`
	Notes                  string            `json:"notes,omitempty"`
	Instructions           string            `json:"instructions,omitempty"`
	Items                  []TransferLine    `json:"items"`
}

type UpdateStatusRequest struct {
	Status metadata.TransferStatus `json:"new_status"`
	Notes  string                  `json:"notes,omitempty"`
}

type WorkflowStatus struct {
	Status metadata.TransferStatus   `json:"status"`
	Label  string                    `json:"label"`
	Color  string                    `json:"color"`
	Next   []metadata.TransferStatus `json:"next_statuses"`
}

type TransferWorkflow struct {
	Statuses []WorkflowStatus `json:"statuses"`
}
