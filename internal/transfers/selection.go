package transfers

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound    = errors.New("item not selected")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

const blockedItemMessage = "Item cannot be transferred from the source warehouse"

// Item is one line of a pending transfer.
type Item struct {
	ProductID          string           `json:"product_id"`
	SKU                string           `json:"product_sku"`
	ProductName        string           `json:"product_name"`
	VariantName        *string          `json:"variant_name,omitempty"`
	VariantType        *string          `json:"variant_type,omitempty"`
	QuantityToTransfer int              `json:"quantity_to_transfer"`
	AvailableStock     int              `json:"available_stock"`
	ReservedStock      int              `json:"reserved_stock"`
	UnitWeight         decimal.Decimal  `json:"unit_weight_kg"`
	TotalWeight        decimal.Decimal  `json:"total_weight_kg"`
	UnitCost           *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalCost          *decimal.Decimal `json:"total_cost,omitempty"`
	IsValid            bool             `json:"is_valid"`
	ValidationErrors   []string         `json:"validation_errors"`
	ValidationWarnings []string         `json:"validation_warnings"`
}

func (i *Item) key() itemKey {
	return newItemKey(i.ProductID, i.VariantName)
}

func (i *Item) derive() {
	qty := decimal.NewFromInt(int64(i.QuantityToTransfer))
	i.TotalWeight = i.UnitWeight.Mul(qty)
	if i.UnitCost != nil {
		total := i.UnitCost.Mul(qty)
		i.TotalCost = &total
	} else {
		i.TotalCost = nil
	}
}

// Line strips the client-only validation state.
func (i *Item) Line() models.TransferLine {
	return models.TransferLine{
		ProductID:   i.ProductID,
		SKU:         i.SKU,
		ProductName: i.ProductName,
		VariantName: i.VariantName,
		Quantity:    i.QuantityToTransfer,
		UnitWeight:  i.UnitWeight,
		TotalWeight: i.TotalWeight,
		UnitCost:    i.UnitCost,
		TotalCost:   i.TotalCost,
	}
}

func (i Item) clone() Item {
	i.ValidationErrors = append([]string(nil), i.ValidationErrors...)
	i.ValidationWarnings = append([]string(nil), i.ValidationWarnings...)
	return i
}

type itemKey struct {
	productID string
	variant   string
}

func newItemKey(productID string, variant *string) itemKey {
	k := itemKey{productID: productID}
	if variant != nil {
		k.variant = *variant
	}
	return k
}

// Selection is the ordered set of items picked for a transfer, unique by
// (product id, variant name).
type Selection struct {
	mu    sync.RWMutex
	items []Item
	rev   uint64

	summaryRev uint64
	summary    *Summary
}

func NewSelection() *Selection {
	return &Selection{}
}

// AddItem replaces the quantity of an existing (product, variant) entry in place or
// appends a new one.
func (s *Selection) AddItem(product models.Product, quantity int, stock models.StockInfo) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	item := Item{
		ProductID:          product.ID,
		SKU:                product.SKU,
		ProductName:        product.Name,
		VariantName:        product.VariantName,
		VariantType:        product.VariantType,
		QuantityToTransfer: quantity,
		AvailableStock:     stock.Available,
		ReservedStock:      stock.Reserved,
		UnitWeight:         product.UnitWeight,
		UnitCost:           product.UnitCost,
		IsValid:            true,
	}
	item.derive()

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexLocked(item.key()); idx >= 0 {
		existing := &s.items[idx]
		existing.QuantityToTransfer = item.QuantityToTransfer
		existing.AvailableStock = item.AvailableStock
		existing.ReservedStock = item.ReservedStock
		existing.UnitWeight = item.UnitWeight
		existing.UnitCost = item.UnitCost
		existing.derive()
	} else {
		s.items = append(s.items, item)
	}
	s.rev++

	return nil
}

func (s *Selection) RemoveItem(productID string, variantName *string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(newItemKey(productID, variantName))
	if idx < 0 {
		return
	}
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	s.rev++
}

// UpdateQuantity changes the quantity and re-derives weight and cost. It does not validate.
func (s *Selection) UpdateQuantity(productID string, variantName *string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(newItemKey(productID, variantName))
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, productID)
	}
	s.items[idx].QuantityToTransfer = quantity
	s.items[idx].derive()
	s.rev++

	return nil
}

// Find returns a copy of the matching item.
func (s *Selection) Find(productID string, variantName *string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(newItemKey(productID, variantName))
	if idx < 0 {
		return Item{}, false
	}
	return s.items[idx].clone(), true
}

func (s *Selection) indexLocked(k itemKey) int {
	for i := range s.items {
		if s.items[i].key() == k {
			return i
		}
	}
	return -1
}

// Items returns a copy of the items in insertion order.
func (s *Selection) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Item, len(s.items))
	for i := range s.items {
		items[i] = s.items[i].clone()
	}
	return items
}

func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Selection) Lines() []models.TransferLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]models.TransferLine, len(s.items))
	for i := range s.items {
		lines[i] = s.items[i].Line()
	}
	return lines
}

func (s *Selection) Clear() {
	s.mu.Lock()
	s.items = nil
	s.rev++
	s.mu.Unlock()
}

// Summary is recomputed from the full item list whenever the list changed.
func (s *Selection) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.summary == nil || s.summaryRev != s.rev {
		summary := Summarize(s.items)
		s.summary = &summary
		s.summaryRev = s.rev
	}
	return *s.summary
}

// Reconcile writes a validation result onto the per-item flags. Running it twice with
// the same result yields the same flags.
func (s *Selection) Reconcile(result *models.ValidationResult) {
	if result == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		item := &s.items[i]
		item.ValidationErrors = nil
		item.ValidationWarnings = matchingMessages(result.Warnings, item)

		if result.IsBlocked(item.ProductID) {
			item.IsValid = false
			item.ValidationErrors = append([]string{blockedItemMessage}, matchingMessages(result.Errors, item)...)
		} else {
			item.IsValid = true
		}
	}
	s.rev++
}

// ResetFlags marks every item valid with no messages, used when the result is unknown.
func (s *Selection) ResetFlags() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		s.items[i].IsValid = true
		s.items[i].ValidationErrors = nil
		s.items[i].ValidationWarnings = nil
	}
	s.rev++
}

// matchingMessages picks validator messages that name the item's SKU or product name.
func matchingMessages(messages []string, item *Item) []string {
	var matched []string
	for _, msg := range messages {
		if (item.SKU != "" && strings.Contains(msg, item.SKU)) ||
			(item.ProductName != "" && strings.Contains(msg, item.ProductName)) {
			matched = append(matched, msg)
		}
	}
	return matched
}

// CheckAvailability returns an inline notice when quantity exceeds the last known
// available stock. It is advisory; the remote validator decides.
func CheckAvailability(quantity, available int) string {
	if quantity > available {
		return fmt.Sprintf("Requested %d but only %d available in the source warehouse", quantity, available)
	}
	return ""
}
