package transfers

import (
	"github.com/shopspring/decimal"
)

type ItemRef struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	VariantName *string         `json:"variant_name,omitempty"`
	Value       decimal.Decimal `json:"value"`
}

type Summary struct {
	TotalItems        int             `json:"total_items"`
	TotalQuantity     int             `json:"total_quantity"`
	TotalWeight       decimal.Decimal `json:"total_weight_kg"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	UniqueVariants    int             `json:"unique_variants"`
	ValidItems        int             `json:"valid_items"`
	InvalidItems      int             `json:"invalid_items"`
	WarnedItems       int             `json:"items_with_warnings"`
	HeaviestItem      *ItemRef        `json:"heaviest_item,omitempty"`
	MostExpensiveItem *ItemRef        `json:"most_expensive_item,omitempty"`
}

// Summarize is a pure function of the item list. Ties keep the earlier item.
func Summarize(items []Item) Summary {
	summary := Summary{
		TotalItems:  len(items),
		TotalWeight: decimal.Zero,
		TotalCost:   decimal.Zero,
	}
	variants := make(map[string]struct{})

	for i := range items {
		item := &items[i]
		summary.TotalQuantity += item.QuantityToTransfer
		summary.TotalWeight = summary.TotalWeight.Add(item.TotalWeight)

		if item.TotalCost != nil {
			summary.TotalCost = summary.TotalCost.Add(*item.TotalCost)
			if summary.MostExpensiveItem == nil || item.TotalCost.GreaterThan(summary.MostExpensiveItem.Value) {
				summary.MostExpensiveItem = refOf(item, *item.TotalCost)
			}
		}

		if summary.HeaviestItem == nil || item.TotalWeight.GreaterThan(summary.HeaviestItem.Value) {
			summary.HeaviestItem = refOf(item, item.TotalWeight)
		}

		if item.VariantName != nil && *item.VariantName != "" {
			variants[*item.VariantName] = struct{}{}
		}

		if item.IsValid {
			summary.ValidItems++
		} else {
			summary.InvalidItems++
		}
		if len(item.ValidationWarnings) > 0 {
			summary.WarnedItems++
		}
	}

	summary.UniqueVariants = len(variants)
	return summary
}

func refOf(item *Item, value decimal.Decimal) *ItemRef {
	return &ItemRef{
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		VariantName: item.VariantName,
		Value:       value,
	}
}
