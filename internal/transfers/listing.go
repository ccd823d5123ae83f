package transfers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nadirsultanli/order-management-system-sub008/pkg/metadata"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
)

// TransferListFilter narrows an already fetched page of transfers.
type TransferListFilter struct {
	Search   string
	Statuses []metadata.TransferStatus
	Priority metadata.Priority
}

func FilterTransfers(transfers []models.Transfer, f TransferListFilter) []models.Transfer {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	filtered := make([]models.Transfer, 0, len(transfers))

	for _, t := range transfers {
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if search != "" && !matchesSearch(t, search) {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

func containsStatus(statuses []metadata.TransferStatus, status metadata.TransferStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func matchesSearch(t models.Transfer, search string) bool {
	for _, field := range []string{
		t.ID,
		t.TransferReference,
		t.SourceWarehouseName,
		t.DestinationWarehouseName,
		t.Notes,
	} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

type SortField string

const (
	SortByDate      SortField = "transfer_date"
	SortByReference SortField = "transfer_reference"
	SortByStatus    SortField = "status"
	SortByQuantity  SortField = "total_quantity"
	SortByWeight    SortField = "total_weight_kg"
	SortByCreated   SortField = "created_at"
)

func NewSortField(value string) (SortField, error) {
	field := SortField(value)
	switch field {
	case SortByDate, SortByReference, SortByStatus, SortByQuantity, SortByWeight, SortByCreated:
		return field, nil
	case "":
		return SortByDate, nil
	default:
		return "", fmt.Errorf("invalid sort field: %s", value)
	}
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func NewSortDirection(value string) (SortDirection, error) {
	switch SortDirection(strings.ToLower(value)) {
	case SortAsc:
		return SortAsc, nil
	case SortDesc, "":
		return SortDesc, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s", value)
	}
}

// SortTransfers sorts in place. Equal keys keep their fetched order.
func SortTransfers(transfers []models.Transfer, field SortField, direction SortDirection) {
	less := lessFunc(field)
	sort.SliceStable(transfers, func(i, j int) bool {
		if direction == SortDesc {
			return less(transfers[j], transfers[i])
		}
		return less(transfers[i], transfers[j])
	})
}

func lessFunc(field SortField) func(a, b models.Transfer) bool {
	switch field {
	case SortByReference:
		return func(a, b models.Transfer) bool { return a.TransferReference < b.TransferReference }
	case SortByStatus:
		return func(a, b models.Transfer) bool { return statusRank(a.Status) < statusRank(b.Status) }
	case SortByQuantity:
		return func(a, b models.Transfer) bool { return a.TotalQuantity < b.TotalQuantity }
	case SortByWeight:
		return func(a, b models.Transfer) bool { return a.TotalWeight.LessThan(b.TotalWeight) }
	case SortByCreated:
		return func(a, b models.Transfer) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortByDate:
		return func(a, b models.Transfer) bool { return a.TransferDate.Before(b.TransferDate.Time) }
	default:
		return func(a, b models.Transfer) bool { return a.TransferDate.Before(b.TransferDate.Time) }
	}
}

func statusRank(status metadata.TransferStatus) int {
	for i, s := range metadata.TransferStatuses {
		if s == status {
			return i
		}
	}
	return len(metadata.TransferStatuses)
}
