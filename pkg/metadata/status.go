package metadata

import "fmt"

// TransferStatus is the lifecycle status of a transfer as reported by the remote API.
type TransferStatus string

const (
	StatusDraft     TransferStatus = "draft"
	StatusPending   TransferStatus = "pending"
	StatusApproved  TransferStatus = "approved"
	StatusInTransit TransferStatus = "in_transit"
	StatusCompleted TransferStatus = "completed"
	StatusCancelled TransferStatus = "cancelled"
)

// TransferStatuses lists every status in workflow order.
var TransferStatuses = []TransferStatus{
	StatusDraft,
	StatusPending,
	StatusApproved,
	StatusInTransit,
	StatusCompleted,
	StatusCancelled,
}

func NewTransferStatus(value string) (TransferStatus, error) {
	status := TransferStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid transfer status: %s", value)
	}
	return status, nil
}

func (s TransferStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusInTransit, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s TransferStatus) IsFinal() bool {
	switch s {
	case StatusCompleted, StatusCancelled:
		return true
	case StatusDraft, StatusPending, StatusApproved, StatusInTransit:
		return false
	default:
		return false
	}
}

// Label is the display name used when the remote workflow metadata is unavailable.
func (s TransferStatus) Label() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusPending:
		return "Pending"
	case StatusApproved:
		return "Approved"
	case StatusInTransit:
		return "In transit"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

func (s TransferStatus) Color() string {
	switch s {
	case StatusDraft:
		return "gray"
	case StatusPending:
		return "yellow"
	case StatusApproved:
		return "blue"
	case StatusInTransit:
		return "purple"
	case StatusCompleted:
		return "green"
	case StatusCancelled:
		return "red"
	default:
		return "gray"
	}
}

// DefaultNextStatuses mirrors the server workflow. The remote API stays authoritative.
func (s TransferStatus) DefaultNextStatuses() []TransferStatus {
	switch s {
	case StatusDraft:
		return []TransferStatus{StatusPending, StatusCancelled}
	case StatusPending:
		return []TransferStatus{StatusApproved, StatusCancelled}
	case StatusApproved:
		return []TransferStatus{StatusInTransit, StatusCancelled}
	case StatusInTransit:
		return []TransferStatus{StatusCompleted, StatusCancelled}
	case StatusCompleted, StatusCancelled:
		return nil
	default:
		return nil
	}
}
