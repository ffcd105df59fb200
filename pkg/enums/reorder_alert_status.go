package enums

// ReorderAlertStatus tracks the lifecycle of a low-stock reorder alert.
type ReorderAlertStatus string

const (
	ReorderAlertStatusOpen      ReorderAlertStatus = "open"
	ReorderAlertStatusOrdered   ReorderAlertStatus = "ordered"
	ReorderAlertStatusDismissed ReorderAlertStatus = "dismissed"
)

var validReorderAlertStatuses = []ReorderAlertStatus{
	ReorderAlertStatusOpen,
	ReorderAlertStatusOrdered,
	ReorderAlertStatusDismissed,
}

// String implements fmt.Stringer.
func (r ReorderAlertStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReorderAlertStatus.
func (r ReorderAlertStatus) IsValid() bool {
	for _, candidate := range validReorderAlertStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}
