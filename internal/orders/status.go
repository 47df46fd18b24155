package orders

type Status string

const (
	StatusProcessing Status = "Processing"
	StatusConfirmed  Status = "Confirmed"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// Statuses outside this table are accepted as-is and get the generic description.
var descriptions = map[Status]string{
	StatusConfirmed: "Your order has been confirmed and is being prepared",
	StatusShipped:   "Your order has been shipped and is on its way",
	StatusDelivered: "Your order has been delivered successfully",
	StatusCancelled: "Your order has been cancelled",
}

const placedDescription = "Your order has been placed successfully"

func Describe(s Status) string {
	if d, ok := descriptions[s]; ok {
		return d
	}
	return "Order status updated to " + string(s)
}

// Known reports whether s is one of the built-in statuses.
func (s Status) Known() bool {
	switch s {
	case StatusProcessing, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// metricLabel folds passthrough statuses into one label so free-form values
// cannot grow the transitions counter without bound.
func (s Status) metricLabel() string {
	if s.Known() {
		return string(s)
	}
	return "other"
}
