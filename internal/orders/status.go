package orders

type Status string

const (
	StatusPending   Status = "pending"
	StatusOnTheWay  Status = "ontheway"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusOnTheWay: true, StatusCancelled: true},
	StatusOnTheWay:  {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Terminal statuses accept no further transition, including cancel.
func Terminal(s Status) bool {
	return s == StatusDelivered || s == StatusCancelled
}
