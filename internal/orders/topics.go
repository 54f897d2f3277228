package orders

const (
	TopicOrderPlaced   = "order.placed"
	TopicStatusChanged = "order.status"
)

// Partition key = order_id so one order's events stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
