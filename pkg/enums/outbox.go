package enums

// OutboxEventType labels domain events persisted to the transactional outbox.
type OutboxEventType string

const (
	EventCartItemAdded   OutboxEventType = "cart.item_added"
	EventCartItemUpdated OutboxEventType = "cart.item_updated"
	EventCartItemRemoved OutboxEventType = "cart.item_removed"
	EventCartCleared     OutboxEventType = "cart.cleared"
	EventCartMerged      OutboxEventType = "cart.merged"
	EventCartAbandoned   OutboxEventType = "cart.abandoned"
	EventOrderCreated    OutboxEventType = "order.created"
	EventOrderStatus     OutboxEventType = "order.status_changed"
	EventOrderCancelled  OutboxEventType = "order.cancelled"
	EventOrderRefunded   OutboxEventType = "order.refunded"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateCart  OutboxAggregateType = "cart"
	AggregateOrder OutboxAggregateType = "order"
)
