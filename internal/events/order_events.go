package events

import "homemassage/internal/entities"

const (
	OrderCreatedEventName       = "order.created"
	OrderStatusChangedEventName = "order.status_changed"
	OrderPaidEventName          = "order.paid"
)

// OrderCreatedEvent публикуется после коммита транзакции бронирования,
// по одному событию на каждый заказ группы.
type OrderCreatedEvent struct {
	Order entities.Order
}

func (e OrderCreatedEvent) Name() string { return OrderCreatedEventName }

// OrderStatusChangedEvent публикуется при каждой смене статуса заказа,
// включая автоматические переходы планировщика.
type OrderStatusChangedEvent struct {
	Order     entities.Order
	OldStatus string
	NewStatus string
	ActorType string
}

func (e OrderStatusChangedEvent) Name() string { return OrderStatusChangedEventName }

// OrderPaidEvent публикуется после успешного perform от платёжного провайдера.
type OrderPaidEvent struct {
	Order    entities.Order
	Provider string
	Amount   int64
}

func (e OrderPaidEvent) Name() string { return OrderPaidEventName }
