package notify

import (
	"fmt"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

// Topics published by the fulfilment workflows.
const (
	TopicOrderStatusChanged = "order.status.changed"
	TopicOrderDeleted       = "order.deleted"
	TopicSlipConfirmed      = "slip.confirmed"
)

// Notifier is the fire-and-forget outbound event interface. Delivery is
// best effort; failures are logged and never propagate into the workflow
// transaction.
type Notifier interface {
	Publish(topic string, payload interface{})
	PublishToRole(role, topic string, payload interface{})
	PublishToUser(userID int64, topic string, payload interface{})
}

// BusNotifier delivers events over an in-process EventBus. Role and user
// targeting is encoded in the topic name so downstream transports
// (websocket push, mail) can subscribe per channel.
type BusNotifier struct {
	bus EventBus.Bus
}

func NewBusNotifier() *BusNotifier {
	return &BusNotifier{bus: EventBus.New()}
}

// Bus exposes the underlying bus for subscriber registration.
func (n *BusNotifier) Bus() EventBus.Bus {
	return n.bus
}

func (n *BusNotifier) publish(topic string, payload interface{}) {
	defer func() {
		if err := recover(); err != nil {
			zap.L().Warn("event publish failed", zap.String("topic", topic), zap.Any("error", err))
		}
	}()
	n.bus.Publish(topic, payload)
}

func (n *BusNotifier) Publish(topic string, payload interface{}) {
	n.publish(topic, payload)
}

func (n *BusNotifier) PublishToRole(role, topic string, payload interface{}) {
	n.publish(fmt.Sprintf("role.%s.%s", role, topic), payload)
}

func (n *BusNotifier) PublishToUser(userID int64, topic string, payload interface{}) {
	n.publish(fmt.Sprintf("user.%d.%s", userID, topic), payload)
}

// NopNotifier discards all events, used where no delivery is wired.
type NopNotifier struct{}

func (NopNotifier) Publish(topic string, payload interface{})                     {}
func (NopNotifier) PublishToRole(role, topic string, payload interface{})         {}
func (NopNotifier) PublishToUser(userID int64, topic string, payload interface{}) {}
