package sim

import (
	"github.com/sirupsen/logrus"
)

// Message is the unit of exchange on the Bus: a flat mapping from field name
// to value. Field names are contract between publisher and subscriber, not an
// enforced schema. The bus hands each subscriber its own copy, so a received
// Message can be retained or mutated freely.
type Message map[string]float64

// Clone returns an independent copy of the message.
func (m Message) Clone() Message {
	if m == nil {
		return nil
	}
	out := make(Message, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Handler is a subscriber callback. A non-nil error aborts the publish and
// propagates to the publisher as a BusDeliveryError.
type Handler func(msg Message) error

// Subscription identifies one subscriber registration and is the token for
// Unsubscribe.
type Subscription struct {
	topic string
	id    int
}

// Topic returns the topic the subscription is registered on.
func (s Subscription) Topic() string { return s.topic }

type subscriber struct {
	id      int
	handler Handler
}

// Bus is a topic-keyed publish/subscribe router. Delivery is synchronous:
// Publish invokes every current subscriber of the topic, in subscription
// order, before returning. There is no queuing, no replay for late
// subscribers, and no ordering guarantee across topics.
//
// A Bus carries no global state; construct one per harness so that multiple
// simulations stay isolated.
//
// Not safe for concurrent use: the engine is single-threaded by design.
type Bus struct {
	subs      map[string][]subscriber
	nextID    int
	published int
	delivered int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscriber)}
}

// Subscribe registers handler for every future publish on topic and returns
// the token that identifies the registration.
func (b *Bus) Subscribe(topic string, handler Handler) Subscription {
	b.nextID++
	b.subs[topic] = append(b.subs[topic], subscriber{id: b.nextID, handler: handler})
	logrus.Debugf("bus: subscriber %d on topic %q", b.nextID, topic)
	return Subscription{topic: topic, id: b.nextID}
}

// Unsubscribe removes a registration. Unknown tokens are ignored.
func (b *Bus) Unsubscribe(sub Subscription) {
	list := b.subs[sub.topic]
	for i, s := range list {
		if s.id == sub.id {
			b.subs[sub.topic] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Publish delivers msg to every subscriber of topic in subscription order.
// Each subscriber receives its own copy of msg. The first handler error stops
// delivery and is returned wrapped in a BusDeliveryError; there is no
// isolation between subscribers, so a failing control loop surfaces
// immediately instead of being dropped.
func (b *Bus) Publish(topic string, msg Message) error {
	b.published++
	for _, s := range b.subs[topic] {
		b.delivered++
		if err := s.handler(msg.Clone()); err != nil {
			return &BusDeliveryError{Topic: topic, Err: err}
		}
	}
	return nil
}

// PublishedCount returns the total number of Publish calls on this bus.
func (b *Bus) PublishedCount() int { return b.published }

// DeliveredCount returns the total number of handler invocations.
func (b *Bus) DeliveredCount() int { return b.delivered }

// SubscriberCount returns the number of current subscribers on topic.
func (b *Bus) SubscriberCount(topic string) int { return len(b.subs[topic]) }
