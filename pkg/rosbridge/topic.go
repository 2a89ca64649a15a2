package rosbridge

import (
	"fmt"
	"time"
)

// Publisher advertises, publishes and unadvertises topics over a single Conn,
// keeping a TopicRegistry in step with what the bridge has been told.
type Publisher struct {
	conn     Conn
	registry *TopicRegistry
}

// NewPublisher binds a registry to a connection.
func NewPublisher(conn Conn, registry *TopicRegistry) *Publisher {
	return &Publisher{conn: conn, registry: registry}
}

// Advertise registers topic with the bridge.
func (p *Publisher) Advertise(topic, messageType string) error {
	msg, err := p.registry.Advertise(topic, messageType)
	if err != nil {
		return err
	}
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	if err := p.conn.Send(data); err != nil {
		p.registry.Unadvertise(topic)
		return fmt.Errorf("failed to advertise %s: %w", topic, err)
	}
	return nil
}

// Publish sends msg on an advertised topic.
func (p *Publisher) Publish(topic string, msg interface{}) error {
	if !p.registry.IsAdvertised(topic) {
		return fmt.Errorf("%w: %s", ErrNotAdvertised, topic)
	}
	data, err := Encode(NewPublish(topic, msg))
	if err != nil {
		return err
	}
	if err := p.conn.Send(data); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", topic, err)
	}
	return p.registry.RecordPublish(topic, time.Now())
}

// Unadvertise withdraws topic. Unknown topics are ignored.
func (p *Publisher) Unadvertise(topic string) error {
	msg, ok := p.registry.Unadvertise(topic)
	if !ok {
		return nil
	}
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	return p.conn.Send(data)
}
