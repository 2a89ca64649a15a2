// Package rosbridge implements the client side of the rosbridge v2 JSON
// protocol over a WebSocket transport.
package rosbridge

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Protocol operations.
const (
	OpAdvertise   = "advertise"
	OpUnadvertise = "unadvertise"
	OpPublish     = "publish"
	OpSubscribe   = "subscribe"
	OpStatus      = "status"
)

// Envelope carries the fields every rosbridge message has.
type Envelope struct {
	Op string `json:"op"`
	ID string `json:"id,omitempty"`
}

// AdvertiseMessage announces that this client will publish on Topic.
type AdvertiseMessage struct {
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
	Topic string `json:"topic"`
	Type  string `json:"type"`
}

// UnadvertiseMessage withdraws an advertisement.
type UnadvertiseMessage struct {
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
	Topic string `json:"topic"`
}

// PublishMessage carries one message for Topic.
type PublishMessage struct {
	Op    string      `json:"op"`
	ID    string      `json:"id,omitempty"`
	Topic string      `json:"topic"`
	Msg   interface{} `json:"msg"`
}

// StatusMessage is sent by the bridge to report errors and warnings.
type StatusMessage struct {
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

// newID builds an operation id of the form op:topic:uuid.
func newID(op, topic string) string {
	return fmt.Sprintf("%s:%s:%s", op, topic, uuid.NewString())
}

// NewAdvertise builds an advertise op for topic with the given message type.
func NewAdvertise(topic, messageType string) AdvertiseMessage {
	return AdvertiseMessage{Op: OpAdvertise, ID: newID(OpAdvertise, topic), Topic: topic, Type: messageType}
}

// NewUnadvertise builds an unadvertise op for topic.
func NewUnadvertise(topic string) UnadvertiseMessage {
	return UnadvertiseMessage{Op: OpUnadvertise, ID: newID(OpUnadvertise, topic), Topic: topic}
}

// NewPublish builds a publish op carrying msg.
func NewPublish(topic string, msg interface{}) PublishMessage {
	return PublishMessage{Op: OpPublish, ID: newID(OpPublish, topic), Topic: topic, Msg: msg}
}

// Encode marshals an op to its wire form.
func Encode(op interface{}) ([]byte, error) {
	data, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rosbridge message: %w", err)
	}
	return data, nil
}

// DecodeEnvelope reads the op and id of an inbound frame.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if env.Op == "" {
		return Envelope{}, fmt.Errorf("%w: missing op", ErrInvalidMessage)
	}
	return env, nil
}
