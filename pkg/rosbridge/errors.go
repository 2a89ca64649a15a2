package rosbridge

import "errors"

// Common errors
var (
	ErrConnectionClosed = errors.New("rosbridge connection is closed")
	ErrSendQueueFull    = errors.New("rosbridge send queue is full")
	ErrInvalidMessage   = errors.New("invalid rosbridge message")
	ErrNotAdvertised    = errors.New("topic is not advertised")
	ErrTopicTypeClash   = errors.New("topic already advertised with a different type")
)
