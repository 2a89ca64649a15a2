package rosbridge

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// TopicInfo holds metadata for an advertised topic
type TopicInfo struct {
	Topic         string
	MessageType   string
	AdvertiseID   string
	PublishCount  int64
	LastPublished time.Time
}

// TopicRegistry tracks which topics this client has advertised on the
// current connection. It is reset whenever the connection goes away so a
// new session always advertises afresh.
type TopicRegistry struct {
	topics map[string]*TopicInfo
	mu     sync.RWMutex
}

// NewTopicRegistry creates an empty registry
func NewTopicRegistry() *TopicRegistry {
	return &TopicRegistry{
		topics: make(map[string]*TopicInfo),
	}
}

// Advertise builds the advertise op for topic and records it.
// Advertising the same topic twice with the same type returns the original op.
func (r *TopicRegistry) Advertise(topic, messageType string) (AdvertiseMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, exists := r.topics[topic]; exists {
		if info.MessageType != messageType {
			return AdvertiseMessage{}, fmt.Errorf("%w: %s is %s, not %s", ErrTopicTypeClash, topic, info.MessageType, messageType)
		}
		return AdvertiseMessage{Op: OpAdvertise, ID: info.AdvertiseID, Topic: topic, Type: messageType}, nil
	}

	msg := NewAdvertise(topic, messageType)
	r.topics[topic] = &TopicInfo{
		Topic:       topic,
		MessageType: messageType,
		AdvertiseID: msg.ID,
	}
	return msg, nil
}

// Unadvertise removes topic and returns the op that withdraws it.
func (r *TopicRegistry) Unadvertise(topic string) (UnadvertiseMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.topics[topic]; !exists {
		return UnadvertiseMessage{}, false
	}
	delete(r.topics, topic)
	return NewUnadvertise(topic), true
}

// IsAdvertised reports whether topic is currently advertised
func (r *TopicRegistry) IsAdvertised(topic string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.topics[topic]
	return exists
}

// RecordPublish updates statistics for a topic
func (r *TopicRegistry) RecordPublish(topic string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.topics[topic]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotAdvertised, topic)
	}
	info.PublishCount++
	info.LastPublished = at
	return nil
}

// GetTopicInfo returns a copy of the information for a topic
func (r *TopicRegistry) GetTopicInfo(topic string) (TopicInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.topics[topic]
	if !exists {
		return TopicInfo{}, false
	}
	return *info, true
}

// GetAllTopics returns the advertised topic names in sorted order
func (r *TopicRegistry) GetAllTopics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.topics))
	for topic := range r.topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Reset forgets every advertisement and returns the topics that were dropped.
func (r *TopicRegistry) Reset() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := make([]string, 0, len(r.topics))
	for topic := range r.topics {
		dropped = append(dropped, topic)
	}
	sort.Strings(dropped)
	r.topics = make(map[string]*TopicInfo)
	return dropped
}
