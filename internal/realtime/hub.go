// Package realtime delivers fresh snapshots to subscribers whenever the data
// behind a topic changes.
package realtime

import (
	"context"
	"sync"
)

// Topic names.
const (
	TopicMonths = "months"
)

// RequestsTopic is the topic of a month's approved requests.
func RequestsTopic(monthKey string) string { return "requests/" + monthKey }

// QueueTopic is the topic of a month's queued requests.
func QueueTopic(monthKey string) string { return "queue/" + monthKey }

// Publisher announces that topics changed.
type Publisher interface {
	Publish(ctx context.Context, topics ...string)
}

// Hub fans change notifications out to in-process watchers. Notifications
// carry no payload and coalesce: a watcher that has not yet reacted to one
// change sees the next one merged into it.
type Hub struct {
	mu       sync.Mutex
	watchers map[string]map[chan struct{}]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{watchers: make(map[string]map[chan struct{}]struct{})}
}

// Publish notifies every watcher of the given topics.
func (h *Hub) Publish(_ context.Context, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range topics {
		for ch := range h.watchers[topic] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Watch registers a watcher for topic. The returned func unregisters it.
func (h *Hub) Watch(topic string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	set, ok := h.watchers[topic]
	if !ok {
		set = make(map[chan struct{}]struct{})
		h.watchers[topic] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.watchers[topic], ch)
			if len(h.watchers[topic]) == 0 {
				delete(h.watchers, topic)
			}
		})
	}
}

// Watchers returns the number of watchers of topic.
func (h *Hub) Watchers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers[topic])
}

var _ Publisher = (*Hub)(nil)
