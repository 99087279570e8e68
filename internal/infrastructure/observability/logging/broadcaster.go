package logging

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// LogEntry is a single log line forwarded to stream subscribers.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Channel   string `json:"channel"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// StreamFilter selects which entries a subscriber receives. Channel "all" matches everything.
type StreamFilter struct {
	Channel Channel
	Level   slog.Level
}

// Subscriber receives encoded LogEntry values on C until it is unsubscribed.
type Subscriber struct {
	C      chan []byte
	filter StreamFilter
}

// Broadcaster fans log entries out to live subscribers. Slow subscribers lose messages instead of blocking logging.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	dropped     atomic.Int64
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[*Subscriber]struct{})}
}

// Subscribe registers a new subscriber with the given filter.
func (b *Broadcaster) Subscribe(filter StreamFilter) *Subscriber {
	sub := &Subscriber{C: make(chan []byte, 100), filter: filter}
	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub]; ok {
		delete(b.subscribers, sub)
		close(sub.C)
	}
}

// SubscriberCount reports the number of live subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped reports how many messages were dropped for slow subscribers.
func (b *Broadcaster) Dropped() int64 {
	return b.dropped.Load()
}

// Publish delivers an entry to every matching subscriber without blocking.
func (b *Broadcaster) Publish(entry LogEntry) {
	message, err := json.Marshal(entry)
	if err != nil {
		return
	}
	level := ParseLevel(entry.Level)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers {
		if sub.filter.Channel != "all" && sub.filter.Channel != "" && sub.filter.Channel != Channel(entry.Channel) {
			continue
		}
		if level < sub.filter.Level {
			continue
		}
		select {
		case sub.C <- message:
		default:
			b.dropped.Add(1)
		}
	}
}

// Write implements io.Writer over JSON-formatted slog output.
func (b *Broadcaster) Write(p []byte) (int, error) {
	if b.SubscriberCount() == 0 {
		return len(p), nil
	}
	var raw map[string]any
	if err := json.Unmarshal(p, &raw); err != nil {
		b.Publish(LogEntry{
			Channel: string(ChannelSystem),
			Level:   slog.LevelError.String(),
			Message: strings.TrimSpace(string(p)),
		})
		return len(p), nil
	}
	b.Publish(LogEntry{
		Timestamp: stringField(raw, "time"),
		Level:     stringField(raw, "level"),
		Channel:   stringField(raw, "channel"),
		Message:   stringField(raw, "msg"),
		RequestID: stringField(raw, "requestId"),
	})
	return len(p), nil
}

func stringField(data map[string]any, key string) string {
	if val, ok := data[key].(string); ok {
		return val
	}
	return ""
}
