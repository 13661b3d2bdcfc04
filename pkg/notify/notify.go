// Package notify delivers user-facing warnings and errors raised while
// fetching GitHub data.
package notify

import (
	"sync"

	"github.com/rs/zerolog"
)

// Topic names a notification channel.
type Topic string

const (
	TopicWarning Topic = "warning"
	TopicError   Topic = "error"
)

// Publisher is fire-and-forget. Implementations must be safe for
// concurrent use; issue fetches publish from many goroutines.
type Publisher interface {
	Publish(topic Topic, message string)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(topic Topic, message string)

// Publish calls f.
func (f PublisherFunc) Publish(topic Topic, message string) {
	f(topic, message)
}

// Discard drops every notification.
var Discard Publisher = PublisherFunc(func(Topic, string) {})

// LogPublisher writes notifications to a zerolog logger, warnings at warn
// level and everything else at error level.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(topic Topic, message string) {
	event := p.logger.Error()
	if topic == TopicWarning {
		event = p.logger.Warn()
	}
	event.Str("topic", string(topic)).Msg(message)
}

// Notification is a recorded Publish call.
type Notification struct {
	Topic   Topic  `json:"topic"`
	Message string `json:"message"`
}

// Recorder keeps every notification in order. The serve command uses it to
// return notifications with a response; tests use it for assertions.
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
}

// Publish implements Publisher.
func (r *Recorder) Publish(topic Topic, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, Notification{Topic: topic, Message: message})
}

// Notifications returns a copy of everything recorded so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

// ByTopic returns the recorded messages for one topic.
func (r *Recorder) ByTopic(topic Topic) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.notifications {
		if n.Topic == topic {
			out = append(out, n.Message)
		}
	}
	return out
}

// Multi fans a notification out to several publishers.
func Multi(publishers ...Publisher) Publisher {
	return PublisherFunc(func(topic Topic, message string) {
		for _, p := range publishers {
			p.Publish(topic, message)
		}
	})
}
