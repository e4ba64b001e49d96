package events

import (
	"time"

	evbus "github.com/asaskevich/EventBus"
)

// Session lifecycle topics
const (
	TopicSignedIn         = "session:signed_in"
	TopicSignedOut        = "session:signed_out"
	TopicProfileCompleted = "account:profile_completed"
	TopicRiotVerified     = "account:riot_verified"
)

// SessionEvent is the payload of every topic on the bus
type SessionEvent struct {
	Scope      string    `json:"scope"`
	IdentityID string    `json:"identity_id"`
	Email      string    `json:"email,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	// Muted is set when the browser's record has notifications turned off
	Muted      bool      `json:"muted,omitempty"`
	At         time.Time `json:"at"`
}

// Bus carries session lifecycle events from the handlers to their side effects
type Bus struct {
	bus evbus.Bus
}

func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// Publish stamps the event and delivers it to every subscriber of topic
func (b *Bus) Publish(topic string, ev SessionEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b.bus.Publish(topic, ev)
}

// Subscribe registers a synchronous handler
func (b *Bus) Subscribe(topic string, fn func(SessionEvent)) error {
	return b.bus.Subscribe(topic, fn)
}

// SubscribeAsync registers a handler run on its own goroutine, one event at a time
func (b *Bus) SubscribeAsync(topic string, fn func(SessionEvent)) error {
	return b.bus.SubscribeAsync(topic, fn, true)
}

// Wait blocks until async handlers have finished
func (b *Bus) Wait() {
	b.bus.WaitAsync()
}
