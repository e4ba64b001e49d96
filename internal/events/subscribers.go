package events

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-rift-portal/notify"
	"github.com/rs/zerolog/log"
)

// RegisterAudit logs every lifecycle event
func RegisterAudit(b *Bus) error {
	for _, topic := range []string{TopicSignedIn, TopicSignedOut, TopicProfileCompleted, TopicRiotVerified} {
		topic := topic
		err := b.Subscribe(topic, func(ev SessionEvent) {
			log.Info().
				Str("topic", topic).
				Str("scope", ev.Scope).
				Str("identity", ev.IdentityID).
				Str("detail", ev.Detail).
				Time("at", ev.At).
				Msg("session event")
		})
		if err != nil {
			return fmt.Errorf("[RegisterAudit] subscribe %s: %w", topic, err)
		}
	}
	return nil
}

// RegisterToasts turns lifecycle events into toasts for the affected browser unless it muted them
func RegisterToasts(b *Bus, center *notify.Center) error {
	messages := map[string]func(SessionEvent) string{
		TopicSignedIn: func(ev SessionEvent) string {
			if ev.Email == "" {
				return "Welcome back!"
			}
			return "Welcome, " + ev.Email
		},
		TopicSignedOut:        func(SessionEvent) string { return "You have been signed out" },
		TopicProfileCompleted: func(SessionEvent) string { return "Profile created" },
		TopicRiotVerified:     func(ev SessionEvent) string { return "Riot account " + ev.Detail + " linked" },
	}

	for topic, message := range messages {
		topic, message := topic, message
		err := b.Subscribe(topic, func(ev SessionEvent) {
			if ev.Muted {
				return
			}
			if err := center.For(ev.Scope).Success(context.Background(), message(ev), 0); err != nil {
				log.Error().Err(err).Str("topic", topic).Str("scope", ev.Scope).Msg("failed to queue toast")
			}
		})
		if err != nil {
			return fmt.Errorf("[RegisterToasts] subscribe %s: %w", topic, err)
		}
	}
	return nil
}
