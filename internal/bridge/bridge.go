// Package bridge runs the acquire-publish-reconnect loop shared by both
// sensor bridges. A Supervisor owns one broker session at a time: it dials,
// pumps readings from its source into the session, and on any session-level
// failure tears everything down and redials after a fixed backoff, forever.
package bridge

import (
	"context"
	"log/slog"
	"time"
)

// Session is the slice of an established broker session the loop needs.
type Session interface {
	Publish(topic string, payload []byte) error
	Done() <-chan struct{}
	Err() error
	Close()
}

// DialFunc establishes a new session. Called once per connection cycle.
type DialFunc func(ctx context.Context) (Session, error)

// Source produces the next payload for its bridge. Returning a nil payload
// with a nil error means there is nothing to publish this cycle (the light
// bridge does this when the state has not changed). A Source lives for one
// session; any state it carries resets on reconnect.
type Source interface {
	Next() ([]byte, error)
}

// Config parameterizes a Supervisor. The two bridges differ only in their
// source and delay policy.
type Config struct {
	Topic     string
	Dial      DialFunc
	NewSource func() Source

	// TickInterval is the fixed cadence between acquisitions. Zero means
	// no tick; the loop paces itself with the delays below.
	TickInterval time.Duration

	// PublishDelay is slept after every successful publish.
	PublishDelay time.Duration

	// RecoveryDelay is slept after a failed acquisition, keeping the
	// sensor from being over-polled while it misbehaves.
	RecoveryDelay time.Duration

	// Backoff is slept between connection cycles.
	Backoff time.Duration

	Logger *slog.Logger
}

type Supervisor struct {
	cfg Config
}

func New(cfg Config) *Supervisor {
	return &Supervisor{cfg: cfg}
}

// Run loops forever: dial, serve the session until it dies, back off,
// redial. It returns only when ctx is canceled.
func (s *Supervisor) Run(ctx context.Context) error {
	log := s.cfg.Logger
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		log.Info("connecting to mqtt broker")
		sess, err := s.cfg.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("mqtt connect failed", "error", err)
		} else {
			s.serveSession(ctx, sess)
			sess.Close()
			log.Info("session ended, reconnecting", "backoff", s.cfg.Backoff)
		}

		if err := sleep(ctx, s.cfg.Backoff); err != nil {
			return err
		}
	}
}

// serveSession runs the inner acquire/publish loop until the session fails
// or ctx is canceled. Publish failures and transport loss both end the
// session as a whole; acquisition failures do not.
func (s *Supervisor) serveSession(ctx context.Context, sess Session) {
	log := s.cfg.Logger
	src := s.cfg.NewSource()

	var tick <-chan time.Time
	if s.cfg.TickInterval > 0 {
		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		payload, err := src.Next()
		switch {
		case err != nil:
			log.Error("acquisition failed", "error", err)
			if sleep(ctx, s.cfg.RecoveryDelay) != nil {
				return
			}
		case payload == nil:
			// Nothing to publish this cycle.
		default:
			if err := sess.Publish(s.cfg.Topic, payload); err != nil {
				log.Error("publish failed", "topic", s.cfg.Topic, "error", err)
				return
			}
			log.Debug("published", "topic", s.cfg.Topic, "payload", string(payload))
			if sleep(ctx, s.cfg.PublishDelay) != nil {
				return
			}
		}

		if tick == nil {
			select {
			case <-ctx.Done():
				return
			case <-sess.Done():
				log.Error("session lost", "error", sess.Err())
				return
			default:
			}
		} else {
			select {
			case <-ctx.Done():
				return
			case <-sess.Done():
				log.Error("session lost", "error", sess.Err())
				return
			case <-tick:
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
