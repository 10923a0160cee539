// Package mqtt establishes broker sessions and publishes telemetry over
// them. Auto-reconnect is deliberately off: a lost connection kills the
// session, and the owning bridge dials a fresh one. That keeps session
// lifetime unambiguous — at most one live session per client, torn down as a
// whole on any failure.
package mqtt

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	keepAlive   = 60 * time.Second
	pingTimeout = 10 * time.Second

	// publishWait bounds how long a QoS 1 publish waits for the broker's
	// acknowledgment before the bridge treats the session as dead.
	publishWait = 5 * time.Second

	connectPoll = 200 * time.Millisecond
)

// Options identifies one broker endpoint plus the credentials of a single
// bridge. TLS nil means plaintext.
type Options struct {
	Host     string
	Port     int
	ClientID string
	Username string
	Password string
	TLS      *tls.Config
}

// Client is a session factory for one bridge.
type Client struct {
	opts   Options
	logger *slog.Logger
}

func NewClient(opts Options, logger *slog.Logger) *Client {
	return &Client{opts: opts, logger: logger}
}

// Dial connects to the broker and returns a live session. The wait for the
// connect acknowledgment is bounded by ctx.
func (c *Client) Dial(ctx context.Context) (*Session, error) {
	s := &Session{
		logger: c.logger,
		done:   make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if c.opts.TLS != nil {
		scheme = "ssl"
		opts.SetTLSConfig(c.opts.TLS)
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, c.opts.Host, c.opts.Port))
	opts.SetClientID(c.opts.ClientID)
	opts.SetUsername(c.opts.Username)
	opts.SetPassword(c.opts.Password)

	opts.SetCleanSession(true)
	opts.SetKeepAlive(keepAlive)
	opts.SetPingTimeout(pingTimeout)

	// Reconnection belongs to the bridge supervisor, not the transport.
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	// The paho network goroutines service the connection; this handler is
	// the session-keepalive watcher. It fires the moment the transport
	// reports an error and invalidates the whole session.
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.logger.Warn("mqtt connection lost", "error", err)
		s.fail(err)
	})

	s.client = mqtt.NewClient(opts)

	token := s.client.Connect()
	for !token.WaitTimeout(connectPoll) {
		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return nil, ctx.Err()
		default:
		}
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	c.logger.Info("mqtt connected", "broker", c.opts.Host, "port", c.opts.Port, "client_id", c.opts.ClientID)
	return s, nil
}

// Session is one established broker connection. It is owned by a single
// bridge loop; only that loop calls Publish and Close.
type Session struct {
	client mqtt.Client
	logger *slog.Logger

	done     chan struct{}
	doneOnce sync.Once

	mu  sync.Mutex
	err error
}

// Publish sends one message at QoS 1 (at least once), not retained. There is
// no retry here; a failure means the session is no longer trustworthy and
// the caller tears it down.
func (s *Session) Publish(topic string, payload []byte) error {
	if !s.client.IsConnected() {
		return ErrSessionClosed
	}

	token := s.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishWait) {
		return fmt.Errorf("%w: topic %s", ErrPublishTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}
	return nil
}

// Done is closed when the transport reports a connection loss or the session
// is closed. After Done, Err reports the transport error, if any.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close tears the session down. Idempotent.
func (s *Session) Close() {
	s.doneOnce.Do(func() { close(s.done) })
	s.client.Disconnect(250)
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.doneOnce.Do(func() { close(s.done) })
}
