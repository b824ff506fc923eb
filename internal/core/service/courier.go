package service

import (
	"context"
	"crypto/tls"
	"errors"

	"github.com/yndnr/siege-leviathan/internal/core/domain"
	"github.com/yndnr/siege-leviathan/internal/identity"
	"github.com/yndnr/siege-leviathan/internal/outbound"
	"github.com/yndnr/siege-leviathan/internal/telemetry/logger"
)

// DefaultMessage is sent when no message is configured.
const DefaultMessage = "I sent you a secret message *giggle*"

// IdentitySource yields the current client identity.
type IdentitySource interface {
	Get() identity.Result
}

// Sender delivers a payload using a client TLS config.
type Sender interface {
	Send(ctx context.Context, cfg *tls.Config, payload string) (*outbound.Response, error)
	Target() string
}

// Courier sends messages to the remote peer with the current identity.
type Courier struct {
	source  IdentitySource
	sender  Sender
	message string
	logger  logger.Logger
}

// CourierConfig holds configuration for Courier.
type CourierConfig struct {
	// Message is the payload sent on every Deliver (default: DefaultMessage).
	Message string

	// Logger receives call-site logs for stale and failed sends.
	Logger logger.Logger
}

// NewCourier creates a new Courier.
func NewCourier(source IdentitySource, sender Sender, config *CourierConfig) *Courier {
	if config == nil {
		config = &CourierConfig{}
	}

	c := &Courier{
		source:  source,
		sender:  sender,
		message: config.Message,
		logger:  config.Logger,
	}
	if c.message == "" {
		c.message = DefaultMessage
	}
	if c.logger == nil {
		c.logger = logger.Default()
	}
	return c
}

// Message returns the configured payload.
func (c *Courier) Message() string {
	return c.message
}

// Deliver sends the configured message and returns the completed exchange.
// Errors are *domain.DomainError:
//
//   - ErrIdentityUnavailable when no certificate has been loaded yet
//   - ErrRemoteUnreachable or ErrRemoteTimeout when the peer cannot be reached
//   - ErrInternalServer otherwise
//
// A stale identity is used as-is and reported through Exchange.Stale.
func (c *Courier) Deliver(ctx context.Context) (*domain.Exchange, error) {
	x, err := domain.NewExchange(c.message)
	if err != nil {
		return nil, err
	}
	log := c.logger.WithContext(ctx).With("exchange_id", x.ID, "target", c.sender.Target())

	r := c.source.Get()
	switch r.State {
	case identity.StateUnavailable:
		log.Warn("no client identity, message not sent", "error", r.Reason)
		return nil, domain.ErrIdentityUnavailable.Wrap(r.Reason)

	case identity.StateStale:
		log.Warn("sending with stale client identity",
			"reason", r.Reason,
			"active_mod_time", r.ModTime,
		)
		x.Stale = true
	}
	x.Subject = r.Context.Subject()

	resp, err := c.sender.Send(ctx, r.Context.Config, x.Message)
	if err != nil {
		log.Warn("message delivery failed", "error", err)
		return nil, mapSendError(err)
	}

	x.Complete(resp.StatusCode, resp.Body)
	log.Info("message delivered",
		"remote_status", x.RemoteStatus,
		"subject", x.Subject,
		"stale", x.Stale,
		"duration", x.Duration,
	)
	return x, nil
}

func mapSendError(err error) *domain.DomainError {
	var ce *outbound.ConnectError
	if !errors.As(err, &ce) {
		return domain.ErrInternalServer.Wrap(err)
	}
	base := domain.ErrRemoteUnreachable
	if ce.Timeout() {
		base = domain.ErrRemoteTimeout
	}
	return base.WithDetails(ce.Error()).WithCause(err)
}
