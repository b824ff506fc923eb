package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ExchangeIDPrefix is the prefix of every exchange ID.
const ExchangeIDPrefix = "slx-"

// Exchange is one message sent to the remote peer and the peer's reply.
// It is a transient value and never stored.
type Exchange struct {
	ID           string
	Message      string
	Reply        string
	RemoteStatus int

	// Subject of the client certificate the message was sent with.
	Subject string
	// Stale is true when the certificate was a fallback because the bundle
	// on disk could not be loaded.
	Stale bool

	StartedAt time.Time
	Duration  time.Duration
}

// NewExchange starts an exchange for message.
func NewExchange(message string) (*Exchange, error) {
	id, err := GenerateExchangeID()
	if err != nil {
		return nil, err
	}
	return &Exchange{
		ID:        id,
		Message:   message,
		StartedAt: time.Now(),
	}, nil
}

// Complete records the remote reply.
func (x *Exchange) Complete(status int, reply string) {
	x.RemoteStatus = status
	x.Reply = reply
	x.Duration = time.Since(x.StartedAt)
}

// GenerateExchangeID generates a new exchange ID using ULID.
// Format: slx-{ulid_lowercase}, 30 characters total.
func GenerateExchangeID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return ExchangeIDPrefix + strings.ToLower(id.String()), nil
}

// ValidateExchangeID reports whether id is a well-formed exchange ID.
func ValidateExchangeID(id string) bool {
	if !strings.HasPrefix(id, ExchangeIDPrefix) {
		return false
	}

	// slx- (4) + ULID (26) = 30 characters
	if len(id) != 30 {
		return false
	}

	_, err := ulid.ParseStrict(strings.ToUpper(id[len(ExchangeIDPrefix):]))
	return err == nil
}
