package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/siege-leviathan/internal/core/domain"
	"github.com/yndnr/siege-leviathan/internal/identity"
	"github.com/yndnr/siege-leviathan/internal/outbound"
	"github.com/yndnr/siege-leviathan/internal/telemetry/logger"
)

type fakeSource struct {
	result identity.Result
}

func (f *fakeSource) Get() identity.Result {
	return f.result
}

type fakeSender struct {
	resp    *outbound.Response
	err     error
	gotCfg  *tls.Config
	gotBody string
	calls   int
}

func (f *fakeSender) Send(_ context.Context, cfg *tls.Config, payload string) (*outbound.Response, error) {
	f.calls++
	f.gotCfg = cfg
	f.gotBody = payload
	return f.resp, f.err
}

func (f *fakeSender) Target() string {
	return "https://peer.test"
}

func loaded(state identity.State) identity.Result {
	return identity.Result{
		State:   state,
		Context: &identity.Context{Config: &tls.Config{}},
		ModTime: time.Unix(1_700_000_000, 0),
	}
}

func quietConfig(msg string) *CourierConfig {
	return &CourierConfig{
		Message: msg,
		Logger:  logger.FromSlog(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
}

func TestCourier_Deliver(t *testing.T) {
	src := &fakeSource{result: loaded(identity.StateLoaded)}
	snd := &fakeSender{resp: &outbound.Response{StatusCode: 200, Body: "got it"}}
	c := NewCourier(src, snd, quietConfig("ping"))

	x, err := c.Deliver(context.Background())
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	if x.Message != "ping" || x.Reply != "got it" || x.RemoteStatus != 200 {
		t.Errorf("Deliver() = %+v", x)
	}
	if x.Stale {
		t.Error("Deliver() marked a fresh identity stale")
	}
	if !domain.ValidateExchangeID(x.ID) {
		t.Errorf("Exchange.ID = %q is not valid", x.ID)
	}
	if snd.gotCfg != src.result.Context.Config {
		t.Error("Send() should receive the cached TLS config")
	}
	if snd.gotBody != "ping" {
		t.Errorf("Send() payload = %q, want ping", snd.gotBody)
	}
}

func TestCourier_DefaultMessage(t *testing.T) {
	c := NewCourier(&fakeSource{}, &fakeSender{}, nil)
	if c.Message() != DefaultMessage {
		t.Errorf("Message() = %q, want %q", c.Message(), DefaultMessage)
	}
}

func TestCourier_Deliver_Stale(t *testing.T) {
	var logs bytes.Buffer
	src := &fakeSource{result: loaded(identity.StateStale)}
	src.result.Reason = identity.ErrNotFound
	snd := &fakeSender{resp: &outbound.Response{StatusCode: 200, Body: "ok"}}

	c := NewCourier(src, snd, &CourierConfig{Logger: logger.FromSlog(slog.New(slog.NewTextHandler(&logs, nil)))})

	x, err := c.Deliver(context.Background())
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if !x.Stale {
		t.Error("Deliver() should mark the exchange stale")
	}
	if !strings.Contains(logs.String(), "stale client identity") {
		t.Errorf("stale send not logged: %s", logs.String())
	}
}

func TestCourier_Deliver_LogsRequestID(t *testing.T) {
	var logs bytes.Buffer
	src := &fakeSource{result: loaded(identity.StateStale)}
	src.result.Reason = identity.ErrNotFound
	snd := &fakeSender{resp: &outbound.Response{StatusCode: 200, Body: "ok"}}

	c := NewCourier(src, snd, &CourierConfig{Logger: logger.FromSlog(slog.New(slog.NewTextHandler(&logs, nil)))})

	ctx := logger.WithRequestID(context.Background(), "req-abc123")
	if _, err := c.Deliver(ctx); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		if !strings.Contains(line, "request_id=req-abc123") {
			t.Errorf("log line missing request_id: %s", line)
		}
	}
}

func TestCourier_Deliver_Unavailable(t *testing.T) {
	src := &fakeSource{result: identity.Result{
		State:  identity.StateUnavailable,
		Reason: fmt.Errorf("%w: %w", identity.ErrUnavailable, identity.ErrNotFound),
	}}
	snd := &fakeSender{}
	c := NewCourier(src, snd, quietConfig(""))

	_, err := c.Deliver(context.Background())
	if !errors.Is(err, domain.ErrIdentityUnavailable) {
		t.Fatalf("Deliver() error = %v, want ErrIdentityUnavailable", err)
	}
	if !errors.Is(err, identity.ErrUnavailable) {
		t.Errorf("Deliver() error should wrap the cache reason")
	}
	if snd.calls != 0 {
		t.Errorf("Send() called %d times without an identity", snd.calls)
	}
}

func TestCourier_Deliver_SendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{
			name: "connect error",
			err:  &outbound.ConnectError{URL: "https://peer.test", Err: errors.New("connection refused")},
			code: "SL-NET-5020",
		},
		{
			name: "timeout",
			err:  &outbound.ConnectError{URL: "https://peer.test", Err: context.DeadlineExceeded},
			code: "SL-NET-5040",
		},
		{
			name: "other",
			err:  errors.New("bad request"),
			code: "SL-SYS-5000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{result: loaded(identity.StateLoaded)}
			c := NewCourier(src, &fakeSender{err: tt.err}, quietConfig(""))

			_, err := c.Deliver(context.Background())
			if got := domain.GetErrorCode(err); got != tt.code {
				t.Errorf("Deliver() code = %q, want %q (err %v)", got, tt.code, err)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("Deliver() error should wrap %v", tt.err)
			}
		})
	}
}

func TestCourier_Deliver_ConnectErrorDescribesTarget(t *testing.T) {
	src := &fakeSource{result: loaded(identity.StateLoaded)}
	snd := &fakeSender{err: &outbound.ConnectError{URL: "https://peer.test", Err: errors.New("refused")}}
	c := NewCourier(src, snd, quietConfig(""))

	_, err := c.Deliver(context.Background())
	var de *domain.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("Deliver() error = %T, want *DomainError", err)
	}
	if !strings.Contains(de.Describe(), "https://peer.test") {
		t.Errorf("Describe() = %q, want target in message", de.Describe())
	}
}
