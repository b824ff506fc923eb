package domain

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateExchangeID(t *testing.T) {
	id, err := GenerateExchangeID()
	if err != nil {
		t.Fatalf("GenerateExchangeID() error = %v", err)
	}

	if !strings.HasPrefix(id, ExchangeIDPrefix) {
		t.Errorf("ID %q missing prefix %q", id, ExchangeIDPrefix)
	}
	if len(id) != 30 {
		t.Errorf("len(ID) = %d, want 30", len(id))
	}
	if id != strings.ToLower(id) {
		t.Errorf("ID %q should be lowercase", id)
	}
	if !ValidateExchangeID(id) {
		t.Errorf("ValidateExchangeID(%q) = false", id)
	}
}

func TestGenerateExchangeID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateExchangeID()
		if err != nil {
			t.Fatalf("GenerateExchangeID() error = %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate ID %q", id)
		}
		seen[id] = true
	}
}

func TestValidateExchangeID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"slx-01arz3ndektsv4rrffq69g5fav", true},
		{"01arz3ndektsv4rrffq69g5fav", false},
		{"slx-short", false},
		{"tmss-01arz3ndektsv4rrffq69g5fa", false},
		{"slx-!!arz3ndektsv4rrffq69g5fav", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidateExchangeID(tt.id); got != tt.want {
			t.Errorf("ValidateExchangeID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestExchange_Complete(t *testing.T) {
	x, err := NewExchange("hello")
	if err != nil {
		t.Fatalf("NewExchange() error = %v", err)
	}
	if x.Message != "hello" || x.StartedAt.IsZero() {
		t.Errorf("NewExchange() = %+v", x)
	}

	time.Sleep(time.Millisecond)
	x.Complete(200, "hi back")

	if x.RemoteStatus != 200 || x.Reply != "hi back" {
		t.Errorf("Complete() = %+v", x)
	}
	if x.Duration <= 0 {
		t.Errorf("Duration = %v, want > 0", x.Duration)
	}
}
