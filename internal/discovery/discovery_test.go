package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-satellite/internal/resilience"
)

type fakeServer struct{ shutdowns int }

func (f *fakeServer) Shutdown() { f.shutdowns++ }

func TestInfo_TXT(t *testing.T) {
	txt := Info{MACAddress: "02:AB:CD:EF:00:11"}.TXT()
	want := []string{"mac=02abcdef0011", "version=" + Version, "platform=host", "network=ethernet"}
	if len(txt) != len(want) {
		t.Fatalf("Expected %v, got %v", want, txt)
	}
	for i := range want {
		if txt[i] != want[i] {
			t.Errorf("Expected %q, got %q", want[i], txt[i])
		}
	}
}

func TestInstanceName(t *testing.T) {
	cases := map[string]string{
		"Go Voice Satellite": "go-voice-satellite",
		"  Kitchen_Speaker!": "kitchen-speaker",
		"???":                "voice-satellite",
	}
	for in, want := range cases {
		if got := InstanceName(in); got != want {
			t.Errorf("InstanceName(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestAdvertiser_RetriesThenRegisters(t *testing.T) {
	a := NewAdvertiser(zerolog.Nop(), Info{Name: "Kitchen", Port: 6053, MACAddress: "02:00:00:00:00:01"},
		&resilience.ReconnectConfig{MaxAttempts: 3, Backoff: time.Millisecond, Multiplier: 1, MaxBackoff: time.Millisecond})

	server := &fakeServer{}
	calls := 0
	var gotInstance, gotService string
	var gotPort int
	a.register = func(instance, service, domain string, port int, text []string) (Shutdowner, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("no multicast interface")
		}
		gotInstance, gotService, gotPort = instance, service, port
		return server, nil
	}

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls)
	}
	if gotInstance != "kitchen" || gotService != ServiceType || gotPort != 6053 {
		t.Errorf("Unexpected registration %s %s %d", gotInstance, gotService, gotPort)
	}

	a.Stop()
	a.Stop()
	if server.shutdowns != 1 {
		t.Errorf("Expected 1 shutdown, got %d", server.shutdowns)
	}
}

func TestAdvertiser_GivesUp(t *testing.T) {
	a := NewAdvertiser(zerolog.Nop(), Info{Name: "Kitchen"},
		&resilience.ReconnectConfig{MaxAttempts: 2, Backoff: time.Millisecond, Multiplier: 1, MaxBackoff: time.Millisecond})
	a.register = func(string, string, string, int, []string) (Shutdowner, error) {
		return nil, errors.New("boom")
	}
	if err := a.Start(context.Background()); err == nil {
		t.Error("Expected error after exhausting attempts")
	}
	a.Stop()
}
