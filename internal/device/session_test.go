package device

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-satellite/internal/audio"
	"github.com/lexiqai/voice-satellite/internal/esphome/api"
	"github.com/lexiqai/voice-satellite/internal/server"
)

type stubTransport struct {
	mu           sync.Mutex
	sent         []api.Message
	disconnected int
}

func (t *stubTransport) Send(msg api.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, msg)
	return nil
}

func (t *stubTransport) DisconnectCurrent() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnected++
}

func (t *stubTransport) take() []api.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	sent := t.sent
	t.sent = nil
	return sent
}

type stubHandler struct {
	connected    int
	disconnected int
	messages     []api.Message
}

func (h *stubHandler) OnConnected()              { h.connected++ }
func (h *stubHandler) OnDisconnected()           { h.disconnected++ }
func (h *stubHandler) OnMessage(msg api.Message) { h.messages = append(h.messages, msg) }

type stubBackend struct {
	played []string
	calls  []string
	volume float32
	muted  bool
	state  audio.PlayerState
}

func (b *stubBackend) PlayMedia(url string)          { b.played = append(b.played, url) }
func (b *stubBackend) Pause()                        { b.calls = append(b.calls, "pause") }
func (b *stubBackend) Unpause()                      { b.calls = append(b.calls, "unpause") }
func (b *stubBackend) Stop()                         { b.calls = append(b.calls, "stop") }
func (b *stubBackend) Volume() float32               { return b.volume }
func (b *stubBackend) SetVolume(v float32)           { b.volume = v }
func (b *stubBackend) Muted() bool                   { return b.muted }
func (b *stubBackend) SetMuted(m bool)               { b.muted = m }
func (b *stubBackend) MediaState() audio.PlayerState { return b.state }

func newTestSession() (*Session, *stubTransport, *stubHandler, *stubBackend, *bool) {
	transport := &stubTransport{}
	handler := &stubHandler{}
	backend := &stubBackend{volume: 1}
	micMuted := false

	session := NewSession(zerolog.Nop(), transport, Info{
		Name:         "satellite",
		FriendlyName: "Satellite",
		MacAddress:   "02:00:00:00:00:01",
		ProjectName:  "voice-satellite",
		FeatureFlags: api.VoiceAssistantFeatureVoiceAssistant | api.VoiceAssistantFeatureAPIAudio,
	},
		NewMediaPlayer(backend, "020000000001"),
		NewMuteSwitch("020000000001", func() bool { return micMuted }, func(v bool) { micMuted = v }),
	)
	session.SetHandler(handler)
	return session, transport, handler, backend, &micMuted
}

func message(msg api.Message) server.Event {
	return server.Event{Kind: server.EventMessage, Message: msg}
}

func TestSession_Handshake(t *testing.T) {
	session, transport, handler, _, _ := newTestSession()

	session.Dispatch(message(&api.HelloRequest{ClientInfo: "controller"}))
	session.Dispatch(message(&api.ConnectRequest{}))

	sent := transport.take()
	if len(sent) != 2 {
		t.Fatalf("Expected 2 responses, got %d", len(sent))
	}
	hello, ok := sent[0].(*api.HelloResponse)
	if !ok {
		t.Fatalf("Expected *api.HelloResponse, got %T", sent[0])
	}
	if hello.Name != "satellite" || hello.APIVersionMajor != 1 || hello.APIVersionMinor != 10 {
		t.Errorf("Expected satellite v1.10, got %+v", hello)
	}
	if _, ok := sent[1].(*api.ConnectResponse); !ok {
		t.Errorf("Expected *api.ConnectResponse, got %T", sent[1])
	}
	if handler.connected != 1 {
		t.Errorf("Expected 1 connected callback, got %d", handler.connected)
	}
	if session.State() != StateConnected {
		t.Errorf("Expected connected state, got %s", session.State())
	}

	// The transport's own connected event does not fire the callback twice.
	session.Dispatch(server.Event{Kind: server.EventConnected})
	if handler.connected != 1 {
		t.Errorf("Expected connected callback once, got %d", handler.connected)
	}
}

func TestSession_PingAndDeviceInfo(t *testing.T) {
	session, transport, _, _, _ := newTestSession()

	session.Dispatch(message(&api.PingRequest{}))
	session.Dispatch(message(&api.DeviceInfoRequest{}))

	sent := transport.take()
	if _, ok := sent[0].(*api.PingResponse); !ok {
		t.Errorf("Expected *api.PingResponse, got %T", sent[0])
	}
	info, ok := sent[1].(*api.DeviceInfoResponse)
	if !ok {
		t.Fatalf("Expected *api.DeviceInfoResponse, got %T", sent[1])
	}
	if info.MacAddress != "02:00:00:00:00:01" {
		t.Errorf("Expected MAC address, got %q", info.MacAddress)
	}
	if info.VoiceAssistantFeatureFlags != 5 {
		t.Errorf("Expected feature flags 5, got %d", info.VoiceAssistantFeatureFlags)
	}
}

func TestSession_ListEntities(t *testing.T) {
	session, transport, _, _, _ := newTestSession()

	session.Dispatch(message(&api.ListEntitiesRequest{}))

	sent := transport.take()
	if len(sent) != 3 {
		t.Fatalf("Expected 2 entities and done, got %d messages", len(sent))
	}
	mp, ok := sent[0].(*api.ListEntitiesMediaPlayerResponse)
	if !ok {
		t.Fatalf("Expected media player first, got %T", sent[0])
	}
	if mp.Key != MediaPlayerKey || mp.ObjectID != "media_player" || !mp.SupportsPause {
		t.Errorf("Unexpected media player description: %+v", mp)
	}
	sw, ok := sent[1].(*api.ListEntitiesSwitchResponse)
	if !ok {
		t.Fatalf("Expected switch second, got %T", sent[1])
	}
	if sw.Key != MuteSwitchKey || sw.Name != "Mute Microphone" {
		t.Errorf("Unexpected switch description: %+v", sw)
	}
	if _, ok := sent[2].(*api.ListEntitiesDoneResponse); !ok {
		t.Errorf("Expected ListEntitiesDoneResponse last, got %T", sent[2])
	}
}

func TestSession_StatePublishingRequiresSubscription(t *testing.T) {
	session, transport, _, backend, micMuted := newTestSession()

	session.Dispatch(message(&api.SwitchCommandRequest{Key: MuteSwitchKey, State: true}))
	if !*micMuted {
		t.Error("Expected switch command to mute the microphone")
	}
	if sent := transport.take(); len(sent) != 0 {
		t.Errorf("Expected no state before subscription, got %d messages", len(sent))
	}

	session.Dispatch(message(&api.SubscribeHomeAssistantStatesRequest{}))
	if sent := transport.take(); len(sent) != 2 {
		t.Fatalf("Expected initial state of both entities, got %d", len(sent))
	}

	session.Dispatch(message(&api.MediaPlayerCommandRequest{Key: MediaPlayerKey, HasVolume: true, Volume: 0.3}))
	sent := transport.take()
	if len(sent) != 1 {
		t.Fatalf("Expected one state update, got %d", len(sent))
	}
	state := sent[0].(*api.MediaPlayerStateResponse)
	if state.Volume != 0.3 || backend.volume != 0.3 {
		t.Errorf("Expected volume 0.3, got state %v backend %v", state.Volume, backend.volume)
	}
}

func TestSession_MediaPlayerCommands(t *testing.T) {
	session, _, _, backend, _ := newTestSession()

	session.Dispatch(message(&api.MediaPlayerCommandRequest{Key: MediaPlayerKey, HasMediaURL: true, MediaURL: "http://x/a.wav"}))
	session.Dispatch(message(&api.MediaPlayerCommandRequest{Key: MediaPlayerKey, HasCommand: true, Command: api.MediaPlayerCommandPause}))
	session.Dispatch(message(&api.MediaPlayerCommandRequest{Key: MediaPlayerKey, HasCommand: true, Command: api.MediaPlayerCommandPlay}))
	session.Dispatch(message(&api.MediaPlayerCommandRequest{Key: MediaPlayerKey, HasCommand: true, Command: api.MediaPlayerCommandStop}))
	session.Dispatch(message(&api.MediaPlayerCommandRequest{Key: MediaPlayerKey, HasCommand: true, Command: api.MediaPlayerCommandMute}))
	session.Dispatch(message(&api.MediaPlayerCommandRequest{Key: 42, HasCommand: true, Command: api.MediaPlayerCommandStop}))

	if len(backend.played) != 1 || backend.played[0] != "http://x/a.wav" {
		t.Errorf("Expected media url to be played, got %v", backend.played)
	}
	want := []string{"pause", "unpause", "stop"}
	if len(backend.calls) != len(want) {
		t.Fatalf("Expected calls %v, got %v", want, backend.calls)
	}
	for i := range want {
		if backend.calls[i] != want[i] {
			t.Errorf("Expected call %d to be %s, got %s", i, want[i], backend.calls[i])
		}
	}
	if !backend.muted {
		t.Error("Expected mute command to mute playback")
	}
}

func TestSession_DisconnectRequest(t *testing.T) {
	session, transport, handler, _, _ := newTestSession()
	session.Dispatch(server.Event{Kind: server.EventConnected})
	session.Dispatch(message(&api.SubscribeStatesRequest{}))
	transport.take()

	session.Dispatch(message(&api.DisconnectRequest{}))
	sent := transport.take()
	if len(sent) != 1 {
		t.Fatalf("Expected one response, got %d", len(sent))
	}
	if _, ok := sent[0].(*api.DisconnectResponse); !ok {
		t.Errorf("Expected *api.DisconnectResponse, got %T", sent[0])
	}
	if transport.disconnected != 1 {
		t.Errorf("Expected connection to be dropped, got %d", transport.disconnected)
	}

	// The transport then reports the socket closing; only one reset happens.
	session.Dispatch(server.Event{Kind: server.EventDisconnected})
	if handler.disconnected != 1 {
		t.Errorf("Expected one disconnected callback, got %d", handler.disconnected)
	}

	session.PublishState(NewMuteSwitch("x", func() bool { return true }, func(bool) {}))
	if sent := transport.take(); len(sent) != 0 {
		t.Errorf("Expected subscription to end with the connection, got %d messages", len(sent))
	}
}

func TestSession_VoiceMessagesGoToHandler(t *testing.T) {
	session, transport, handler, _, _ := newTestSession()

	session.Dispatch(message(&api.VoiceAssistantEventResponse{EventType: api.VoiceAssistantEventRunStart}))
	session.Dispatch(message(&api.VoiceAssistantConfigurationRequest{}))
	session.Dispatch(message(&api.Unknown{MsgType: 999}))

	if len(handler.messages) != 2 {
		t.Fatalf("Expected 2 messages routed to handler, got %d", len(handler.messages))
	}
	if sent := transport.take(); len(sent) != 0 {
		t.Errorf("Expected no direct responses, got %d", len(sent))
	}
}
