// Package device implements the native API device session: the handshake,
// keepalive, device info, entity discovery and state publishing. Voice
// assistant traffic is handed to a Handler.
package device

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-satellite/internal/esphome/api"
	"github.com/lexiqai/voice-satellite/internal/server"
)

// API version advertised in HelloResponse.
const (
	APIVersionMajor = 1
	APIVersionMinor = 10
)

// Transport is the outbound side of the connection.
type Transport interface {
	Send(msg api.Message) error
	DisconnectCurrent()
}

// Handler receives connection transitions and every message the session
// does not answer itself. Calls come from the goroutine driving Dispatch.
type Handler interface {
	OnConnected()
	OnDisconnected()
	OnMessage(msg api.Message)
}

// ConnectionState of the session as seen by the rest of the process.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnected
	StateStopped
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateStopped:
		return "stopped"
	}
	return "disconnected"
}

// Info is the static identity reported in HelloResponse and DeviceInfoResponse.
type Info struct {
	Name            string
	FriendlyName    string
	MacAddress      string
	Manufacturer    string
	Model           string
	ProjectName     string
	ProjectVersion  string
	ESPHomeVersion  string
	CompilationTime string
	SuggestedArea   string
	FeatureFlags    uint32
}

// Session is the device state machine for the current controller connection.
type Session struct {
	logger    zerolog.Logger
	transport Transport
	info      Info
	entities  []Entity

	mu         sync.Mutex
	handler    Handler
	state      ConnectionState
	subscribed bool
}

// NewSession creates a session that answers on transport.
func NewSession(logger zerolog.Logger, transport Transport, info Info, entities ...Entity) *Session {
	return &Session{
		logger:    logger.With().Str("component", "device").Logger(),
		transport: transport,
		info:      info,
		entities:  entities,
		state:     StateDisconnected,
	}
}

// SetHandler installs the receiver of voice assistant traffic.
func (s *Session) SetHandler(h Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// State returns the connection state.
func (s *Session) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run dispatches events until ctx is done or events is closed.
func (s *Session) Run(ctx context.Context, events <-chan server.Event) error {
	defer s.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.Dispatch(ev)
		}
	}
}

// Dispatch applies one transport event.
func (s *Session) Dispatch(ev server.Event) {
	switch ev.Kind {
	case server.EventConnected:
		s.connected()
	case server.EventDisconnected:
		s.disconnected()
	case server.EventMessage:
		s.handleMessage(ev.Message)
	}
}

// Send forwards msg to the controller. Failures are logged; the transport
// turns them into a disconnect.
func (s *Session) Send(msg api.Message) {
	if err := s.transport.Send(msg); err != nil {
		s.logger.Debug().Err(err).Stringer("type", msg.Type()).Msg("Dropped outbound message")
	}
}

// PublishState sends the entity's state if the controller subscribed to states.
func (s *Session) PublishState(e Entity) {
	s.mu.Lock()
	subscribed := s.subscribed
	s.mu.Unlock()
	if subscribed {
		s.Send(e.CurrentState())
	}
}

func (s *Session) handleMessage(msg api.Message) {
	switch m := msg.(type) {
	case *api.HelloRequest:
		s.logger.Info().
			Str("client", m.ClientInfo).
			Uint32("api_major", m.APIVersionMajor).
			Uint32("api_minor", m.APIVersionMinor).
			Msg("Hello from controller")
		s.Send(&api.HelloResponse{
			APIVersionMajor: APIVersionMajor,
			APIVersionMinor: APIVersionMinor,
			ServerInfo:      s.info.ProjectName,
			Name:            s.info.Name,
		})

	case *api.ConnectRequest:
		s.Send(&api.ConnectResponse{})
		s.connected()

	case *api.DisconnectRequest:
		s.Send(&api.DisconnectResponse{})
		s.disconnected()
		s.transport.DisconnectCurrent()

	case *api.PingRequest:
		s.Send(&api.PingResponse{})

	case *api.DeviceInfoRequest:
		s.Send(s.deviceInfo())

	case *api.ListEntitiesRequest:
		for _, e := range s.entities {
			s.Send(e.Describe())
		}
		s.Send(&api.ListEntitiesDoneResponse{})

	case *api.SubscribeStatesRequest, *api.SubscribeHomeAssistantStatesRequest:
		s.mu.Lock()
		s.subscribed = true
		s.mu.Unlock()
		for _, e := range s.entities {
			s.Send(e.CurrentState())
		}

	case *api.MediaPlayerCommandRequest, *api.SwitchCommandRequest:
		for _, e := range s.entities {
			if e.HandleMessage(msg) {
				s.PublishState(e)
			}
		}

	case *api.Unknown:
		s.logger.Debug().Stringer("type", m.Type()).Msg("Ignoring unhandled message")

	default:
		if h := s.currentHandler(); h != nil {
			h.OnMessage(msg)
		}
	}
}

func (s *Session) deviceInfo() *api.DeviceInfoResponse {
	return &api.DeviceInfoResponse{
		Name:                       s.info.Name,
		FriendlyName:               s.info.FriendlyName,
		MacAddress:                 s.info.MacAddress,
		Manufacturer:               s.info.Manufacturer,
		Model:                      s.info.Model,
		ProjectName:                s.info.ProjectName,
		ProjectVersion:             s.info.ProjectVersion,
		ESPHomeVersion:             s.info.ESPHomeVersion,
		CompilationTime:            s.info.CompilationTime,
		SuggestedArea:              s.info.SuggestedArea,
		VoiceAssistantFeatureFlags: s.info.FeatureFlags,
	}
}

func (s *Session) connected() {
	s.mu.Lock()
	already := s.state == StateConnected
	s.state = StateConnected
	h := s.handler
	s.mu.Unlock()

	if already {
		return
	}
	s.logger.Info().Msg("Session connected")
	if h != nil {
		h.OnConnected()
	}
}

func (s *Session) disconnected() {
	s.mu.Lock()
	already := s.state != StateConnected
	if s.state == StateConnected {
		s.state = StateDisconnected
	}
	s.subscribed = false
	h := s.handler
	s.mu.Unlock()

	if already {
		return
	}
	s.logger.Info().Msg("Session disconnected")
	if h != nil {
		h.OnDisconnected()
	}
}

// Stop ends the session for good; the handler sees a final disconnect.
func (s *Session) Stop() {
	s.disconnected()
	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
}

func (s *Session) currentHandler() Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler
}
