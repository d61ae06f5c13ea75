// Package pipeline tracks one voice assistant run, from the wake request to
// the end of the spoken response.
package pipeline

import (
	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-satellite/internal/audio"
	"github.com/lexiqai/voice-satellite/internal/esphome/api"
	"github.com/lexiqai/voice-satellite/internal/observability"
)

// State is the phase of a run as seen by the user.
type State int

const (
	Listening State = iota
	Processing
	Responding
)

func (s State) String() string {
	switch s {
	case Listening:
		return "listening"
	case Processing:
		return "processing"
	case Responding:
		return "responding"
	}
	return "unknown"
}

// Sender delivers outbound protocol messages.
type Sender interface {
	Send(msg api.Message) error
}

// Callbacks are invoked on the goroutine that drives the pipeline, except
// Ended, which runs through Post when playback finishes.
type Callbacks struct {
	// ListeningChanged fires once each time the run enters or leaves Listening.
	ListeningChanged func(listening bool)
	StateChanged     func(state State)
	Ended            func(continueConversation bool)
	// Post schedules fn on the driving goroutine. Nil runs fn inline.
	Post func(fn func())
}

// Pipeline is one conversation turn. It is not safe for concurrent use; the
// owner feeds it events and microphone frames from a single goroutine.
type Pipeline struct {
	logger    zerolog.Logger
	sender    Sender
	player    audio.Player
	callbacks Callbacks
	metrics   *observability.TurnMetrics

	state                State
	started              bool
	running              bool
	ended                bool
	continueConversation bool
	ttsStreamURL         string
	ttsPlayed            bool
	micBuffer            [][]byte
}

// New creates a pipeline in the Listening state. Nothing is sent until Start.
func New(logger zerolog.Logger, sender Sender, player audio.Player, callbacks Callbacks) *Pipeline {
	metrics := observability.NewTurnMetrics(observability.NewCorrelationID())
	return &Pipeline{
		logger:    logger.With().Str("component", "pipeline").Str("turn_id", metrics.TurnID()).Logger(),
		sender:    sender,
		player:    player,
		callbacks: callbacks,
		metrics:   metrics,
		state:     Listening,
	}
}

// TurnID identifies the run in logs and metrics.
func (p *Pipeline) TurnID() string {
	return p.metrics.TurnID()
}

func (p *Pipeline) State() State {
	return p.state
}

// Started reports whether Start has sent the run request.
func (p *Pipeline) Started() bool {
	return p.started
}

// Start announces the initial Listening state and asks the controller to
// begin a run.
func (p *Pipeline) Start(wakeWordPhrase string) error {
	p.started = true
	if p.callbacks.StateChanged != nil {
		p.callbacks.StateChanged(p.state)
	}
	if p.callbacks.ListeningChanged != nil {
		p.callbacks.ListeningChanged(true)
	}
	p.logger.Info().Str("wake_word_phrase", wakeWordPhrase).Msg("Starting pipeline run")
	return p.sender.Send(&api.VoiceAssistantRequest{Start: true, WakeWordPhrase: wakeWordPhrase})
}

// HandleEvent applies one pipeline lifecycle event from the controller.
func (p *Pipeline) HandleEvent(ev *api.VoiceAssistantEventResponse) {
	p.logger.Debug().Stringer("event", ev.EventType).Msg("Voice assistant event")

	switch ev.EventType {
	case api.VoiceAssistantEventRunStart:
		p.running = true
		p.ttsStreamURL, _ = ev.Value(api.EventDataURL)
		// Open the output now so it is ready when the response arrives.
		p.player.Init()

	case api.VoiceAssistantEventSTTVADEnd, api.VoiceAssistantEventSTTEnd:
		p.setState(Processing)

	case api.VoiceAssistantEventIntentProgress:
		if v, _ := ev.Value(api.EventDataTTSStartStreaming); v == "1" && p.ttsStreamURL != "" {
			p.play(p.ttsStreamURL)
		}

	case api.VoiceAssistantEventIntentEnd:
		if v, _ := ev.Value(api.EventDataContinueConversation); v == "1" {
			p.continueConversation = true
		}

	case api.VoiceAssistantEventTTSStart:
		p.setState(Responding)

	case api.VoiceAssistantEventTTSEnd:
		if url, ok := ev.Value(api.EventDataURL); ok && url != "" && !p.ttsPlayed {
			p.play(url)
		}

	case api.VoiceAssistantEventRunEnd:
		if !p.ttsPlayed {
			p.end("no_response")
		}

	case api.VoiceAssistantEventError:
		code, _ := ev.Value("code")
		message, _ := ev.Value("message")
		p.logger.Warn().Str("code", code).Str("message", message).Msg("Pipeline run reported an error")
		observability.RecordError("pipeline_"+code, "pipeline")
	}
}

// HandleMicAudio forwards a microphone frame. Frames that arrive before the
// run has started are held and flushed in order ahead of the first frame
// after it starts; once the run has left Listening frames are dropped.
func (p *Pipeline) HandleMicAudio(frame []byte) error {
	if p.state != Listening {
		return nil
	}
	if !p.running {
		p.micBuffer = append(p.micBuffer, frame)
		return nil
	}
	for len(p.micBuffer) > 0 {
		if err := p.sendAudio(p.micBuffer[0]); err != nil {
			return err
		}
		p.micBuffer = p.micBuffer[1:]
	}
	p.micBuffer = nil
	return p.sendAudio(frame)
}

func (p *Pipeline) sendAudio(data []byte) error {
	if err := p.sender.Send(&api.VoiceAssistantAudio{Data: data}); err != nil {
		return err
	}
	observability.RecordAudioBytes("out", len(data))
	return nil
}

// Stop abandons the run without firing Ended. Playback is stopped.
func (p *Pipeline) Stop() {
	if p.ended {
		return
	}
	p.ended = true
	p.micBuffer = nil
	if p.ttsPlayed {
		p.player.Stop()
	}
	p.metrics.End("stopped")
}

func (p *Pipeline) play(url string) {
	p.ttsPlayed = true
	p.logger.Debug().Str("url", url).Msg("Playing response")
	p.player.Play([]string{url}, func() {
		p.post(func() { p.end("completed") })
	})
}

func (p *Pipeline) end(outcome string) {
	if p.ended {
		return
	}
	p.ended = true
	p.micBuffer = nil
	p.metrics.End(outcome)
	p.logger.Info().Bool("continue_conversation", p.continueConversation).Msg("Pipeline run ended")
	if p.callbacks.Ended != nil {
		p.callbacks.Ended(p.continueConversation)
	}
}

func (p *Pipeline) post(fn func()) {
	if p.callbacks.Post != nil {
		p.callbacks.Post(fn)
		return
	}
	fn()
}

func (p *Pipeline) setState(state State) {
	if state == p.state {
		return
	}
	old := p.state
	p.state = state
	if p.callbacks.StateChanged != nil {
		p.callbacks.StateChanged(state)
	}
	if p.callbacks.ListeningChanged == nil {
		return
	}
	if state == Listening {
		p.callbacks.ListeningChanged(true)
	} else if old == Listening {
		p.callbacks.ListeningChanged(false)
	}
}
