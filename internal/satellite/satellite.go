// Package satellite ties the device session, the microphone input loop, the
// conversation pipeline, timers and playback into the voice satellite.
package satellite

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-satellite/internal/audio"
	"github.com/lexiqai/voice-satellite/internal/device"
	"github.com/lexiqai/voice-satellite/internal/esphome/api"
	"github.com/lexiqai/voice-satellite/internal/observability"
	"github.com/lexiqai/voice-satellite/internal/pipeline"
	"github.com/lexiqai/voice-satellite/internal/settings"
	"github.com/lexiqai/voice-satellite/internal/timers"
	"github.com/lexiqai/voice-satellite/internal/wakeword"
)

// MaxActiveWakeWords is advertised in VoiceAssistantConfigurationResponse.
const MaxActiveWakeWords = 1

// Session is the outbound side of the device session.
type Session interface {
	Send(msg api.Message)
	PublishState(e device.Entity)
}

// SettingsStore is the persisted settings the satellite reads and updates.
type SettingsStore interface {
	Get() settings.Settings
	SaveWakeWord(id string) error
	SaveMuted(muted bool) error
	SaveVolume(volume float32) error
}

// Config holds the satellite's collaborators.
type Config struct {
	Settings  SettingsStore
	Player    *Player
	Input     *InputLoop
	Timers    *timers.Model
	WakeWords []wakeword.WakeWord
	// UniqueID prefixes entity unique ids, usually the MAC address.
	UniqueID string
	// TimerRepeatDelay separates repeated timer alert sounds.
	TimerRepeatDelay time.Duration
}

// Status is a point-in-time view for the status feed.
type Status struct {
	State     State         `json:"state"`
	Connected bool          `json:"connected"`
	Muted     bool          `json:"muted"`
	Streaming bool          `json:"streaming"`
	Ducked    bool          `json:"ducked"`
	WakeWords []string      `json:"wake_words"`
	StopWords []string      `json:"stop_words"`
	Timers    []TimerStatus `json:"timers"`
}

type TimerStatus struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TotalSeconds int    `json:"total_seconds"`
	SecondsLeft  int    `json:"seconds_left"`
	IsActive     bool   `json:"is_active"`
	Ringing      bool   `json:"ringing"`
}

// Satellite is the top-level state machine. Everything that mutates it runs
// on the goroutine executing Run; other goroutines hand work over through
// post.
type Satellite struct {
	logger   zerolog.Logger
	settings SettingsStore
	player   *Player
	input    *InputLoop
	timers   *timers.Model
	wake     []wakeword.WakeWord
	delay    time.Duration

	mediaEntity *device.MediaPlayer
	muteSwitch  *device.Switch

	// OnChange runs after any change visible in Status.
	OnChange func()

	taskMu sync.Mutex
	tasks  []func()
	wakeup chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	session Session
	state   State

	// owned by the Run goroutine
	connected            bool
	pipeline             *pipeline.Pipeline
	continueConversation bool
	ttsGen               uint64
	alertGen             uint64
	inputCancel          context.CancelFunc
	inputDone            chan struct{}
}

func New(logger zerolog.Logger, cfg Config) *Satellite {
	s := &Satellite{
		logger:   logger.With().Str("component", "satellite").Logger(),
		settings: cfg.Settings,
		player:   cfg.Player,
		input:    cfg.Input,
		timers:   cfg.Timers,
		wake:     cfg.WakeWords,
		delay:    cfg.TimerRepeatDelay,
		wakeup:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		state:    StateDisconnected,
	}
	s.mediaEntity = device.NewMediaPlayer(cfg.Player, cfg.UniqueID)
	s.muteSwitch = device.NewMuteSwitch(cfg.UniqueID, s.input.Muted, s.setMuted)
	observability.SetSatelliteState(int(s.state))
	return s
}

// Entities returns the entities to register with the device session.
func (s *Satellite) Entities() []device.Entity {
	return []device.Entity{s.mediaEntity, s.muteSwitch}
}

// SetSession installs the session used for outbound traffic.
func (s *Satellite) SetSession(session Session) {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
}

func (s *Satellite) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a snapshot for the status feed. Safe from any goroutine.
func (s *Satellite) Status() Status {
	s.mu.Lock()
	st := Status{State: s.state}
	s.mu.Unlock()
	st.Connected = st.State != StateDisconnected && st.State != StateStopped
	st.Muted = s.input.Muted()
	st.Streaming = s.input.Streaming()
	st.Ducked = s.player.Ducked()
	st.WakeWords = s.input.ActiveWakeWords()
	st.StopWords = s.input.ActiveStopWords()

	now := time.Now()
	st.Timers = []TimerStatus{}
	if t, ok := s.timers.Ringing(); ok {
		st.Timers = append(st.Timers, timerStatus(t, now, true))
	}
	for _, t := range s.timers.Pending(now) {
		st.Timers = append(st.Timers, timerStatus(t, now, false))
	}
	return st
}

func timerStatus(t timers.Timer, now time.Time, ringing bool) TimerStatus {
	return TimerStatus{
		ID:           t.ID,
		Name:         t.Name,
		TotalSeconds: int(t.Total / time.Second),
		SecondsLeft:  int(t.Remaining(now) / time.Second),
		IsActive:     t.IsActive,
		Ringing:      ringing,
	}
}

// PublishMediaState reports the media player entity state to the controller.
// It is called whenever a player changes state.
func (s *Satellite) PublishMediaState() {
	if session := s.currentSession(); session != nil {
		session.PublishState(s.mediaEntity)
	}
}

// Run processes session callbacks and input events until ctx is done.
func (s *Satellite) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wakeup:
			s.runTasks()
		case ev := <-s.input.Events():
			s.handleInput(ev)
		}
	}
}

// post appends fn to the task queue drained by Run. It never blocks the
// caller and tasks run in the order they were posted.
func (s *Satellite) post(fn func()) {
	select {
	case <-s.done:
		return
	default:
	}
	s.taskMu.Lock()
	s.tasks = append(s.tasks, fn)
	s.taskMu.Unlock()
	select {
	case s.wakeup <- struct{}{}:
	default:
	}
}

func (s *Satellite) runTasks() {
	for {
		s.taskMu.Lock()
		batch := s.tasks
		s.tasks = nil
		s.taskMu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}

// device.Handler

func (s *Satellite) OnConnected()              { s.post(s.onConnected) }
func (s *Satellite) OnDisconnected()           { s.post(s.onDisconnected) }
func (s *Satellite) OnMessage(msg api.Message) { s.post(func() { s.handleMessage(msg) }) }

func (s *Satellite) onConnected() {
	if s.connected {
		return
	}
	s.connected = true
	s.setState(StateIdle)
	s.startInput()
}

func (s *Satellite) onDisconnected() {
	if !s.connected {
		return
	}
	s.connected = false
	s.stopInput()
	s.input.SetStreaming(false)
	s.continueConversation = false
	if s.pipeline != nil {
		s.pipeline.Stop()
		s.pipeline = nil
	}
	s.timers.Clear()
	s.alertGen++
	s.ttsGen++
	s.player.TTS().Stop()
	s.player.Unduck()
	s.setState(StateDisconnected)
}

func (s *Satellite) startInput() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.inputCancel, s.inputDone = cancel, done
	go func() {
		defer close(done)
		s.input.Run(ctx)
	}()
}

func (s *Satellite) stopInput() {
	if s.inputCancel == nil {
		return
	}
	s.inputCancel()
	<-s.inputDone
	s.inputCancel, s.inputDone = nil, nil
}

func (s *Satellite) shutdown() {
	s.onDisconnected()
	s.setState(StateStopped)
}

func (s *Satellite) handleMessage(msg api.Message) {
	switch m := msg.(type) {
	case *api.VoiceAssistantConfigurationRequest:
		s.send(s.configuration())

	case *api.VoiceAssistantSetConfiguration:
		s.setConfiguration(m.ActiveWakeWords)

	case *api.VoiceAssistantAnnounceRequest:
		s.announce(m)

	case *api.VoiceAssistantEventResponse:
		if s.pipeline == nil {
			s.logger.Debug().Stringer("event", m.EventType).Msg("Voice assistant event without an active turn")
			return
		}
		s.pipeline.HandleEvent(m)

	case *api.VoiceAssistantTimerEventResponse:
		s.handleTimer(m)

	default:
		s.logger.Debug().Stringer("type", msg.Type()).Msg("Ignoring message")
	}
}

func (s *Satellite) configuration() *api.VoiceAssistantConfigurationResponse {
	resp := &api.VoiceAssistantConfigurationResponse{
		ActiveWakeWords:    s.input.ActiveWakeWords(),
		MaxActiveWakeWords: MaxActiveWakeWords,
	}
	for _, w := range s.wake {
		resp.AvailableWakeWords = append(resp.AvailableWakeWords, api.VoiceAssistantWakeWord{
			ID:               w.ID,
			WakeWord:         w.Phrase,
			TrainedLanguages: w.Languages,
		})
	}
	return resp
}

// setConfiguration activates the requested wake words that are installed.
// Unknown ids are logged and ignored.
func (s *Satellite) setConfiguration(requested []string) {
	var active, ignored []string
	for _, id := range requested {
		if _, ok := wakeword.Find(s.wake, id); ok {
			active = append(active, id)
		} else {
			ignored = append(ignored, id)
		}
	}
	s.logger.Info().Strs("wake_words", active).Msg("Setting active wake words")
	if len(active) > 0 {
		s.input.SetActiveWakeWords(active)
		if err := s.settings.SaveWakeWord(active[0]); err != nil {
			s.logger.Error().Err(err).Msg("Failed to save wake word")
		}
	}
	if len(ignored) > 0 {
		s.logger.Warn().Strs("wake_words", ignored).Msg("Ignoring unknown wake words")
	}
}

func (s *Satellite) handleInput(ev InputEvent) {
	switch ev.Kind {
	case InputAudio:
		if s.pipeline != nil {
			if err := s.pipeline.HandleMicAudio(ev.Audio); err != nil {
				s.logger.Debug().Err(err).Msg("Failed to forward audio")
			}
		}
	case InputWake:
		s.onWake(ev.Phrase)
	case InputStop:
		s.onStop()
	}
}

func (s *Satellite) onWake(phrase string) {
	if !s.connected {
		return
	}
	if s.timers.IsRinging() {
		s.stopTimer()
		return
	}
	if s.State() != StateListening {
		s.logger.Info().Str("phrase", phrase).Msg("Wake word detected")
		s.wakeUp(phrase, false)
	}
}

func (s *Satellite) onStop() {
	if !s.connected {
		return
	}
	if s.timers.IsRinging() {
		s.stopTimer()
		return
	}
	if s.pipeline != nil || s.player.TTS().State() == audio.PlayerPlaying {
		s.logger.Info().Msg("Stop word detected")
		s.stopTurn()
	}
}

// wakeUp starts a new turn. The wake sound is skipped for chained turns.
func (s *Satellite) wakeUp(phrase string, continued bool) {
	if s.pipeline != nil {
		s.pipeline.Stop()
	}
	s.ttsGen++
	s.continueConversation = false
	s.setState(StateListening)
	s.player.Duck()

	var p *pipeline.Pipeline
	p = pipeline.New(s.logger, sessionSender{s}, s.player.TTS(), pipeline.Callbacks{
		ListeningChanged: s.input.SetStreaming,
		StateChanged: func(ps pipeline.State) {
			if s.pipeline == p {
				s.setState(pipelineState(ps))
			}
		},
		Ended: func(continueConversation bool) {
			if s.pipeline == p {
				s.pipeline = nil
				s.input.SetStreaming(false)
				s.ttsFinished(continueConversation)
			}
		},
		Post: s.post,
	})
	s.pipeline = p

	start := func() {
		if s.pipeline != p {
			return
		}
		if err := p.Start(phrase); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to start pipeline run")
		}
	}
	st := s.settings.Get()
	if !continued && st.EnableWakeSound && st.WakeSound != "" {
		s.player.TTS().Play([]string{st.WakeSound}, func() { s.post(start) })
		return
	}
	start()
}

// stopTurn ends the current turn or response early.
func (s *Satellite) stopTurn() {
	s.input.SetStreaming(false)
	s.continueConversation = false
	if s.pipeline != nil {
		s.pipeline.Stop()
		s.pipeline = nil
	}
	s.ttsGen++
	s.player.TTS().Stop()
	s.restoreVolume()
	s.setState(StateIdle)
	s.send(&api.VoiceAssistantAnnounceFinished{})
}

func (s *Satellite) ttsFinished(continued bool) {
	s.send(&api.VoiceAssistantAnnounceFinished{})
	if continued {
		s.logger.Info().Msg("Continuing conversation")
		s.wakeUp("", true)
		return
	}
	s.restoreVolume()
	s.setState(StateIdle)
}

func (s *Satellite) announce(req *api.VoiceAssistantAnnounceRequest) {
	var urls []string
	for _, u := range []string{req.PreannounceMediaID, req.MediaID} {
		if u != "" {
			urls = append(urls, u)
		}
	}
	if s.pipeline != nil {
		s.pipeline.Stop()
		s.pipeline = nil
		s.input.SetStreaming(false)
	}
	s.continueConversation = req.StartConversation
	s.setState(StateResponding)
	s.player.Duck()

	s.ttsGen++
	gen := s.ttsGen
	s.logger.Info().Strs("urls", urls).Bool("start_conversation", req.StartConversation).Msg("Announcement")
	s.player.TTS().Play(urls, func() {
		s.post(func() {
			if s.ttsGen == gen {
				s.ttsFinished(s.continueConversation)
			}
		})
	})
}

func (s *Satellite) handleTimer(ev *api.VoiceAssistantTimerEventResponse) {
	s.logger.Debug().Stringer("event", ev.EventType).Str("timer_id", ev.TimerID).Msg("Timer event")
	if s.timers.Apply(ev, time.Now()) {
		s.logger.Info().Str("timer_id", ev.TimerID).Str("name", ev.Name).Msg("Timer finished")
		s.cancelPendingWake()
		s.player.Duck()
		s.alertGen++
		s.playAlert(s.alertGen)
	}
	s.changed()
}

// cancelPendingWake drops a turn still waiting on its wake sound. The alert
// replaces the sound on the TTS player, so the run would never start.
func (s *Satellite) cancelPendingWake() {
	if s.pipeline == nil || s.pipeline.Started() {
		return
	}
	s.logger.Info().Str("turn_id", s.pipeline.TurnID()).Msg("Timer alert cancelled pending turn")
	s.pipeline.Stop()
	s.pipeline = nil
	s.input.SetStreaming(false)
	s.setState(StateIdle)
}

func (s *Satellite) playAlert(gen uint64) {
	sound := s.settings.Get().TimerFinishedSound
	s.player.TTS().Play([]string{sound}, func() {
		time.AfterFunc(s.delay, func() {
			s.post(func() { s.alertFinished(gen) })
		})
	})
}

// alertFinished runs after each alert plus the repeat delay.
func (s *Satellite) alertFinished(gen uint64) {
	if gen != s.alertGen {
		return
	}
	if s.timers.IsRinging() && s.settings.Get().RepeatTimerFinishedSound {
		s.playAlert(gen)
		return
	}
	s.timers.StopRinging()
	s.restoreVolume()
	s.changed()
}

func (s *Satellite) stopTimer() {
	s.logger.Info().Msg("Stopping timer")
	if s.timers.StopRinging() {
		s.alertGen++
		s.player.TTS().Stop()
		s.restoreVolume()
	}
	s.changed()
}

// restoreVolume unducks background media unless a turn still needs it ducked.
func (s *Satellite) restoreVolume() {
	if s.pipeline == nil && !s.timers.IsRinging() {
		s.player.Unduck()
	}
}

// setMuted backs the mute switch. It runs on the session goroutine.
func (s *Satellite) setMuted(muted bool) {
	s.input.SetMuted(muted)
	if err := s.settings.SaveMuted(muted); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save mute state")
	}
	s.logger.Info().Bool("muted", muted).Msg("Microphone mute changed")
	s.changed()
}

func (s *Satellite) setState(state State) {
	s.mu.Lock()
	old := s.state
	s.state = state
	s.mu.Unlock()
	if old == state {
		return
	}
	s.logger.Info().Stringer("from", old).Stringer("to", state).Msg("Satellite state changed")
	observability.SetSatelliteState(int(state))
	s.changed()
}

func (s *Satellite) changed() {
	if s.OnChange != nil {
		s.OnChange()
	}
}

func (s *Satellite) currentSession() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *Satellite) send(msg api.Message) {
	if session := s.currentSession(); session != nil {
		session.Send(msg)
	}
}

// sessionSender adapts the session to pipeline.Sender.
type sessionSender struct{ s *Satellite }

func (w sessionSender) Send(msg api.Message) error {
	w.s.send(msg)
	return nil
}

func pipelineState(ps pipeline.State) State {
	switch ps {
	case pipeline.Processing:
		return StateProcessing
	case pipeline.Responding:
		return StateResponding
	}
	return StateListening
}

// ActiveWords returns the wake words to activate at startup: the configured
// ones that are installed, in order and without duplicates.
func ActiveWords(available []wakeword.WakeWord, ids ...string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := wakeword.Find(available, id); ok && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
