package pipeline

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-satellite/internal/audio"
	"github.com/lexiqai/voice-satellite/internal/esphome/api"
)

type stubSender struct {
	sent []api.Message
}

func (s *stubSender) Send(msg api.Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

type stubPlayer struct {
	inits      int
	stops      int
	played     []string
	completion func()
}

func (p *stubPlayer) Init() { p.inits++ }
func (p *stubPlayer) Play(urls []string, onCompletion func()) {
	p.played = append(p.played, urls...)
	p.completion = onCompletion
}
func (p *stubPlayer) Pause()                   {}
func (p *stubPlayer) Unpause()                 {}
func (p *stubPlayer) Stop()                    { p.stops++ }
func (p *stubPlayer) Volume() float32          { return 1 }
func (p *stubPlayer) SetVolume(float32)        {}
func (p *stubPlayer) State() audio.PlayerState { return audio.PlayerIdle }

type recorder struct {
	listening []bool
	states    []State
	ended     []bool
}

func newTestPipeline() (*Pipeline, *stubSender, *stubPlayer, *recorder) {
	sender := &stubSender{}
	player := &stubPlayer{}
	rec := &recorder{}
	p := New(zerolog.Nop(), sender, player, Callbacks{
		ListeningChanged: func(l bool) { rec.listening = append(rec.listening, l) },
		StateChanged:     func(s State) { rec.states = append(rec.states, s) },
		Ended:            func(c bool) { rec.ended = append(rec.ended, c) },
	})
	return p, sender, player, rec
}

func event(t api.VoiceAssistantEvent, kv ...string) *api.VoiceAssistantEventResponse {
	ev := &api.VoiceAssistantEventResponse{EventType: t}
	for i := 0; i+1 < len(kv); i += 2 {
		ev.Data = append(ev.Data, api.VoiceAssistantEventData{Name: kv[i], Value: kv[i+1]})
	}
	return ev
}

func TestStart_SendsRequestAndAnnouncesListening(t *testing.T) {
	p, sender, _, rec := newTestPipeline()
	if err := p.Start("Okay Nabu"); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(sender.sent))
	}
	req, ok := sender.sent[0].(*api.VoiceAssistantRequest)
	if !ok {
		t.Fatalf("Expected VoiceAssistantRequest, got %T", sender.sent[0])
	}
	if !req.Start || req.WakeWordPhrase != "Okay Nabu" {
		t.Errorf("Expected start request for Okay Nabu, got %+v", req)
	}
	if len(rec.listening) != 1 || !rec.listening[0] {
		t.Errorf("Expected listening [true], got %v", rec.listening)
	}
	if len(rec.states) != 1 || rec.states[0] != Listening {
		t.Errorf("Expected states [listening], got %v", rec.states)
	}
}

func TestMicAudio_BufferedUntilRunStart(t *testing.T) {
	p, sender, player, _ := newTestPipeline()
	frames := [][]byte{{0}, {1}, {2}}

	p.HandleMicAudio(frames[0])
	p.HandleMicAudio(frames[1])
	if len(sender.sent) != 0 {
		t.Fatalf("Expected no messages before run start, got %d", len(sender.sent))
	}

	p.HandleEvent(event(api.VoiceAssistantEventRunStart))
	if player.inits != 1 {
		t.Errorf("Expected player initialized on run start, got %d inits", player.inits)
	}
	p.HandleMicAudio(frames[2])

	if len(sender.sent) != 3 {
		t.Fatalf("Expected 3 audio messages, got %d", len(sender.sent))
	}
	for i, msg := range sender.sent {
		a, ok := msg.(*api.VoiceAssistantAudio)
		if !ok {
			t.Fatalf("Expected VoiceAssistantAudio, got %T", msg)
		}
		if len(a.Data) != 1 || a.Data[0] != byte(i) {
			t.Errorf("Message %d: expected frame %d, got %v", i, i, a.Data)
		}
	}
}

func TestMicAudio_DroppedAfterListening(t *testing.T) {
	p, sender, _, rec := newTestPipeline()
	p.HandleEvent(event(api.VoiceAssistantEventRunStart))
	p.HandleEvent(event(api.VoiceAssistantEventSTTVADEnd))

	p.HandleMicAudio([]byte{1, 2})
	if len(sender.sent) != 0 {
		t.Errorf("Expected no audio after leaving listening, got %d messages", len(sender.sent))
	}
	if p.State() != Processing {
		t.Errorf("Expected processing, got %v", p.State())
	}
	if len(rec.listening) != 1 || rec.listening[0] {
		t.Errorf("Expected listening [false], got %v", rec.listening)
	}

	// STT_END after VAD end is not another boundary crossing.
	p.HandleEvent(event(api.VoiceAssistantEventSTTEnd))
	if len(rec.listening) != 1 {
		t.Errorf("Expected one listening change, got %v", rec.listening)
	}
}

func TestStreamingTTS_PlaysStreamURLOnce(t *testing.T) {
	p, _, player, rec := newTestPipeline()
	p.HandleEvent(event(api.VoiceAssistantEventRunStart, api.EventDataURL, "tts_stream"))
	p.HandleEvent(event(api.VoiceAssistantEventIntentProgress, api.EventDataTTSStartStreaming, "1"))
	p.HandleEvent(event(api.VoiceAssistantEventTTSStart))
	p.HandleEvent(event(api.VoiceAssistantEventTTSEnd, api.EventDataURL, "not_tts_stream"))
	p.HandleEvent(event(api.VoiceAssistantEventRunEnd))

	if len(player.played) != 1 || player.played[0] != "tts_stream" {
		t.Errorf("Expected [tts_stream], got %v", player.played)
	}
	if p.State() != Responding {
		t.Errorf("Expected responding, got %v", p.State())
	}
	if len(rec.ended) != 0 {
		t.Fatalf("Expected no end before playback completes, got %v", rec.ended)
	}

	player.completion()
	if len(rec.ended) != 1 || rec.ended[0] {
		t.Errorf("Expected ended [false], got %v", rec.ended)
	}
}

func TestTTSEnd_PlaysURLWithoutStreaming(t *testing.T) {
	p, _, player, _ := newTestPipeline()
	p.HandleEvent(event(api.VoiceAssistantEventRunStart, api.EventDataURL, "tts_stream"))
	p.HandleEvent(event(api.VoiceAssistantEventIntentProgress))
	p.HandleEvent(event(api.VoiceAssistantEventTTSEnd, api.EventDataURL, "tts_file"))

	if len(player.played) != 1 || player.played[0] != "tts_file" {
		t.Errorf("Expected [tts_file], got %v", player.played)
	}
}

func TestRunEnd_WithoutPlaybackEndsImmediately(t *testing.T) {
	p, _, _, rec := newTestPipeline()
	p.HandleEvent(event(api.VoiceAssistantEventIntentEnd, api.EventDataContinueConversation, "1"))
	p.HandleEvent(event(api.VoiceAssistantEventRunEnd))

	if len(rec.ended) != 1 || !rec.ended[0] {
		t.Errorf("Expected ended [true], got %v", rec.ended)
	}

	// A second RUN_END must not fire again.
	p.HandleEvent(event(api.VoiceAssistantEventRunEnd))
	if len(rec.ended) != 1 {
		t.Errorf("Expected ended once, got %v", rec.ended)
	}
}

func TestStop_SuppressesEnded(t *testing.T) {
	p, _, player, rec := newTestPipeline()
	p.HandleEvent(event(api.VoiceAssistantEventTTSEnd, api.EventDataURL, "tts_file"))
	p.Stop()

	if player.stops != 1 {
		t.Errorf("Expected player stopped, got %d stops", player.stops)
	}
	player.completion()
	if len(rec.ended) != 0 {
		t.Errorf("Expected no end after Stop, got %v", rec.ended)
	}
}

func TestEnded_RunsThroughPost(t *testing.T) {
	var posted []func()
	player := &stubPlayer{}
	ended := 0
	p := New(zerolog.Nop(), &stubSender{}, player, Callbacks{
		Ended: func(bool) { ended++ },
		Post:  func(fn func()) { posted = append(posted, fn) },
	})
	p.HandleEvent(event(api.VoiceAssistantEventTTSEnd, api.EventDataURL, "tts_file"))
	player.completion()

	if ended != 0 || len(posted) != 1 {
		t.Fatalf("Expected completion deferred to Post, ended=%d posted=%d", ended, len(posted))
	}
	posted[0]()
	if ended != 1 {
		t.Errorf("Expected ended once, got %d", ended)
	}
}
