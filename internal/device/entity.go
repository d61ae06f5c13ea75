package device

import (
	"github.com/lexiqai/voice-satellite/internal/audio"
	"github.com/lexiqai/voice-satellite/internal/esphome/api"
)

// Entity is a controller-visible component of the device. Implementations
// translate protocol commands into capability calls and report their state.
type Entity interface {
	Key() uint32
	// Describe returns the ListEntities*Response announcing the entity.
	Describe() api.Message
	// HandleMessage applies msg if it targets this entity and reports
	// whether it did.
	HandleMessage(msg api.Message) bool
	// CurrentState returns the *StateResponse for the entity.
	CurrentState() api.Message
}

// Entity keys and object ids.
const (
	MediaPlayerKey      uint32 = 0
	MediaPlayerName            = "Media Player"
	MediaPlayerObjectID        = "media_player"

	MuteSwitchKey      uint32 = 1
	MuteSwitchName            = "Mute Microphone"
	MuteSwitchObjectID        = "mute_microphone"
)

// MediaBackend is the playback capability behind the media player entity.
type MediaBackend interface {
	PlayMedia(url string)
	Pause()
	Unpause()
	Stop()
	Volume() float32
	SetVolume(volume float32)
	Muted() bool
	SetMuted(muted bool)
	MediaState() audio.PlayerState
}

// MediaPlayer exposes background media playback, volume and mute.
type MediaPlayer struct {
	backend   MediaBackend
	uniqueID  string
	sampleHz  uint32
	formatExt string
}

// NewMediaPlayer creates the media player entity. uniqueID is usually derived
// from the device MAC address.
func NewMediaPlayer(backend MediaBackend, uniqueID string) *MediaPlayer {
	return &MediaPlayer{
		backend:   backend,
		uniqueID:  uniqueID,
		sampleHz:  audio.SampleRate,
		formatExt: "wav",
	}
}

func (m *MediaPlayer) Key() uint32 { return MediaPlayerKey }

func (m *MediaPlayer) Describe() api.Message {
	format := func(purpose api.MediaPlayerFormatPurpose) api.MediaPlayerSupportedFormat {
		return api.MediaPlayerSupportedFormat{
			Format:      m.formatExt,
			SampleRate:  m.sampleHz,
			NumChannels: audio.Channels,
			Purpose:     purpose,
			SampleBytes: audio.SampleBytes,
		}
	}
	return &api.ListEntitiesMediaPlayerResponse{
		ObjectID:      MediaPlayerObjectID,
		Key:           MediaPlayerKey,
		Name:          MediaPlayerName,
		UniqueID:      m.uniqueID + MediaPlayerObjectID,
		SupportsPause: true,
		SupportedFormats: []api.MediaPlayerSupportedFormat{
			format(api.MediaPlayerFormatPurposeDefault),
			format(api.MediaPlayerFormatPurposeAnnouncement),
		},
	}
}

func (m *MediaPlayer) HandleMessage(msg api.Message) bool {
	cmd, ok := msg.(*api.MediaPlayerCommandRequest)
	if !ok || cmd.Key != MediaPlayerKey {
		return false
	}

	switch {
	case cmd.HasMediaURL:
		m.backend.PlayMedia(cmd.MediaURL)
	case cmd.HasCommand:
		switch cmd.Command {
		case api.MediaPlayerCommandPause:
			m.backend.Pause()
		case api.MediaPlayerCommandPlay:
			m.backend.Unpause()
		case api.MediaPlayerCommandStop:
			m.backend.Stop()
		case api.MediaPlayerCommandMute:
			m.backend.SetMuted(true)
		case api.MediaPlayerCommandUnmute:
			m.backend.SetMuted(false)
		}
	case cmd.HasVolume:
		m.backend.SetVolume(cmd.Volume)
	}
	return true
}

func (m *MediaPlayer) CurrentState() api.Message {
	return &api.MediaPlayerStateResponse{
		Key:    MediaPlayerKey,
		State:  mediaPlayerState(m.backend.MediaState()),
		Volume: m.backend.Volume(),
		Muted:  m.backend.Muted(),
	}
}

func mediaPlayerState(s audio.PlayerState) api.MediaPlayerState {
	switch s {
	case audio.PlayerPlaying:
		return api.MediaPlayerStatePlaying
	case audio.PlayerPaused:
		return api.MediaPlayerStatePaused
	default:
		return api.MediaPlayerStateIdle
	}
}

// Switch is a boolean entity backed by a getter and a setter.
type Switch struct {
	key      uint32
	name     string
	objectID string
	uniqueID string
	icon     string
	get      func() bool
	set      func(bool)
}

// NewMuteSwitch creates the "Mute Microphone" switch.
func NewMuteSwitch(uniqueID string, get func() bool, set func(bool)) *Switch {
	return &Switch{
		key:      MuteSwitchKey,
		name:     MuteSwitchName,
		objectID: MuteSwitchObjectID,
		uniqueID: uniqueID + MuteSwitchObjectID,
		icon:     "mdi:microphone-off",
		get:      get,
		set:      set,
	}
}

func (s *Switch) Key() uint32 { return s.key }

func (s *Switch) Describe() api.Message {
	return &api.ListEntitiesSwitchResponse{
		ObjectID:       s.objectID,
		Key:            s.key,
		Name:           s.name,
		UniqueID:       s.uniqueID,
		Icon:           s.icon,
		EntityCategory: api.EntityCategoryConfig,
	}
}

func (s *Switch) HandleMessage(msg api.Message) bool {
	cmd, ok := msg.(*api.SwitchCommandRequest)
	if !ok || cmd.Key != s.key {
		return false
	}
	s.set(cmd.State)
	return true
}

func (s *Switch) CurrentState() api.Message {
	return &api.SwitchStateResponse{Key: s.key, State: s.get()}
}
