package api

import "fmt"

// MessageType is the numeric message id carried in every frame header.
type MessageType uint32

const (
	TypeHelloRequest                        MessageType = 1
	TypeHelloResponse                       MessageType = 2
	TypeConnectRequest                      MessageType = 3
	TypeConnectResponse                     MessageType = 4
	TypeDisconnectRequest                   MessageType = 5
	TypeDisconnectResponse                  MessageType = 6
	TypePingRequest                         MessageType = 7
	TypePingResponse                        MessageType = 8
	TypeDeviceInfoRequest                   MessageType = 9
	TypeDeviceInfoResponse                  MessageType = 10
	TypeListEntitiesRequest                 MessageType = 11
	TypeListEntitiesSwitchResponse          MessageType = 17
	TypeListEntitiesDoneResponse            MessageType = 19
	TypeSubscribeStatesRequest              MessageType = 20
	TypeSwitchStateResponse                 MessageType = 26
	TypeSwitchCommandRequest                MessageType = 33
	TypeSubscribeHomeAssistantStatesRequest MessageType = 38
	TypeListEntitiesMediaPlayerResponse     MessageType = 63
	TypeMediaPlayerStateResponse            MessageType = 64
	TypeMediaPlayerCommandRequest           MessageType = 65
	TypeSubscribeVoiceAssistantRequest      MessageType = 89
	TypeVoiceAssistantRequest               MessageType = 90
	TypeVoiceAssistantResponse              MessageType = 91
	TypeVoiceAssistantEventResponse         MessageType = 92
	TypeVoiceAssistantAudio                 MessageType = 106
	TypeVoiceAssistantTimerEventResponse    MessageType = 115
	TypeVoiceAssistantAnnounceRequest       MessageType = 119
	TypeVoiceAssistantAnnounceFinished      MessageType = 120
	TypeVoiceAssistantConfigurationRequest  MessageType = 121
	TypeVoiceAssistantConfigurationResponse MessageType = 122
	TypeVoiceAssistantSetConfiguration      MessageType = 123
)

var messageTypeNames = map[MessageType]string{
	TypeHelloRequest:                        "HelloRequest",
	TypeHelloResponse:                       "HelloResponse",
	TypeConnectRequest:                      "ConnectRequest",
	TypeConnectResponse:                     "ConnectResponse",
	TypeDisconnectRequest:                   "DisconnectRequest",
	TypeDisconnectResponse:                  "DisconnectResponse",
	TypePingRequest:                         "PingRequest",
	TypePingResponse:                        "PingResponse",
	TypeDeviceInfoRequest:                   "DeviceInfoRequest",
	TypeDeviceInfoResponse:                  "DeviceInfoResponse",
	TypeListEntitiesRequest:                 "ListEntitiesRequest",
	TypeListEntitiesSwitchResponse:          "ListEntitiesSwitchResponse",
	TypeListEntitiesDoneResponse:            "ListEntitiesDoneResponse",
	TypeSubscribeStatesRequest:              "SubscribeStatesRequest",
	TypeSwitchStateResponse:                 "SwitchStateResponse",
	TypeSwitchCommandRequest:                "SwitchCommandRequest",
	TypeSubscribeHomeAssistantStatesRequest: "SubscribeHomeAssistantStatesRequest",
	TypeListEntitiesMediaPlayerResponse:     "ListEntitiesMediaPlayerResponse",
	TypeMediaPlayerStateResponse:            "MediaPlayerStateResponse",
	TypeMediaPlayerCommandRequest:           "MediaPlayerCommandRequest",
	TypeSubscribeVoiceAssistantRequest:      "SubscribeVoiceAssistantRequest",
	TypeVoiceAssistantRequest:               "VoiceAssistantRequest",
	TypeVoiceAssistantResponse:              "VoiceAssistantResponse",
	TypeVoiceAssistantEventResponse:         "VoiceAssistantEventResponse",
	TypeVoiceAssistantAudio:                 "VoiceAssistantAudio",
	TypeVoiceAssistantTimerEventResponse:    "VoiceAssistantTimerEventResponse",
	TypeVoiceAssistantAnnounceRequest:       "VoiceAssistantAnnounceRequest",
	TypeVoiceAssistantAnnounceFinished:      "VoiceAssistantAnnounceFinished",
	TypeVoiceAssistantConfigurationRequest:  "VoiceAssistantConfigurationRequest",
	TypeVoiceAssistantConfigurationResponse: "VoiceAssistantConfigurationResponse",
	TypeVoiceAssistantSetConfiguration:      "VoiceAssistantSetConfiguration",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MessageType(%d)", uint32(t))
}

// EntityCategory of an entity in the controller UI.
type EntityCategory uint32

const (
	EntityCategoryNone EntityCategory = iota
	EntityCategoryConfig
	EntityCategoryDiagnostic
)

// MediaPlayerState as reported in MediaPlayerStateResponse.
type MediaPlayerState uint32

const (
	MediaPlayerStateNone MediaPlayerState = iota
	MediaPlayerStateIdle
	MediaPlayerStatePlaying
	MediaPlayerStatePaused
)

// MediaPlayerCommand carried by MediaPlayerCommandRequest.
type MediaPlayerCommand uint32

const (
	MediaPlayerCommandPlay MediaPlayerCommand = iota
	MediaPlayerCommandPause
	MediaPlayerCommandStop
	MediaPlayerCommandMute
	MediaPlayerCommandUnmute
)

// MediaPlayerFormatPurpose tells the controller which stream a format applies to.
type MediaPlayerFormatPurpose uint32

const (
	MediaPlayerFormatPurposeDefault MediaPlayerFormatPurpose = iota
	MediaPlayerFormatPurposeAnnouncement
)

// VoiceAssistantEvent is the lifecycle event type of a pipeline run.
type VoiceAssistantEvent uint32

const (
	VoiceAssistantEventError          VoiceAssistantEvent = 0
	VoiceAssistantEventRunStart       VoiceAssistantEvent = 1
	VoiceAssistantEventRunEnd         VoiceAssistantEvent = 2
	VoiceAssistantEventSTTStart       VoiceAssistantEvent = 3
	VoiceAssistantEventSTTEnd         VoiceAssistantEvent = 4
	VoiceAssistantEventIntentStart    VoiceAssistantEvent = 5
	VoiceAssistantEventIntentEnd      VoiceAssistantEvent = 6
	VoiceAssistantEventTTSStart       VoiceAssistantEvent = 7
	VoiceAssistantEventTTSEnd         VoiceAssistantEvent = 8
	VoiceAssistantEventWakeWordStart  VoiceAssistantEvent = 9
	VoiceAssistantEventWakeWordEnd    VoiceAssistantEvent = 10
	VoiceAssistantEventSTTVADStart    VoiceAssistantEvent = 11
	VoiceAssistantEventSTTVADEnd      VoiceAssistantEvent = 12
	VoiceAssistantEventTTSStreamStart VoiceAssistantEvent = 98
	VoiceAssistantEventTTSStreamEnd   VoiceAssistantEvent = 99
	VoiceAssistantEventIntentProgress VoiceAssistantEvent = 100
)

var voiceAssistantEventNames = map[VoiceAssistantEvent]string{
	VoiceAssistantEventError:          "ERROR",
	VoiceAssistantEventRunStart:       "RUN_START",
	VoiceAssistantEventRunEnd:         "RUN_END",
	VoiceAssistantEventSTTStart:       "STT_START",
	VoiceAssistantEventSTTEnd:         "STT_END",
	VoiceAssistantEventIntentStart:    "INTENT_START",
	VoiceAssistantEventIntentEnd:      "INTENT_END",
	VoiceAssistantEventTTSStart:       "TTS_START",
	VoiceAssistantEventTTSEnd:         "TTS_END",
	VoiceAssistantEventWakeWordStart:  "WAKE_WORD_START",
	VoiceAssistantEventWakeWordEnd:    "WAKE_WORD_END",
	VoiceAssistantEventSTTVADStart:    "STT_VAD_START",
	VoiceAssistantEventSTTVADEnd:      "STT_VAD_END",
	VoiceAssistantEventTTSStreamStart: "TTS_STREAM_START",
	VoiceAssistantEventTTSStreamEnd:   "TTS_STREAM_END",
	VoiceAssistantEventIntentProgress: "INTENT_PROGRESS",
}

func (e VoiceAssistantEvent) String() string {
	if name, ok := voiceAssistantEventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("VoiceAssistantEvent(%d)", uint32(e))
}

// VoiceAssistantTimerEvent is the lifecycle event of a controller-side timer.
type VoiceAssistantTimerEvent uint32

const (
	VoiceAssistantTimerStarted VoiceAssistantTimerEvent = iota
	VoiceAssistantTimerUpdated
	VoiceAssistantTimerCancelled
	VoiceAssistantTimerFinished
)

func (e VoiceAssistantTimerEvent) String() string {
	switch e {
	case VoiceAssistantTimerStarted:
		return "STARTED"
	case VoiceAssistantTimerUpdated:
		return "UPDATED"
	case VoiceAssistantTimerCancelled:
		return "CANCELLED"
	case VoiceAssistantTimerFinished:
		return "FINISHED"
	}
	return fmt.Sprintf("VoiceAssistantTimerEvent(%d)", uint32(e))
}

// Voice assistant feature flags advertised in DeviceInfoResponse.
const (
	VoiceAssistantFeatureVoiceAssistant    uint32 = 1 << 0
	VoiceAssistantFeatureSpeaker           uint32 = 1 << 1
	VoiceAssistantFeatureAPIAudio          uint32 = 1 << 2
	VoiceAssistantFeatureTimers            uint32 = 1 << 3
	VoiceAssistantFeatureAnnounce          uint32 = 1 << 4
	VoiceAssistantFeatureStartConversation uint32 = 1 << 5
)

// Well-known keys of VoiceAssistantEventData.
const (
	EventDataURL                  = "url"
	EventDataTTSStartStreaming    = "tts_start_streaming"
	EventDataContinueConversation = "continue_conversation"
)
