package api

import "fmt"

// newMessage returns an empty message for t, or nil when t is not catalogued.
func newMessage(t MessageType) Message {
	switch t {
	case TypeHelloRequest:
		return &HelloRequest{}
	case TypeHelloResponse:
		return &HelloResponse{}
	case TypeConnectRequest:
		return &ConnectRequest{}
	case TypeConnectResponse:
		return &ConnectResponse{}
	case TypeDisconnectRequest:
		return &DisconnectRequest{}
	case TypeDisconnectResponse:
		return &DisconnectResponse{}
	case TypePingRequest:
		return &PingRequest{}
	case TypePingResponse:
		return &PingResponse{}
	case TypeDeviceInfoRequest:
		return &DeviceInfoRequest{}
	case TypeDeviceInfoResponse:
		return &DeviceInfoResponse{}
	case TypeListEntitiesRequest:
		return &ListEntitiesRequest{}
	case TypeListEntitiesSwitchResponse:
		return &ListEntitiesSwitchResponse{}
	case TypeListEntitiesDoneResponse:
		return &ListEntitiesDoneResponse{}
	case TypeSubscribeStatesRequest:
		return &SubscribeStatesRequest{}
	case TypeSwitchStateResponse:
		return &SwitchStateResponse{}
	case TypeSwitchCommandRequest:
		return &SwitchCommandRequest{}
	case TypeSubscribeHomeAssistantStatesRequest:
		return &SubscribeHomeAssistantStatesRequest{}
	case TypeListEntitiesMediaPlayerResponse:
		return &ListEntitiesMediaPlayerResponse{}
	case TypeMediaPlayerStateResponse:
		return &MediaPlayerStateResponse{}
	case TypeMediaPlayerCommandRequest:
		return &MediaPlayerCommandRequest{}
	case TypeSubscribeVoiceAssistantRequest:
		return &SubscribeVoiceAssistantRequest{}
	case TypeVoiceAssistantRequest:
		return &VoiceAssistantRequest{}
	case TypeVoiceAssistantResponse:
		return &VoiceAssistantResponse{}
	case TypeVoiceAssistantEventResponse:
		return &VoiceAssistantEventResponse{}
	case TypeVoiceAssistantAudio:
		return &VoiceAssistantAudio{}
	case TypeVoiceAssistantTimerEventResponse:
		return &VoiceAssistantTimerEventResponse{}
	case TypeVoiceAssistantAnnounceRequest:
		return &VoiceAssistantAnnounceRequest{}
	case TypeVoiceAssistantAnnounceFinished:
		return &VoiceAssistantAnnounceFinished{}
	case TypeVoiceAssistantConfigurationRequest:
		return &VoiceAssistantConfigurationRequest{}
	case TypeVoiceAssistantConfigurationResponse:
		return &VoiceAssistantConfigurationResponse{}
	case TypeVoiceAssistantSetConfiguration:
		return &VoiceAssistantSetConfiguration{}
	}
	return nil
}

// Encode serializes the payload of msg. The frame header is not included.
func Encode(msg Message) []byte {
	return msg.marshal(nil)
}

// Decode parses payload as a message of type t. Types outside the catalogue
// come back as *Unknown so callers can log and drop them. A payload that
// does not parse yields *Unknown and an error wrapping ErrMalformedPayload.
func Decode(t MessageType, payload []byte) (Message, error) {
	msg := newMessage(t)
	if msg == nil {
		msg = &Unknown{MsgType: t}
	}
	if err := msg.unmarshal(payload); err != nil {
		unknown := &Unknown{MsgType: t}
		unknown.unmarshal(payload)
		return unknown, fmt.Errorf("decode %s: %w: %v", t, ErrMalformedPayload, err)
	}
	return msg, nil
}
