package api

// Message is one record of the native API message catalogue. The set of
// implementations is closed: only types in this package satisfy it.
type Message interface {
	Type() MessageType
	marshal(b []byte) []byte
	unmarshal(b []byte) error
}

// Unknown carries a message whose type is not part of the catalogue.
type Unknown struct {
	MsgType MessageType
	Payload []byte
}

func (m *Unknown) Type() MessageType       { return m.MsgType }
func (m *Unknown) marshal(b []byte) []byte { return append(b, m.Payload...) }

func (m *Unknown) unmarshal(b []byte) error {
	m.Payload = append([]byte(nil), b...)
	return nil
}

// empty implements the codec for messages without fields.
type empty struct{}

func (empty) marshal(b []byte) []byte { return b }
func (empty) unmarshal(b []byte) error {
	return walk(b, func(field) error { return nil })
}

type HelloRequest struct {
	ClientInfo      string
	APIVersionMajor uint32
	APIVersionMinor uint32
}

func (m *HelloRequest) Type() MessageType { return TypeHelloRequest }

func (m *HelloRequest) marshal(b []byte) []byte {
	b = appendString(b, 1, m.ClientInfo)
	b = appendUint32(b, 2, m.APIVersionMajor)
	return appendUint32(b, 3, m.APIVersionMinor)
}

func (m *HelloRequest) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.ClientInfo, err = f.string()
		case 2:
			m.APIVersionMajor, err = f.uint32()
		case 3:
			m.APIVersionMinor, err = f.uint32()
		}
		return err
	})
}

type HelloResponse struct {
	APIVersionMajor uint32
	APIVersionMinor uint32
	ServerInfo      string
	Name            string
}

func (m *HelloResponse) Type() MessageType { return TypeHelloResponse }

func (m *HelloResponse) marshal(b []byte) []byte {
	b = appendUint32(b, 1, m.APIVersionMajor)
	b = appendUint32(b, 2, m.APIVersionMinor)
	b = appendString(b, 3, m.ServerInfo)
	return appendString(b, 4, m.Name)
}

func (m *HelloResponse) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.APIVersionMajor, err = f.uint32()
		case 2:
			m.APIVersionMinor, err = f.uint32()
		case 3:
			m.ServerInfo, err = f.string()
		case 4:
			m.Name, err = f.string()
		}
		return err
	})
}

type ConnectRequest struct {
	Password string
}

func (m *ConnectRequest) Type() MessageType { return TypeConnectRequest }

func (m *ConnectRequest) marshal(b []byte) []byte { return appendString(b, 1, m.Password) }

func (m *ConnectRequest) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		if f.num == 1 {
			m.Password, err = f.string()
		}
		return err
	})
}

type ConnectResponse struct {
	InvalidPassword bool
}

func (m *ConnectResponse) Type() MessageType { return TypeConnectResponse }

func (m *ConnectResponse) marshal(b []byte) []byte { return appendBool(b, 1, m.InvalidPassword) }

func (m *ConnectResponse) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		if f.num == 1 {
			m.InvalidPassword, err = f.boolean()
		}
		return err
	})
}

type DisconnectRequest struct{ empty }

func (m *DisconnectRequest) Type() MessageType { return TypeDisconnectRequest }

type DisconnectResponse struct{ empty }

func (m *DisconnectResponse) Type() MessageType { return TypeDisconnectResponse }

type PingRequest struct{ empty }

func (m *PingRequest) Type() MessageType { return TypePingRequest }

type PingResponse struct{ empty }

func (m *PingResponse) Type() MessageType { return TypePingResponse }

type DeviceInfoRequest struct{ empty }

func (m *DeviceInfoRequest) Type() MessageType { return TypeDeviceInfoRequest }

type DeviceInfoResponse struct {
	UsesPassword               bool
	Name                       string
	MacAddress                 string
	ESPHomeVersion             string
	CompilationTime            string
	Model                      string
	HasDeepSleep               bool
	ProjectName                string
	ProjectVersion             string
	WebserverPort              uint32
	Manufacturer               string
	FriendlyName               string
	SuggestedArea              string
	VoiceAssistantFeatureFlags uint32
}

func (m *DeviceInfoResponse) Type() MessageType { return TypeDeviceInfoResponse }

func (m *DeviceInfoResponse) marshal(b []byte) []byte {
	b = appendBool(b, 1, m.UsesPassword)
	b = appendString(b, 2, m.Name)
	b = appendString(b, 3, m.MacAddress)
	b = appendString(b, 4, m.ESPHomeVersion)
	b = appendString(b, 5, m.CompilationTime)
	b = appendString(b, 6, m.Model)
	b = appendBool(b, 7, m.HasDeepSleep)
	b = appendString(b, 8, m.ProjectName)
	b = appendString(b, 9, m.ProjectVersion)
	b = appendUint32(b, 10, m.WebserverPort)
	b = appendString(b, 12, m.Manufacturer)
	b = appendString(b, 13, m.FriendlyName)
	b = appendString(b, 16, m.SuggestedArea)
	return appendUint32(b, 17, m.VoiceAssistantFeatureFlags)
}

func (m *DeviceInfoResponse) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.UsesPassword, err = f.boolean()
		case 2:
			m.Name, err = f.string()
		case 3:
			m.MacAddress, err = f.string()
		case 4:
			m.ESPHomeVersion, err = f.string()
		case 5:
			m.CompilationTime, err = f.string()
		case 6:
			m.Model, err = f.string()
		case 7:
			m.HasDeepSleep, err = f.boolean()
		case 8:
			m.ProjectName, err = f.string()
		case 9:
			m.ProjectVersion, err = f.string()
		case 10:
			m.WebserverPort, err = f.uint32()
		case 12:
			m.Manufacturer, err = f.string()
		case 13:
			m.FriendlyName, err = f.string()
		case 16:
			m.SuggestedArea, err = f.string()
		case 17:
			m.VoiceAssistantFeatureFlags, err = f.uint32()
		}
		return err
	})
}

type ListEntitiesRequest struct{ empty }

func (m *ListEntitiesRequest) Type() MessageType { return TypeListEntitiesRequest }

type ListEntitiesDoneResponse struct{ empty }

func (m *ListEntitiesDoneResponse) Type() MessageType { return TypeListEntitiesDoneResponse }

type SubscribeStatesRequest struct{ empty }

func (m *SubscribeStatesRequest) Type() MessageType { return TypeSubscribeStatesRequest }

type SubscribeHomeAssistantStatesRequest struct{ empty }

func (m *SubscribeHomeAssistantStatesRequest) Type() MessageType {
	return TypeSubscribeHomeAssistantStatesRequest
}

type ListEntitiesSwitchResponse struct {
	ObjectID          string
	Key               uint32
	Name              string
	UniqueID          string
	Icon              string
	AssumedState      bool
	DisabledByDefault bool
	EntityCategory    EntityCategory
	DeviceClass       string
}

func (m *ListEntitiesSwitchResponse) Type() MessageType { return TypeListEntitiesSwitchResponse }

func (m *ListEntitiesSwitchResponse) marshal(b []byte) []byte {
	b = appendString(b, 1, m.ObjectID)
	b = appendFixed32(b, 2, m.Key)
	b = appendString(b, 3, m.Name)
	b = appendString(b, 4, m.UniqueID)
	b = appendString(b, 5, m.Icon)
	b = appendBool(b, 6, m.AssumedState)
	b = appendBool(b, 7, m.DisabledByDefault)
	b = appendUint32(b, 8, uint32(m.EntityCategory))
	return appendString(b, 9, m.DeviceClass)
}

func (m *ListEntitiesSwitchResponse) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.ObjectID, err = f.string()
		case 2:
			m.Key, err = f.fixed32()
		case 3:
			m.Name, err = f.string()
		case 4:
			m.UniqueID, err = f.string()
		case 5:
			m.Icon, err = f.string()
		case 6:
			m.AssumedState, err = f.boolean()
		case 7:
			m.DisabledByDefault, err = f.boolean()
		case 8:
			var v uint32
			v, err = f.uint32()
			m.EntityCategory = EntityCategory(v)
		case 9:
			m.DeviceClass, err = f.string()
		}
		return err
	})
}

type SwitchStateResponse struct {
	Key   uint32
	State bool
}

func (m *SwitchStateResponse) Type() MessageType { return TypeSwitchStateResponse }

func (m *SwitchStateResponse) marshal(b []byte) []byte {
	b = appendFixed32(b, 1, m.Key)
	return appendBool(b, 2, m.State)
}

func (m *SwitchStateResponse) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Key, err = f.fixed32()
		case 2:
			m.State, err = f.boolean()
		}
		return err
	})
}

type SwitchCommandRequest struct {
	Key   uint32
	State bool
}

func (m *SwitchCommandRequest) Type() MessageType { return TypeSwitchCommandRequest }

func (m *SwitchCommandRequest) marshal(b []byte) []byte {
	b = appendFixed32(b, 1, m.Key)
	return appendBool(b, 2, m.State)
}

func (m *SwitchCommandRequest) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Key, err = f.fixed32()
		case 2:
			m.State, err = f.boolean()
		}
		return err
	})
}

// MediaPlayerSupportedFormat advertises an audio format the player accepts.
type MediaPlayerSupportedFormat struct {
	Format      string
	SampleRate  uint32
	NumChannels uint32
	Purpose     MediaPlayerFormatPurpose
	SampleBytes uint32
}

func (m *MediaPlayerSupportedFormat) marshal(b []byte) []byte {
	b = appendString(b, 1, m.Format)
	b = appendUint32(b, 2, m.SampleRate)
	b = appendUint32(b, 3, m.NumChannels)
	b = appendUint32(b, 4, uint32(m.Purpose))
	return appendUint32(b, 5, m.SampleBytes)
}

func (m *MediaPlayerSupportedFormat) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Format, err = f.string()
		case 2:
			m.SampleRate, err = f.uint32()
		case 3:
			m.NumChannels, err = f.uint32()
		case 4:
			var v uint32
			v, err = f.uint32()
			m.Purpose = MediaPlayerFormatPurpose(v)
		case 5:
			m.SampleBytes, err = f.uint32()
		}
		return err
	})
}

type ListEntitiesMediaPlayerResponse struct {
	ObjectID          string
	Key               uint32
	Name              string
	UniqueID          string
	Icon              string
	DisabledByDefault bool
	EntityCategory    EntityCategory
	SupportsPause     bool
	SupportedFormats  []MediaPlayerSupportedFormat
}

func (m *ListEntitiesMediaPlayerResponse) Type() MessageType {
	return TypeListEntitiesMediaPlayerResponse
}

func (m *ListEntitiesMediaPlayerResponse) marshal(b []byte) []byte {
	b = appendString(b, 1, m.ObjectID)
	b = appendFixed32(b, 2, m.Key)
	b = appendString(b, 3, m.Name)
	b = appendString(b, 4, m.UniqueID)
	b = appendString(b, 5, m.Icon)
	b = appendBool(b, 6, m.DisabledByDefault)
	b = appendUint32(b, 7, uint32(m.EntityCategory))
	b = appendBool(b, 8, m.SupportsPause)
	for i := range m.SupportedFormats {
		b = appendEmbedded(b, 9, m.SupportedFormats[i].marshal(nil))
	}
	return b
}

func (m *ListEntitiesMediaPlayerResponse) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.ObjectID, err = f.string()
		case 2:
			m.Key, err = f.fixed32()
		case 3:
			m.Name, err = f.string()
		case 4:
			m.UniqueID, err = f.string()
		case 5:
			m.Icon, err = f.string()
		case 6:
			m.DisabledByDefault, err = f.boolean()
		case 7:
			var v uint32
			v, err = f.uint32()
			m.EntityCategory = EntityCategory(v)
		case 8:
			m.SupportsPause, err = f.boolean()
		case 9:
			var raw []byte
			if raw, err = f.bytes(); err != nil {
				return err
			}
			var format MediaPlayerSupportedFormat
			if err = format.unmarshal(raw); err != nil {
				return err
			}
			m.SupportedFormats = append(m.SupportedFormats, format)
		}
		return err
	})
}

type MediaPlayerStateResponse struct {
	Key    uint32
	State  MediaPlayerState
	Volume float32
	Muted  bool
}

func (m *MediaPlayerStateResponse) Type() MessageType { return TypeMediaPlayerStateResponse }

func (m *MediaPlayerStateResponse) marshal(b []byte) []byte {
	b = appendFixed32(b, 1, m.Key)
	b = appendUint32(b, 2, uint32(m.State))
	b = appendFloat(b, 3, m.Volume)
	return appendBool(b, 4, m.Muted)
}

func (m *MediaPlayerStateResponse) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Key, err = f.fixed32()
		case 2:
			var v uint32
			v, err = f.uint32()
			m.State = MediaPlayerState(v)
		case 3:
			m.Volume, err = f.float32()
		case 4:
			m.Muted, err = f.boolean()
		}
		return err
	})
}

type MediaPlayerCommandRequest struct {
	Key             uint32
	HasCommand      bool
	Command         MediaPlayerCommand
	HasVolume       bool
	Volume          float32
	HasMediaURL     bool
	MediaURL        string
	HasAnnouncement bool
	Announcement    bool
}

func (m *MediaPlayerCommandRequest) Type() MessageType { return TypeMediaPlayerCommandRequest }

func (m *MediaPlayerCommandRequest) marshal(b []byte) []byte {
	b = appendFixed32(b, 1, m.Key)
	b = appendBool(b, 2, m.HasCommand)
	b = appendUint32(b, 3, uint32(m.Command))
	b = appendBool(b, 4, m.HasVolume)
	b = appendFloat(b, 5, m.Volume)
	b = appendBool(b, 6, m.HasMediaURL)
	b = appendString(b, 7, m.MediaURL)
	b = appendBool(b, 8, m.HasAnnouncement)
	return appendBool(b, 9, m.Announcement)
}

func (m *MediaPlayerCommandRequest) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Key, err = f.fixed32()
		case 2:
			m.HasCommand, err = f.boolean()
		case 3:
			var v uint32
			v, err = f.uint32()
			m.Command = MediaPlayerCommand(v)
		case 4:
			m.HasVolume, err = f.boolean()
		case 5:
			m.Volume, err = f.float32()
		case 6:
			m.HasMediaURL, err = f.boolean()
		case 7:
			m.MediaURL, err = f.string()
		case 8:
			m.HasAnnouncement, err = f.boolean()
		case 9:
			m.Announcement, err = f.boolean()
		}
		return err
	})
}

type SubscribeVoiceAssistantRequest struct {
	Subscribe bool
	Flags     uint32
}

func (m *SubscribeVoiceAssistantRequest) Type() MessageType {
	return TypeSubscribeVoiceAssistantRequest
}

func (m *SubscribeVoiceAssistantRequest) marshal(b []byte) []byte {
	b = appendBool(b, 1, m.Subscribe)
	return appendUint32(b, 2, m.Flags)
}

func (m *SubscribeVoiceAssistantRequest) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Subscribe, err = f.boolean()
		case 2:
			m.Flags, err = f.uint32()
		}
		return err
	})
}

// VoiceAssistantRequest asks the controller to start (or stop) a pipeline run.
type VoiceAssistantRequest struct {
	Start          bool
	ConversationID string
	Flags          uint32
	WakeWordPhrase string
}

func (m *VoiceAssistantRequest) Type() MessageType { return TypeVoiceAssistantRequest }

func (m *VoiceAssistantRequest) marshal(b []byte) []byte {
	b = appendBool(b, 1, m.Start)
	b = appendString(b, 2, m.ConversationID)
	b = appendUint32(b, 3, m.Flags)
	return appendString(b, 5, m.WakeWordPhrase)
}

func (m *VoiceAssistantRequest) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Start, err = f.boolean()
		case 2:
			m.ConversationID, err = f.string()
		case 3:
			m.Flags, err = f.uint32()
		case 5:
			m.WakeWordPhrase, err = f.string()
		}
		return err
	})
}

type VoiceAssistantResponse struct {
	Port  uint32
	Error bool
}

func (m *VoiceAssistantResponse) Type() MessageType { return TypeVoiceAssistantResponse }

func (m *VoiceAssistantResponse) marshal(b []byte) []byte {
	b = appendUint32(b, 1, m.Port)
	return appendBool(b, 2, m.Error)
}

func (m *VoiceAssistantResponse) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Port, err = f.uint32()
		case 2:
			m.Error, err = f.boolean()
		}
		return err
	})
}

type VoiceAssistantEventData struct {
	Name  string
	Value string
}

func (m *VoiceAssistantEventData) marshal(b []byte) []byte {
	b = appendString(b, 1, m.Name)
	return appendString(b, 2, m.Value)
}

func (m *VoiceAssistantEventData) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Name, err = f.string()
		case 2:
			m.Value, err = f.string()
		}
		return err
	})
}

type VoiceAssistantEventResponse struct {
	EventType VoiceAssistantEvent
	Data      []VoiceAssistantEventData
}

func (m *VoiceAssistantEventResponse) Type() MessageType { return TypeVoiceAssistantEventResponse }

// Value returns the first data value stored under name.
func (m *VoiceAssistantEventResponse) Value(name string) (string, bool) {
	for _, d := range m.Data {
		if d.Name == name {
			return d.Value, true
		}
	}
	return "", false
}

func (m *VoiceAssistantEventResponse) marshal(b []byte) []byte {
	b = appendUint32(b, 1, uint32(m.EventType))
	for i := range m.Data {
		b = appendEmbedded(b, 2, m.Data[i].marshal(nil))
	}
	return b
}

func (m *VoiceAssistantEventResponse) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			var v uint32
			v, err = f.uint32()
			m.EventType = VoiceAssistantEvent(v)
		case 2:
			var raw []byte
			if raw, err = f.bytes(); err != nil {
				return err
			}
			var d VoiceAssistantEventData
			if err = d.unmarshal(raw); err != nil {
				return err
			}
			m.Data = append(m.Data, d)
		}
		return err
	})
}

// VoiceAssistantAudio carries one block of raw 16 kHz mono PCM16.
type VoiceAssistantAudio struct {
	Data []byte
	End  bool
}

func (m *VoiceAssistantAudio) Type() MessageType { return TypeVoiceAssistantAudio }

func (m *VoiceAssistantAudio) marshal(b []byte) []byte {
	b = appendBytes(b, 1, m.Data)
	return appendBool(b, 2, m.End)
}

func (m *VoiceAssistantAudio) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Data, err = f.bytes()
		case 2:
			m.End, err = f.boolean()
		}
		return err
	})
}

type VoiceAssistantTimerEventResponse struct {
	EventType    VoiceAssistantTimerEvent
	TimerID      string
	Name         string
	TotalSeconds uint32
	SecondsLeft  uint32
	IsActive     bool
}

func (m *VoiceAssistantTimerEventResponse) Type() MessageType {
	return TypeVoiceAssistantTimerEventResponse
}

func (m *VoiceAssistantTimerEventResponse) marshal(b []byte) []byte {
	b = appendUint32(b, 1, uint32(m.EventType))
	b = appendString(b, 2, m.TimerID)
	b = appendString(b, 3, m.Name)
	b = appendUint32(b, 4, m.TotalSeconds)
	b = appendUint32(b, 5, m.SecondsLeft)
	return appendBool(b, 6, m.IsActive)
}

func (m *VoiceAssistantTimerEventResponse) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			var v uint32
			v, err = f.uint32()
			m.EventType = VoiceAssistantTimerEvent(v)
		case 2:
			m.TimerID, err = f.string()
		case 3:
			m.Name, err = f.string()
		case 4:
			m.TotalSeconds, err = f.uint32()
		case 5:
			m.SecondsLeft, err = f.uint32()
		case 6:
			m.IsActive, err = f.boolean()
		}
		return err
	})
}

type VoiceAssistantAnnounceRequest struct {
	MediaID            string
	Text               string
	PreannounceMediaID string
	StartConversation  bool
}

func (m *VoiceAssistantAnnounceRequest) Type() MessageType {
	return TypeVoiceAssistantAnnounceRequest
}

func (m *VoiceAssistantAnnounceRequest) marshal(b []byte) []byte {
	b = appendString(b, 1, m.MediaID)
	b = appendString(b, 2, m.Text)
	b = appendString(b, 3, m.PreannounceMediaID)
	return appendBool(b, 4, m.StartConversation)
}

func (m *VoiceAssistantAnnounceRequest) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.MediaID, err = f.string()
		case 2:
			m.Text, err = f.string()
		case 3:
			m.PreannounceMediaID, err = f.string()
		case 4:
			m.StartConversation, err = f.boolean()
		}
		return err
	})
}

type VoiceAssistantAnnounceFinished struct {
	Success bool
}

func (m *VoiceAssistantAnnounceFinished) Type() MessageType {
	return TypeVoiceAssistantAnnounceFinished
}

func (m *VoiceAssistantAnnounceFinished) marshal(b []byte) []byte {
	return appendBool(b, 1, m.Success)
}

func (m *VoiceAssistantAnnounceFinished) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		if f.num == 1 {
			m.Success, err = f.boolean()
		}
		return err
	})
}

type VoiceAssistantWakeWord struct {
	ID               string
	WakeWord         string
	TrainedLanguages []string
}

func (m *VoiceAssistantWakeWord) marshal(b []byte) []byte {
	b = appendString(b, 1, m.ID)
	b = appendString(b, 2, m.WakeWord)
	for _, lang := range m.TrainedLanguages {
		b = appendString(b, 3, lang)
	}
	return b
}

func (m *VoiceAssistantWakeWord) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.ID, err = f.string()
		case 2:
			m.WakeWord, err = f.string()
		case 3:
			var lang string
			lang, err = f.string()
			m.TrainedLanguages = append(m.TrainedLanguages, lang)
		}
		return err
	})
}

type VoiceAssistantConfigurationRequest struct{ empty }

func (m *VoiceAssistantConfigurationRequest) Type() MessageType {
	return TypeVoiceAssistantConfigurationRequest
}

type VoiceAssistantConfigurationResponse struct {
	AvailableWakeWords []VoiceAssistantWakeWord
	ActiveWakeWords    []string
	MaxActiveWakeWords uint32
}

func (m *VoiceAssistantConfigurationResponse) Type() MessageType {
	return TypeVoiceAssistantConfigurationResponse
}

func (m *VoiceAssistantConfigurationResponse) marshal(b []byte) []byte {
	for i := range m.AvailableWakeWords {
		b = appendEmbedded(b, 1, m.AvailableWakeWords[i].marshal(nil))
	}
	for _, id := range m.ActiveWakeWords {
		b = appendString(b, 2, id)
	}
	return appendUint32(b, 3, m.MaxActiveWakeWords)
}

func (m *VoiceAssistantConfigurationResponse) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		switch f.num {
		case 1:
			var raw []byte
			if raw, err = f.bytes(); err != nil {
				return err
			}
			var w VoiceAssistantWakeWord
			if err = w.unmarshal(raw); err != nil {
				return err
			}
			m.AvailableWakeWords = append(m.AvailableWakeWords, w)
		case 2:
			var id string
			id, err = f.string()
			m.ActiveWakeWords = append(m.ActiveWakeWords, id)
		case 3:
			m.MaxActiveWakeWords, err = f.uint32()
		}
		return err
	})
}

type VoiceAssistantSetConfiguration struct {
	ActiveWakeWords []string
}

func (m *VoiceAssistantSetConfiguration) Type() MessageType {
	return TypeVoiceAssistantSetConfiguration
}

func (m *VoiceAssistantSetConfiguration) marshal(b []byte) []byte {
	for _, id := range m.ActiveWakeWords {
		b = appendString(b, 1, id)
	}
	return b
}

func (m *VoiceAssistantSetConfiguration) unmarshal(b []byte) error {
	return walk(b, func(f field) (err error) {
		if f.num == 1 {
			var id string
			id, err = f.string()
			m.ActiveWakeWords = append(m.ActiveWakeWords, id)
		}
		return err
	})
}
