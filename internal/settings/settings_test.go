package settings

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

var macPattern = regexp.MustCompile(`^([0-9A-F]{2}:){5}[0-9A-F]{2}$`)

func TestOpen_CreatesDefaultsWithMAC(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := Open(zerolog.Nop(), fs, "/data/satellite.yaml")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	got := s.Get()
	if got.WakeWord != "okay_nabu" || got.StopWord != "stop" {
		t.Errorf("Expected default words, got %q/%q", got.WakeWord, got.StopWord)
	}
	if got.Volume != 1.0 || !got.EnableWakeSound || !got.RepeatTimerFinishedSound {
		t.Errorf("Unexpected defaults: %+v", got)
	}
	if !macPattern.MatchString(got.MACAddress) {
		t.Errorf("Expected MAC address, got %q", got.MACAddress)
	}
	if ok, _ := afero.Exists(fs, "/data/satellite.yaml"); !ok {
		t.Error("Expected settings file to be written")
	}
	if ok, _ := afero.Exists(fs, "/data/satellite.yaml.tmp"); ok {
		t.Error("Expected temporary file to be renamed away")
	}
}

func TestOpen_KeepsMACAcrossRestarts(t *testing.T) {
	fs := afero.NewMemMapFs()
	first, err := Open(zerolog.Nop(), fs, "satellite.yaml")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	second, err := Open(zerolog.Nop(), fs, "satellite.yaml")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if first.Get().MACAddress != second.Get().MACAddress {
		t.Errorf("Expected MAC %s, got %s", first.Get().MACAddress, second.Get().MACAddress)
	}
}

func TestOpen_ReadsExistingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "satellite.yaml", []byte("mac_address: 02:00:00:00:00:01\nwake_word: hey_jarvis\nmuted: true\n"), 0o644)

	s, err := Open(zerolog.Nop(), fs, "satellite.yaml")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	got := s.Get()
	if got.WakeWord != "hey_jarvis" || !got.Muted || got.MACAddress != "02:00:00:00:00:01" {
		t.Errorf("Unexpected settings: %+v", got)
	}
	// Fields missing from the file keep their defaults.
	if got.StopWord != "stop" {
		t.Errorf("Expected default stop word, got %q", got.StopWord)
	}
}

func TestOpen_InvalidYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "satellite.yaml", []byte("wake_word: [unterminated"), 0o644)
	if _, err := Open(zerolog.Nop(), fs, "satellite.yaml"); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestUpdate_Persists(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, _ := Open(zerolog.Nop(), fs, "satellite.yaml")

	if err := s.SaveWakeWord("hey_mycroft"); err != nil {
		t.Fatalf("SaveWakeWord returned error: %v", err)
	}
	if err := s.SaveMuted(true); err != nil {
		t.Fatalf("SaveMuted returned error: %v", err)
	}
	if err := s.SaveVolume(0.25); err != nil {
		t.Fatalf("SaveVolume returned error: %v", err)
	}

	reopened, err := Open(zerolog.Nop(), fs, "satellite.yaml")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	got := reopened.Get()
	if got.WakeWord != "hey_mycroft" || !got.Muted || got.Volume != 0.25 {
		t.Errorf("Expected persisted updates, got %+v", got)
	}
}

func TestUpdate_FailedWriteKeepsState(t *testing.T) {
	base := afero.NewMemMapFs()
	s, _ := Open(zerolog.Nop(), base, "satellite.yaml")
	s.fs = afero.NewReadOnlyFs(base)

	if err := s.SaveMuted(true); err == nil {
		t.Fatal("Expected error on read-only filesystem")
	}
	if s.Get().Muted {
		t.Error("Expected in-memory settings unchanged after failed write")
	}
}

func TestWakeWords(t *testing.T) {
	st := Defaults()
	if ids := st.WakeWords(); len(ids) != 1 || ids[0] != "okay_nabu" {
		t.Errorf("Expected [okay_nabu], got %v", ids)
	}
	st.SecondWakeWord = "hey_jarvis"
	if ids := st.WakeWords(); len(ids) != 2 || ids[1] != "hey_jarvis" {
		t.Errorf("Expected [okay_nabu hey_jarvis], got %v", ids)
	}
}

func TestNewMACAddress_LocallyAdministeredUnicast(t *testing.T) {
	for i := 0; i < 20; i++ {
		mac, err := NewMACAddress()
		if err != nil {
			t.Fatalf("NewMACAddress returned error: %v", err)
		}
		first, err := strconv.ParseUint(mac[:2], 16, 8)
		if err != nil {
			t.Fatalf("Bad MAC %q: %v", mac, err)
		}
		if first&0x02 == 0 || first&0x01 != 0 {
			t.Errorf("Expected locally administered unicast, got %s", mac)
		}
	}
}
