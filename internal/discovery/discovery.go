// Package discovery advertises the native API service over mDNS so
// controllers can find the satellite without manual configuration.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-satellite/internal/observability"
	"github.com/lexiqai/voice-satellite/internal/resilience"
)

const (
	ServiceType = "_esphomelib._tcp"
	Domain      = "local."

	// Version is the firmware version reported in the TXT record.
	Version = "2025.9.0"
)

// Info describes the advertised service.
type Info struct {
	// Name is the instance name; it is normalised to an ESPHome node name.
	Name       string
	Port       int
	MACAddress string
	Platform   string
	Network    string
}

// TXT returns the TXT record entries for info.
func (i Info) TXT() []string {
	platform := i.Platform
	if platform == "" {
		platform = "host"
	}
	network := i.Network
	if network == "" {
		network = "ethernet"
	}
	return []string{
		"mac=" + strings.ToLower(strings.ReplaceAll(i.MACAddress, ":", "")),
		"version=" + Version,
		"platform=" + platform,
		"network=" + network,
	}
}

// InstanceName converts a friendly name into a DNS-safe node name.
func InstanceName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '_' || r == '-':
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "voice-satellite"
	}
	return out
}

// RegisterFunc performs one registration attempt. It matches
// zeroconf.Register so tests can substitute it.
type RegisterFunc func(instance, service, domain string, port int, text []string) (Shutdowner, error)

// Shutdowner withdraws a registration.
type Shutdowner interface {
	Shutdown()
}

func zeroconfRegister(instance, service, domain string, port int, text []string) (Shutdowner, error) {
	server, err := zeroconf.Register(instance, service, domain, port, text, nil)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// Advertiser owns the mDNS registration.
type Advertiser struct {
	logger    zerolog.Logger
	info      Info
	register  RegisterFunc
	reconnect *resilience.ReconnectConfig

	mu     sync.Mutex
	server Shutdowner
}

func NewAdvertiser(logger zerolog.Logger, info Info, reconnect *resilience.ReconnectConfig) *Advertiser {
	return &Advertiser{
		logger:    logger.With().Str("component", "discovery").Logger(),
		info:      info,
		register:  zeroconfRegister,
		reconnect: reconnect,
	}
}

// Start registers the service, retrying with backoff. Failure is not fatal
// to the satellite; the caller logs it and carries on unadvertised.
func (a *Advertiser) Start(ctx context.Context) error {
	instance := InstanceName(a.info.Name)
	txt := a.info.TXT()

	err := resilience.Reconnect(ctx, a.logger, func() error {
		server, err := a.register(instance, ServiceType, Domain, a.info.Port, txt)
		if err != nil {
			observability.RecordError("mdns_register", "discovery")
			return err
		}
		a.mu.Lock()
		a.server = server
		a.mu.Unlock()
		return nil
	}, a.reconnect)
	if err != nil {
		return fmt.Errorf("mdns register %s: %w", instance, err)
	}

	a.logger.Info().
		Str("instance", instance).
		Str("service", ServiceType).
		Int("port", a.info.Port).
		Strs("txt", txt).
		Msg("Service advertised")
	return nil
}

// Stop withdraws the registration. It is safe to call more than once.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	server := a.server
	a.server = nil
	a.mu.Unlock()
	if server != nil {
		server.Shutdown()
		a.logger.Info().Msg("Service advertisement withdrawn")
	}
}
