// Package config holds the CLI configuration types and TOML file loading.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/yclin/handwire/internal/track"
	"github.com/yclin/handwire/internal/transport"
)

// Role represents the chosen process role (sender or receiver).
type Role string

const (
	RoleSend Role = "send"
	RoleRecv Role = "recv"
)

// Config stores all parameters for one handwire process, gathered from CLI
// flags, the interactive prompts, or a TOML file.
type Config struct {
	Role    Role    `toml:"role"`
	Host    string  `toml:"host"`    // Send: destination host. Recv: bind host (may be empty).
	Port    int     `toml:"port"`    // UDP port; defaults to transport.DefaultPort
	Rate    float64 `toml:"rate"`    // Send: synthetic frames per second
	Hands   int     `toml:"hands"`   // Send: hands per synthetic frame, 0–2
	Lenient bool    `toml:"lenient"` // Recv: tolerate trailing record fields
	Debug   bool    `toml:"debug"`
}

// Default returns the reference deployment values: localhost, port 5005,
// one hand at 90 Hz, strict decode.
func Default() Config {
	return Config{
		Host:  "127.0.0.1",
		Port:  transport.DefaultPort,
		Rate:  90,
		Hands: 1,
	}
}

// Load reads a TOML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges. Role is validated only when set, so a config
// file may leave role selection to the CLI.
func (c Config) Validate() error {
	if c.Role != "" && c.Role != RoleSend && c.Role != RoleRecv {
		return fmt.Errorf("invalid role %q (want %q or %q)", c.Role, RoleSend, RoleRecv)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d (want 1~65535)", c.Port)
	}
	if c.Rate <= 0 || c.Rate > 1000 {
		return fmt.Errorf("invalid rate %.1f (want 0 < rate <= 1000)", c.Rate)
	}
	if c.Hands < 0 || c.Hands > track.MaxHands {
		return fmt.Errorf("invalid hands %d (want 0~%d)", c.Hands, track.MaxHands)
	}
	return nil
}

// Addr returns the host:port endpoint string for the configured role.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
