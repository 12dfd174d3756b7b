// Package config loads the relay's YAML configuration and the env
// overrides carrying secrets and printer addresses.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses YAML strings like "2s" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Feed struct {
	BaseURL        string   `yaml:"base_url"`
	TokenURL       string   `yaml:"token_url"`
	ClientID       string   `yaml:"client_id"`
	AssertionToken string   `yaml:"assertion_token"`
	BatchSize      int      `yaml:"batch_size"`
	PollInterval   Duration `yaml:"poll_interval"`
	Timeout        Duration `yaml:"timeout"`
}

type Store struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// Path is the database file, sqlite only.
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type Printer struct {
	Addr     string `yaml:"addr"`
	Protocol string `yaml:"protocol"` // star | epson
}

type Routing struct {
	// Registers maps a register display name to a printer name.
	Registers map[string]string `yaml:"registers"`
	// Kitchen names the shared kitchen printer.
	Kitchen string `yaml:"kitchen"`
}

type Dispatch struct {
	Pacing        Duration `yaml:"pacing"`
	SendTimeout   Duration `yaml:"send_timeout"`
	RetryAttempts int      `yaml:"retry_attempts"`
	RetryDelay    Duration `yaml:"retry_delay"`
}

type MQ struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type Log struct {
	Level string `yaml:"level"`
}

type App struct {
	Feed     Feed               `yaml:"feed"`
	Store    Store              `yaml:"store"`
	Printers map[string]Printer `yaml:"printers"`
	Routing  Routing            `yaml:"routing"`
	Dispatch Dispatch           `yaml:"dispatch"`
	Rabbit   *MQ                `yaml:"rabbitmq"`
	Log      Log                `yaml:"log"`

	// Meme, when set, is printed at the bottom of customer receipts.
	Meme string `yaml:"meme"`
}

// Load reads and validates the config at path, then applies env
// overrides for secrets.
func Load(path string) (App, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return App{}, err
	}
	var a App
	if err := yaml.Unmarshal(b, &a); err != nil {
		return App{}, fmt.Errorf("parse %s: %w", path, err)
	}
	a.applyEnv()
	a.applyDefaults()
	if err := a.validate(); err != nil {
		return App{}, err
	}
	return a, nil
}

// Env overrides keep credentials and per-site printer addresses out of
// the checked-in config file. Printer addresses use the printer name:
// a printer "register_one" reads REGISTER_ONE_PRINTER_ADDR.
func (a *App) applyEnv() {
	if v := os.Getenv("CLIENT_ID"); v != "" {
		a.Feed.ClientID = v
	}
	if v := os.Getenv("ASSERT_TOKEN"); v != "" {
		a.Feed.AssertionToken = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		a.Log.Level = v
	}
	for name, p := range a.Printers {
		envKey := strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_PRINTER_ADDR"
		if v := os.Getenv(envKey); v != "" {
			p.Addr = v
			a.Printers[name] = p
		}
	}
}

func (a *App) applyDefaults() {
	if a.Feed.BatchSize <= 0 {
		a.Feed.BatchSize = 5
	}
	if a.Feed.PollInterval <= 0 {
		a.Feed.PollInterval = Duration(5 * time.Second)
	}
	if a.Feed.Timeout <= 0 {
		a.Feed.Timeout = Duration(15 * time.Second)
	}
	if a.Dispatch.Pacing <= 0 {
		a.Dispatch.Pacing = Duration(2 * time.Second)
	}
	if a.Dispatch.SendTimeout <= 0 {
		a.Dispatch.SendTimeout = Duration(10 * time.Second)
	}
	if a.Dispatch.RetryAttempts <= 0 {
		a.Dispatch.RetryAttempts = 3
	}
	if a.Dispatch.RetryDelay <= 0 {
		a.Dispatch.RetryDelay = Duration(2 * time.Second)
	}
	if a.Store.Driver == "" {
		a.Store.Driver = "sqlite"
	}
	if a.Store.Driver == "sqlite" && a.Store.Path == "" {
		a.Store.Path = "database.sqlite"
	}
	if a.Log.Level == "" {
		a.Log.Level = "info"
	}
}

func (a *App) validate() error {
	switch a.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown store driver %q", a.Store.Driver)
	}
	if len(a.Printers) == 0 {
		return errors.New("no printers configured")
	}
	for name, p := range a.Printers {
		if p.Addr == "" {
			return fmt.Errorf("printer %q has no address", name)
		}
	}
	if a.Routing.Kitchen == "" {
		return errors.New("routing.kitchen is required")
	}
	if _, ok := a.Printers[a.Routing.Kitchen]; !ok {
		return fmt.Errorf("routing.kitchen names unknown printer %q", a.Routing.Kitchen)
	}
	for register, name := range a.Routing.Registers {
		if _, ok := a.Printers[name]; !ok {
			return fmt.Errorf("register %q routed to unknown printer %q", register, name)
		}
	}
	return nil
}

// FindConfig probes the usual locations for a config file.
func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
