// Package config loads tronio settings from defaults, an optional config
// file, TRONIO_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/brensch/tronio/ai"
	"github.com/brensch/tronio/game"
	"github.com/brensch/tronio/logging"
	"github.com/brensch/tronio/protocol"
	"github.com/brensch/tronio/world"
)

const EnvPrefix = "TRONIO"

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

func (l LogConfig) Options() logging.Options {
	return logging.Options{Level: l.Level, Format: logging.Format(l.Format), File: l.File}
}

type GridConfig struct {
	Size        string `mapstructure:"size"`
	Teams       int    `mapstructure:"teams"`
	Players     int    `mapstructure:"players"`
	Projectiles bool   `mapstructure:"projectiles"`
}

// Options converts to clamped grid options.
func (g GridConfig) Options() (game.GridOptions, error) {
	size, err := game.ParseGridSize(g.Size)
	if err != nil {
		return game.GridOptions{}, err
	}
	o := game.GridOptions{
		Size:        size,
		Teams:       uint8(min(max(g.Teams, 0), 255)),
		Players:     uint8(min(max(g.Players, 0), 255)),
		Projectiles: g.Projectiles,
	}
	return o.Clamp(), nil
}

type TraceConfig struct {
	Dir         string `mapstructure:"dir"`
	FlushRounds int    `mapstructure:"flushRounds"`
}

type ServerConfig struct {
	Log        LogConfig   `mapstructure:"log"`
	TCPAddr    string      `mapstructure:"tcpAddr"`
	WSAddr     string      `mapstructure:"wsAddr"`
	StatusAddr string      `mapstructure:"statusAddr"`
	TickRate   int         `mapstructure:"tickRate"`
	ScoreWin   int         `mapstructure:"scoreWin"`
	GraceTicks int         `mapstructure:"graceTicks"`
	History    int         `mapstructure:"history"`
	Difficulty string      `mapstructure:"difficulty"`
	Grid       GridConfig  `mapstructure:"grid"`
	Trace      TraceConfig `mapstructure:"trace"`
}

// Settings converts to match settings. Validate must have passed.
func (c ServerConfig) Settings() world.Settings {
	s := world.DefaultSettings()
	s.TickPeriod = time.Second / time.Duration(c.TickRate)
	s.ScoreWin = uint8(c.ScoreWin)
	s.GraceTicks = c.GraceTicks
	s.HistorySize = c.History
	s.Difficulty, _ = ai.ParseDifficulty(c.Difficulty)
	return s
}

func (c ServerConfig) Validate() error {
	var errs []error
	if c.TCPAddr == "" && c.WSAddr == "" {
		errs = append(errs, errors.New("at least one of tcpAddr and wsAddr is required"))
	}
	if c.TickRate < 1 || c.TickRate > 1000 {
		errs = append(errs, fmt.Errorf("tickRate %d out of range 1..1000", c.TickRate))
	}
	if c.ScoreWin < 1 || c.ScoreWin > 255 {
		errs = append(errs, fmt.Errorf("scoreWin %d out of range 1..255", c.ScoreWin))
	}
	if c.GraceTicks < 0 {
		errs = append(errs, fmt.Errorf("graceTicks %d is negative", c.GraceTicks))
	}
	if c.History < 1 {
		errs = append(errs, fmt.Errorf("history %d must be positive", c.History))
	}
	if _, err := ai.ParseDifficulty(c.Difficulty); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Grid.Options(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Transport names accepted by the client.
const (
	TransportTCP   = "tcp"
	TransportWS    = "ws"
	TransportLocal = "local"
)

type ClientConfig struct {
	Log        LogConfig  `mapstructure:"log"`
	Name       string     `mapstructure:"name"`
	Transport  string     `mapstructure:"transport"`
	Addr       string     `mapstructure:"addr"`
	Difficulty string     `mapstructure:"difficulty"`
	Grid       GridConfig `mapstructure:"grid"`
}

func (c ClientConfig) Validate() error {
	var errs []error
	switch c.Transport {
	case TransportTCP, TransportWS:
		if c.Addr == "" {
			errs = append(errs, fmt.Errorf("addr is required for transport %s", c.Transport))
		}
	case TransportLocal:
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if _, err := ai.ParseDifficulty(c.Difficulty); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Grid.Options(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Settings converts to the settings of an in-process match.
func (c ClientConfig) Settings() world.Settings {
	s := world.DefaultSettings()
	s.Difficulty, _ = ai.ParseDifficulty(c.Difficulty)
	return s
}

func gridDefaults(v *viper.Viper) {
	d := game.DefaultGridOptions()
	v.SetDefault("grid.size", d.Size.String())
	v.SetDefault("grid.teams", int(d.Teams))
	v.SetDefault("grid.players", int(d.Players))
	v.SetDefault("grid.projectiles", d.Projectiles)
}

func serverDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", string(logging.FormatText))
	v.SetDefault("log.file", "")
	v.SetDefault("tcpAddr", fmt.Sprintf(":%d", protocol.TCPPort))
	v.SetDefault("wsAddr", fmt.Sprintf(":%d", protocol.WSPort))
	v.SetDefault("statusAddr", "")
	v.SetDefault("tickRate", int(time.Second/protocol.DefaultTickPeriod))
	v.SetDefault("scoreWin", int(world.ScoreWin))
	v.SetDefault("graceTicks", world.DefaultGraceTicks)
	v.SetDefault("history", world.DefaultHistorySize)
	v.SetDefault("difficulty", ai.Medium.String())
	v.SetDefault("trace.dir", "")
	v.SetDefault("trace.flushRounds", 16)
	gridDefaults(v)
}

func clientDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", string(logging.FormatJSON))
	v.SetDefault("log.file", "tronclient.log")
	v.SetDefault("name", "player")
	v.SetDefault("transport", TransportTCP)
	v.SetDefault("addr", fmt.Sprintf("localhost:%d", protocol.TCPPort))
	v.SetDefault("difficulty", ai.Medium.String())
	gridDefaults(v)
}

// ServerFlags registers the server's flags. Flag names are the config keys.
func ServerFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (json, yaml or toml)")
	fs.String("log.level", "info", "log level: debug, info, warn, error")
	fs.String("log.format", "text", "console log format: text, json, pretty")
	fs.String("log.file", "", "also write json logs to this file")
	fs.String("tcpAddr", fmt.Sprintf(":%d", protocol.TCPPort), "tcp listen address, empty to disable")
	fs.String("wsAddr", fmt.Sprintf(":%d", protocol.WSPort), "websocket listen address, empty to disable")
	fs.String("statusAddr", "", "http status api listen address, empty to disable")
	fs.Int("tickRate", 60, "simulation ticks per second")
	fs.Int("scoreWin", int(world.ScoreWin), "round wins needed to win the game")
	fs.Int("graceTicks", world.DefaultGraceTicks, "ticks a decided outcome must hold before the round ends")
	fs.String("difficulty", "medium", "ai difficulty: easy, medium, hard")
	fs.String("grid.size", "small", "grid size: small, medium, large")
	fs.Int("grid.teams", 2, "number of teams")
	fs.Int("grid.players", 1, "players per team")
	fs.Bool("grid.projectiles", false, "boost fires a projectile instead of speeding up")
	fs.String("trace.dir", "", "write parquet round traces to this directory")
}

// ClientFlags registers the client's flags.
func ClientFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (json, yaml or toml)")
	fs.String("log.level", "info", "log level: debug, info, warn, error")
	fs.String("log.file", "tronclient.log", "log file")
	fs.String("name", "player", "display name")
	fs.String("transport", TransportTCP, "tcp, ws or local")
	fs.String("addr", fmt.Sprintf("localhost:%d", protocol.TCPPort), "server address; a ws:// url for the ws transport")
	fs.String("difficulty", "medium", "ai difficulty for the local transport")
	fs.String("grid.size", "small", "grid size for the local transport")
	fs.Int("grid.teams", 2, "teams for the local transport")
	fs.Int("grid.players", 1, "players per team for the local transport")
	fs.Bool("grid.projectiles", false, "projectile mode for the local transport")
}

func newViper(fs *pflag.FlagSet, defaults func(*viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		// Only flags set on the command line override; unset flags fall
		// through to env and file values.
		var bindErr error
		fs.Visit(func(f *pflag.Flag) {
			if f.Name == "config" || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(f.Name, f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	path := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			path = f.Value.String()
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return v, nil
}

// LoadServer resolves the server configuration. fs may be nil.
func LoadServer(fs *pflag.FlagSet) (ServerConfig, error) {
	var c ServerConfig
	v, err := newViper(fs, serverDefaults)
	if err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, c.Validate()
}

// LoadClient resolves the client configuration. fs may be nil.
func LoadClient(fs *pflag.FlagSet) (ClientConfig, error) {
	var c ClientConfig
	v, err := newViper(fs, clientDefaults)
	if err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, c.Validate()
}
