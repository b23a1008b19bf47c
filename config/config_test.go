package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/tronio/ai"
	"github.com/brensch/tronio/game"
)

func serverFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("tronserver", pflag.ContinueOnError)
	ServerFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadServer_Defaults(t *testing.T) {
	c, err := LoadServer(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8090", c.TCPAddr)
	assert.Equal(t, ":8091", c.WSAddr)
	assert.Equal(t, 60, c.TickRate)
	assert.Equal(t, 3, c.ScoreWin)
	assert.Equal(t, 30, c.GraceTicks)
	assert.Equal(t, 256, c.History)
	assert.Equal(t, "info", c.Log.Level)

	opts, err := c.Grid.Options()
	require.NoError(t, err)
	assert.True(t, opts.Equal(game.DefaultGridOptions()))

	s := c.Settings()
	assert.Equal(t, time.Second/60, s.TickPeriod)
	assert.Equal(t, ai.Medium, s.Difficulty)
}

func TestLoadServer_FilePrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tronserver.yaml")
	cfg := `
tickRate: 30
difficulty: hard
grid:
  size: large
  teams: 4
  players: 2
trace:
  dir: /tmp/traces
`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	t.Setenv("TRONIO_GRID_TEAMS", "3")

	c, err := LoadServer(serverFlags(t, "--config", path, "--tickRate", "120"))
	require.NoError(t, err)

	assert.Equal(t, 120, c.TickRate, "flag beats file")
	assert.Equal(t, "hard", c.Difficulty)
	assert.Equal(t, "/tmp/traces", c.Trace.Dir)

	opts, err := c.Grid.Options()
	require.NoError(t, err)
	assert.Equal(t, game.Large, opts.Size)
	assert.Equal(t, uint8(3), opts.Teams, "env beats file")
	assert.Equal(t, uint8(2), opts.Players)
}

func TestLoadServer_UnsetFlagsDoNotOverride(t *testing.T) {
	t.Setenv("TRONIO_SCOREWIN", "5")
	c, err := LoadServer(serverFlags(t))
	require.NoError(t, err)
	assert.Equal(t, 5, c.ScoreWin)
}

func TestLoadServer_MissingFile(t *testing.T) {
	_, err := LoadServer(serverFlags(t, "--config", "/nonexistent/tronserver.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadServer_Invalid(t *testing.T) {
	_, err := LoadServer(serverFlags(t, "--tickRate", "0", "--difficulty", "brutal", "--grid.size", "huge"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tickRate")
	assert.Contains(t, err.Error(), "brutal")
	assert.Contains(t, err.Error(), "huge")

	_, err = LoadServer(serverFlags(t, "--tcpAddr", "", "--wsAddr", ""))
	assert.Error(t, err)
}

func TestGridOptionsClamp(t *testing.T) {
	opts, err := GridConfig{Size: "medium", Teams: 9, Players: 0}.Options()
	require.NoError(t, err)
	assert.Equal(t, game.Medium, opts.Size)
	assert.Equal(t, game.MaxTeams, opts.Teams)
	assert.Equal(t, game.MinPlayers, opts.Players)
}

func TestLoadClient(t *testing.T) {
	fs := pflag.NewFlagSet("tronclient", pflag.ContinueOnError)
	ClientFlags(fs)
	require.NoError(t, fs.Parse([]string{"--transport", "local", "--name", "ann", "--grid.projectiles"}))

	c, err := LoadClient(fs)
	require.NoError(t, err)
	assert.Equal(t, TransportLocal, c.Transport)
	assert.Equal(t, "ann", c.Name)
	assert.True(t, c.Grid.Projectiles)
	assert.Equal(t, "tronclient.log", c.Log.File)
}

func TestLoadClient_Invalid(t *testing.T) {
	fs := pflag.NewFlagSet("tronclient", pflag.ContinueOnError)
	ClientFlags(fs)
	require.NoError(t, fs.Parse([]string{"--transport", "carrier-pigeon", "--name", " "}))

	_, err := LoadClient(fs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
	assert.Contains(t, err.Error(), "name is required")
}
