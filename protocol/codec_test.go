package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/tronio/game"
)

func TestServerMsg_RoundTrip(t *testing.T) {
	opts := game.GridOptions{Size: game.Medium, Teams: 3, Players: 2, Projectiles: true}
	in := &ServerMsg{
		LocalPlayerIDs: []uint8{2, 5},
		Players: []ServerPlayer{
			{Name: "ann", Ready: true},
			{Name: "AI", IsAI: true},
			{Name: "bo", Abandoned: true},
		},
		State: StateRoundOver(1),
		GridUpdate: &game.GridUpdateMsg{
			Tick: 77,
			Hash: 0xdeadbeefcafef00d,
			Updates: []game.BikeUpdate{
				{ID: 2, Dir: game.Left, Boost: true},
			},
		},
		Backlog: []game.GridUpdateMsg{{Tick: 76, Hash: 1}},
		Options: &opts,
		Scores:  []uint8{1, 0, 2},
	}

	b, err := EncodeServer(in)
	require.NoError(t, err)

	out, err := DecodeServer(b)
	require.NoError(t, err)

	assert.Equal(t, in.LocalPlayerIDs, out.LocalPlayerIDs)
	assert.Equal(t, in.State, out.State)
	assert.Equal(t, in.Scores, out.Scores)
	require.NotNil(t, out.GridUpdate)
	assert.Equal(t, uint32(77), out.GridUpdate.Tick)
	assert.Equal(t, in.GridUpdate.Hash, out.GridUpdate.Hash)
	require.Len(t, out.GridUpdate.Updates, 1)
	assert.True(t, out.GridUpdate.Updates[0].Dir.Eq(game.Left))
	assert.True(t, out.GridUpdate.Updates[0].Boost)
	require.Len(t, out.Backlog, 1)
	assert.Equal(t, uint32(76), out.Backlog[0].Tick)
	require.NotNil(t, out.Options)
	assert.True(t, opts.Equal(*out.Options))

	require.Len(t, out.Players, 3)
	assert.Equal(t, "ann", out.Players[0].Name)
	assert.True(t, out.Players[1].IsAI)
	assert.False(t, out.Players[2].Abandoned, "abandoned flag is server-local")
}

func TestClientMsg_OptionalUpdate(t *testing.T) {
	in := &ClientMsg{
		Players: []ClientPlayer{{Name: "p1", Ready: true, TeamRequest: 1}},
		State:   StateWaiting(),
	}
	b, err := EncodeClient(in)
	require.NoError(t, err)

	out, err := DecodeClient(b)
	require.NoError(t, err)
	assert.Nil(t, out.Update)
	assert.Equal(t, StateWaiting(), out.State)
	assert.Equal(t, in.Players[0].Name, out.Players[0].Name)
	assert.Equal(t, uint8(1), out.Players[0].TeamRequest)
}

func TestDecode_Errors(t *testing.T) {
	_, err := DecodeServer(nil)
	assert.True(t, errors.Is(err, ErrEmptyFrame))

	_, err = DecodeClient([]byte{0xc1, 0x00, 0xff})
	assert.Error(t, err)

	_, err = Encode(nil)
	assert.Error(t, err)
}

func TestWorldState(t *testing.T) {
	assert.True(t, StateWaiting().Lobby())
	assert.False(t, StatePlaying().Lobby())
	assert.Equal(t, "round_over(tie)", StateRoundOver(NoTeam).String())
	assert.Equal(t, "game_over(team 2)", StateGameOver(2).String())
	assert.NotEqual(t, StateRoundOver(0), StateRoundOver(1))
}

func TestConstants(t *testing.T) {
	assert.Equal(t, 8090, TCPPort)
	assert.Equal(t, 8091, WSPort)
	assert.EqualValues(t, 10_000_000, PollInterval.Nanoseconds())
}
