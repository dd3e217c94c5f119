package api_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swapgraph/tileswap/internal/api"
	"github.com/swapgraph/tileswap/internal/api/apitest"
	"github.com/swapgraph/tileswap/internal/state"
)

func newClient(t *testing.T) (*api.Client, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL(), zap.NewNop()), srv
}

func TestNewGame(t *testing.T) {
	c, _ := newClient(t)

	st, err := c.NewGame(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, st.Nodes, 5)
	assert.Equal(t, 0, st.MoveCount)
	assert.True(t, st.Active)
	require.NoError(t, st.Validate())
}

func TestNewGameRejectedCountKeepsMessage(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.NewGame(context.Background(), 1)
	var se *api.ServerError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Message, "between")
}

func TestSwapAdjacent(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	_, err := c.NewGame(ctx, 5)
	require.NoError(t, err)

	res, err := c.Swap(ctx, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, res.MoveCount)
	assert.False(t, res.Solved)
	assert.Equal(t, 1, res.State.MoveCount)
	assert.True(t, res.State.CanUndo)
}

func TestSwapNonAdjacentIsServerError(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	_, err := c.NewGame(ctx, 8)
	require.NoError(t, err)

	_, err = c.Swap(ctx, 1, 5)
	var se *api.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Nodes are not connected", se.Message)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	_, err := c.NewGame(ctx, 5)
	require.NoError(t, err)
	res, err := c.Swap(ctx, 1, 2)
	require.NoError(t, err)
	tileAfterSwap := res.State.Tiles[1].Value

	st, err := c.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.MoveCount)
	assert.True(t, st.CanRedo)

	st, err = c.Redo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.MoveCount)
	assert.Equal(t, tileAfterSwap, st.Tiles[1].Value)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	_, err := c.NewGame(ctx, 5)
	require.NoError(t, err)
	before, err := c.Swap(ctx, 1, 2)
	require.NoError(t, err)

	blob, err := c.Save(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	st, err := c.Load(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, before.State.MoveCount, st.MoveCount)
	assert.Equal(t, before.State.Tiles, st.Tiles)
}

func TestCustomGame(t *testing.T) {
	c, _ := newClient(t)

	edges := []state.Edge{{1, 2}, {2, 3}}
	st, err := c.CustomGame(context.Background(), edges)
	require.NoError(t, err)
	assert.Len(t, st.Nodes, 3)
	require.NoError(t, st.Validate())
}

func TestCustomGameWithTiles(t *testing.T) {
	c, _ := newClient(t)

	edges := []state.Edge{{1, 2}, {2, 3}}
	tiles := map[state.NodeID]int{1: 3, 2: 2, 3: 1}
	st, err := c.CustomGameWithTiles(context.Background(), edges, tiles)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Tiles[1].Value)
	assert.True(t, st.Tiles[2].Matched)
	// Tiles 1 and 3 are swapped: a single 2-cycle, one move to solve.
	assert.Equal(t, 1, st.OptimalMoves)
}

func TestTransportErrorIsNotServerError(t *testing.T) {
	c := api.NewClient("http://127.0.0.1:1", zap.NewNop())

	_, err := c.NewGame(context.Background(), 5)
	require.Error(t, err)
	var se *api.ServerError
	assert.False(t, errors.As(err, &se))
}
