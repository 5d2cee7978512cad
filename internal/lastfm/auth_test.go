package lastfm

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthServer_DeliversToken(t *testing.T) {
	as, err := startAuthServer("127.0.0.1:0")
	require.NoError(t, err)
	defer as.Shutdown()

	resp, err := http.Get(as.CallbackURL() + "?token=abc")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "authorized")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	token, err := as.WaitToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestAuthServer_EmptyToken(t *testing.T) {
	as, err := startAuthServer("127.0.0.1:0")
	require.NoError(t, err)
	defer as.Shutdown()

	resp, err := http.Get(as.CallbackURL())
	require.NoError(t, err)
	resp.Body.Close()

	_, err = as.WaitToken(context.Background())
	require.ErrorIs(t, err, ErrNoToken)
}

func TestAuthServer_WaitHonoursContext(t *testing.T) {
	as, err := startAuthServer("127.0.0.1:0")
	require.NoError(t, err)
	defer as.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = as.WaitToken(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
