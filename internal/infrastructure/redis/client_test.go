package redis

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientSuccess(t *testing.T) {
	s := miniredis.RunT(t)

	ctx := context.Background()
	client, err := NewClient(ctx, fmt.Sprintf("redis://%s", s.Addr()))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Ping(ctx).Err())
	assert.Equal(t, ClientName, client.Options().ClientName)
}

func TestNewClientKeepsConfiguredName(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewClient(context.Background(), fmt.Sprintf("redis://%s?client_name=settlement-worker", s.Addr()))
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "settlement-worker", client.Options().ClientName)
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "://bad-url")
	require.Error(t, err)
}

func TestNewClientPingFailure(t *testing.T) {
	s := miniredis.RunT(t)
	url := fmt.Sprintf("redis://%s", s.Addr())
	s.Close()

	_, err := NewClient(context.Background(), url)
	require.Error(t, err, "expected ping error when server is down")
}

func TestNewClientHonorsCanceledContext(t *testing.T) {
	s := miniredis.RunT(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(ctx, fmt.Sprintf("redis://%s", s.Addr()))
	require.ErrorIs(t, err, context.Canceled)
}
