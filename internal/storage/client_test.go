package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptindex/scriptindex/internal/errs"
)

func TestNew_RejectsEmptyURL(t *testing.T) {
	_, err := New("", "token")
	require.Error(t, err)
	require.IsType(t, &errs.ConfigError{}, err)
}

func TestNew_RejectsEmptyToken(t *testing.T) {
	_, err := New("libsql://example.turso.io", "")
	require.Error(t, err)
	require.IsType(t, &errs.ConfigError{}, err)
}

func TestBuildDSN_EmbedsAuthToken(t *testing.T) {
	dsn := buildDSN("libsql://example.turso.io", "secret")
	assert.Contains(t, dsn, "authToken=secret")
	assert.Contains(t, dsn, "libsql://example.turso.io?")
}

func TestBuildDSN_AppendsWhenQueryExists(t *testing.T) {
	dsn := buildDSN("libsql://example.turso.io?foo=bar", "secret")
	assert.Contains(t, dsn, "&authToken=secret")
}

func TestClient_OperationsFailBeforeConnect(t *testing.T) {
	c, err := New("libsql://example.turso.io", "token")
	require.NoError(t, err)

	assert.False(t, c.Connected())

	_, err = c.Query(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, errs.ErrNotConnected)

	_, err = c.Execute(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, errs.ErrNotConnected)
}

func TestClient_DisconnectBeforeConnectIsNoop(t *testing.T) {
	c, err := New("libsql://example.turso.io", "token")
	require.NoError(t, err)

	assert.NoError(t, c.Disconnect())
}
