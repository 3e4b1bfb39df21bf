package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files/")
	require.NoError(t, err)

	key, err := s.Upload(ctx, strings.NewReader("net_pay,2100.00\n"), "reports/2024-01/team_summary/team_a/summary.csv", "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "reports/2024-01/team_summary/team_a/summary.csv", key)

	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := ReadAll(ctx, s, key)
	require.NoError(t, err)
	assert.Equal(t, "net_pay,2100.00\n", string(data))

	url, err := s.GetURL(ctx, key, 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/"+key, url)

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))

	_, err = s.Download(ctx, key)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLocalStorage_Overwrite(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	_, err = s.Upload(ctx, strings.NewReader("first"), "a/b.txt", "text/plain")
	require.NoError(t, err)
	_, err = s.Upload(ctx, strings.NewReader("second"), "a/b.txt", "text/plain")
	require.NoError(t, err)

	data, err := ReadAll(ctx, s, "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestLocalStorage_TraversalStaysInsideBase(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	key, err := s.Upload(ctx, strings.NewReader("x"), "../../etc/passwd", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", key)

	_, err = s.Upload(ctx, strings.NewReader("x"), "", "text/plain")
	assert.ErrorIs(t, err, ErrInvalidPath)
}
