package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddic/gr-gs/internal/codec"
	"github.com/eddic/gr-gs/internal/config"
)

func TestRun_DecodesFile(t *testing.T) {
	dir := t.TempDir()
	container := filepath.Join(dir, "data.gs")
	side := filepath.Join(dir, "data.idx")
	out := filepath.Join(dir, "data.out")
	src := bytes.Repeat([]byte{0x00, 0xFF, 0x0F}, 100)

	cfg := config.NewConfig("")
	var encoded, index bytes.Buffer
	_, err := codec.Encode(context.Background(), cfg, src, &encoded, &index, codec.EncodeOptions{})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(container, encoded.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(side, index.Bytes(), 0o644))

	require.NoError(t, run(context.Background(), cfg, container, out, side))
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, src, got)

	require.NoError(t, run(context.Background(), cfg, container, out, ""))
	got, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestRun_BadContainer(t *testing.T) {
	dir := t.TempDir()
	container := filepath.Join(dir, "bad.gs")
	require.NoError(t, os.WriteFile(container, []byte("not a container"), 0o644))

	err := run(context.Background(), config.NewConfig(""), container, filepath.Join(dir, "out"), "")
	assert.Error(t, err)
}
