package xoption

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type decodeConfig struct {
	maxUnpackedSize int
	buffer          []byte
}

func withMaxUnpackedSize(n int) Option[*decodeConfig] {
	return New(func(c *decodeConfig) error {
		if n < 0 {
			return errors.New("max unpacked size must be non-negative")
		}
		c.maxUnpackedSize = n
		return nil
	})
}

func withBuffer(buf []byte) Option[*decodeConfig] {
	return NoError(func(c *decodeConfig) { c.buffer = buf })
}

func TestApply_RunsInOrder(t *testing.T) {
	cfg := &decodeConfig{}
	err := Apply(cfg, withMaxUnpackedSize(1024), withBuffer([]byte{1, 2, 3}))
	require.NoError(t, err)
	require.Equal(t, 1024, cfg.maxUnpackedSize)
	require.Equal(t, []byte{1, 2, 3}, cfg.buffer)
}

func TestApply_StopsAtFirstError(t *testing.T) {
	cfg := &decodeConfig{}
	err := Apply(cfg, withMaxUnpackedSize(-1), withBuffer([]byte{9}))
	require.Error(t, err)
	require.Nil(t, cfg.buffer)
}
