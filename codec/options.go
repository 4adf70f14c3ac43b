package codec

import (
	"fmt"

	"github.com/relicfmt/relicfmt/internal/pool"
	"github.com/relicfmt/relicfmt/internal/xoption"
)

// DecodeConfig configures a single decode call: an upper bound on the
// accepted unpacked size, to avoid adversarial allocation, and, optionally,
// a pooled output buffer a batch caller wants reused across archives.
type DecodeConfig struct {
	MaxUnpackedSize int
	Buffer          *pool.ByteBuffer
}

// DecodeOption configures a DecodeConfig.
type DecodeOption = xoption.Option[*DecodeConfig]

// WithMaxUnpackedSize rejects a decode whose declared unpacked_size exceeds
// max, before any allocation happens.
func WithMaxUnpackedSize(max int) DecodeOption {
	return xoption.New(func(c *DecodeConfig) error {
		if max <= 0 {
			return fmt.Errorf("codec: WithMaxUnpackedSize: max must be positive, got %d", max)
		}
		c.MaxUnpackedSize = max
		return nil
	})
}

// WithBuffer supplies a pooled output buffer for the decoder to grow and
// fill instead of allocating its own, letting a batch caller reuse one
// buffer across many archives.
func WithBuffer(bb *pool.ByteBuffer) DecodeOption {
	return xoption.NoError(func(c *DecodeConfig) { c.Buffer = bb })
}

func resolveDecodeConfig(opts []DecodeOption) (*DecodeConfig, error) {
	cfg := &DecodeConfig{}
	if err := xoption.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
