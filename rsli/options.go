package rsli

import "github.com/relicfmt/relicfmt/internal/xoption"

// ParseConfig configures a single Parse call, mirroring nres.ParseConfig.
type ParseConfig struct {
	FailOnIssues bool
}

// ParseOption configures a ParseConfig.
type ParseOption = xoption.Option[*ParseConfig]

// WithFailOnIssues makes Parse return a structural error when any
// non-fatal spec-deviation issue was recorded (broken presorted permutation,
// packed range out of bounds), instead of returning them alongside a
// successful parse.
func WithFailOnIssues() ParseOption {
	return xoption.NoError(func(c *ParseConfig) { c.FailOnIssues = true })
}

func resolveParseConfig(opts []ParseOption) (*ParseConfig, error) {
	cfg := &ParseConfig{}
	if err := xoption.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
