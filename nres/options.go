package nres

import "github.com/relicfmt/relicfmt/internal/xoption"

// ParseConfig configures a single Parse call. The core never reads CLI
// flags itself; WithFailOnIssues just exposes the knob a caller's
// --fail-on-issues flag would set.
type ParseConfig struct {
	FailOnIssues bool
}

// ParseOption configures a ParseConfig.
type ParseOption = xoption.Option[*ParseConfig]

// WithFailOnIssues makes Parse return a structural error when any
// non-fatal spec-deviation issue was recorded, instead of returning them
// alongside a successful parse.
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
