package env

import (
	"github.com/robalobadob/woodoku-env/internal/codec"
	"github.com/robalobadob/woodoku-env/internal/episode"
)

// Config names the strategies an Adapter runs with.
type Config struct {
	ActionCodec string `json:"actionCodec"`
	StateCodec  string `json:"stateCodec"`
	Policy      string `json:"policy"`
}

// DefaultConfig mirrors the defaults applied by New.
func DefaultConfig() Config {
	return Config{
		ActionCodec: codec.MixedRadixName,
		StateCodec:  codec.UnpackedName,
		Policy:      episode.AllOrNothing.String(),
	}
}

type params struct {
	ActionCodec string
	StateCodec  string
	Policy      episode.Policy
}

// Option customises an Adapter.
type Option func(*params)

func defaultParams() *params {
	return &params{
		ActionCodec: codec.MixedRadixName,
		StateCodec:  codec.UnpackedName,
		Policy:      episode.AllOrNothing,
	}
}

func WithActionCodec(name string) Option {
	return func(p *params) {
		p.ActionCodec = name
	}
}

func WithStateCodec(name string) Option {
	return func(p *params) {
		p.StateCodec = name
	}
}

func WithPolicy(policy episode.Policy) Option {
	return func(p *params) {
		p.Policy = policy
	}
}

// Options turns a Config into adapter options. Empty fields keep the defaults.
func (c Config) Options() ([]Option, error) {
	var opts []Option
	if c.ActionCodec != "" {
		opts = append(opts, WithActionCodec(c.ActionCodec))
	}
	if c.StateCodec != "" {
		opts = append(opts, WithStateCodec(c.StateCodec))
	}
	if c.Policy != "" {
		policy, err := episode.ParsePolicy(c.Policy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithPolicy(policy))
	}
	return opts, nil
}

// Merge fills empty fields of c from fallback.
func (c Config) Merge(fallback Config) Config {
	if c.ActionCodec == "" {
		c.ActionCodec = fallback.ActionCodec
	}
	if c.StateCodec == "" {
		c.StateCodec = fallback.StateCodec
	}
	if c.Policy == "" {
		c.Policy = fallback.Policy
	}
	return c
}
