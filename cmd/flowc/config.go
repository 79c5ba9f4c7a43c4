package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/wippyai/flowtree"
	"github.com/wippyai/flowtree/internal/interp"
)

// tomlConfig is the flowc configuration file.
type tomlConfig struct {
	FailureStrategy string               `toml:"failure-strategy"`
	Void            string               `toml:"void"`
	Coroutines      string               `toml:"coroutines"`
	FailCalls       []string             `toml:"fail-calls"`
	MayAssignInBoth bool                 `toml:"may-assign-in-both"`
	Host            map[string]*tomlHost `toml:"host"`
}

// tomlHost describes a host function for the interpreter: it returns
// value, a promise settled with promise, or fails.
type tomlHost struct {
	Value   interface{} `toml:"value"`
	Promise interface{} `toml:"promise"`
	Fail    bool        `toml:"fail"`
}

func loadConfig(path string) (*tomlConfig, error) {
	tc := &tomlConfig{}
	if path == "" {
		return tc, nil
	}
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(buff, tc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return tc, nil
}

func (tc *tomlConfig) translatorConfig() (flowtree.Config, error) {
	cfg := flowtree.Config{
		FailCallNames:                tc.FailCalls,
		MayAssignInBothTryAndRecover: tc.MayAssignInBoth,
	}
	var err error
	if cfg.Failure, err = pick(tc.FailureStrategy, flowtree.FlagBased, flowtree.ExceptionBased); err != nil {
		return cfg, fmt.Errorf("failure-strategy: %w", err)
	}
	if cfg.Void, err = pick(tc.Void, flowtree.Reified, flowtree.Erased); err != nil {
		return cfg, fmt.Errorf("void: %w", err)
	}
	if cfg.Coroutines, err = pick(tc.Coroutines, flowtree.ToStateMachine, flowtree.ToNativeGenerator); err != nil {
		return cfg, fmt.Errorf("coroutines: %w", err)
	}
	return cfg, nil
}

// pick returns the choice whose String is name, the first choice when
// name is empty.
func pick[T fmt.Stringer](name string, choices ...T) (T, error) {
	if name == "" {
		return choices[0], nil
	}
	for _, c := range choices {
		if c.String() == name {
			return c, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown value %q", name)
}

// interpreter returns an interpreter with the configured host functions.
func (tc *tomlConfig) interpreter() *interp.Interp {
	in := interp.New()
	for name, h := range tc.Host {
		name, h := name, h
		in.Funcs[name] = func([]interp.Value) (interp.Value, error) {
			switch {
			case h.Fail:
				return nil, fmt.Errorf("%s failed", name)
			case h.Promise != nil:
				return &interp.Promise{Value: normalize(h.Promise)}, nil
			}
			return normalize(h.Value), nil
		}
	}
	return in
}

// normalize maps TOML integers to the interpreter's int.
func normalize(v interface{}) interp.Value {
	if i, ok := v.(int64); ok {
		return int(i)
	}
	return v
}
