// Package config implements the configuration of a training run: the
// settings of every component gathered in one JSON document, checked
// before training starts.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/samuelfneumann/navdqn/agent"
	"github.com/samuelfneumann/navdqn/agent/deepq"
	"github.com/samuelfneumann/navdqn/agent/policy"
	"github.com/samuelfneumann/navdqn/environment"
	"github.com/samuelfneumann/navdqn/environment/navigation"
	"github.com/samuelfneumann/navdqn/experiment"
	"github.com/samuelfneumann/navdqn/expreplay"
	"github.com/samuelfneumann/navdqn/network"
	"github.com/samuelfneumann/navdqn/sim"
)

// Config holds the configuration of every component of a training run
type Config struct {
	Seed uint64 `json:"seed"`

	Experiment experiment.Config       `json:"experiment"`
	Navigation navigation.Config       `json:"navigation"`
	Sim        sim.Config              `json:"sim"`
	Retry      environment.RetryConfig `json:"retry"`
	Replay     expreplay.Config        `json:"replay"`
	DeepQ      deepq.Config            `json:"deepq"`
	Epsilon    policy.Config           `json:"epsilon"`

	Approximator *network.Approximator `json:"approximator"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Seed:         1,
		Experiment:   experiment.DefaultConfig(),
		Navigation:   navigation.DefaultConfig(),
		Sim:          sim.DefaultConfig(),
		Retry:        environment.DefaultRetryConfig(),
		Replay:       expreplay.Config{Capacity: 1_000_000, BatchSize: 100},
		DeepQ:        deepq.DefaultConfig(),
		Epsilon:      policy.DefaultConfig(),
		Approximator: network.NewApproximator(network.DefaultMLPConfig()),
	}
}

// Load reads a JSON configuration from path. Fields missing from the
// file keep their default values. The loaded configuration is
// validated.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Op: "load", Err: err}
	}
	return Parse(data)
}

// Parse parses a JSON configuration, see Load
func Parse(data []byte) (Config, error) {
	c := Default()

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, &Error{Op: "parse", Err: err}
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks every component configuration and their agreement
// with each other
func (c Config) Validate() error {
	checks := []struct {
		field    string
		validate func() error
	}{
		{"experiment", c.Experiment.Validate},
		{"navigation", c.Navigation.Validate},
		{"sim", c.Sim.Validate},
		{"retry", c.Retry.Validate},
		{"replay", c.Replay.Validate},
		{"deepq", c.DeepQ.Validate},
		{"epsilon", c.Epsilon.Validate},
	}
	for _, check := range checks {
		if err := check.validate(); err != nil {
			return &Error{Op: "validate", Field: check.field, Err: err}
		}
	}

	if c.Approximator == nil || c.Approximator.Config == nil {
		return &Error{Op: "validate", Field: "approximator",
			Err: fmt.Errorf("missing approximator")}
	}
	if err := c.Approximator.Validate(); err != nil {
		return &Error{Op: "validate", Field: "approximator", Err: err}
	}

	if c.Sim.Beams != c.Navigation.RawSamples {
		return &Error{Op: "validate", Field: "sim.beams",
			Err: fmt.Errorf("range readings per scan should match "+
				"navigation.raw_samples\n\twant(%v)\n\thave(%v)",
				c.Navigation.RawSamples, c.Sim.Beams)}
	}
	return nil
}

// CheckWidth returns an error if valueFn does not take the states of
// the navigation environment or does not predict one value per action
func (c Config) CheckWidth(valueFn agent.ValueFunction) error {
	if valueFn.Features() != c.Navigation.StateSize() {
		return &Error{Op: "checkWidth", Field: "approximator",
			Err: fmt.Errorf("input width does not match the state size"+
				"\n\twant(%v)\n\thave(%v)", c.Navigation.StateSize(),
				valueFn.Features())}
	}
	if valueFn.Actions() != len(c.Navigation.ActionSpace) {
		return &Error{Op: "checkWidth", Field: "approximator",
			Err: fmt.Errorf("output width does not match the actions"+
				"\n\twant(%v)\n\thave(%v)", len(c.Navigation.ActionSpace),
				valueFn.Actions())}
	}
	return nil
}

// JSON returns the indented JSON form of the configuration
func (c Config) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("json: %v", err)
	}
	return data, nil
}

// Dump returns one "Key: value" line per setting, sorted by key. Keys
// of nested settings are joined with dots. The state size is included.
func (c Config) Dump() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("dump: %v", err)
	}

	var tree map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&tree); err != nil {
		return "", fmt.Errorf("dump: %v", err)
	}

	params := map[string]string{
		"navigation.state_size": fmt.Sprint(c.Navigation.StateSize()),
	}
	if err := flatten("", tree, params); err != nil {
		return "", fmt.Errorf("dump: %v", err)
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%v: %v\n", k, params[k])
	}
	return b.String(), nil
}

// flatten adds the leaves of tree to params with dot separated keys.
// Arrays are leaves written as JSON.
func flatten(prefix string, tree map[string]interface{},
	params map[string]string) error {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch v := v.(type) {
		case map[string]interface{}:
			if err := flatten(key, v, params); err != nil {
				return err
			}
		case []interface{}:
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("flatten: %v: %v", key, err)
			}
			params[key] = string(data)
		case nil:
			params[key] = "null"
		default:
			params[key] = fmt.Sprint(v)
		}
	}
	return nil
}
