// Package config loads the driver's tunables (§6) from a file, the same
// viper.SetConfigFile/viper.Unmarshal pattern this pack's pgo systems use
// for their own Root configs.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Speedcheck is §6's three-valued speedcheck knob: Off runs §4.5 with no
// pruning, On and Fast both enable the "worth going" heuristic (the
// distinction is a property of the caller-supplied WorthGoing predicate,
// finalize.Callbacks.WorthGoing, which this core has no visibility into).
type Speedcheck int

const (
	SpeedcheckOff Speedcheck = iota
	SpeedcheckOn
	SpeedcheckFast
)

func (s Speedcheck) String() string {
	switch s {
	case SpeedcheckOn:
		return "On"
	case SpeedcheckFast:
		return "Fast"
	default:
		return "Off"
	}
}

// ParseSpeedcheck parses the {Off, On, Fast} literal §6 names. An empty
// string parses as Off.
func ParseSpeedcheck(s string) (Speedcheck, error) {
	switch strings.ToLower(s) {
	case "", "off":
		return SpeedcheckOff, nil
	case "on":
		return SpeedcheckOn, nil
	case "fast":
		return SpeedcheckFast, nil
	default:
		return SpeedcheckOff, fmt.Errorf("config: unknown speedcheck value %q", s)
	}
}

// DebugFlags is §6's "structured diagnostic flags (solver, rfm)": Solver
// traces the solver's substitution/residual decisions, Rfm enables the
// diag.Journal recording of the rejections enumerate.CalculateRFWithCnstrnts
// sees (see its doc comment for which rejections those are).
type DebugFlags struct {
	Solver bool `mapstructure:"solver"`
	Rfm    bool `mapstructure:"rfm"`
}

// Config is the flat knob set §6 names: everything the driver, rfreg,
// rfmem, finalize and cycle consult to decide how strict or exhaustive a
// run should be.
type Config struct {
	Verbose            int        `mapstructure:"verbose"`
	Optace             bool       `mapstructure:"optace"`
	Unroll             int        `mapstructure:"unroll"`
	Speedcheck         Speedcheck `mapstructure:"-"`
	ObservedFinalsOnly bool       `mapstructure:"observed_finals_only"`
	InitWrites         bool       `mapstructure:"initwrites"`
	CheckFilter        bool       `mapstructure:"check_filter"`
	Debug              DebugFlags `mapstructure:"debug"`
}

// Default returns the conservative defaults §6 implies when a test declares
// no config section of its own: no pruning, no speculative early-exit, a
// generous but finite unroll bound.
func Default() Config {
	return Config{
		Unroll: 10,
	}
}

// Load reads a Config from the file at path, starting from Default and
// overlaying whatever the file sets. speedcheck is unmarshalled separately
// from its literal {Off, On, Fast} string since it is the one field whose
// file representation is not a direct Go-kind match for its Go type.
func Load(path string) (Config, error) {
	c := Default()
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return Config{}, err
	}
	if err := viper.Unmarshal(&c); err != nil {
		return Config{}, err
	}
	if raw := viper.GetString("speedcheck"); raw != "" {
		sc, err := ParseSpeedcheck(raw)
		if err != nil {
			return Config{}, err
		}
		c.Speedcheck = sc
	}
	return c, nil
}
