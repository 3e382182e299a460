// Package config loads the settings of one simulation run.
//
// Values are layered: built-in defaults, then an optional YAML file
// (--config), then flags, then the positional arguments
//
//	barsim [patrons [policy [switch [quantum [seed [output]]]]]]
//
// Malformed values are errors; the driver must not start a run with them.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/azargarov/barsched"
)

const (
	DefaultPatrons   = 10
	DefaultQuantumMS = 10000
	DefaultOutputDir = "output"
)

// Config holds the settings of one run. Times are in milliseconds.
type Config struct {
	Patrons         int    `yaml:"patrons"`
	Policy          int    `yaml:"policy"`
	SwitchMS        int    `yaml:"switch_ms"`
	QuantumMS       int    `yaml:"quantum_ms"`
	Seed            int64  `yaml:"seed"`
	Output          string `yaml:"output"`
	OutputDir       string `yaml:"output_dir"`
	DrinksPerPatron int    `yaml:"drinks_per_patron"`
	MaxThinkMS      int    `yaml:"max_think_ms"`
	MetricsAddr     string `yaml:"metrics_addr"`
	PinServer       bool   `yaml:"pin_server"`
	CPU             int    `yaml:"cpu"`
}

// Default returns the settings used when nothing is given.
func Default() Config {
	return Config{
		Patrons:         DefaultPatrons,
		Policy:          int(barsched.FCFS),
		QuantumMS:       DefaultQuantumMS,
		OutputDir:       DefaultOutputDir,
		DrinksPerPatron: barsched.DefaultDrinksPerPatron,
		MaxThinkMS:      int(barsched.DefaultMaxThink / time.Millisecond),
	}
}

// Load reads YAML from r on top of c. Keys absent from the document
// keep their current values.
func (c *Config) Load(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode: %w", err)
	}
	return nil
}

// LoadFile reads the YAML file at path on top of c.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}

// BindFlags registers a flag for every setting, defaulting to c's
// current values.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&c.Patrons, "patrons", "n", c.Patrons, "number of patrons")
	fs.IntVarP(&c.Policy, "policy", "p", c.Policy, "scheduling policy: 0=FCFS, 1=SJF, 2=RR")
	fs.IntVarP(&c.SwitchMS, "switch", "s", c.SwitchMS, "context switch delay in ms")
	fs.IntVarP(&c.QuantumMS, "quantum", "q", c.QuantumMS, "round robin quantum in ms")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "random seed, 0 for non-deterministic")
	fs.StringVarP(&c.Output, "output", "o", c.Output, "report file name (default derived from policy and switch delay)")
	fs.StringVar(&c.OutputDir, "output-dir", c.OutputDir, "directory for the report file")
	fs.IntVar(&c.DrinksPerPatron, "drinks", c.DrinksPerPatron, "drinks each patron orders")
	fs.IntVar(&c.MaxThinkMS, "max-think", c.MaxThinkMS, "longest pause in ms before a patron orders")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve Prometheus metrics on this address while running")
	fs.BoolVar(&c.PinServer, "pin-server", c.PinServer, "pin the bartender to one CPU (Linux)")
	fs.IntVar(&c.CPU, "cpu", c.CPU, "CPU used with --pin-server")
}

// ApplyArgs applies the positional arguments in their fixed order.
func (c *Config) ApplyArgs(args []string) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"patrons", &c.Patrons},
		{"policy", &c.Policy},
		{"switch", &c.SwitchMS},
		{"quantum", &c.QuantumMS},
	}
	for i, a := range args {
		switch {
		case i < len(ints):
			v, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("config: argument %d (%s): %w", i+1, ints[i].name, err)
			}
			*ints[i].dst = v
		case i == 4:
			v, err := strconv.ParseInt(a, 10, 64)
			if err != nil {
				return fmt.Errorf("config: argument 5 (seed): %w", err)
			}
			c.Seed = v
		case i == 5:
			c.Output = a
		default:
			return fmt.Errorf("config: unexpected argument %q", a)
		}
	}
	return nil
}

// Validate reports settings that cannot describe a run.
func (c Config) Validate() error {
	var errs []error
	if c.Patrons < 0 {
		errs = append(errs, fmt.Errorf("patrons must not be negative, got %d", c.Patrons))
	}
	if !barsched.PolicyKind(c.Policy).Valid() {
		errs = append(errs, fmt.Errorf("policy must be 0, 1 or 2, got %d", c.Policy))
	}
	if c.SwitchMS < 0 {
		errs = append(errs, fmt.Errorf("switch delay must not be negative, got %d", c.SwitchMS))
	}
	if c.QuantumMS <= 0 {
		errs = append(errs, fmt.Errorf("quantum must be positive, got %d", c.QuantumMS))
	}
	if c.DrinksPerPatron <= 0 {
		errs = append(errs, fmt.Errorf("drinks per patron must be positive, got %d", c.DrinksPerPatron))
	}
	if c.MaxThinkMS < 0 {
		errs = append(errs, fmt.Errorf("max think must not be negative, got %d", c.MaxThinkMS))
	}
	if c.CPU < 0 {
		errs = append(errs, fmt.Errorf("cpu must not be negative, got %d", c.CPU))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// PolicyKind returns the configured policy.
func (c Config) PolicyKind() barsched.PolicyKind { return barsched.PolicyKind(c.Policy) }

// OutputPath returns where the report goes. Without an explicit name it
// is <policy>_switch_<s>[_quantum_<q>].csv inside OutputDir.
func (c Config) OutputPath() string {
	name := c.Output
	if name == "" {
		name = fmt.Sprintf("%s_switch_%d", c.PolicyKind(), c.SwitchMS)
		if c.PolicyKind() == barsched.RR {
			name += fmt.Sprintf("_quantum_%d", c.QuantumMS)
		}
		name += ".csv"
	}
	return filepath.Join(c.OutputDir, name)
}

// ServerOptions converts the settings into server options.
func (c Config) ServerOptions() barsched.Options {
	o := barsched.Options{
		Policy:      c.PolicyKind(),
		SwitchDelay: time.Duration(c.SwitchMS) * time.Millisecond,
		Quantum:     time.Duration(c.QuantumMS) * time.Millisecond,
		PinServer:   c.PinServer,
		CPU:         c.CPU,
	}
	o.FillDefaults()
	return o
}

// Patron returns the template for patron id.
func (c Config) Patron(id int) barsched.Patron {
	return barsched.Patron{
		ID:       id,
		Drinks:   c.DrinksPerPatron,
		MaxThink: time.Duration(c.MaxThinkMS) * time.Millisecond,
	}
}

// Parse builds the configuration from command-line arguments.
// pflag.ErrHelp is returned when help was requested.
func Parse(name string, args []string, usageOut io.Writer) (Config, error) {
	cfg := Default()

	// First pass only finds --config so the file sits under the flags.
	pre := pflag.NewFlagSet(name, pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.Usage = func() {}
	pre.SetOutput(io.Discard)
	path := pre.String("config", "", "")
	if err := pre.Parse(args); err != nil && !errors.Is(err, pflag.ErrHelp) {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if *path != "" {
		if err := cfg.LoadFile(*path); err != nil {
			return cfg, err
		}
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(usageOut)
	fs.String("config", *path, "YAML file with settings")
	cfg.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return cfg, err
		}
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := cfg.ApplyArgs(fs.Args()); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
