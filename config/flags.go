package config

import (
	"flag"
	"os"
)

// FromArgs resolves the full configuration for a command line: defaults,
// then the YAML file named by -config (or PONG_CONFIG), then the
// environment, then any flags given explicitly in args.
func FromArgs(name string, args []string) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("config", os.Getenv("PONG_CONFIG"), "path to a YAML config file")
	Default().RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := Load(*path)
	if err != nil {
		return nil, err
	}

	// Replay explicit flags on top of file and environment.
	apply := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg.RegisterFlags(apply)
	var setErr error
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" || setErr != nil {
			return
		}
		setErr = apply.Set(f.Name, f.Value.String())
	})
	if setErr != nil {
		return nil, setErr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
