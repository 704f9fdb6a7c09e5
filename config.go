package odbc

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-pkgz/lgr"
	"gopkg.in/yaml.v3"

	"github.com/semihalev/go-odbc/cli"
)

// Config configures a Session. The driver instance is passed here rather than
// held in process-wide state.
type Config struct {
	// API is the call-level interface the session drives.
	API cli.API `yaml:"-"`
	// Logger receives operational messages. Defaults to lgr.NoOp.
	Logger lgr.L `yaml:"-"`

	// Truncate clamps character parameters to the declared column size.
	Truncate bool `yaml:"truncate"`
	// ForwardOnly forces forward-only cursors even when the driver can scroll.
	ForwardOnly bool `yaml:"forward_only"`
	// ManualCommit disables the per-statement commit of RunQuery.
	ManualCommit bool `yaml:"manual_commit"`
	// LogFile opens the session log at connect time when set.
	LogFile string `yaml:"log_file"`
}

// LoadConfig reads the yaml representation of a Config. API and Logger are
// left for the caller to set.
func LoadConfig(fname string) (*Config, error) {
	res := &Config{}
	if err := LoadConfigFile(fname, res); err != nil {
		return nil, err
	}
	return res, nil
}

// LoadConfigFile decodes the yaml file fname into target. Callers that keep
// their own settings next to the session ones embed Config inline.
func LoadConfigFile(fname string, target any) error {
	data, err := os.ReadFile(fname) // nolint
	if err != nil {
		return fmt.Errorf("can't read config %s: %w", fname, err)
	}
	if err = yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("can't unmarshal config %s: %w", fname, err)
	}
	return nil
}

func (c Config) validate() error {
	if c.API == nil {
		return errors.New("no call-level API configured")
	}
	return nil
}

func (c Config) logger() lgr.L {
	if c.Logger == nil {
		return lgr.NoOp
	}
	return c.Logger
}
