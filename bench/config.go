package bench

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Config mirrors the bench command's flags for file-based configuration.
// Flags set on the command line override values loaded from a file.
type Config struct {
	Formats     []string      `yaml:"formats"`
	Repetitions int           `yaml:"repetitions"`
	Discard     int           `yaml:"discard"`
	Seed        int64         `yaml:"seed"`
	BindleBin   string        `yaml:"bindleBin"`
	BindleSrc   string        `yaml:"bindleSrc"`
	SkipBuild   bool          `yaml:"skipBuild"`
	Timeout     time.Duration `yaml:"timeout"`
	KeepScratch bool          `yaml:"keepScratch"`
	JSON        bool          `yaml:"json"`
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	return &cfg, nil
}
