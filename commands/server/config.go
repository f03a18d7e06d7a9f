package server

import (
	"bufio"
	"os"
	"path/filepath"
	"reflect"

	"github.com/naoina/toml"

	"github.com/fluida-labs/fluida/errors"
)

// ConfigFile is the name of the daemon configuration inside of the home
// directory.
const ConfigFile = "fluidad.toml"

// Supported storage backends.
const (
	StoreIAVL = "iavl"
	StoreBolt = "bolt"
)

// Config holds all daemon settings.
type Config struct {
	// Bind is the address the ABCI server listens on.
	Bind string
	// Debug returns full error information in responses.
	Debug bool
	// Store selects the storage backend, either "iavl" or "bolt".
	Store string
	// DataDir is the directory of the application database, relative to
	// the home directory unless absolute.
	DataDir string
	HTTP    HTTPConfig
}

// HTTPConfig configures the read only query API.
type HTTPConfig struct {
	// Listen is the address of the HTTP server. Empty disables it.
	Listen string `toml:",omitempty"`
}

// DefaultConfig returns the settings used when no configuration file
// exists.
func DefaultConfig() Config {
	return Config{
		Bind:    "tcp://localhost:26658",
		Store:   StoreIAVL,
		DataDir: "data",
		HTTP:    HTTPConfig{Listen: "localhost:8080"},
	}
}

// Validate returns an error if the settings cannot be used.
func (c Config) Validate() error {
	if c.Bind == "" {
		return errors.Wrap(errors.ErrEmpty, "bind address")
	}
	switch c.Store {
	case StoreIAVL, StoreBolt:
	default:
		return errors.Wrapf(errors.ErrInput, "unknown store %q", c.Store)
	}
	if c.DataDir == "" {
		return errors.Wrap(errors.ErrEmpty, "data directory")
	}
	return nil
}

// DataPath returns the absolute location of the application database.
func (c Config) DataPath(home string) string {
	if filepath.IsAbs(c.DataDir) {
		return c.DataDir
	}
	return filepath.Join(home, c.DataDir)
}

// TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return errors.Wrapf(errors.ErrInput, "field %q is not defined in %s", field, rt.String())
	},
}

// LoadConfig reads the configuration file from the home directory. Default
// settings are returned if the file does not exist.
func LoadConfig(home string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(filepath.Join(home, ConfigFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrInput, err.Error())
	}
	defer f.Close()

	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg); err != nil {
		if _, ok := err.(*toml.LineError); ok {
			return cfg, errors.Wrapf(errors.ErrInput, "%s, %s", ConfigFile, err)
		}
		return cfg, errors.Wrap(errors.ErrInput, err.Error())
	}
	return cfg, cfg.Validate()
}

// WriteConfig stores the configuration in the home directory.
func WriteConfig(home string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	raw, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(home, ConfigFile), raw, 0600)
}
