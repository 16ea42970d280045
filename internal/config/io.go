package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"wb-updater/internal/platform/paths"
)

var (
	ErrNotFound = errors.New("config not found")
	ErrNoToken  = errors.New("api token is not set")
)

// tokenEnv is the only environment variable this program reads. Components
// never touch the environment themselves; the token reaches them through the
// Config value built here.
const tokenEnv = "WB_API_TOKEN"

func Load(path string) (Config, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		var err error
		p, err = paths.ConfigFilePath()
		if err != nil {
			return Config{}, err
		}
	}

	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, ErrNotFound
		}
		return Config{}, err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	return applyOverrides(cfg), nil
}

func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, ErrNotFound) {
		return applyOverrides(Default()), nil
	}
	return Config{}, err
}

// Validate reports the single fatal precondition: a missing credential. All
// other pipeline inputs degrade to warnings at runtime.
func (c Config) Validate() error {
	if strings.TrimSpace(c.API.Token) == "" {
		return ErrNoToken
	}
	return nil
}

func applyOverrides(cfg Config) Config {
	if v := strings.TrimSpace(os.Getenv(tokenEnv)); v != "" {
		cfg.API.Token = v
	}
	if cfg.API.PricesBaseURL == "" {
		cfg.API.PricesBaseURL = DefaultPricesBaseURL
	}
	if cfg.API.StocksBaseURL == "" {
		cfg.API.StocksBaseURL = DefaultStocksBaseURL
	}
	if cfg.TargetDir == "" {
		cfg.TargetDir = "."
	}
	return cfg
}

func Save(cfg Config, path string) error {
	p := strings.TrimSpace(path)
	if p == "" {
		var err error
		p, err = paths.ConfigFilePath()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_ = tmp.Chmod(0o600)

	_, writeErr := tmp.Write(out)
	syncErr := tmp.Sync()
	closeErr := tmp.Close()

	if writeErr != nil || syncErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		if writeErr != nil {
			return writeErr
		}
		if syncErr != nil {
			return syncErr
		}
		return closeErr
	}

	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
