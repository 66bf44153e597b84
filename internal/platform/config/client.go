package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// ClientConfig configures the favsync CLI.
type ClientConfig struct {
	APIURL string
	// Token is a bearer token for AUTH_MODE=jwt servers.
	Token string
	// DebugSubject is sent as X-Debug-Subject to AUTH_MODE=dev servers.
	DebugSubject  string
	RemoteTimeout time.Duration
	LogEnv        string
}

const (
	DefaultClientConfigPath = "~/.config/favsync/config.toml"
	defaultAPIURL           = "http://127.0.0.1:8080"
	defaultRemoteTimeout    = 10 * time.Second
	defaultClientLogEnv     = "development"
)

// LoadClientConfig reads the TOML file at path (DefaultClientConfigPath when
// empty). A missing file yields defaults. FAVSYNC_API_URL, FAVSYNC_TOKEN and
// FAVSYNC_SUBJECT override the file.
func LoadClientConfig(path string) (ClientConfig, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultClientConfigPath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return ClientConfig{}, err
	}

	cfg := ClientConfig{
		APIURL:        defaultAPIURL,
		RemoteTimeout: defaultRemoteTimeout,
		LogEnv:        defaultClientLogEnv,
	}

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return ClientConfig{}, fmt.Errorf("read config: %w", err)
	default:
		var raw struct {
			APIURL        string `toml:"api_url"`
			Token         string `toml:"token"`
			DebugSubject  string `toml:"debug_subject"`
			RemoteTimeout string `toml:"remote_timeout"`
			LogEnv        string `toml:"log_env"`
		}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return ClientConfig{}, fmt.Errorf("parse config: %w", err)
		}
		if v := strings.TrimSpace(raw.APIURL); v != "" {
			cfg.APIURL = v
		}
		cfg.Token = strings.TrimSpace(raw.Token)
		cfg.DebugSubject = strings.TrimSpace(raw.DebugSubject)
		if v := strings.TrimSpace(raw.RemoteTimeout); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				return ClientConfig{}, fmt.Errorf("remote_timeout must be a positive duration (got %q)", v)
			}
			cfg.RemoteTimeout = d
		}
		if v := strings.TrimSpace(raw.LogEnv); v != "" {
			cfg.LogEnv = v
		}
	}

	cfg.APIURL = strings.TrimRight(getenv("FAVSYNC_API_URL", cfg.APIURL), "/")
	cfg.Token = getenv("FAVSYNC_TOKEN", cfg.Token)
	cfg.DebugSubject = getenv("FAVSYNC_SUBJECT", cfg.DebugSubject)
	return cfg, nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
