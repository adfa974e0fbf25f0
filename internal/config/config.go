package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// Config holds the client settings.
type Config struct {
	APIURL         string   `json:"api_url"`
	OwnerID        int      `json:"owner_id,omitempty"`
	ErrorDelay     Duration `json:"error_delay"`
	RequestTimeout Duration `json:"request_timeout"`

	// Sources tracks which config files were loaded (for diagnostics).
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global   string
	Explicit string
}

// ErrNoOwner means no usable owner id was configured. The todo UI refuses to
// start without one.
var ErrNoOwner = errors.New("owner id is not set: pass --owner, set TADA_OWNER_ID, or add owner_id to the config file")

func DefaultConfig() Config {
	return Config{
		APIURL:         "http://localhost:8080",
		ErrorDelay:     Duration(3 * time.Second),
		RequestTimeout: Duration(10 * time.Second),
	}
}

// GlobalPath is $XDG_CONFIG_HOME/tada/config.json or ~/.config/tada/config.json.
// Returns "" if neither can be determined.
func GlobalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "tada", "config.json")
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "tada", "config.json")
	}
	return ""
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	ConfigPath string            // --config; must exist when set
	APIURL     string            // --api-url override
	OwnerID    int               // --owner override; 0 means unset
	Env        map[string]string // environment variables
}

// Load resolves configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config
// 3. Explicit config file (--config)
// 4. Environment (TADA_API_URL, TADA_OWNER_ID)
// 5. Flag overrides.
//
// Load does not validate the owner id; call Validate once the token has had a
// chance to supply it.
func Load(in LoadInput) (Config, error) {
	cfg := DefaultConfig()

	if p := GlobalPath(in.Env); p != "" {
		global, err := readFile(p)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, err
		default:
			cfg = merge(cfg, global)
			cfg.Sources.Global = p
		}
	}

	if in.ConfigPath != "" {
		explicit, err := readFile(in.ConfigPath)
		if err != nil {
			return Config{}, err
		}
		cfg = merge(cfg, explicit)
		cfg.Sources.Explicit = in.ConfigPath
	}

	if v := strings.TrimSpace(in.Env["TADA_API_URL"]); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(in.Env["TADA_OWNER_ID"]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("TADA_OWNER_ID: not a number: %q", v)
		}
		cfg.OwnerID = n
	}

	if in.APIURL != "" {
		cfg.APIURL = in.APIURL
	}
	if in.OwnerID != 0 {
		cfg.OwnerID = in.OwnerID
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return cfg, nil
}

// Validate checks the settings the todo UI cannot run without.
func (c Config) Validate() error {
	if c.OwnerID <= 0 {
		return ErrNoOwner
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_url: invalid URL %q", c.APIURL)
	}
	if c.ErrorDelay < 0 || c.RequestTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

// fileConfig is one config file. A nil field was not set in that file, so an
// explicit "0s" still overrides a lower layer.
type fileConfig struct {
	APIURL         *string   `json:"api_url"`
	OwnerID        *int      `json:"owner_id"`
	ErrorDelay     *Duration `json:"error_delay"`
	RequestTimeout *Duration `json:"request_timeout"`
}

func readFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileConfig{}, fmt.Errorf("config %s: %w", path, err)
		}
		return fileConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return parse(path, data)
}

// parse accepts JSON with comments and trailing commas.
func parse(path string, data []byte) (fileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	var fc fileConfig
	if err := dec.Decode(&fc); err != nil {
		return fileConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	return fc, nil
}

func merge(base Config, over fileConfig) Config {
	if over.APIURL != nil && *over.APIURL != "" {
		base.APIURL = *over.APIURL
	}
	if over.OwnerID != nil {
		base.OwnerID = *over.OwnerID
	}
	if over.ErrorDelay != nil {
		base.ErrorDelay = *over.ErrorDelay
	}
	if over.RequestTimeout != nil {
		base.RequestTimeout = *over.RequestTimeout
	}
	return base
}

// Write stores cfg at path atomically, creating parent directories.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(append(b, '\n'))); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Duration is a time.Duration that reads and writes as "3s" in JSON.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"3s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Environ turns os.Environ into the map Load expects.
func Environ() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
