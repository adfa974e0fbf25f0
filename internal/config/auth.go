package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/natefinch/atomic"
)

const credFileName = "credentials.json"

// TokenEnv overrides any stored token.
const TokenEnv = "TADA_TOKEN"

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // optional (JWT or server-provided)
}

func credsDir(env map[string]string) (string, error) {
	home := env["HOME"]
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return "", fmt.Errorf("home: %w", err)
		}
	}
	return filepath.Join(home, ".tada"), nil
}

// CredentialsPath is ~/.tada/credentials.json.
func CredentialsPath(env map[string]string) (string, error) {
	dir, err := credsDir(env)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credFileName), nil
}

// GetToken returns the env token, else the stored one, else nil.
func GetToken(env map[string]string) (*TokenInfo, error) {
	if v := strings.TrimSpace(env[TokenEnv]); v != "" {
		return &TokenInfo{Token: stripBearer(v), Source: "env"}, nil
	}

	p, err := CredentialsPath(env)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // not logged in
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	ti.Token = stripBearer(ti.Token)
	return &ti, nil
}

// SetToken stores token with owner-only permissions. The expiry is taken
// from the token itself when it is a JWT carrying exp.
func SetToken(env map[string]string, token string) (*TokenInfo, error) {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return nil, errors.New("empty token")
	}
	dir, err := credsDir(env)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	ti := TokenInfo{
		Token:     token,
		Source:    "file",
		CreatedAt: time.Now().UTC(),
	}
	if claims, err := Claims(token); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			t := exp.UTC()
			ti.ExpiresAt = &t
		}
	}
	b, err := json.MarshalIndent(ti, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	p := filepath.Join(dir, credFileName)
	if err := atomic.WriteFile(p, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	if err := os.Chmod(p, 0o600); err != nil {
		return nil, fmt.Errorf("chmod: %w", err)
	}
	return &ti, nil
}

func DeleteToken(env map[string]string) error {
	p, err := CredentialsPath(env)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// ErrOpaqueToken is returned by Claims for tokens that are not JWTs.
var ErrOpaqueToken = errors.New("opaque token (cannot introspect locally)")

// Claims decodes a JWT payload without verifying the signature; the server
// is the one that checks it.
func Claims(token string) (gojwt.MapClaims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, ErrOpaqueToken
	}
	claims := gojwt.MapClaims{}
	if _, _, err := gojwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpaqueToken, err)
	}
	return claims, nil
}

// OwnerFromToken reads the user_id claim of a JWT. It returns 0 when the
// token is opaque or carries no usable id.
func OwnerFromToken(token string) int {
	claims, err := Claims(token)
	if err != nil {
		return 0
	}
	switch v := claims["user_id"].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

// ResolveOwner fills OwnerID from the token when nothing else set it.
func (c *Config) ResolveOwner(ti *TokenInfo) {
	if c.OwnerID != 0 || ti == nil {
		return
	}
	c.OwnerID = OwnerFromToken(ti.Token)
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
