package config

import (
	"net"
	"net/url"
	"strconv"
	"time"

	units "github.com/docker/go-units"
	"github.com/pkg/errors"
)

const (
	DefaultHost        = "localhost"
	DefaultPort        = 13000
	DefaultTimeout     = 10 * time.Second
	DefaultMaxBodySize = "1MiB"

	// PasswordEnv is consulted when no password flag is given.
	PasswordEnv = "KANNEL_PASSWORD"

	statusPath = "/status.xml"
)

// CheckConfig holds configuration for a single gateway status check.
type CheckConfig struct {
	Host        string
	Port        int
	Password    string // Sent as the "password" query parameter
	Pattern     string // Regular expression an SMSC id must contain a match for; empty checks all
	Timeout     time.Duration
	MaxBodySize int64 // Largest accepted response body, in bytes
}

// Default returns a configuration with the gateway's stock admin port.
func Default() *CheckConfig {
	maxBody, _ := ParseSize(DefaultMaxBodySize)
	return &CheckConfig{
		Host:        DefaultHost,
		Port:        DefaultPort,
		Timeout:     DefaultTimeout,
		MaxBodySize: maxBody,
	}
}

// Validate reports the first configuration problem. The id pattern is
// checked when it is compiled, by kannel.CompilePattern.
func (c *CheckConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port %d out of range", c.Port)
	}
	if c.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxBodySize <= 0 {
		return errors.Errorf("max body size must be positive, got %d", c.MaxBodySize)
	}
	return nil
}

// StatusURL returns the URL of the gateway's XML status page.
func (c *CheckConfig) StatusURL() string {
	return c.statusURL(c.Password)
}

// RedactedURL is StatusURL with the password masked, for logging.
func (c *CheckConfig) RedactedURL() string {
	if c.Password == "" {
		return c.statusURL("")
	}
	return c.statusURL("xxxxx")
}

func (c *CheckConfig) statusURL(password string) string {
	u := url.URL{
		Scheme:   "http",
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     statusPath,
		RawQuery: url.Values{"password": {password}}.Encode(),
	}
	return u.String()
}

// ParseSize parses a human-readable size such as "512KiB" or "1m" into bytes.
func ParseSize(s string) (int64, error) {
	size, err := units.RAMInBytes(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid size %q", s)
	}
	return size, nil
}
