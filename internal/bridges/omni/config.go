package omni

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Session tuning defaults.
const (
	defaultRetryInterval    = 5 * time.Second
	defaultMaxRetryInterval = 2 * time.Minute
	defaultRequestTimeout   = 10 * time.Second
	defaultQueueSize        = 256
)

// keyPartPattern matches one half of an encryption key: eight hex
// octets, upper case, joined by dashes.
var keyPartPattern = regexp.MustCompile(`^([0-9A-F]{2}-){7}[0-9A-F]{2}$`)

// Config identifies and tunes one controller session.
type Config struct {
	// Host is the controller's IPv4 address in dotted quad form.
	Host string `yaml:"host"`

	// Port is the Omni-Link TCP port, usually 4369.
	Port int `yaml:"port"`

	// KeyPart1 and KeyPart2 are the two halves of the 128 bit
	// encryption key, each formatted like "01-23-45-67-89-AB-CD-EF".
	KeyPart1 string `yaml:"key_part1"`
	KeyPart2 string `yaml:"key_part2"`

	// RetryInterval is the initial delay before a reconnect attempt.
	// It grows by half after each failure, up to MaxRetryInterval.
	RetryInterval    time.Duration `yaml:"retry_interval"`
	MaxRetryInterval time.Duration `yaml:"max_retry_interval"`

	// RequestTimeout bounds a single request/reply exchange.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// QueueSize bounds the in-session notification queue. Overflow
	// drops notifications and counts them in Stats.
	QueueSize int `yaml:"queue_size"`

	// Debug raises the session's own debug messages to info level so
	// they show up under a production log configuration.
	Debug bool `yaml:"debug"`

	// DebugTransport enables wire level logging on the transport from
	// the first connection. SetDebug toggles it at runtime.
	DebugTransport bool `yaml:"debug_transport"`
}

func (c *Config) applyDefaults() {
	if c.RetryInterval <= 0 {
		c.RetryInterval = defaultRetryInterval
	}
	if c.MaxRetryInterval <= 0 {
		c.MaxRetryInterval = defaultMaxRetryInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
}

// Validate checks the controller address and key format. All problems
// are collected into a single error wrapping ErrNotConfigured.
func (c Config) Validate() error {
	var errs []string

	if !validIPv4(c.Host) {
		errs = append(errs, fmt.Sprintf("host %q is not a dotted quad IPv4 address", c.Host))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("port %d is out of range 1-65535", c.Port))
	}
	if !keyPartPattern.MatchString(c.KeyPart1) {
		errs = append(errs, "key part 1 must be eight dash separated hex octets")
	}
	if !keyPartPattern.MatchString(c.KeyPart2) {
		errs = append(errs, "key part 2 must be eight dash separated hex octets")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrNotConfigured, strings.Join(errs, "; "))
	}
	return nil
}

// Address returns the host:port key this session is registered under.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Secret returns the full key in wire form, both halves joined by a
// dash (47 characters).
func (c Config) Secret() string {
	return c.KeyPart1 + "-" + c.KeyPart2
}

// Key composes the 16 byte encryption key from the two halves.
func (c Config) Key() ([16]byte, error) {
	var key [16]byte
	raw := strings.ReplaceAll(c.Secret(), "-", "")
	decoded, err := hex.DecodeString(raw)
	if err != nil || len(decoded) != 16 {
		return key, fmt.Errorf("%w: malformed encryption key", ErrNotConfigured)
	}
	copy(key[:], decoded)
	return key, nil
}

// ValidKeyPart reports whether s is a well formed encryption key half.
func ValidKeyPart(s string) bool {
	return keyPartPattern.MatchString(s)
}

func validIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > 3 {
			return false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}
