package membuf

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// MACLen is the length of a MAC address in bytes.
const MACLen = 6

var ErrInvalidPattern = errors.New("invalid pattern")

// Pattern is a byte sequence held as upper-case hex digits, two per byte.
type Pattern string

// ParsePattern accepts plain hex digits or MAC style notation separated by
// ':' or '-'.
func ParsePattern(s string) (Pattern, error) {
	digits := strings.NewReplacer(":", "", "-", "").Replace(strings.TrimSpace(s))
	if digits == "" {
		return "", errors.Wrap(ErrInvalidPattern, "empty")
	}
	if _, err := hex.DecodeString(digits); err != nil {
		return "", errors.Wrapf(ErrInvalidPattern, "%q: %v", s, err)
	}

	return Pattern(strings.ToUpper(digits)), nil
}

// ParseMAC is ParsePattern restricted to exactly MACLen bytes.
func ParseMAC(s string) (Pattern, error) {
	p, err := ParsePattern(s)
	if err != nil {
		return "", err
	}
	if p.Len() != MACLen {
		return "", errors.Wrapf(ErrInvalidPattern, "%q is %d bytes, want %d", s, p.Len(), MACLen)
	}

	return p, nil
}

func MustParseMAC(s string) Pattern {
	p, err := ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Len is the pattern length in bytes.
func (p Pattern) Len() int {
	return len(p) / 2
}

func (p Pattern) Bytes() []byte {
	b, _ := hex.DecodeString(string(p))
	return b
}

// Hex returns the two hex digits for byte i.
func (p Pattern) Hex(i int) string {
	return string(p[2*i : 2*i+2])
}

func (p Pattern) String() string {
	return string(p)
}

// Next returns the pattern incremented by one as a big-endian integer.
func (p Pattern) Next() (Pattern, error) {
	b := p.Bytes()
	for i := len(b) - 1; i >= 0; i-- {
		b[i]++
		if b[i] != 0 {
			return Pattern(strings.ToUpper(hex.EncodeToString(b))), nil
		}
	}

	return "", errors.Wrapf(ErrInvalidPattern, "%s overflows", p)
}

type UpdateConfig struct {
	Old Pattern
	New Pattern
}

func (c *UpdateConfig) Validate() error {
	if c.Old == "" || c.New == "" {
		return errors.Wrap(ErrInvalidPattern, "old and new patterns are required")
	}
	if c.Old.Len() != c.New.Len() {
		return errors.Wrapf(ErrInvalidPattern, "old is %d bytes, new is %d bytes", c.Old.Len(), c.New.Len())
	}

	return nil
}

// Reverse swaps the roles of the old and new patterns.
func (c UpdateConfig) Reverse() UpdateConfig {
	return UpdateConfig{Old: c.New, New: c.Old}
}
