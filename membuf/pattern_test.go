package membuf

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		in   string
		want Pattern
	}{
		{"324050607080", "324050607080"},
		{"aa:bb:cc:dd:ee:ff", "AABBCCDDEEFF"},
		{"AA-BB-CC-DD-EE-FF", "AABBCCDDEEFF"},
		{" 0a0b ", "0A0B"},
	}
	for _, tt := range tests {
		p, err := ParsePattern(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, p)
	}

	for _, bad := range []string{"", "ABC", "GG", "::"} {
		_, err := ParsePattern(bad)
		assert.True(t, errors.Is(err, ErrInvalidPattern), "%q: %v", bad, err)
	}
}

func TestParseMAC(t *testing.T) {
	p, err := ParseMAC("02:00:00:00:00:2a")
	require.NoError(t, err)
	assert.Equal(t, 6, p.Len())
	assert.Equal(t, []byte{0x02, 0, 0, 0, 0, 0x2A}, p.Bytes())
	assert.Equal(t, "2A", p.Hex(5))

	_, err = ParseMAC("0200000000")
	assert.True(t, errors.Is(err, ErrInvalidPattern))

	assert.Panics(t, func() { MustParseMAC("nope") })
}

func TestPatternNext(t *testing.T) {
	p, err := MustParseMAC("0200000000FE").Next()
	require.NoError(t, err)
	assert.Equal(t, Pattern("0200000000FF"), p)

	p, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, Pattern("020000000100"), p)

	_, err = MustParseMAC("FFFFFFFFFFFF").Next()
	assert.True(t, errors.Is(err, ErrInvalidPattern))
}

func TestUpdateConfigValidate(t *testing.T) {
	assert.NoError(t, netCfg.Validate())

	cfg := UpdateConfig{Old: "3240", New: "AABBCC"}
	assert.Error(t, cfg.Validate())

	cfg = UpdateConfig{New: "AABBCC"}
	assert.Error(t, cfg.Validate())

	rev := netCfg.Reverse()
	assert.Equal(t, netCfg.New, rev.Old)
	assert.Equal(t, netCfg.Old, rev.New)
}
