package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMinor(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"100.00", 10000, true},
		{"$1,234.56", 123456, true},
		{"-40.00", -4000, true},
		{"(40.00)", -4000, true},
		{"0", 0, true},
		{"99", 9900, true},
		{"  3.5 ", 350, true},
		{"12.999", 1299, true}, // truncated, not rounded
		{"HK$250.75", 25075, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
	}

	for _, c := range cases {
		got, err := ParseMinor(c.in)
		if !c.ok {
			assert.Error(t, err, "input %q", c.in)
			continue
		}
		assert.NoError(t, err, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestFormatMinor(t *testing.T) {
	assert.Equal(t, "$123.45", FormatMinor(12345, "usd"))
	assert.Equal(t, "-$0.99", FormatMinor(-99, "usd"))
	assert.Equal(t, "HK$10.00", FormatMinor(1000, "hkd"))
	assert.Equal(t, "¥150", FormatMinor(15000, "jpy"))
	assert.Equal(t, "SEK 12.00", FormatMinor(1200, "sek"))
}

func TestAbs(t *testing.T) {
	assert.Equal(t, int64(5), Abs(-5))
	assert.Equal(t, int64(5), Abs(5))
	assert.Equal(t, int64(0), Abs(0))
}
