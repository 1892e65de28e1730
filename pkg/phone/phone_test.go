package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"whatsapp prefix", "whatsapp:+919876543210", "919876543210"},
		{"e164", "+919876543210", "919876543210"},
		{"bare ten digits", "9876543210", "919876543210"},
		{"trunk zero", "09876543210", "919876543210"},
		{"international 00 dialing", "00919876543210", "919876543210"},
		{"spaces and dashes", "+91 98765-43210", "919876543210"},
		{"already normalized", "919876543210", "919876543210"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"whatsapp:+919876543210",
		"09876543210",
		"00919876543210",
		"0091 98765 43210",
		"9876543210",
		"+1 (415) 523-8886",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestToE164(t *testing.T) {
	assert.Equal(t, "+919876543210", ToE164("whatsapp:+919876543210"))
	assert.Equal(t, "+919876543210", ToE164("9876543210"))
	assert.Equal(t, "", ToE164("123"))
}

func TestIsE164(t *testing.T) {
	assert.True(t, IsE164("+919876543210"))
	assert.True(t, IsE164("+14155238886"))
	assert.False(t, IsE164("919876543210"), "missing plus")
	assert.False(t, IsE164("+12345"), "too short")
	assert.False(t, IsE164("+1234567890123456"), "too long")
	assert.False(t, IsE164("+91abc6543210"), "non-digit")
}
