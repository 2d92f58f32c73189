package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	payload := []byte(`1700000000.{"event":"payment.confirmed"}`)
	sig := GenerateSignature(payload, "whsec")
	tampered := "a" + sig[1:]
	if sig[0] == 'a' {
		tampered = "b" + sig[1:]
	}

	tests := []struct {
		name string
		sig  string
		want bool
	}{
		{name: "plain hex", sig: sig, want: true},
		{name: "prefixed", sig: "sha256=" + sig, want: true},
		{name: "empty", sig: "", want: false},
		{name: "prefix only", sig: "sha256=", want: false},
		{name: "tampered", sig: tampered, want: false},
		{name: "uppercase hex", sig: strings.ToUpper(sig), want: false},
		{name: "padded", sig: " " + sig, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySignature(payload, tt.sig, "whsec"))
		})
	}

	assert.False(t, VerifySignature(payload, sig, "other"))
}

func TestVerifySignatureRejectsEverySingleByteChange(t *testing.T) {
	payload := []byte(`1700000000.{"event":"payment.confirmed","id":"evt_1"}`)
	sig := "sha256=" + GenerateSignature(payload, "whsec")
	require.True(t, VerifySignature(payload, sig, "whsec"))

	for _, mask := range []byte{0x01, 0x20} {
		for i := range payload {
			mutated := append([]byte(nil), payload...)
			mutated[i] ^= mask
			assert.False(t, VerifySignature(mutated, sig, "whsec"), "payload byte %d mask %#x", i, mask)
		}
		for i := range sig {
			mutated := []byte(sig)
			mutated[i] ^= mask
			assert.False(t, VerifySignature(payload, string(mutated), "whsec"), "signature byte %d mask %#x", i, mask)
		}
	}
}
