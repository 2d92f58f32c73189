package utils

import (
	"crypto/rand"
	"strings"
)

// Alphabets exclude characters that are easy to misread (0 O o 1 l I i).
const (
	accessTokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"
	licenseAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

const (
	AccessTokenLength   = 24
	ReferenceCodeLength = 8
	licenseGroups       = 4
	licenseGroupLength  = 5
)

// randomString draws n characters from alphabet using crypto/rand. Bytes that
// would bias the distribution are discarded.
func randomString(alphabet string, n int) (string, error) {
	size := len(alphabet)
	limit := 256 - 256%size
	out := make([]byte, 0, n)
	buf := make([]byte, n+n/2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%size])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// GenerateAccessToken returns the 24 character token that gives a buyer
// access to their order.
func GenerateAccessToken() (string, error) {
	return randomString(accessTokenAlphabet, AccessTokenLength)
}

// GenerateReferenceCode returns the short code buyers quote as the transfer
// reference. Example: 7KQ2MZTA
func GenerateReferenceCode() (string, error) {
	return randomString(licenseAlphabet, ReferenceCodeLength)
}

// GenerateLicenseKey returns a key in the form XXXXX-XXXXX-XXXXX-XXXXX.
func GenerateLicenseKey() (string, error) {
	raw, err := randomString(licenseAlphabet, licenseGroups*licenseGroupLength)
	if err != nil {
		return "", err
	}
	groups := make([]string, 0, licenseGroups)
	for i := 0; i < len(raw); i += licenseGroupLength {
		groups = append(groups, raw[i:i+licenseGroupLength])
	}
	return strings.Join(groups, "-"), nil
}

// IsAccessToken reports whether s has the shape of an access token.
func IsAccessToken(s string) bool {
	if len(s) != AccessTokenLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(accessTokenAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
