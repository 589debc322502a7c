package spotify

import (
	"encoding/base32"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Web player secret, published per version as an obfuscated byte list
const DefaultTOTPVersion = 5

var DefaultTOTPCipher = []int{12, 56, 76, 33, 88, 44, 88, 33, 78, 78, 11, 66, 22, 22, 55, 69, 54}

// TOTP derives the one-time codes the web player sends when it asks for a token
type TOTP struct {
	Version int
	Cipher  []int
}

// ParseCipher reads a comma separated list of byte values
func ParseCipher(s string) ([]int, error) {
	var out []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 || n > 255 {
			return nil, fmt.Errorf("invalid cipher byte %q", field)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty cipher")
	}
	return out, nil
}

// Secret returns the base32 shared secret. Each cipher byte is XORed with
// (index % 33) + 9, the results are written out as decimal digits and those
// digits are the key bytes.
func (t TOTP) Secret() string {
	var digits strings.Builder
	for i, b := range t.Cipher {
		digits.WriteString(strconv.Itoa(b ^ (i%33 + 9)))
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte(digits.String()))
}

// Generate returns the 6 digit SHA1 code for the 30s window containing at
func (t TOTP) Generate(at time.Time) (string, error) {
	return totp.GenerateCodeCustom(t.Secret(), at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}
