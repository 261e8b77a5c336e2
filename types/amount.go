package types

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
	"github.com/pkg/errors"
)

const EtherDecimals = 18

// checked in order; gwei before wei
var units = []struct {
	suffix   string
	decimals int
}{
	{"gwei", 9},
	{"ether", EtherDecimals},
	{"eth", EtherDecimals},
	{"wei", 0},
}

// ParseEther parses an amount such as "1", "0.25 ether", "10gwei" or "500 wei"
// into wei. A bare number is taken as ether.
func ParseEther(s string) (*big.Int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	decimals := EtherDecimals
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			decimals = u.decimals
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			break
		}
	}
	if s == "" {
		return nil, errors.New("empty amount")
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > decimals {
		return nil, errors.Errorf("amount %q has more than %d decimal places", s, decimals)
	}
	if whole == "" {
		whole = "0"
	}
	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, errors.Errorf("invalid amount %q", s)
		}
	}
	wei, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return wei, nil
}

// FormatEther renders wei as ether without trailing fractional zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	neg := wei.Sign() < 0
	abs := new(big.Int).Abs(wei)
	q, r := new(big.Int).QuoRem(abs, big.NewInt(params.Ether), new(big.Int))

	s := q.String()
	if r.Sign() != 0 {
		frac := strings.TrimRight(leftPad(r.String(), EtherDecimals), "0")
		s += "." + frac
	}
	if neg {
		s = "-" + s
	}
	return s
}

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}
