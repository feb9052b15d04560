package crowdsale

import (
	"fmt"
	"math/big"
	"strings"
)

var weiPerEther = big.NewInt(1_000_000_000_000_000_000)

func pow10(n int) *big.Int {
	if n <= 0 {
		return big.NewInt(1)
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// ScaleDown renders v / 10^decimals as a plain decimal string without
// trailing zeros ("1500000000000000000", 18 -> "1.5").
func ScaleDown(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	if decimals <= 0 {
		return v.String()
	}
	s := new(big.Int).Abs(v).String()
	neg := v.Sign() < 0
	if len(s) <= decimals {
		frac := strings.Repeat("0", decimals-len(s)) + s
		out := "0." + strings.TrimRight(frac, "0")
		if out == "0." {
			out = "0"
		}
		if neg {
			return "-" + out
		}
		return out
	}
	intPart := s[:len(s)-decimals]
	frac := strings.TrimRight(s[len(s)-decimals:], "0")
	out := intPart
	if frac != "" {
		out = intPart + "." + frac
	}
	if neg {
		return "-" + out
	}
	return out
}

// FromWei renders a wei amount in ether.
func FromWei(v *big.Int) string { return ScaleDown(v, 18) }

// ScaleUp parses a decimal token amount into base units. More fractional
// digits than decimals is an error.
func ScaleUp(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(strings.ReplaceAll(amount, ",", "."))
	if amount == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("negative amount %q", amount)
	}
	if decimals < 0 {
		decimals = 18
	}
	parts := strings.SplitN(amount, ".", 2)
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = strings.TrimRight(parts[1], "0")
	}
	if len(fracPart) > decimals {
		return nil, fmt.Errorf("too many fractional digits for %d decimals", decimals)
	}
	fracPart = fracPart + strings.Repeat("0", decimals-len(fracPart))
	clean := strings.TrimLeft(intPart+fracPart, "0")
	if clean == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(clean, 10)
	if !ok {
		return nil, fmt.Errorf("bad amount %q", amount)
	}
	return v, nil
}

// ParseDecimal parses a non-negative decimal string.
func ParseDecimal(s string) (*big.Rat, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	r, ok := new(big.Rat).SetString(s)
	if !ok || s == "" {
		return nil, fmt.Errorf("bad number %q", s)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("negative number %q", s)
	}
	return r, nil
}

// RatString renders r as a decimal string, exact for terminating fractions.
func RatString(r *big.Rat) string {
	if r == nil {
		return "0"
	}
	if r.IsInt() {
		return r.Num().String()
	}
	s := strings.TrimRight(r.FloatString(80), "0")
	return strings.TrimSuffix(s, ".")
}

// floorRat truncates a non-negative rational to an integer.
func floorRat(r *big.Rat) *big.Int {
	return new(big.Int).Quo(r.Num(), r.Denom())
}

// InvertRate turns a price in wei per token into tokens per ether,
// rounded half-up to an integer. A zero price yields "0".
func InvertRate(priceWei *big.Int) string {
	if priceWei == nil || priceWei.Sign() <= 0 {
		return "0"
	}
	q, r := new(big.Int).QuoRem(weiPerEther, priceWei, new(big.Int))
	if new(big.Int).Lsh(r, 1).Cmp(priceWei) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	return q.String()
}

// OneTokenInWei is floor(1e18 / rate) for a rate in tokens per ether.
func OneTokenInWei(rate string) (*big.Int, error) {
	r, err := ParseDecimal(rate)
	if err != nil {
		return nil, err
	}
	if r.Sign() == 0 {
		return nil, ErrZeroRate
	}
	q := new(big.Rat).Quo(new(big.Rat).SetInt(weiPerEther), r)
	return floorRat(q), nil
}

// TrimNUL decodes a bytes32 string field.
func TrimNUL(b [32]byte) string {
	return strings.TrimRight(string(b[:]), "\x00")
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
