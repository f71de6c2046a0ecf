package policy

import (
	"fmt"
	"math/big"
	"strings"
)

// ToAtomic converts a human decimal amount (e.g. "100.5") to atomic units
// using the token's declared decimal count. The conversion is exact: more
// fractional digits than the token supports is an error rather than a
// silent truncation, since policy ceilings compare atomic values.
func ToAtomic(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, fmt.Errorf("negative decimal count %d", decimals)
	}
	amount = strings.ReplaceAll(amount, ",", "")
	if amount == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("negative amount %q", amount)
	}

	whole, fraction := amount, ""
	if i := strings.Index(amount, "."); i >= 0 {
		whole, fraction = amount[:i], amount[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (fraction != "" && !isDigits(fraction)) {
		return nil, fmt.Errorf("amount %q is not a decimal number", amount)
	}

	fraction = strings.TrimRight(fraction, "0")
	if len(fraction) > decimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", amount, decimals)
	}
	padded := fraction + strings.Repeat("0", decimals-len(fraction))

	atomic, ok := new(big.Int).SetString(whole+padded, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse amount %q", amount)
	}
	return atomic, nil
}

// FromAtomic renders an atomic amount as a canonical decimal string for
// the given decimal count. The result round-trips through ToAtomic.
func FromAtomic(atomic *big.Int, decimals int) string {
	if atomic == nil {
		return "0"
	}
	s := atomic.String()
	if decimals == 0 {
		return s
	}
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	whole := s[:len(s)-decimals]
	fraction := strings.TrimRight(s[len(s)-decimals:], "0")
	if fraction == "" {
		return whole
	}
	return whole + "." + fraction
}

// NormalizeDecimal canonicalizes a decimal string: commas removed, no
// leading zeros on the whole part, no trailing zeros on the fraction, no
// dangling decimal point.
func NormalizeDecimal(amount string) string {
	amount = strings.ReplaceAll(amount, ",", "")
	whole, fraction := amount, ""
	if i := strings.Index(amount, "."); i >= 0 {
		whole, fraction = amount[:i], amount[i+1:]
	}
	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	fraction = strings.TrimRight(fraction, "0")
	if fraction == "" {
		return whole
	}
	return whole + "." + fraction
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
