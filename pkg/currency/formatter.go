package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders amount with two decimals and comma thousands separators,
// prefixed by the ISO currency code: "EUR 1,210.40".
func Format(amount decimal.Decimal, code string) string {
	rounded := amount.Round(2)

	negative := rounded.IsNegative()
	if negative {
		rounded = rounded.Neg()
	}

	fixed := rounded.StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")
	formatted := addThousandsSeparator(intPart, ",") + "." + fracPart

	result := strings.ToUpper(code) + " " + formatted
	if negative {
		result = "-" + result
	}

	return result
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1
	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep[0]
			j--
		}
	}

	return string(result)
}
