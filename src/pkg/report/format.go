package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

/*
formatPrice formats an amount as pesos with dot thousands and comma decimals.

Example:

	1234.5 -> "$ 1.234,50"
*/
func formatPrice(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	integerPart, fractionPart, _ := strings.Cut(fixed, ".")
	return fmt.Sprintf("%s$ %s,%s", sign, groupThousands(integerPart, "."), fractionPart)
}

/*
formatPercent formats a percentage with one decimal.

Example:

	66.67 -> "66.7%"
*/
func formatPercent(percent float64) string {
	return fmt.Sprintf("%.1f%%", percent)
}

/*
groupThousands groups digits in a base-10 string using the provided separator.
*/
func groupThousands(raw string, sep string) string {
	if len(raw) <= 3 {
		return raw
	}

	var builder strings.Builder
	firstGroupLen := len(raw) % 3
	if firstGroupLen == 0 {
		firstGroupLen = 3
	}

	builder.WriteString(raw[:firstGroupLen])

	for index := firstGroupLen; index < len(raw); index += 3 {
		builder.WriteString(sep)
		builder.WriteString(raw[index : index+3])
	}

	return builder.String()
}

/*
formatIntHuman formats a count with dot separators, the way the recipients read numbers.
*/
func formatIntHuman(value int) string {
	raw := strconv.Itoa(value)
	return groupThousands(raw, ".")
}
