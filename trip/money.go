package trip

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseBudgetBRL parses pt-BR localized decimal input, "." as the
// thousands separator and "," as the decimal comma, into a
// non-negative number: "1.234,56" parses to 1234.56.
func ParseBudgetBRL(input string) (float64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, fmt.Errorf("empty budget")
	}

	normalized := strings.ReplaceAll(s, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")

	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, fmt.Errorf("budget %q is not a number: %w", input, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("budget %q is not a number", input)
	}
	if value < 0 {
		return 0, fmt.Errorf("budget %q is negative", input)
	}
	return value, nil
}

// FormatBRL renders a value the way the original application displayed
// budgets: "R$ 1.234,56".
func FormatBRL(value float64) string {
	s := strconv.FormatFloat(value, 'f', 2, 64)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.SplitN(s, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return "R$ " + sign + b.String() + "," + fracPart
}
