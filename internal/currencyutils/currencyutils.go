// Package currencyutils parses amounts as the backend sends them and formats them for display.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	// currency markers and every flavour of space used as a thousands separator
	noiseRe = regexp.MustCompile(`(?i)(fcfa|cfa|xof|xaf|eur|usd|chf|gbp|[€$£¥₣])|[\s\x{00A0}\x{202F}']`)

	symbols = map[string]string{
		"EUR": "€",
		"USD": "$",
		"GBP": "£",
		"XOF": "FCFA",
		"XAF": "FCFA",
	}
)

// ParseAmount parses a string representation of an amount into a decimal value.
// It handles "1234.56", "1,234.56", "1.234,56", "1 234,56", "1'234.56" and a leading or
// trailing currency marker. An empty string parses as zero.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	if strings.TrimSpace(amountStr) == "" {
		return decimal.Zero, nil
	}

	standardized := StandardizeAmount(amountStr)
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': no digits", amountStr)
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// StandardizeAmount converts the supported amount notations to the form accepted by
// decimal.NewFromString.
func StandardizeAmount(amountStr string) string {
	amountStr = noiseRe.ReplaceAllString(amountStr, "")

	switch {
	case strings.Contains(amountStr, ",") && strings.Contains(amountStr, "."):
		if strings.LastIndex(amountStr, ".") < strings.LastIndex(amountStr, ",") {
			// 1.234,56
			amountStr = strings.ReplaceAll(amountStr, ".", "")
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			// 1,234.56
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	case strings.Contains(amountStr, ","):
		parts := strings.Split(amountStr, ",")
		if len(parts) == 2 && len(parts[1]) != 3 {
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	}

	return amountStr
}

// Symbol returns the display symbol for an ISO currency code, or the code itself.
func Symbol(currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if s, ok := symbols[code]; ok {
		return s
	}
	return code
}

// FormatAmount renders an amount the way the French-speaking UI displays it:
// grouped thousands, comma decimal separator, two decimals, symbol suffix
// ("1 234,56 €", "-50,00 FCFA").
func FormatAmount(amount decimal.Decimal, currency string) string {
	p := message.NewPrinter(language.French)
	formatted := p.Sprintf("%.2f", amount.Round(2).InexactFloat64())
	if symbol := Symbol(currency); symbol != "" {
		return formatted + " " + symbol
	}
	return formatted
}

// FormatPlain renders an amount with two decimals and no grouping, for machine-readable output.
func FormatPlain(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
