package funcs

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

var currencySymbols = map[string]string{
	"NGN": "₦",
	"USD": "$",
	"GBP": "£",
}

// TemplateFuncs is shared by the text and html email templates.
var TemplateFuncs = map[string]any{
	"formatMoney": formatMoney,
	"formatTime":  formatTime,
	"humanize":    humanize,
	"uppercase":   strings.ToUpper,
}

func formatMoney(amount decimal.Decimal, currency string) string {
	symbol, ok := currencySymbols[strings.ToUpper(currency)]
	if !ok {
		symbol = strings.ToUpper(currency) + " "
	}

	return symbol + printer.Sprintf("%.2f", amount.Round(2).InexactFloat64())
}

func formatTime(format string, t time.Time) string {
	return t.Format(format)
}

// humanize turns "electricity_payment" into "Electricity payment".
func humanize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}

	return cases.Title(language.English).String(s[:1]) + s[1:]
}
