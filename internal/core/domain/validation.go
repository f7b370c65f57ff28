package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Field bounds enforced before any state mutation.
const (
	TitleMinLen       = 3
	TitleMaxLen       = 100
	DescriptionMinLen = 10
	DescriptionMaxLen = 2000
	MessageMinLen     = 5
	MessageMaxLen     = 1000
)

// MaxAmount caps budgets and prices.
var MaxAmount = decimal.NewFromInt(1_000_000)

// ValidateTitle checks a gig title.
func ValidateTitle(title string) error {
	return checkLength("title", title, TitleMinLen, TitleMaxLen)
}

// ValidateDescription checks a gig description.
func ValidateDescription(description string) error {
	return checkLength("description", description, DescriptionMinLen, DescriptionMaxLen)
}

// ValidateMessage checks a bid message.
func ValidateMessage(message string) error {
	return checkLength("message", message, MessageMinLen, MessageMaxLen)
}

// ValidateBudget parses and checks a gig budget.
func ValidateBudget(raw string) (decimal.Decimal, error) {
	return parseAmount("budget", raw)
}

// ValidatePrice parses and checks a bid price.
func ValidatePrice(raw string) (decimal.Decimal, error) {
	return parseAmount("price", raw)
}

// checkLength counts code points of the trimmed value against [min, max].
func checkLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < min || n > max {
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("must be between %d and %d characters", min, max),
		}
	}
	return nil
}

// parseAmount accepts a decimal literal in (0, MaxAmount].
func parseAmount(field, raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Reason: "must be a number"}
	}
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(MaxAmount) {
		return decimal.Zero, &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("must be greater than 0 and at most %s", MaxAmount.String()),
		}
	}
	return amount, nil
}
