package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestValidateLengths(t *testing.T) {
	tests := []struct {
		name    string
		check   func(string) error
		field   string
		input   string
		wantErr bool
	}{
		{name: "title_ok", check: ValidateTitle, field: "title", input: "Logo design"},
		{name: "title_min_boundary", check: ValidateTitle, field: "title", input: "abc"},
		{name: "title_too_short", check: ValidateTitle, field: "title", input: "ab", wantErr: true},
		{name: "title_whitespace_trimmed", check: ValidateTitle, field: "title", input: "   ab   ", wantErr: true},
		{name: "title_max_boundary", check: ValidateTitle, field: "title", input: strings.Repeat("x", 100)},
		{name: "title_too_long", check: ValidateTitle, field: "title", input: strings.Repeat("x", 101), wantErr: true},
		{name: "description_ok", check: ValidateDescription, field: "description", input: "Need a landing page built"},
		{name: "description_too_short", check: ValidateDescription, field: "description", input: "too short", wantErr: true},
		{name: "description_too_long", check: ValidateDescription, field: "description", input: strings.Repeat("d", 2001), wantErr: true},
		{name: "message_ok", check: ValidateMessage, field: "message", input: "I can do this"},
		{name: "message_length_three", check: ValidateMessage, field: "message", input: "hey", wantErr: true},
		{name: "message_multibyte_counts_runes", check: ValidateMessage, field: "message", input: "héllo"},
		{name: "message_too_long", check: ValidateMessage, field: "message", input: strings.Repeat("m", 1001), wantErr: true},
		{name: "message_empty", check: ValidateMessage, field: "message", input: "", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.check(tc.input)
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrValidation))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			require.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestValidateAmounts(t *testing.T) {
	tests := []struct {
		name    string
		parse   func(string) (decimal.Decimal, error)
		field   string
		input   string
		want    string
		wantErr bool
	}{
		{name: "price_integer", parse: ValidatePrice, field: "price", input: "500", want: "500"},
		{name: "price_fraction", parse: ValidatePrice, field: "price", input: " 450.75 ", want: "450.75"},
		{name: "price_upper_bound", parse: ValidatePrice, field: "price", input: "1000000", want: "1000000"},
		{name: "price_above_bound", parse: ValidatePrice, field: "price", input: "1000000.01", wantErr: true},
		{name: "price_negative", parse: ValidatePrice, field: "price", input: "-5", wantErr: true},
		{name: "price_zero", parse: ValidatePrice, field: "price", input: "0", wantErr: true},
		{name: "price_not_a_number", parse: ValidatePrice, field: "price", input: "cheap", wantErr: true},
		{name: "price_empty", parse: ValidatePrice, field: "price", input: "", wantErr: true},
		{name: "budget_ok", parse: ValidateBudget, field: "budget", input: "2500", want: "2500"},
		{name: "budget_negative", parse: ValidateBudget, field: "budget", input: "-1", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := tc.parse(tc.input)
			if tc.wantErr {
				var ve *ValidationError
				require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
				require.Equal(t, tc.field, ve.Field)
				return
			}
			require.NoError(t, err)
			require.True(t, decimal.RequireFromString(tc.want).Equal(got), "got %s", got)
		})
	}
}
