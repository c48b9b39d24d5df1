package view

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

const storageTimeout = 30 * time.Second

// FormatAmount renders a money amount with a dollar sign and at least two decimals.
func FormatAmount(d decimal.Decimal) string {
	return "$" + plan.FormatAmount(d)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return "-"
	}

	return FormatDate(*t)
}

// DueLabel describes a due date relative to today.
func DueLabel(days int) string {
	switch {
	case days < -1:
		return fmt.Sprintf("%d days overdue", -days)
	case days == -1:
		return "1 day overdue"
	case days == 0:
		return "due today"
	case days == 1:
		return "due tomorrow"
	}

	return fmt.Sprintf("in %d days", days)
}

// StorageCtx returns a context with a standard timeout for file storage operations.
func StorageCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storageTimeout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.New("use YYYY-MM-DD")
	}

	return t, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$")))
	if err != nil {
		return decimal.Zero, errors.New("enter an amount like 120.50")
	}

	return d, nil
}

func validateDate(s string) error {
	_, err := parseDate(s)
	return err
}

func validateOptionalDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	return validateDate(s)
}

func validatePositiveAmount(s string) error {
	d, err := parseAmount(s)
	if err != nil {
		return err
	}

	if !d.IsPositive() {
		return errors.New("amount must be greater than 0")
	}

	return nil
}

func validateCount(minimum int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < minimum {
			return fmt.Errorf("enter a whole number of at least %d", minimum)
		}

		return nil
	}
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}

		return nil
	}
}
