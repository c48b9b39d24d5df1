package api

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/piggy/internal/analytics"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

// ParseFilter reads the plan filter query parameters. Absent parameters are not applied.
func ParseFilter(q url.Values) (analytics.Filter, error) {
	filter := analytics.Filter{Merchant: q.Get("merchant")}

	var err error

	if filter.Status.FullyPaid, err = parseBool(q, "fully_paid"); err != nil {
		return filter, err
	}

	if filter.Status.HasOverdue, err = parseBool(q, "has_overdue"); err != nil {
		return filter, err
	}

	amounts := []struct {
		key string
		dst **decimal.Decimal
	}{
		{"min_total", &filter.Amount.MinTotal},
		{"max_total", &filter.Amount.MaxTotal},
		{"min_remaining", &filter.Amount.MinRemaining},
		{"max_remaining", &filter.Amount.MaxRemaining},
	}

	for _, a := range amounts {
		s := q.Get(a.key)
		if s == "" {
			continue
		}

		d, err := decimal.NewFromString(s)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid %s %q", plan.ErrInvalidArgument, a.key, s)
		}

		*a.dst = &d
	}

	dates := []struct {
		key string
		dst **time.Time
	}{
		{"purchase_after", &filter.Date.PurchaseAfter},
		{"purchase_before", &filter.Date.PurchaseBefore},
		{"next_after", &filter.Date.NextPaymentAfter},
		{"next_before", &filter.Date.NextPaymentBefore},
	}

	for _, d := range dates {
		s := q.Get(d.key)
		if s == "" {
			continue
		}

		t, err := ParseDate(s)
		if err != nil {
			return filter, fmt.Errorf("%s: %w", d.key, err)
		}

		*d.dst = &t
	}

	return filter, nil
}

// ParseDate reads a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", plan.ErrInvalidArgument, s)
	}

	return t, nil
}

func parseBool(q url.Values, key string) (*bool, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}

	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q", plan.ErrInvalidArgument, key, s)
	}

	return &b, nil
}
