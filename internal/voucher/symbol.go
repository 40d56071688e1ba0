// Package voucher computes variable symbols, month keys and request listings.
package voucher

import (
	"fmt"
	"strconv"
	"time"
)

// VariableSymbol builds the payment reference for the seq-th request of now's
// year: zero-padded day, zero-padded month, four-digit year, then seq unpadded.
//
// Example: 5 March 2026, seq 7 -> "050320267".
func VariableSymbol(now time.Time, seq int64) string {
	return fmt.Sprintf("%02d%02d%04d%d", now.Day(), int(now.Month()), now.Year(), seq)
}

// MonthKey returns the YYYY-MM key of t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ParseMonthKey validates a YYYY-MM key and returns the first day of that month (UTC).
func ParseMonthKey(key string) (time.Time, error) {
	if len(key) != 7 || key[4] != '-' {
		return time.Time{}, fmt.Errorf("invalid month key %q: want YYYY-MM", key)
	}
	year, err := strconv.Atoi(key[:4])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month key %q: %w", key, err)
	}
	month, err := strconv.Atoi(key[5:])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month key %q: month out of range", key)
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

// MonthLabel is the display label of a month. Months are labelled with their key.
func MonthLabel(key string) string {
	return key
}
