package voucher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satnyp/spolek-rodicu/internal/models"
)

func TestVariableSymbol(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		seq  int64
		want string
	}{
		{"padded day and month", time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC), 7, "050320267"},
		{"two digit day", time.Date(2026, time.December, 24, 0, 0, 0, 0, time.UTC), 1, "241220261"},
		{"sequence is not padded", time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 123, "01012025123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VariableSymbol(tt.now, tt.seq))
		})
	}
}

func TestParseMonthKey(t *testing.T) {
	got, err := ParseMonthKey("2026-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, "2026-01", MonthKey(got))

	for _, bad := range []string{"", "2026", "2026-13", "2026-00", "26-01-01", "abcd-01", "2026/01"} {
		_, err := ParseMonthKey(bad)
		assert.Error(t, err, "key %q", bad)
	}
}

func TestFilterRequests(t *testing.T) {
	requests := []*models.Request{
		{ID: "1", Description: "Vánoční besídka", State: models.StateNew, AmountCzk: decimal.NewFromInt(500)},
		{ID: "2", Description: "Lyžák - doprava", State: models.StatePaid, AmountCzk: decimal.NewFromInt(1200)},
		{ID: "3", Description: "Odměny pro soutěž", State: models.StateNew, AmountCzk: decimal.NewFromInt(300)},
	}

	tests := []struct {
		name    string
		filter  Filter
		wantIDs []string
	}{
		{"empty filter matches all", Filter{}, []string{"1", "2", "3"}},
		{"ALL state", Filter{State: StateAll}, []string{"1", "2", "3"}},
		{"by state", Filter{State: "NEW"}, []string{"1", "3"}},
		{"case insensitive description", Filter{Description: "  LYŽÁK "}, []string{"2"}},
		{"state and description", Filter{State: "NEW", Description: "soutěž"}, []string{"3"}},
		{"no match", Filter{State: "HAS_INVOICES"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterRequests(requests, tt.filter)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSummarizeStates(t *testing.T) {
	counts := SummarizeStates([]*models.Request{
		{State: models.StateNew},
		{State: models.StateNew},
		{State: models.StatePaid},
	})
	assert.Equal(t, int64(3), counts[models.CountTotal])
	assert.Equal(t, int64(2), counts["NEW"])
	assert.Equal(t, int64(1), counts["PAID"])
}
