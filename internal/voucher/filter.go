package voucher

import (
	"strings"

	"github.com/satnyp/spolek-rodicu/internal/models"
)

// StateAll matches requests in any state.
const StateAll = "ALL"

// Filter narrows a request listing.
type Filter struct {
	// State is a RequestState name, StateAll or empty.
	State string
	// Description is matched as a case-insensitive substring.
	Description string
}

// FilterRequests returns the requests matching f, preserving order.
func FilterRequests(requests []*models.Request, f Filter) []*models.Request {
	needle := strings.ToLower(strings.TrimSpace(f.Description))
	out := make([]*models.Request, 0, len(requests))
	for _, r := range requests {
		if f.State != "" && f.State != StateAll && string(r.State) != f.State {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(r.Description), needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SummarizeStates counts requests per state plus the total.
func SummarizeStates(requests []*models.Request) map[string]int64 {
	counts := map[string]int64{models.CountTotal: 0}
	for _, r := range requests {
		counts[string(r.State)]++
		counts[models.CountTotal]++
	}
	return counts
}
