package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/satnyp/spolek-rodicu/internal/auth"
	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/voucher"
)

// Seeded allow-list addresses besides the built-in admin.
const (
	SeedAccountant = "accountant@gvid.cz"
	SeedRequester  = "requester@gvid.cz"
	SeedViewer     = "viewer@gvid.cz"
)

// SeedResult describes the data created by Seed.
type SeedResult struct {
	MonthKey  string   `json:"monthKey"`
	Allowlist []string `json:"allowlist"`
	QueueIDs  []string `json:"queueIds"`
	RequestID string   `json:"requestId"`
	VS        string   `json:"vs"`
}

// SeedEmulatorData fills an empty development store with demo data.
// It is refused unless test endpoints are enabled.
func (e *Endpoints) SeedEmulatorData(w http.ResponseWriter, r *http.Request) {
	if !e.testEndpoints {
		writeError(w, ErrDisabled)
		return
	}
	res, err := e.requests.Seed(r.Context(), e.auth.Resolver().HardAdmin())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Seed creates the demo allow-list, three queue requests in the current
// month and approves the first of them.
func (s *RequestService) Seed(ctx context.Context, adminEmail string) (*SeedResult, error) {
	now := s.now().UTC()
	admin := &auth.Principal{UID: "seed", Email: adminEmail, Role: models.RoleAdmin}

	entries := []struct {
		email string
		role  models.Role
		label string
	}{
		{adminEmail, models.RoleAdmin, "Administrátor"},
		{SeedAccountant, models.RoleAccountant, "Účetní"},
		{SeedRequester, models.RoleRequester, "Žadatel"},
		{SeedViewer, models.RoleViewer, "Čtenář"},
	}
	res := &SeedResult{MonthKey: voucher.MonthKey(now.In(s.loc))}
	for _, e := range entries {
		err := s.store.UpsertAllowlistEntry(ctx, &models.AllowlistEntry{
			EmailLower: e.email,
			Role:       e.role,
			Active:     true,
			Label:      e.label,
			CreatedBy:  adminEmail,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed allow-list: %w", err)
		}
		res.Allowlist = append(res.Allowlist, e.email)
	}

	requester := &auth.Principal{UID: "seed:" + SeedRequester, Email: SeedRequester, Role: models.RoleRequester}
	items := []struct {
		description string
		amount      int64
	}{
		{"Příspěvek na lyžařský kurz", 1500},
		{"Divadelní představení 2.A", 320},
		{"Odměny do soutěže", 850},
	}
	for _, it := range items {
		q, err := s.createQueued(ctx, requester, res.MonthKey, it.description, decimal.NewFromInt(it.amount))
		if err != nil {
			return nil, fmt.Errorf("failed to seed queue: %w", err)
		}
		res.QueueIDs = append(res.QueueIDs, q.ID)
	}

	req, err := s.approve(ctx, admin, res.QueueIDs[0])
	if err != nil {
		return nil, fmt.Errorf("failed to seed approval: %w", err)
	}
	res.RequestID = req.ID
	res.VS = req.VS

	slog.Info("Seeded emulator data", "month", res.MonthKey, "queued", len(res.QueueIDs), "vs", res.VS)
	return res, nil
}
