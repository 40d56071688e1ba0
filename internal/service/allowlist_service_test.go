package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/pkg/api"
)

func TestAllowlist_AdminOnly(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	for _, email := range []string{accountantEmail, requesterEmail, viewerEmail} {
		_, err := env.allowlistClient(email).ListAllowlist(ctx, connect.NewRequest(&api.ListAllowlistRequest{}))
		assert.Equal(t, connect.CodePermissionDenied, codeOf(err), email)
	}

	resp, err := env.allowlistClient(adminEmail).ListAllowlist(ctx, connect.NewRequest(&api.ListAllowlistRequest{}))
	require.NoError(t, err)
	assert.Len(t, resp.Msg.Entries, 4)
}

func TestAllowlist_UpsertAndDelete(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	client := env.allowlistClient(adminEmail)

	upsert, err := client.UpsertAllowlist(ctx, connect.NewRequest(&api.UpsertAllowlistRequest{
		Email: "  New.Parent@GVID.cz ",
		Role:  "requester",
		Label: "2.B",
	}))
	require.NoError(t, err)
	assert.Equal(t, "new.parent@gvid.cz", upsert.Msg.Entry.EmailLower)
	assert.True(t, upsert.Msg.Entry.Active)
	assert.Equal(t, adminEmail, upsert.Msg.Entry.CreatedBy)

	entry, err := env.store.GetAllowlistEntry(ctx, "new.parent@gvid.cz")
	require.NoError(t, err)
	assert.Equal(t, models.RoleRequester, entry.Role)

	inactive := false
	_, err = client.UpsertAllowlist(ctx, connect.NewRequest(&api.UpsertAllowlistRequest{
		Email:  "new.parent@gvid.cz",
		Role:   "viewer",
		Active: &inactive,
	}))
	require.NoError(t, err)
	entry, err = env.store.GetAllowlistEntry(ctx, "new.parent@gvid.cz")
	require.NoError(t, err)
	assert.False(t, entry.Active)
	assert.Equal(t, models.RoleViewer, entry.Role)

	_, err = client.DeleteAllowlist(ctx, connect.NewRequest(&api.DeleteAllowlistRequest{Email: "new.parent@gvid.cz"}))
	require.NoError(t, err)

	audit, err := client.ListAudit(ctx, connect.NewRequest(&api.ListAuditRequest{Limit: 10}))
	require.NoError(t, err)
	var actions []string
	for _, a := range audit.Msg.Entries {
		actions = append(actions, a.Action)
	}
	assert.Contains(t, actions, models.ActionUpsertAllowlist)
	assert.Contains(t, actions, models.ActionDeleteAllowlist)
}

func TestAllowlist_Validation(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	client := env.allowlistClient(adminEmail)

	_, err := client.UpsertAllowlist(ctx, connect.NewRequest(&api.UpsertAllowlistRequest{Email: "x@gvid.cz", Role: "owner"}))
	assert.Equal(t, connect.CodeInvalidArgument, codeOf(err))

	_, err = client.UpsertAllowlist(ctx, connect.NewRequest(&api.UpsertAllowlistRequest{Email: "not-an-email", Role: "viewer"}))
	assert.Equal(t, connect.CodeInvalidArgument, codeOf(err))
}

func TestAllowlist_HardAdminIsProtected(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.allowlistClient(adminEmail).DeleteAllowlist(ctx, connect.NewRequest(&api.DeleteAllowlistRequest{Email: "SATNY@gvid.cz"}))
	assert.Equal(t, connect.CodeFailedPrecondition, codeOf(err))
}
