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

func TestGetSession(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	resp, err := env.sessionClient(accountantEmail).GetSession(ctx, connect.NewRequest(&api.GetSessionRequest{}))
	require.NoError(t, err)
	assert.Equal(t, accountantEmail, resp.Msg.Email)
	assert.Equal(t, "accountant", resp.Msg.Role)
	assert.False(t, resp.Msg.HardAdmin)
	require.NotNil(t, resp.Msg.Entry)
	assert.True(t, resp.Msg.Entry.Active)

	admin, err := env.sessionClient(adminEmail).GetSession(ctx, connect.NewRequest(&api.GetSessionRequest{}))
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Msg.Role)
	assert.True(t, admin.Msg.HardAdmin)
	assert.Nil(t, admin.Msg.Entry)
}

func TestGetSession_Denied(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	tests := []struct {
		name  string
		email string
		want  connect.Code
	}{
		{"no token", "", connect.CodeUnauthenticated},
		{"not allowlisted", strangerEmail, connect.CodePermissionDenied},
		{"inactive entry", inactiveEmail, connect.CodePermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.sessionClient(tt.email).GetSession(ctx, connect.NewRequest(&api.GetSessionRequest{}))
			require.Error(t, err)
			assert.Equal(t, tt.want, codeOf(err))
		})
	}
}

func TestGetSession_RevocationTakesEffectImmediately(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	client := env.sessionClient(viewerEmail)

	_, err := client.GetSession(ctx, connect.NewRequest(&api.GetSessionRequest{}))
	require.NoError(t, err)

	env.allow(viewerEmail, models.RoleViewer, false)

	_, err = client.GetSession(ctx, connect.NewRequest(&api.GetSessionRequest{}))
	assert.Equal(t, connect.CodePermissionDenied, codeOf(err))
}

func TestMintTestToken(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		_, err := env.sessionClient("").MintTestToken(ctx, connect.NewRequest(&api.MintTestTokenRequest{Email: requesterEmail}))
		assert.Equal(t, connect.CodePermissionDenied, codeOf(err))
	})

	t.Run("enabled", func(t *testing.T) {
		env := newTestEnv(t, envOptions{testEndpoints: true})
		resp, err := env.sessionClient("").MintTestToken(ctx, connect.NewRequest(&api.MintTestTokenRequest{Email: " Requester@GVID.cz "}))
		require.NoError(t, err)
		require.NotEmpty(t, resp.Msg.Token)

		claims, err := env.tokens.Validate(resp.Msg.Token)
		require.NoError(t, err)
		assert.Equal(t, requesterEmail, claims.Email)
		assert.Equal(t, "test:"+requesterEmail, claims.UID)
		assert.Equal(t, models.RoleRequester, claims.Role)
	})

	t.Run("invalid email", func(t *testing.T) {
		env := newTestEnv(t, envOptions{testEndpoints: true})
		_, err := env.sessionClient("").MintTestToken(ctx, connect.NewRequest(&api.MintTestTokenRequest{Email: "nope"}))
		assert.Equal(t, connect.CodeInvalidArgument, codeOf(err))
	})
}
