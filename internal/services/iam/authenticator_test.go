package iam

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
)

func TestJWTAuthenticator(t *testing.T) {
	f := newTokenFixture(t)
	ctx := context.Background()
	a := NewJWTAuthenticator(f.svc)

	p, err := a.Authenticate(ctx, AuthRequest{Headers: http.Header{}})
	assert.NoError(t, err)
	assert.Nil(t, p)

	res, err := f.svc.Issue(ctx, Credentials{Username: "admin", Password: "admin-pass"})
	require.NoError(t, err)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+res.Tokens.AccessToken)
	p, err = a.Authenticate(ctx, AuthRequest{Headers: headers})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, f.admin.ID, p.UserID)
	assert.Equal(t, auth.RoleStadiumAdmin, p.Role)
	assert.Equal(t, f.stadium.ID, p.StadiumID)
	assert.True(t, p.HasPermission(auth.GuestMoveRoom))

	require.NoError(t, f.svc.Revoke(ctx, res.Tokens.AccessToken, ReasonLogout))
	p, err = a.Authenticate(ctx, AuthRequest{Headers: headers})
	assert.Nil(t, p)
	assert.True(t, apperr.IsCode(err, apperr.CodeTokenRevoked))
}
