package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/roomchat/internal/client/api"
	"github.com/dmitrijs2005/roomchat/internal/client/session"
	"github.com/dmitrijs2005/roomchat/internal/logging"
)

// ---- helpers ----

func mintToken(t *testing.T, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

// ---- fakes ----

type fakeAPI struct {
	LoginRet  string
	LoginErr  error
	SignupErr error
	RenameRet api.UsernameChange
	RenameErr error
	PasswdRet string
	PasswdErr error

	Calls int

	LastUsername string
	LastPassword string
}

func (f *fakeAPI) Login(_ context.Context, username, password string) (string, error) {
	f.Calls++
	f.LastUsername, f.LastPassword = username, password
	return f.LoginRet, f.LoginErr
}

func (f *fakeAPI) Signup(_ context.Context, username, password string) error {
	f.Calls++
	f.LastUsername, f.LastPassword = username, password
	return f.SignupErr
}

func (f *fakeAPI) ChangeUsername(_ context.Context, newUsername string) (api.UsernameChange, error) {
	f.Calls++
	f.LastUsername = newUsername
	return f.RenameRet, f.RenameErr
}

func (f *fakeAPI) ChangePassword(_ context.Context, _, newPassword string) (string, error) {
	f.Calls++
	f.LastPassword = newPassword
	return f.PasswdRet, f.PasswdErr
}

type fakeKeeper struct {
	Saved     []string
	LogoutErr error
	LoggedOut int
}

func (k *fakeKeeper) UpdateCredential(_ context.Context, raw string) (session.Session, error) {
	s, err := session.Decode(raw, time.Now())
	if err != nil {
		return session.Session{}, err
	}
	k.Saved = append(k.Saved, raw)
	return s, nil
}

func (k *fakeKeeper) Logout(context.Context) error {
	k.LoggedOut++
	return k.LogoutErr
}

func newService(fa *fakeAPI, fk *fakeKeeper) AuthService {
	return NewAuthService(fa, fk, logging.Discard())
}

// ---- tests ----

func TestLogin_PersistsIssuedCredential(t *testing.T) {
	tok := mintToken(t, "anna12")
	fa := &fakeAPI{LoginRet: tok}
	fk := &fakeKeeper{}

	s, err := newService(fa, fk).Login(context.Background(), "anna12", "dummy_password1")
	require.NoError(t, err)
	assert.Equal(t, "anna12", s.Subject)
	assert.Equal(t, []string{tok}, fk.Saved)
	assert.Equal(t, "dummy_password1", fa.LastPassword)
}

func TestLogin_ValidationStopsBeforeRequest(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "secret1"},
		{"short username", "ab", "secret1"},
		{"username with spaces", "anna 12", "secret1"},
		{"short password", "anna12", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := &fakeAPI{}
			_, err := newService(fa, &fakeKeeper{}).Login(context.Background(), tt.username, tt.password)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Zero(t, fa.Calls)
		})
	}
}

func TestLogin_BackendErrorWrapped(t *testing.T) {
	fa := &fakeAPI{LoginErr: api.ErrUnauthorized}
	fk := &fakeKeeper{}

	_, err := newService(fa, fk).Login(context.Background(), "anna12", "wrongpass")
	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Empty(t, fk.Saved)
}

func TestLogin_UnusableTokenRejected(t *testing.T) {
	fa := &fakeAPI{LoginRet: "not-a-token"}
	fk := &fakeKeeper{}

	_, err := newService(fa, fk).Login(context.Background(), "anna12", "secret1")
	require.ErrorIs(t, err, session.ErrMalformedCredential)
	assert.Empty(t, fk.Saved)
}

func TestSignup(t *testing.T) {
	ctx := context.Background()

	fa := &fakeAPI{}
	require.NoError(t, newService(fa, &fakeKeeper{}).Signup(ctx, "max34", "secret1", "secret1"))
	assert.Equal(t, "max34", fa.LastUsername)

	fa = &fakeAPI{}
	err := newService(fa, &fakeKeeper{}).Signup(ctx, "max34", "secret1", "secret2")
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "passwords do not match")
	assert.Zero(t, fa.Calls)

	fa = &fakeAPI{SignupErr: errors.New("boom")}
	err = newService(fa, &fakeKeeper{}).Signup(ctx, "max34", "secret1", "secret1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signup:")
}

func TestLogout_Delegates(t *testing.T) {
	fk := &fakeKeeper{}
	require.NoError(t, newService(&fakeAPI{}, fk).Logout(context.Background()))
	assert.Equal(t, 1, fk.LoggedOut)
}

func TestChangeUsername_PersistsReissuedCredential(t *testing.T) {
	tok := mintToken(t, "anna13")
	fa := &fakeAPI{RenameRet: api.UsernameChange{Message: "ok", NewUsername: "anna13", Token: tok}}
	fk := &fakeKeeper{}

	s, err := newService(fa, fk).ChangeUsername(context.Background(), "anna13")
	require.NoError(t, err)
	assert.Equal(t, "anna13", s.Subject)
	assert.Equal(t, []string{tok}, fk.Saved)
}

func TestChangeUsername_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := newService(&fakeAPI{}, &fakeKeeper{}).ChangeUsername(ctx, "x")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = newService(&fakeAPI{RenameErr: api.ErrUnauthorized}, &fakeKeeper{}).ChangeUsername(ctx, "anna13")
	require.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	msg, err := newService(&fakeAPI{PasswdRet: "Password updated"}, &fakeKeeper{}).ChangePassword(ctx, "secret1", "secret2")
	require.NoError(t, err)
	assert.Equal(t, "Password updated", msg)

	_, err = newService(&fakeAPI{}, &fakeKeeper{}).ChangePassword(ctx, "secret1", "secret1")
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "must differ")

	_, err = newService(&fakeAPI{PasswdErr: api.ErrUnavailable}, &fakeKeeper{}).ChangePassword(ctx, "secret1", "secret2")
	require.ErrorIs(t, err, api.ErrUnavailable)
}
