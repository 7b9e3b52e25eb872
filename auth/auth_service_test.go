package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/autherr"
	"github.com/jrsteele09/go-auth-client/securestore"
	"github.com/jrsteele09/go-auth-client/securestore/memstore"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu        sync.Mutex
	calls     map[string]int
	authResp  *authapi.AuthResponse
	err       error
	logoutErr error
	profile   *users.User
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{calls: make(map[string]int)}
}

func (f *fakeRemote) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRemote) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeRemote) Login(_ context.Context, _ authapi.LoginCredentials) (*authapi.AuthResponse, error) {
	f.record("login")
	return f.authResp, f.err
}

func (f *fakeRemote) Register(_ context.Context, _ authapi.RegisterCredentials) (*authapi.AuthResponse, error) {
	f.record("register")
	return f.authResp, f.err
}

func (f *fakeRemote) RequestPasswordReset(_ context.Context, _ authapi.PasswordResetRequest) (*authapi.MessageResponse, error) {
	f.record("forgot")
	if f.err != nil {
		return nil, f.err
	}
	return &authapi.MessageResponse{Message: "Reset email sent"}, nil
}

func (f *fakeRemote) ResetPassword(_ context.Context, _ authapi.PasswordReset) (*authapi.MessageResponse, error) {
	f.record("reset")
	if f.err != nil {
		return nil, f.err
	}
	return &authapi.MessageResponse{Message: "Password has been reset"}, nil
}

func (f *fakeRemote) Logout(_ context.Context) error {
	f.record("logout")
	return f.logoutErr
}

func (f *fakeRemote) CurrentUser(_ context.Context) (*users.User, error) {
	f.record("me")
	return f.profile, f.err
}

func newService(t *testing.T, remote auth.Remote, store securestore.Store) *auth.Service {
	t.Helper()
	svc, err := auth.NewService(auth.Deps{State: session.New(), Store: store, Remote: remote})
	require.NoError(t, err)
	return svc
}

func TestNewService_RequiresDeps(t *testing.T) {
	_, err := auth.NewService(auth.Deps{Store: memstore.New(), Remote: newFakeRemote()})
	require.ErrorIs(t, err, auth.ErrStateRequired)
	_, err = auth.NewService(auth.Deps{State: session.New(), Remote: newFakeRemote()})
	require.ErrorIs(t, err, auth.ErrStoreRequired)
	_, err = auth.NewService(auth.Deps{State: session.New(), Store: memstore.New()})
	require.ErrorIs(t, err, auth.ErrRemoteRequired)
}

func TestLogin(t *testing.T) {
	remote := newFakeRemote()
	remote.authResp = &authapi.AuthResponse{
		Token:        "T1",
		RefreshToken: "R1",
		User:         users.User{ID: "u1", Email: "a@b.com", Name: "Ann"},
	}
	store := memstore.New()
	svc := newService(t, remote, store)

	var loading []bool
	unsubscribe := svc.State().Subscribe(func(s session.Session) { loading = append(loading, s.IsLoading) })
	defer unsubscribe()

	resp, err := svc.Login(t.Context(), authapi.LoginCredentials{Email: "a@b.com", Password: "Abcd1234"})
	require.NoError(t, err)
	require.Equal(t, "T1", resp.Token)

	snap := svc.State().Snapshot()
	require.True(t, snap.IsAuthenticated())
	require.Equal(t, "T1", snap.Token)
	require.Equal(t, "u1", snap.User.ID)
	require.False(t, snap.IsLoading)
	require.Empty(t, snap.Error)
	require.True(t, loading[0])
	require.False(t, loading[len(loading)-1])

	token, ok, err := store.GetToken(t.Context())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "T1", token)

	rt, ok, err := store.GetRefreshToken(t.Context())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "R1", rt)

	data, ok, err := store.GetUser(t.Context())
	require.NoError(t, err)
	require.True(t, ok)
	u, err := users.Decode(data)
	require.NoError(t, err)
	require.Equal(t, "a@b.com", u.Email)
}

func TestLogin_RemoteFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.err = autherr.Authorization("Invalid email or password")
	svc := newService(t, remote, memstore.New())

	_, err := svc.Login(t.Context(), authapi.LoginCredentials{Email: "a@b.com", Password: "wrong"})
	require.ErrorIs(t, err, autherr.ErrAuthorization)

	snap := svc.State().Snapshot()
	require.False(t, snap.IsAuthenticated())
	require.False(t, snap.IsLoading)
	require.Equal(t, "Invalid email or password", snap.Error)
}

func TestLogin_ErrorClearedOnRetry(t *testing.T) {
	remote := newFakeRemote()
	remote.err = errors.New("boom")
	svc := newService(t, remote, memstore.New())

	_, err := svc.Login(t.Context(), authapi.LoginCredentials{Email: "a@b.com", Password: "x"})
	require.Error(t, err)
	require.Equal(t, "boom", svc.State().Snapshot().Error)

	remote.err = nil
	remote.authResp = &authapi.AuthResponse{Token: "T1", User: users.User{ID: "u1"}}
	_, err = svc.Login(t.Context(), authapi.LoginCredentials{Email: "a@b.com", Password: "x"})
	require.NoError(t, err)
	require.Empty(t, svc.State().Snapshot().Error)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	remote := newFakeRemote()
	svc := newService(t, remote, memstore.New())

	_, err := svc.Register(t.Context(), authapi.RegisterCredentials{
		Email: "a@b.com", Password: "Abcd1234", ConfirmPassword: "xyz", Name: "Ann",
	})
	require.ErrorIs(t, err, autherr.ErrValidation)
	require.Equal(t, "Passwords do not match", autherr.FieldError(err, auth.FieldConfirmPassword))
	require.Zero(t, remote.count("register"))

	snap := svc.State().Snapshot()
	require.False(t, snap.IsLoading)
	require.Equal(t, "Passwords do not match", snap.Error)
}

func TestRegister(t *testing.T) {
	remote := newFakeRemote()
	remote.authResp = &authapi.AuthResponse{Token: "T1", User: users.User{ID: "u2", Name: "Ann"}}
	svc := newService(t, remote, memstore.New())

	_, err := svc.Register(t.Context(), authapi.RegisterCredentials{
		Email: "a@b.com", Password: "Abcd1234", ConfirmPassword: "Abcd1234", Name: "Ann",
	})
	require.NoError(t, err)
	require.True(t, svc.State().IsAuthenticated())
	require.Equal(t, 1, remote.count("register"))
}

func TestPasswordResetFlows(t *testing.T) {
	remote := newFakeRemote()
	svc := newService(t, remote, memstore.New())

	msg, err := svc.RequestPasswordReset(t.Context(), authapi.PasswordResetRequest{Email: "a@b.com"})
	require.NoError(t, err)
	require.Equal(t, "Reset email sent", msg.Message)

	msg, err = svc.ResetPassword(t.Context(), authapi.PasswordReset{Token: "rt", Password: "Abcd1234", ConfirmPassword: "Abcd1234"})
	require.NoError(t, err)
	require.Equal(t, "Password has been reset", msg.Message)

	_, err = svc.ResetPassword(t.Context(), authapi.PasswordReset{Token: "rt", Password: "weak", ConfirmPassword: "weak"})
	require.ErrorIs(t, err, autherr.ErrValidation)
	require.Equal(t, 1, remote.count("reset"))
	require.False(t, svc.State().Snapshot().IsAuthenticated())
}

func signedIn(t *testing.T, svc *auth.Service, store securestore.Store) {
	t.Helper()
	ctx := t.Context()
	require.NoError(t, store.SetToken(ctx, "T1"))
	require.NoError(t, store.SetRefreshToken(ctx, "R1"))
	data, err := users.Encode(users.User{ID: "u1", Email: "a@b.com"})
	require.NoError(t, err)
	require.NoError(t, store.SetUser(ctx, data))
	svc.Hydrate(ctx)
	require.True(t, svc.State().IsAuthenticated())
}

func requireSignedOut(t *testing.T, svc *auth.Service, store securestore.Store) {
	t.Helper()
	snap := svc.State().Snapshot()
	require.Empty(t, snap.Token)
	require.Nil(t, snap.User)
	require.Empty(t, snap.Error)
	require.False(t, snap.IsLoading)
	for _, get := range []func(context.Context) (string, bool, error){store.GetToken, store.GetRefreshToken, store.GetUser} {
		_, ok, err := get(t.Context())
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestLogout(t *testing.T) {
	t.Run("remote failure still clears", func(t *testing.T) {
		remote := newFakeRemote()
		remote.logoutErr = errors.New("server down")
		store := memstore.New()
		svc := newService(t, remote, store)
		signedIn(t, svc, store)

		require.NoError(t, svc.Logout(t.Context()))
		require.Equal(t, 1, remote.count("logout"))
		requireSignedOut(t, svc, store)
	})

	t.Run("idempotent", func(t *testing.T) {
		remote := newFakeRemote()
		store := memstore.New()
		svc := newService(t, remote, store)
		signedIn(t, svc, store)

		require.NoError(t, svc.Logout(t.Context()))
		first := svc.State().Snapshot()
		require.NoError(t, svc.Logout(t.Context()))
		require.Equal(t, first, svc.State().Snapshot())
		requireSignedOut(t, svc, store)
		require.Equal(t, 1, remote.count("logout"))
	})
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, autherr.Storage("read", errors.New("keychain locked"))
}

func (failingKV) Set(context.Context, string, string) error {
	return autherr.Storage("write", errors.New("keychain locked"))
}

func (failingKV) Delete(context.Context, ...string) error {
	return autherr.Storage("delete", errors.New("keychain locked"))
}

func TestHydrate(t *testing.T) {
	t.Run("restores token and user", func(t *testing.T) {
		store := memstore.New()
		svc := newService(t, newFakeRemote(), store)
		signedIn(t, svc, store)
		require.Equal(t, "a@b.com", svc.State().Snapshot().User.Email)
	})

	t.Run("store failure means no session", func(t *testing.T) {
		svc := newService(t, newFakeRemote(), securestore.NewKVStore(failingKV{}))
		snap := svc.Hydrate(t.Context())
		require.False(t, snap.IsAuthenticated())
	})

	t.Run("unreadable user keeps token", func(t *testing.T) {
		store := memstore.New()
		require.NoError(t, store.SetToken(t.Context(), "T1"))
		require.NoError(t, store.SetUser(t.Context(), "{not json"))
		svc := newService(t, newFakeRemote(), store)
		snap := svc.Hydrate(t.Context())
		require.True(t, snap.IsAuthenticated())
		require.Nil(t, snap.User)
	})
}

func TestLogin_StoreFailureKeepsSession(t *testing.T) {
	remote := newFakeRemote()
	remote.authResp = &authapi.AuthResponse{Token: "T1", User: users.User{ID: "u1"}}
	svc := newService(t, remote, securestore.NewKVStore(failingKV{}))

	_, err := svc.Login(t.Context(), authapi.LoginCredentials{Email: "a@b.com", Password: "x"})
	require.NoError(t, err)
	require.True(t, svc.State().IsAuthenticated())

	err = svc.Logout(t.Context())
	require.ErrorIs(t, err, autherr.ErrStorage)
	require.False(t, svc.State().IsAuthenticated())
}

func TestConnect_ExpiredSessionWithoutRefreshToken(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": 401, "message": "Token expired"})
	}))
	defer srv.Close()

	store := memstore.New()
	require.NoError(t, store.SetToken(t.Context(), "T1"))
	svc, client, err := auth.Connect(srv.URL, store, nil)
	require.NoError(t, err)
	svc.Hydrate(t.Context())
	require.True(t, svc.State().IsAuthenticated())

	_, err = svc.RefreshProfile(t.Context())
	require.ErrorIs(t, err, autherr.ErrSessionExpired)
	require.EqualValues(t, 1, hits.Load())
	require.False(t, client.Refreshing())

	snap := svc.State().Snapshot()
	require.False(t, snap.IsAuthenticated())
	require.Equal(t, autherr.MsgSessionExpired, snap.Error)
	_, ok, err := store.GetToken(t.Context())
	require.NoError(t, err)
	require.False(t, ok)
}
