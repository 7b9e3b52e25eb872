package devserver_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/apiclient"
	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/autherr"
	"github.com/jrsteele09/go-auth-client/devserver"
	"github.com/jrsteele09/go-auth-client/devserver/resettoken"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/securestore/memstore"
	"github.com/jrsteele09/go-auth-client/token/jwt"
	"github.com/jrsteele09/go-auth-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-auth-client/token/refresh/repofake"
	"github.com/jrsteele09/go-auth-client/users"
	fakeuserrepo "github.com/jrsteele09/go-auth-client/users/repofake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	demoEmail    = "a@b.com"
	demoPassword = "Abcd1234"
)

// clock drives every NowTimeFunc the server depends on.
type clock struct {
	nanos atomic.Int64
}

func newClock(t *testing.T) *clock {
	t.Helper()
	c := &clock{}
	c.nanos.Store(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).UnixNano())
	jwt.NowTimeFunc = c.now
	refresh.NowTimeFunc = c.now
	devserver.NowTimeFunc = c.now
	t.Cleanup(func() {
		jwt.NowTimeFunc = time.Now
		refresh.NowTimeFunc = time.Now
		devserver.NowTimeFunc = time.Now
	})
	return c
}

func (c *clock) now() time.Time {
	return time.Unix(0, c.nanos.Load()).UTC()
}

func (c *clock) advance(d time.Duration) {
	c.nanos.Add(int64(d))
}

type fixture struct {
	server *devserver.Server
	url    string
	clock  *clock

	mu          sync.Mutex
	resetTokens map[string]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, resettoken.NewInMemoryRepo(), zerolog.Nop())
}

func newFixtureWith(t *testing.T, resetTokens resettoken.Repo, logger zerolog.Logger) *fixture {
	t.Helper()
	f := &fixture{clock: newClock(t), resetTokens: make(map[string]string)}

	srv, err := devserver.New(config.New(), devserver.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
		ResetTokens:   resetTokens,
	},
		devserver.WithLogger(logger),
		devserver.WithResetNotifier(func(email, token string) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.resetTokens[email] = token
		}),
	)
	require.NoError(t, err)
	f.server = srv

	_, err = srv.SeedAccount(demoEmail, demoPassword, "Ann")
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	f.url = ts.URL
	return f
}

func (f *fixture) resetToken(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resetTokens[email]
}

func (f *fixture) connect(t *testing.T) (*auth.Service, *apiclient.Client) {
	t.Helper()
	svc, client, err := auth.Connect(f.url, memstore.New(), []apiclient.Option{apiclient.WithLogger(zerolog.Nop())}, auth.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return svc, client
}

func (f *fixture) post(t *testing.T, path, bearer string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, f.url+path, bytes.NewReader(data))
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestNew_RequiresRepos(t *testing.T) {
	_, err := devserver.New(config.New(), devserver.Repos{})
	require.Error(t, err)
}

func TestSeedAccount(t *testing.T) {
	f := newFixture(t)

	generated, err := f.server.SeedAccount("new@b.com", "", "")
	require.NoError(t, err)
	require.Empty(t, auth.ValidatePassword(generated))

	again, err := f.server.SeedAccount("new@b.com", "", "")
	require.NoError(t, err)
	require.Empty(t, again)
}

func TestLoginAndProfile(t *testing.T) {
	f := newFixture(t)
	svc, _ := f.connect(t)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(t.Context(), authapi.LoginCredentials{Email: demoEmail, Password: "Wrong1234"})
		require.ErrorIs(t, err, autherr.ErrAuthorization)
		require.Equal(t, "Invalid email or password", autherr.Message(err))
		require.False(t, svc.State().IsAuthenticated())
	})

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Login(t.Context(), authapi.LoginCredentials{Email: demoEmail, Password: demoPassword})
		require.NoError(t, err)
		require.NotEmpty(t, resp.RefreshToken)
		require.True(t, svc.State().IsAuthenticated())
		require.Equal(t, "Ann", svc.State().Snapshot().User.Name)

		exp, ok := jwt.Expiry(resp.Token)
		require.True(t, ok)
		require.Equal(t, f.clock.now().Add(15*time.Minute).Unix(), exp.Unix())
	})

	t.Run("profile", func(t *testing.T) {
		u, err := svc.RefreshProfile(t.Context())
		require.NoError(t, err)
		require.Equal(t, demoEmail, u.Email)
	})
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	svc, _ := f.connect(t)

	t.Run("duplicate", func(t *testing.T) {
		_, err := svc.Register(t.Context(), authapi.RegisterCredentials{
			Email: demoEmail, Password: demoPassword, ConfirmPassword: demoPassword, Name: "Ann",
		})
		require.ErrorIs(t, err, autherr.ErrDomain)
		require.Equal(t, autherr.MsgUserExists, autherr.FieldError(err, auth.FieldEmail))
	})

	t.Run("server side rules", func(t *testing.T) {
		resp := f.post(t, devserver.RouteRegister, "", map[string]string{"email": "c@d.com", "password": "weak", "name": "Cy"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body autherr.Body
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, autherr.CodeWeakPassword, body.Code)
		require.Equal(t, auth.FieldPassword, body.Field)
	})

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Register(t.Context(), authapi.RegisterCredentials{
			Email: "new@b.com", Password: demoPassword, ConfirmPassword: demoPassword, Name: "Neo",
		})
		require.NoError(t, err)
		require.NotEmpty(t, resp.User.ID)
		require.NotNil(t, resp.User.CreatedAt)
		require.True(t, svc.State().IsAuthenticated())
	})
}

func TestTransparentRefresh(t *testing.T) {
	f := newFixture(t)
	svc, client := f.connect(t)

	_, err := svc.Login(t.Context(), authapi.LoginCredentials{Email: demoEmail, Password: demoPassword})
	require.NoError(t, err)
	oldToken := svc.State().Token()

	f.clock.advance(20 * time.Minute)

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var u users.User
			errs[i] = client.DoJSON(t.Context(), http.MethodGet, devserver.RouteMe, nil, &u)
			if errs[i] == nil && u.Email != demoEmail {
				errs[i] = autherr.Authorization("wrong user")
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.NotEqual(t, oldToken, svc.State().Token())
	require.True(t, svc.State().IsAuthenticated())
	require.False(t, client.Refreshing())
}

func TestRefreshTokenExpired(t *testing.T) {
	f := newFixture(t)
	svc, _ := f.connect(t)

	_, err := svc.Login(t.Context(), authapi.LoginCredentials{Email: demoEmail, Password: demoPassword})
	require.NoError(t, err)

	f.clock.advance(8 * 24 * time.Hour)

	_, err = svc.RefreshProfile(t.Context())
	require.ErrorIs(t, err, autherr.ErrSessionExpired)
	require.False(t, svc.State().IsAuthenticated())
}

func TestLogoutRevokes(t *testing.T) {
	f := newFixture(t)
	svc, _ := f.connect(t)

	resp, err := svc.Login(t.Context(), authapi.LoginCredentials{Email: demoEmail, Password: demoPassword})
	require.NoError(t, err)

	verify := f.post(t, devserver.RouteVerify, "", map[string]string{"token": resp.Token})
	var v authapi.VerifyResponse
	require.NoError(t, json.NewDecoder(verify.Body).Decode(&v))
	require.True(t, v.Valid)

	require.NoError(t, svc.Logout(t.Context()))
	require.False(t, svc.State().IsAuthenticated())

	revoked := f.post(t, devserver.RouteLogout, resp.Token, nil)
	require.Equal(t, http.StatusUnauthorized, revoked.StatusCode)

	refreshResp := f.post(t, devserver.RouteRefresh, "", map[string]string{"refreshToken": resp.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, refreshResp.StatusCode)

	verify = f.post(t, devserver.RouteVerify, "", map[string]string{"token": resp.Token})
	require.NoError(t, json.NewDecoder(verify.Body).Decode(&v))
	require.False(t, v.Valid)
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	svc, _ := f.connect(t)
	const newPassword = "Efgh5678"

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.RequestPasswordReset(t.Context(), authapi.PasswordResetRequest{Email: "nobody@b.com"})
		require.ErrorIs(t, err, autherr.ErrDomain)
		require.Equal(t, autherr.CodeUserNotFound, autherr.Parse(err).Code)
	})

	t.Run("bad token", func(t *testing.T) {
		_, err := svc.ResetPassword(t.Context(), authapi.PasswordReset{Token: "nope", Password: newPassword, ConfirmPassword: newPassword})
		require.ErrorIs(t, err, autherr.ErrDomain)
		require.Equal(t, "Invalid or expired reset token", autherr.FieldError(err, auth.FieldToken))
	})

	t.Run("expired token", func(t *testing.T) {
		_, err := svc.RequestPasswordReset(t.Context(), authapi.PasswordResetRequest{Email: demoEmail})
		require.NoError(t, err)
		token := f.resetToken(demoEmail)
		require.NotEmpty(t, token)

		f.clock.advance(16 * time.Minute)
		_, err = svc.ResetPassword(t.Context(), authapi.PasswordReset{Token: token, Password: newPassword, ConfirmPassword: newPassword})
		require.ErrorIs(t, err, autherr.ErrDomain)
	})

	t.Run("success", func(t *testing.T) {
		msg, err := svc.RequestPasswordReset(t.Context(), authapi.PasswordResetRequest{Email: demoEmail})
		require.NoError(t, err)
		require.NotEmpty(t, msg.Message)

		_, err = svc.ResetPassword(t.Context(), authapi.PasswordReset{Token: f.resetToken(demoEmail), Password: newPassword, ConfirmPassword: newPassword})
		require.NoError(t, err)

		_, err = svc.Login(t.Context(), authapi.LoginCredentials{Email: demoEmail, Password: demoPassword})
		require.ErrorIs(t, err, autherr.ErrAuthorization)
		_, err = svc.Login(t.Context(), authapi.LoginCredentials{Email: demoEmail, Password: newPassword})
		require.NoError(t, err)
	})

	t.Run("token is single use", func(t *testing.T) {
		resp := f.post(t, devserver.RouteResetPassword, "", map[string]string{"token": f.resetToken(demoEmail), "password": newPassword})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

type undeletableResetTokens struct {
	resettoken.Repo
}

func (undeletableResetTokens) Delete(string) error {
	return errors.New("disk full")
}

// lockedBuffer is written by handler goroutines and read by the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPasswordReset_DeleteFailureIsLogged(t *testing.T) {
	var logs lockedBuffer
	f := newFixtureWith(t, undeletableResetTokens{Repo: resettoken.NewInMemoryRepo()}, zerolog.New(&logs))
	svc, _ := f.connect(t)
	const newPassword = "Efgh5678"

	_, err := svc.RequestPasswordReset(t.Context(), authapi.PasswordResetRequest{Email: demoEmail})
	require.NoError(t, err)
	_, err = svc.ResetPassword(t.Context(), authapi.PasswordReset{Token: f.resetToken(demoEmail), Password: newPassword, ConfirmPassword: newPassword})
	require.NoError(t, err)

	require.Contains(t, logs.String(), "deleting used reset token failed")
	require.Contains(t, logs.String(), "disk full")
}

func TestCleanup(t *testing.T) {
	f := newFixture(t)
	resp := f.post(t, devserver.RouteForgotPassword, "", map[string]string{"email": demoEmail})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	f.clock.advance(time.Hour)
	f.server.Cleanup()

	resp = f.post(t, devserver.RouteResetPassword, "", map[string]string{"token": f.resetToken(demoEmail), "password": "Efgh5678"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	resp := f.post(t, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "application/json")
}
