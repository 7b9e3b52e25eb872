package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/token/jwt"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestState_Setters(t *testing.T) {
	s := session.New()
	require.False(t, s.IsAuthenticated())

	s.SetToken("tok")
	s.SetUser(&users.User{ID: "u-1", Email: "a@b.com"})
	s.SetLoading(true)
	s.SetError("boom")

	snap := s.Snapshot()
	require.True(t, snap.IsAuthenticated())
	require.Equal(t, "tok", snap.Token)
	require.Equal(t, "u-1", snap.User.ID)
	require.True(t, snap.IsLoading)
	require.Equal(t, "boom", snap.Error)

	s.SetError("")
	require.Empty(t, s.Snapshot().Error)
}

func TestState_SetUserCopies(t *testing.T) {
	s := session.New()
	u := &users.User{ID: "u-1", Name: "Ada"}
	s.SetUser(u)
	u.Name = "changed"
	require.Equal(t, "Ada", s.Snapshot().User.Name)
}

func TestState_LogoutKeepsLoading(t *testing.T) {
	s := session.New()
	s.SetToken("tok")
	s.SetUser(&users.User{ID: "u-1"})
	s.SetError("boom")
	s.SetLoading(true)

	s.Logout()
	snap := s.Snapshot()
	require.False(t, snap.IsAuthenticated())
	require.Nil(t, snap.User)
	require.Empty(t, snap.Error)
	require.True(t, snap.IsLoading)

	s.Logout()
	require.Equal(t, snap, s.Snapshot())

	s.Reset()
	require.Equal(t, session.Session{}, s.Snapshot())
}

func TestState_Observers(t *testing.T) {
	s := session.New()

	var seen []session.Session
	unsubscribe := s.Subscribe(func(snap session.Session) {
		seen = append(seen, snap)
	})

	s.SetLoading(true)
	s.SetToken("tok")
	require.Len(t, seen, 2)
	require.True(t, seen[1].IsLoading)
	require.Equal(t, "tok", seen[1].Token)

	unsubscribe()
	s.Reset()
	require.Len(t, seen, 2)
}

func TestState_ObserversNotifiedInSubscriptionOrder(t *testing.T) {
	s := session.New()

	var order []int
	var unsubscribe []func()
	for i := range 8 {
		unsubscribe = append(unsubscribe, s.Subscribe(func(session.Session) {
			order = append(order, i)
		}))
	}

	s.SetToken("tok")
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, order)

	unsubscribe[2]()
	unsubscribe[5]()
	order = nil
	s.SetError("boom")
	require.Equal(t, []int{0, 1, 3, 4, 6, 7}, order)
}

func TestState_ObserverMayReadState(t *testing.T) {
	s := session.New()
	var token string
	s.Subscribe(func(session.Session) {
		token = s.Token()
	})
	s.SetToken("tok")
	require.Equal(t, "tok", token)
}

func TestTokenSource(t *testing.T) {
	s := session.New()
	ts := s.TokenSource()

	_, err := ts.Token()
	require.ErrorIs(t, err, session.ErrNoToken)

	raw, err := jwt.NewCreator("secret", time.Minute).CreateAccessToken(&users.User{ID: "u-1"})
	require.NoError(t, err)
	s.SetToken(raw)

	tok, err := ts.Token()
	require.NoError(t, err)
	require.Equal(t, raw, tok.AccessToken)
	require.False(t, tok.Expiry.IsZero())
	require.True(t, tok.Valid())

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	resp, err := oauth2.NewClient(t.Context(), ts).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "Bearer "+raw, gotAuth)
}
