package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/go-auth-client/apiclient"
	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/autherr"
	"github.com/jrsteele09/go-auth-client/internal/utils"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/token/jwt"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// app is what every command runs against.
type app struct {
	svc     *auth.Service
	client  *apiclient.Client
	timeout time.Duration
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string, out io.Writer) error
}

var commands = map[string]command{
	"login":    {"sign in with email and password", loginCmd},
	"register": {"create an account", registerCmd},
	"logout":   {"sign out and clear stored credentials", logoutCmd},
	"forgot":   {"request a password reset email", forgotCmd},
	"reset":    {"set a new password with a reset token", resetCmd},
	"whoami":   {"fetch the signed in user from the server", whoamiCmd},
	"status":   {"show the stored session without calling the server", statusCmd},
	"check":    {"ask the server whether the stored access token is accepted, without refreshing", checkCmd},
}

func loginCmd(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := a.svc.Login(ctx, authapi.LoginCredentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s <%s>\n", resp.User.Name, resp.User.Email)
	return nil
}

func registerCmd(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password again")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := a.svc.Register(ctx, authapi.RegisterCredentials{
		Email:           *email,
		Password:        *password,
		ConfirmPassword: *confirm,
		Name:            *name,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Welcome, %s\n", resp.User.Name)
	return nil
}

func logoutCmd(ctx context.Context, a *app, _ []string, out io.Writer) error {
	if err := a.svc.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Signed out")
	return nil
}

func forgotCmd(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("forgot", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := a.svc.RequestPasswordReset(ctx, authapi.PasswordResetRequest{Email: *email})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, resp.Message)
	return nil
}

func resetCmd(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	token := fs.String("token", "", "reset token from the email")
	password := fs.String("password", "", "new password")
	confirm := fs.String("confirm", "", "new password again")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := a.svc.ResetPassword(ctx, authapi.PasswordReset{Token: *token, Password: *password, ConfirmPassword: *confirm})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, resp.Message)
	return nil
}

func whoamiCmd(ctx context.Context, a *app, _ []string, out io.Writer) error {
	if !a.svc.State().IsAuthenticated() {
		fmt.Fprintln(out, "Not signed in")
		return nil
	}
	u, err := a.svc.RefreshProfile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s <%s> id=%s\n", u.Name, u.Email, u.ID)
	if avatar := utils.Value(u.Avatar); avatar != "" {
		fmt.Fprintf(out, "Avatar %s\n", avatar)
	}
	if u.CreatedAt != nil {
		fmt.Fprintf(out, "Member since %s\n", u.CreatedAt.Local().Format("2006-01-02"))
	}
	return nil
}

func statusCmd(_ context.Context, a *app, _ []string, out io.Writer) error {
	printSession(out, a.svc.State().Snapshot())
	return nil
}

func checkCmd(ctx context.Context, a *app, _ []string, out io.Writer) error {
	state := a.svc.State()
	if !state.IsAuthenticated() {
		fmt.Fprintln(out, "Not signed in")
		return nil
	}

	hc := oauth2.NewClient(ctx, state.TokenSource())
	hc.Timeout = a.timeout
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.client.BaseURL()+authapi.PathMe, nil)
	if err != nil {
		return errors.Wrap(err, "[checkCmd] NewRequest")
	}
	resp, err := hc.Do(req)
	if err != nil {
		return autherr.Network(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusOK {
		fmt.Fprintln(out, "Access token accepted")
	} else {
		fmt.Fprintf(out, "Access token rejected (HTTP %d)\n", resp.StatusCode)
	}
	return nil
}

func printSession(out io.Writer, s session.Session) {
	if !s.IsAuthenticated() {
		fmt.Fprintln(out, "Not signed in")
		return
	}
	if s.User != nil {
		fmt.Fprintf(out, "Signed in as %s <%s>\n", s.User.Name, s.User.Email)
	} else {
		fmt.Fprintln(out, "Signed in")
	}
	if exp, ok := jwt.Expiry(s.Token); ok {
		fmt.Fprintf(out, "Access token expires %s\n", exp.Local().Format("2006-01-02 15:04:05"))
	}
}
