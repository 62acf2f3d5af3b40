package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errNotLoggedIn        = errors.New("not logged in, run 'postcli login' first")
	errMissingCredentials = errors.New("username and password are required")
)

// AuthOptions contains the credentials for login and register
type AuthOptions struct {
	Username string
	Password string
	Register bool
}

// Authenticate logs in (or registers) and prints the server message.
// Missing credentials are prompted for when stdin is a terminal.
func (a *App) Authenticate(ctx context.Context, opts AuthOptions) error {
	if opts.Username == "" || opts.Password == "" {
		if !a.interactive {
			return errMissingCredentials
		}
		if err := a.promptCredentials(&opts); err != nil {
			return err
		}
	}

	call := a.ws.Login
	if opts.Register {
		call = a.ws.Register
	}

	msg, err := call(ctx, opts.Username, opts.Password)
	if err != nil {
		return err
	}

	a.println(msg)
	a.println(fmt.Sprintf("Logged in as %s", a.ws.Session().Username()))
	return nil
}

// Logout ends the persisted session
func (a *App) Logout() {
	if !a.ws.Authenticated() {
		a.println("Not logged in.")
		return
	}
	a.println(a.ws.Logout())
}

// Whoami prints the session user and, when the token is a JWT, its subject and expiry.
// The signature is not verified: only the backend holds the key.
func (a *App) Whoami() error {
	if !a.ws.Authenticated() {
		return errNotLoggedIn
	}

	current := a.ws.Session().Current()
	a.println(fmt.Sprintf("Username: %s", current.Username))

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(current.Token, claims); err != nil {
		a.println("Token: opaque")
		return nil
	}

	if claims.Subject != "" {
		a.println(fmt.Sprintf("Subject: %s", claims.Subject))
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		state := "valid"
		if time.Now().After(exp) {
			state = "expired"
		}
		a.println(fmt.Sprintf("Expires: %s (%s)", exp.Local().Format(time.RFC3339), state))
	}
	return nil
}
