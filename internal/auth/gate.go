// Package auth verifies the credential pair carried in a bearer
// Authorization header against the user store.
//
// The token is base64("user_name:password"). Verification runs as a fixed
// sequence of steps: scheme check, decode, store lookup, password compare.
// The first failing step decides the outcome.
package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thingful/thingful/internal/common"
	"github.com/thingful/thingful/internal/models"
)

const bearerPrefix = "bearer "

var (
	// ErrMissingCredentials means the header is absent or not a bearer token.
	ErrMissingCredentials = errors.New("missing bearer token")
	// ErrMalformedCredentials means the token does not decode to a
	// populated user_name:password pair.
	ErrMalformedCredentials = errors.New("malformed credentials")
	// ErrUnknownUser means no user has the decoded user_name.
	ErrUnknownUser = errors.New("unknown user")
	// ErrBadPassword means the password does not match the stored hash.
	ErrBadPassword = errors.New("bad password")
	// ErrStoreFailure wraps unexpected errors from the user store.
	ErrStoreFailure = errors.New("user store failure")
)

// Credentials is the decoded content of a bearer token.
type Credentials struct {
	Username string
	Password string
}

// UserFinder looks up a single user by user_name.
type UserFinder interface {
	// FindByUserName returns common.ErrNotFound when no user matches.
	FindByUserName(ctx context.Context, userName string) (*models.User, error)
}

// PasswordVerifier compares a presented password with a stored hash.
type PasswordVerifier interface {
	ComparePasswords(ctx context.Context, plaintext, hash string) (bool, error)
}

// Gate authenticates requests. It keeps no state between calls.
type Gate struct {
	users         UserFinder
	verifier      PasswordVerifier
	lookupTimeout time.Duration
	dummyHash     string
	log           *zap.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithLookupTimeout bounds the user store lookup. Zero disables the bound.
func WithLookupTimeout(d time.Duration) Option {
	return func(g *Gate) { g.lookupTimeout = d }
}

// WithDummyHash makes the gate compare the presented password against hash
// when the user does not exist, so that unknown users and wrong passwords
// take the same time to reject. hash should be produced by the same hasher
// and cost as stored passwords.
func WithDummyHash(hash string) Option {
	return func(g *Gate) { g.dummyHash = hash }
}

// WithLogger sets the logger used for compare failures.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) { g.log = l }
}

// NewGate creates a Gate.
func NewGate(users UserFinder, verifier PasswordVerifier, opts ...Option) *Gate {
	g := &Gate{users: users, verifier: verifier, log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// DecodeBearer extracts credentials from an Authorization header value.
func DecodeBearer(header string) (Credentials, error) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return Credentials{}, ErrMissingCredentials
	}

	// Padding is optional.
	token := strings.TrimRight(header[len(bearerPrefix):], "=")
	raw, err := base64.RawStdEncoding.DecodeString(token)
	if err != nil {
		return Credentials{}, ErrMalformedCredentials
	}

	username, password, ok := strings.Cut(string(raw), ":")
	if !ok || username == "" || password == "" {
		return Credentials{}, ErrMalformedCredentials
	}
	return Credentials{Username: username, Password: password}, nil
}

// Authenticate resolves the user named by header and verifies the password.
//
// Rejections are ErrMissingCredentials, ErrMalformedCredentials,
// ErrUnknownUser or ErrBadPassword. Any other error is an infrastructure
// failure and must not be reported as bad credentials.
func (g *Gate) Authenticate(ctx context.Context, header string) (*models.User, error) {
	creds, err := DecodeBearer(header)
	if err != nil {
		return nil, err
	}

	user, err := g.lookup(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) && g.dummyHash != "" {
			_, _ = g.verifier.ComparePasswords(ctx, creds.Password, g.dummyHash)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("compare password: %w", ctxErr)
			}
		}
		return nil, err
	}

	match, err := g.verifier.ComparePasswords(ctx, creds.Password, user.Password)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("compare password: %w", ctxErr)
		}
		g.log.Warn("stored password hash rejected by comparator",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
		return nil, ErrBadPassword
	}
	if !match {
		return nil, ErrBadPassword
	}

	return user, nil
}

func (g *Gate) lookup(ctx context.Context, username string) (*models.User, error) {
	if g.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.lookupTimeout)
		defer cancel()
	}

	user, err := g.users.FindByUserName(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return user, nil
}

// IsRejection reports whether err is one of the credential rejections, as
// opposed to an infrastructure failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrMalformedCredentials) ||
		errors.Is(err, ErrUnknownUser) ||
		errors.Is(err, ErrBadPassword)
}

// Reason returns a short label for a rejection, suitable for logs and metrics.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, ErrMalformedCredentials):
		return "malformed_credentials"
	case errors.Is(err, ErrUnknownUser):
		return "unknown_user"
	case errors.Is(err, ErrBadPassword):
		return "bad_password"
	default:
		return "internal"
	}
}
