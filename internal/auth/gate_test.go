package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/thingful/thingful/internal/common"
	"github.com/thingful/thingful/internal/models"
)

type fakeUsers struct {
	users map[string]*models.User
	err   error
	calls int
	ctx   context.Context
}

func (f *fakeUsers) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	f.calls++
	f.ctx = ctx
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[userName]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

// fakeVerifier treats the stored hash as "hashed:<plaintext>".
type fakeVerifier struct {
	err   error
	calls int
}

func (f *fakeVerifier) ComparePasswords(_ context.Context, plaintext, hash string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return hash == "hashed:"+plaintext, nil
}

func bearer(raw string) string {
	return "Bearer " + base64.StdEncoding.EncodeToString([]byte(raw))
}

func newTestGate() (*Gate, *fakeUsers, *fakeVerifier) {
	users := &fakeUsers{users: map[string]*models.User{
		"alice": {ID: 1, UserName: "alice", Password: "hashed:Secret1!"},
	}}
	verifier := &fakeVerifier{}
	return NewGate(users, verifier), users, verifier
}

func TestDecodeBearer(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    Credentials
		wantErr error
	}{
		{name: "empty header", header: "", wantErr: ErrMissingCredentials},
		{name: "basic scheme", header: "Basic " + base64.StdEncoding.EncodeToString([]byte("a:b")), wantErr: ErrMissingCredentials},
		{name: "scheme without space", header: "Bearer", wantErr: ErrMissingCredentials},
		{name: "token only", header: base64.StdEncoding.EncodeToString([]byte("a:b")), wantErr: ErrMissingCredentials},
		{name: "empty token", header: bearer(""), wantErr: ErrMalformedCredentials},
		{name: "no colon", header: bearer("onlyuser"), wantErr: ErrMalformedCredentials},
		{name: "empty password", header: bearer("alice:"), wantErr: ErrMalformedCredentials},
		{name: "empty username", header: bearer(":Secret1!"), wantErr: ErrMalformedCredentials},
		{name: "colon only", header: bearer(":"), wantErr: ErrMalformedCredentials},
		{name: "not base64", header: "Bearer !!!not-base64!!!", wantErr: ErrMalformedCredentials},
		{name: "valid", header: bearer("alice:Secret1!"), want: Credentials{Username: "alice", Password: "Secret1!"}},
		{name: "lowercase scheme", header: "bearer " + base64.StdEncoding.EncodeToString([]byte("alice:pw")), want: Credentials{Username: "alice", Password: "pw"}},
		{name: "uppercase scheme", header: "BEARER " + base64.StdEncoding.EncodeToString([]byte("alice:pw")), want: Credentials{Username: "alice", Password: "pw"}},
		{name: "unpadded token", header: "Bearer " + base64.RawStdEncoding.EncodeToString([]byte("alice:Secret1!")), want: Credentials{Username: "alice", Password: "Secret1!"}},
		{name: "padded token", header: bearer("alice:pw"), want: Credentials{Username: "alice", Password: "pw"}},
		{name: "password keeps later colons", header: bearer("alice:pa:ss"), want: Credentials{Username: "alice", Password: "pa:ss"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBearer(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGate_Authenticate_Success(t *testing.T) {
	gate, users, verifier := newTestGate()

	user, err := gate.Authenticate(context.Background(), bearer("alice:Secret1!"))
	require.NoError(t, err)
	assert.Equal(t, "alice", user.UserName)
	assert.Equal(t, 1, users.calls)
	assert.Equal(t, 1, verifier.calls)
}

func TestGate_Authenticate_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		wantErr     error
		wantLookups int
	}{
		{name: "missing", header: "", wantErr: ErrMissingCredentials},
		{name: "malformed", header: bearer("onlyuser"), wantErr: ErrMalformedCredentials},
		{name: "unknown user", header: bearer("bob:Secret1!"), wantErr: ErrUnknownUser, wantLookups: 1},
		{name: "bad password", header: bearer("alice:Secret1X"), wantErr: ErrBadPassword, wantLookups: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, users, _ := newTestGate()
			user, err := gate.Authenticate(context.Background(), tt.header)
			assert.Nil(t, user)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsRejection(err))
			assert.Equal(t, tt.wantLookups, users.calls)
		})
	}
}

func TestGate_Authenticate_UnknownUserSkipsCompare(t *testing.T) {
	gate, _, verifier := newTestGate()

	_, err := gate.Authenticate(context.Background(), bearer("nobody:Secret1!"))
	assert.ErrorIs(t, err, ErrUnknownUser)
	assert.Zero(t, verifier.calls)
}

func TestGate_Authenticate_UnknownUserComparesDummyHash(t *testing.T) {
	users := &fakeUsers{users: map[string]*models.User{}}
	verifier := &fakeVerifier{}
	gate := NewGate(users, verifier, WithDummyHash("hashed:dummy"))

	_, err := gate.Authenticate(context.Background(), bearer("nobody:dummy"))
	assert.ErrorIs(t, err, ErrUnknownUser)
	assert.Equal(t, 1, verifier.calls)
}

func TestGate_Authenticate_UnknownUserCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	users := &fakeUsers{users: map[string]*models.User{}}
	gate := NewGate(users, &fakeVerifier{err: context.Canceled}, WithDummyHash("hashed:dummy"))

	_, err := gate.Authenticate(ctx, bearer("nobody:Secret1!"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsRejection(err))
}

func TestGate_Authenticate_StoreFailure(t *testing.T) {
	dbErr := errors.New("connection refused")
	users := &fakeUsers{err: dbErr}
	gate := NewGate(users, &fakeVerifier{})

	_, err := gate.Authenticate(context.Background(), bearer("alice:Secret1!"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.ErrorIs(t, err, dbErr)
	assert.False(t, IsRejection(err))
	assert.Equal(t, "internal", Reason(err))
}

func TestGate_Authenticate_MalformedHash(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	users := &fakeUsers{users: map[string]*models.User{"alice": {ID: 1, UserName: "alice", Password: "garbage"}}}
	gate := NewGate(users, &fakeVerifier{err: errors.New("hash too short")}, WithLogger(zap.New(core)))

	_, err := gate.Authenticate(context.Background(), bearer("alice:Secret1!"))
	assert.ErrorIs(t, err, ErrBadPassword)
	assert.Equal(t, 1, logs.FilterMessage("stored password hash rejected by comparator").Len())
}

func TestGate_Authenticate_CanceledDuringCompare(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gate, _, _ := newTestGate()
	gate.verifier = &fakeVerifier{err: context.Canceled}

	_, err := gate.Authenticate(ctx, bearer("alice:Secret1!"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsRejection(err))
}

func TestGate_LookupTimeout(t *testing.T) {
	users := &fakeUsers{users: map[string]*models.User{"alice": {UserName: "alice", Password: "hashed:Secret1!"}}}
	gate := NewGate(users, &fakeVerifier{}, WithLookupTimeout(time.Second))

	_, err := gate.Authenticate(context.Background(), bearer("alice:Secret1!"))
	require.NoError(t, err)

	deadline, ok := users.ctx.Deadline()
	require.True(t, ok, "lookup context should carry a deadline")
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "missing_credentials", Reason(ErrMissingCredentials))
	assert.Equal(t, "malformed_credentials", Reason(ErrMalformedCredentials))
	assert.Equal(t, "unknown_user", Reason(ErrUnknownUser))
	assert.Equal(t, "bad_password", Reason(ErrBadPassword))
}
