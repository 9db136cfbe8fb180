package accounts

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/paper-trader/internal/errs"
	"github.com/hongminglow/paper-trader/internal/storage/memory"
)

func newService() (*Service, *memory.Store) {
	store := memory.New()
	return NewService(store, decimal.NewFromInt(10000)).WithHashCost(bcrypt.MinCost), store
}

func TestRegisterThenAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	user, err := svc.Register(ctx, "  alice ", "hunter22", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, decimal.NewFromInt(10000).Equal(user.Cash))
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	got, err := svc.Authenticate(ctx, "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, errs.ErrAuth)

	_, err = svc.Authenticate(ctx, "nobody", "hunter22")
	assert.ErrorIs(t, err, errs.ErrAuth)
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name                             string
		username, password, confirmation string
	}{
		{"missing username", "", "pw", "pw"},
		{"missing password", "alice", "", "pw"},
		{"missing confirmation", "alice", "pw", ""},
		{"mismatch", "alice", "pw", "wp"},
		{"too long", "alice", strings.Repeat("x", 73), strings.Repeat("x", 73)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newService()
			_, err := svc.Register(context.Background(), tc.username, tc.password, tc.confirmation)
			assert.ErrorIs(t, err, errs.ErrValidation)

			_, err = store.FindByUsername(context.Background(), "alice")
			assert.Error(t, err, "no user should be created")
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	_, err := svc.Register(ctx, "alice", "pw", "pw")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice", "other", "other")
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestAuthenticateRequiresFields(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Authenticate(context.Background(), "", "pw")
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = svc.Authenticate(context.Background(), "alice", "")
	assert.ErrorIs(t, err, errs.ErrValidation)
}
