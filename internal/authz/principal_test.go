package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithPrincipal(t *testing.T) {
	t.Run("sets principal once", func(t *testing.T) {
		userID := int64(1)
		ctx, err := WithPrincipal(context.Background(), Principal{Type: PrincipalTypeUser, UserID: &userID})
		require.NoError(t, err)

		p, ok := GetPrincipal(ctx)
		require.True(t, ok)
		assert.Equal(t, PrincipalTypeUser, p.Type)
		assert.Equal(t, "user:1", p.String())
	})

	t.Run("same principal is idempotent", func(t *testing.T) {
		userID := int64(1)
		p := Principal{Type: PrincipalTypeUser, UserID: &userID}

		ctx, err := WithPrincipal(context.Background(), p)
		require.NoError(t, err)

		_, err = WithPrincipal(ctx, p)
		assert.NoError(t, err)
	})

	t.Run("conflicting principal rejected", func(t *testing.T) {
		a, b := int64(1), int64(2)

		ctx, err := WithPrincipal(context.Background(), Principal{Type: PrincipalTypeUser, UserID: &a})
		require.NoError(t, err)

		_, err = WithPrincipal(ctx, Principal{Type: PrincipalTypeUser, UserID: &b})
		assert.Error(t, err)
	})

	t.Run("no principal", func(t *testing.T) {
		_, ok := GetPrincipal(context.Background())
		assert.False(t, ok)
		assert.Error(t, RequirePrincipal(context.Background()))
	})
}

func TestNewUserContext(t *testing.T) {
	ctx := NewUserContext(context.Background(), 42, "100001", false)

	p, ok := GetPrincipal(ctx)
	require.True(t, ok)
	assert.True(t, p.IsUser())
	require.NotNil(t, p.UserID)
	assert.Equal(t, int64(42), *p.UserID)
	require.NotNil(t, p.TenantID)
	assert.Equal(t, "100001", *p.TenantID)
}

func TestIsSuperuser(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want bool
	}{
		{name: "no principal", ctx: context.Background(), want: false},
		{name: "system principal", ctx: NewSystemContext(context.Background()), want: true},
		{name: "plain user", ctx: NewUserContext(context.Background(), 2, "100001", false), want: false},
		{name: "superuser", ctx: NewUserContext(context.Background(), 1, "000000", true), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSuperuser(tt.ctx))
		})
	}
}

func TestRequireSystemPrincipal(t *testing.T) {
	assert.Error(t, RequireSystemPrincipal(context.Background()))
	assert.Error(t, RequireSystemPrincipal(NewUserContext(context.Background(), 1, "000000", true)))
	assert.NoError(t, RequireSystemPrincipal(NewSystemContext(context.Background())))
}

func TestRunAsSystem(t *testing.T) {
	got, err := RunAsSystem(context.Background(), func(ctx context.Context) (bool, error) {
		return IsSuperuser(ctx), nil
	})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestMustGetPrincipal(t *testing.T) {
	assert.Panics(t, func() {
		MustGetPrincipal(context.Background())
	})

	p := MustGetPrincipal(NewSystemContext(context.Background()))
	assert.True(t, p.IsSystem())
}
