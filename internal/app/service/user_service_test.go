package service

import (
	"context"
	"testing"
	"wastewise/internal/common"
	"wastewise/internal/common/security"
	"wastewise/internal/domain/model"
	"wastewise/internal/domain/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDirectory implements DirectoryCache with a plain snapshot and counts
// invalidations so tests can assert on cache hygiene.
type fakeDirectory struct {
	snapshot      []model.User
	hasSnapshot   bool
	invalidations int
}

func (f *fakeDirectory) Get(ctx context.Context) ([]model.User, bool) {
	return f.snapshot, f.hasSnapshot
}

func (f *fakeDirectory) Set(ctx context.Context, users []model.User) {
	f.snapshot = users
	f.hasSnapshot = true
}

func (f *fakeDirectory) Invalidate(ctx context.Context) {
	f.snapshot = nil
	f.hasSnapshot = false
	f.invalidations++
}

func newUserFixture() (*UserService, *repository.Memory, *fakeDirectory) {
	store := repository.NewMemory()
	cache := &fakeDirectory{}
	return NewUserService(store, cache, zerolog.Nop()), store, cache
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	ministry := model.Identity{UserID: "m1", Role: model.RoleMinistry}

	t.Run("ministry registers a citizen", func(t *testing.T) {
		svc, store, cache := newUserFixture()
		user, err := svc.Register(ctx, ministry, RegisterRequest{
			Username: "ayse@example.org", FullName: "Ayse Demir", Role: model.RoleCitizen, Password: "s3cret",
		})
		require.NoError(t, err)
		assert.Empty(t, user.PasswordHash, "hash must not leak out of the service")
		assert.Equal(t, 1, cache.invalidations)

		stored, err := store.FindByUsername(ctx, "ayse@example.org")
		require.NoError(t, err)
		assert.True(t, security.CheckPasswordHash("s3cret", stored.PasswordHash))
	})

	t.Run("duplicate username conflicts and keeps the original credential", func(t *testing.T) {
		svc, store, _ := newUserFixture()
		_, err := svc.Register(ctx, ministry, RegisterRequest{
			Username: "ayse@example.org", FullName: "Ayse Demir", Role: model.RoleCitizen, Password: "original",
		})
		require.NoError(t, err)

		_, err = svc.Register(ctx, ministry, RegisterRequest{
			Username: "ayse@example.org", FullName: "Impostor", Role: model.RoleEmployee, Password: "other",
		})
		assert.ErrorIs(t, err, common.ErrConflict)

		stored, err := store.FindByUsername(ctx, "ayse@example.org")
		require.NoError(t, err)
		assert.Equal(t, model.RoleCitizen, stored.Role)
		assert.True(t, security.CheckPasswordHash("original", stored.PasswordHash))
	})

	t.Run("only ministry registers", func(t *testing.T) {
		svc, _, _ := newUserFixture()
		for _, role := range []model.Role{model.RoleCitizen, model.RoleEmployee} {
			_, err := svc.Register(ctx, model.Identity{UserID: "u", Role: role}, RegisterRequest{
				Username: "x@example.org", FullName: "X", Role: model.RoleCitizen, Password: "p",
			})
			assert.ErrorIs(t, err, common.ErrForbidden)
		}
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		svc, _, _ := newUserFixture()
		_, err := svc.Register(ctx, ministry, RegisterRequest{
			Username: "x@example.org", FullName: "X", Role: "mayor", Password: "p",
		})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("required fields enforced", func(t *testing.T) {
		svc, _, _ := newUserFixture()
		_, err := svc.Register(ctx, ministry, RegisterRequest{Username: "x@example.org", Role: model.RoleCitizen})
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	ministry := model.Identity{UserID: "m1", Role: model.RoleMinistry}

	t.Run("new hash replaces the old one", func(t *testing.T) {
		svc, store, cache := newUserFixture()
		user, err := svc.Register(ctx, ministry, RegisterRequest{
			Username: "e1@example.org", FullName: "E One", Role: model.RoleEmployee, Password: "old",
		})
		require.NoError(t, err)

		require.NoError(t, svc.ResetPassword(ctx, ministry, user.ID, ResetPasswordRequest{NewPassword: "new"}))
		assert.Equal(t, 2, cache.invalidations)

		stored, err := store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, security.CheckPasswordHash("new", stored.PasswordHash))
		assert.False(t, security.CheckPasswordHash("old", stored.PasswordHash))
	})

	t.Run("unknown user reports not found", func(t *testing.T) {
		svc, _, _ := newUserFixture()
		err := svc.ResetPassword(ctx, ministry, "missing", ResetPasswordRequest{NewPassword: "new"})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("only ministry resets", func(t *testing.T) {
		svc, _, _ := newUserFixture()
		citizen := model.Identity{UserID: "c1", Role: model.RoleCitizen}
		err := svc.ResetPassword(ctx, citizen, "any", ResetPasswordRequest{NewPassword: "new"})
		assert.ErrorIs(t, err, common.ErrForbidden)
	})
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	ministry := model.Identity{UserID: "m1", Role: model.RoleMinistry}

	t.Run("miss populates the cache, hit serves from it", func(t *testing.T) {
		svc, _, cache := newUserFixture()
		_, err := svc.Register(ctx, ministry, RegisterRequest{
			Username: "a@example.org", FullName: "A", Role: model.RoleCitizen, Password: "p",
		})
		require.NoError(t, err)

		users, err := svc.ListUsers(ctx, ministry)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Empty(t, users[0].PasswordHash)
		assert.True(t, cache.hasSnapshot)

		// Serve the snapshot without touching the store again.
		cache.snapshot = []model.User{{ID: "cached"}}
		users, err = svc.ListUsers(ctx, ministry)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "cached", users[0].ID)
	})

	t.Run("registration invalidates a warm snapshot", func(t *testing.T) {
		svc, _, cache := newUserFixture()
		cache.Set(ctx, []model.User{{ID: "stale"}})

		_, err := svc.Register(ctx, ministry, RegisterRequest{
			Username: "b@example.org", FullName: "B", Role: model.RoleEmployee, Password: "p",
		})
		require.NoError(t, err)
		assert.False(t, cache.hasSnapshot)

		users, err := svc.ListUsers(ctx, ministry)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "b@example.org", users[0].Username)
	})

	t.Run("only ministry lists", func(t *testing.T) {
		svc, _, _ := newUserFixture()
		_, err := svc.ListUsers(ctx, model.Identity{UserID: "e1", Role: model.RoleEmployee})
		assert.ErrorIs(t, err, common.ErrForbidden)
	})
}

func TestListEmployees(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()
	ministry := model.Identity{UserID: "m1", Role: model.RoleMinistry}

	for _, u := range []RegisterRequest{
		{Username: "e1@example.org", FullName: "E One", Role: model.RoleEmployee, Password: "p"},
		{Username: "c1@example.org", FullName: "C One", Role: model.RoleCitizen, Password: "p"},
		{Username: "e2@example.org", FullName: "E Two", Role: model.RoleEmployee, Password: "p"},
	} {
		_, err := svc.Register(ctx, ministry, u)
		require.NoError(t, err)
	}

	employees, err := svc.ListEmployees(ctx, ministry)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	for _, e := range employees {
		assert.Equal(t, model.RoleEmployee, e.Role)
		assert.Empty(t, e.PasswordHash)
	}
}

func TestSeedMinistryAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("empty deployment gets the bootstrap admin", func(t *testing.T) {
		svc, store, _ := newUserFixture()
		require.NoError(t, svc.SeedMinistryAccount(ctx, "admin@ministry.gov", "Ministry Admin", "admin123"))

		admin, err := store.FindByUsername(ctx, "admin@ministry.gov")
		require.NoError(t, err)
		assert.Equal(t, model.RoleMinistry, admin.Role)
		assert.True(t, security.CheckPasswordHash("admin123", admin.PasswordHash))
	})

	t.Run("seeding is skipped once a ministry user exists", func(t *testing.T) {
		svc, store, _ := newUserFixture()
		require.NoError(t, store.Create(ctx, &model.User{
			ID: "m1", Username: "chief@ministry.gov", FullName: "Chief", Role: model.RoleMinistry, PasswordHash: "x",
		}))

		require.NoError(t, svc.SeedMinistryAccount(ctx, "admin@ministry.gov", "Ministry Admin", "admin123"))
		_, err := store.FindByUsername(ctx, "admin@ministry.gov")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}
