package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workoutbrothers/storefront-backend/pkg/db"
	"github.com/workoutbrothers/storefront-backend/pkg/db/dbtest"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{
		Username:     "ironmike",
		Email:        "mike@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleCustomer, user.Role)

	found, err := repo.FindByEmail(ctx, "mike@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ironmike", byID.Username)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, db.IsNotFound(err))
}

func TestRepositoryUniqueness(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Username: "ironmike", Email: "mike@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	exists, err := repo.ExistsByUsernameOrEmail(ctx, "ironmike", "other@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsernameOrEmail(ctx, "someone", "someone@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.Create(ctx, CreateUserDTO{Username: "ironmike", Email: "dup@example.com", PasswordHash: "h"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestRepositoryCountsAndAdmins(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Username: "a", Email: "a@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Username: "boss", Email: "boss@example.com", PasswordHash: "h", Role: enums.UserRoleAdmin})
	require.NoError(t, err)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	now := time.Now().UTC()
	recent, err := repo.CountCreatedBetween(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), recent)

	admins, err := repo.AdminEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"boss@example.com"}, admins)
}
