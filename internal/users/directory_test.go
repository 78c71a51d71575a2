package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/equiptrade/fulfillment-backend/pkg/db/dbtest"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
)

func TestDirectoryOperatorsReturnsActiveOperatorsOnly(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	inactive := false

	first, err := repo.Create(ctx, CreateUserDTO{Email: "ops1@equiptrade.dz", FirstName: "Amina", LastName: "B", Role: enums.UserRoleOperator})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Email: "ops2@equiptrade.dz", FirstName: "Old", Role: enums.UserRoleOperator, IsActive: &inactive})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Email: "buyer@example.com", FirstName: "Karim", Role: enums.UserRoleCustomer})
	require.NoError(t, err)

	dir := NewDirectory(repo)
	ops, err := dir.Operators(ctx, nil)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, first.ID, ops[0].ID)
	require.Equal(t, "Amina B", ops[0].Name)

	// roster is re-read on every call
	_, err = repo.Create(ctx, CreateUserDTO{Email: "ops3@equiptrade.dz", FirstName: "New", Role: enums.UserRoleOperator})
	require.NoError(t, err)
	ops, err = dir.Operators(ctx, nil)
	require.NoError(t, err)
	require.Len(t, ops, 2)
}

func TestDirectoryRecipient(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Email: "buyer@example.com", FirstName: "Karim", LastName: "D"})
	require.NoError(t, err)
	require.Equal(t, enums.UserRoleCustomer, user.Role)

	dir := NewDirectory(repo)
	rcpt, err := dir.Recipient(ctx, nil, user.ID)
	require.NoError(t, err)
	require.NotNil(t, rcpt)
	require.Equal(t, "buyer@example.com", rcpt.Email)

	missing, err := dir.Recipient(ctx, nil, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)
}
