package main

import (
	"context"
	"recipe-api/database"
	"recipe-api/repositories"
	"recipe-api/services"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate", "createsuperuser"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}

	cmd, _, err := root.Find([]string{"createsuperuser"})
	require.NoError(t, err)
	assert.NotNil(t, cmd.Flags().Lookup("email"))
	assert.NotNil(t, cmd.Flags().Lookup("password"))
}

func TestCreateSuperuser(t *testing.T) {
	logger = zap.NewNop()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	repo := repositories.NewUserRepository(db)
	users := services.NewUserService(repo)

	require.NoError(t, createSuperuser(context.Background(), users, "Admin@EXAMPLE.com", "secret123"))

	u, err := repo.FindByEmail(context.Background(), "Admin@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)
	assert.True(t, u.IsStaff)

	assert.Error(t, createSuperuser(context.Background(), users, "", "secret123"))
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", ""} {
		l, err := newLogger(level)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}
