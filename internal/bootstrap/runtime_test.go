package bootstrap

import (
	"testing"

	"pcoscare/internal/config"
	"pcoscare/internal/models"
	"pcoscare/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureDevRootAdmin(t *testing.T) {
	base := config.Config{
		Env:              "development",
		DevBootstrapRoot: true,
		DevRootEmail:     "Root@Example.com",
		DevRootPassword:  "root-password",
	}

	t.Run("creates root when missing", func(t *testing.T) {
		db := testutil.NewSQLiteDB(t)
		cfg := base
		require.NoError(t, EnsureDevRootAdmin(&cfg, db))

		var root models.User
		require.NoError(t, db.First(&root, 1).Error)
		assert.True(t, root.IsAdmin)
		assert.Equal(t, "root@example.com", root.Email)
		assert.Equal(t, "PCOS Care Admin", root.Name)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(root.Password), []byte("root-password")))
	})

	t.Run("promotes existing user 1 without touching credentials", func(t *testing.T) {
		db := testutil.NewSQLiteDB(t)
		existing := testutil.CreateUser(t, db, false)
		require.Equal(t, uint(1), existing.ID)

		cfg := base
		require.NoError(t, EnsureDevRootAdmin(&cfg, db))

		var root models.User
		require.NoError(t, db.First(&root, 1).Error)
		assert.True(t, root.IsAdmin)
		assert.Equal(t, existing.Email, root.Email)
	})

	t.Run("force credentials", func(t *testing.T) {
		db := testutil.NewSQLiteDB(t)
		testutil.CreateUser(t, db, false)

		cfg := base
		cfg.DevRootForceCredentials = true
		cfg.DevRootName = "Ops"
		require.NoError(t, EnsureDevRootAdmin(&cfg, db))

		var root models.User
		require.NoError(t, db.First(&root, 1).Error)
		assert.Equal(t, "Ops", root.Name)
		assert.Equal(t, "root@example.com", root.Email)
	})

	t.Run("skipped outside development", func(t *testing.T) {
		db := testutil.NewSQLiteDB(t)
		cfg := base
		cfg.Env = "production"
		require.NoError(t, EnsureDevRootAdmin(&cfg, db))

		var count int64
		require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("password required", func(t *testing.T) {
		db := testutil.NewSQLiteDB(t)
		cfg := base
		cfg.DevRootPassword = ""
		assert.Error(t, EnsureDevRootAdmin(&cfg, db))
	})
}
