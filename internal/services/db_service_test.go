package services

import (
	"testing"

	"github.com/joanmiespada/truly-blockchain/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteDBService(t *testing.T) {
	service, err := NewSqliteDBService(":memory:")
	require.NoError(t, err)
	defer service.Close()

	t.Run("migrations create the schema", func(t *testing.T) {
		db := service.GetDB()
		assert.True(t, db.Migrator().HasTable(&models.Chain{}))
		assert.True(t, db.Migrator().HasTable(&models.Contract{}))
		assert.True(t, db.Migrator().HasTable(&models.Wallet{}))
		assert.True(t, db.Migrator().HasTable(&models.MintTx{}))
	})

	t.Run("close is idempotent on a fresh connection", func(t *testing.T) {
		other, err := NewSqliteDBService(":memory:")
		require.NoError(t, err)
		assert.NoError(t, other.Close())
	})
}
