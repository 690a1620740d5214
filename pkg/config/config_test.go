package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Reporting: ReportingConfig{Table: "dmLogReportDashboard", DateColumn: "createdDate"},
			Chat:      ChatConfig{SessionTTLMinutes: 10, MaxRows: 500},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		require.NoError(t, valid().validate())
	})

	t.Run("empty table rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Reporting.Table = ""
		assert.Error(t, cfg.validate())
	})

	t.Run("empty date column rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Reporting.DateColumn = ""
		assert.Error(t, cfg.validate())
	})

	t.Run("non-positive TTL rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Chat.SessionTTLMinutes = 0
		assert.Error(t, cfg.validate())
	})

	t.Run("non-positive max rows rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Chat.MaxRows = -1
		assert.Error(t, cfg.validate())
	})
}

func TestConnectionStrings(t *testing.T) {
	db := DatabaseConfig{Host: "localhost", Port: 5432, User: "casepulse", Password: "pw", Database: "casepulse_engine", SSLMode: "disable"}
	assert.Equal(t,
		"host=localhost port=5432 user=casepulse password=pw dbname=casepulse_engine sslmode=disable",
		db.ConnectionString())

	rp := ReportingConfig{Type: "mssql", Host: "wh", Port: 1433, User: "ro", Password: "pw", Database: "reports"}
	assert.Equal(t, "sqlserver://ro:pw@wh:1433?database=reports", rp.ConnectionString())
}
