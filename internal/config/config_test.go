package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"casino-miniapp-backend/internal/config"
	"casino-miniapp-backend/internal/payout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "local", cfg.Ledger.Lock)
	assert.Equal(t, 50*time.Millisecond, cfg.Games.CrashTick)
	assert.Equal(t, 5*time.Second, cfg.Ledger.BalanceCacheTTL)

	rate, err := cfg.Ledger.Rate()
	require.NoError(t, err)
	assert.Equal(t, "10", rate.String())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "redis")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("LEDGER_EXCHANGE_RATE", "12.5")
	t.Setenv("LEDGER_BALANCE_CACHE_TTL", "30s")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "redis:6379", cfg.Redis.URL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Second, cfg.Ledger.BalanceCacheTTL, "display cache is capped")

	rate, err := cfg.Ledger.Rate()
	require.NoError(t, err)
	assert.Equal(t, "12.5", rate.String())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("LEDGER_EXCHANGE_RATE", "0")
	_, err = config.Load()
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("port: \"7000\"\ngames:\n  max_bet: \"250\"\n"), 0o644))
	t.Setenv("CONFIG_FILE", file)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)

	maxBet, err := cfg.Games.MaxBetAmount()
	require.NoError(t, err)
	assert.Equal(t, "250", maxBet.String())
}

func TestLoadGameTables(t *testing.T) {
	tables, err := config.LoadGameTables("")
	require.NoError(t, err)
	assert.Len(t, tables.Plinko, 3)

	file := filepath.Join(t.TempDir(), "tables.yaml")
	yml := `
mining:
  easy:
    success_rate: 0.5
    min_reward: "1.20"
    max_reward: "1.80"
plinko:
  low:
    multipliers: ["5", "2", "1.5", "1.2", "1.1", "1", "0.9", "0.8", "0.7", "0.8", "0.9", "1", "1.1", "1.2", "1.5", "2", "5"]
`
	require.NoError(t, os.WriteFile(file, []byte(yml), 0o644))

	tables, err = config.LoadGameTables(file)
	require.NoError(t, err)
	assert.Equal(t, 0.5, tables.Mining[payout.DifficultyEasy].SuccessRate)
	assert.Equal(t, "5", tables.Plinko[payout.RiskLow].Multipliers[0].String())
	assert.Equal(t, "110", tables.Plinko[payout.RiskMedium].Multipliers[0].String(), "untouched tiers keep defaults")
}

func TestLoadGameTablesRejectsAsymmetricPlinko(t *testing.T) {
	yml := []byte(`
plinko:
  low:
    multipliers: ["6", "2", "1.5", "1.2", "1.1", "1", "0.9", "0.8", "0.7", "0.8", "0.9", "1", "1.1", "1.2", "1.5", "2", "5"]
`)
	file := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(file, yml, 0o644))

	_, err := config.LoadGameTables(file)
	assert.ErrorIs(t, err, payout.ErrInvalidParams)
}
