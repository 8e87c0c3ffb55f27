package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, uint64(8453), cfg.Chain.ChainID)
	assert.Equal(t, 60*time.Second, cfg.Chain.ReceiptTimeout)
	assert.Equal(t, time.Second, cfg.Chain.SwitchSettle)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Backend.ProcessTimeout)
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/", cfg.Pinata.GatewayURL)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_PASSWORD", "p")
	t.Setenv("DB_NAME", "baselibrary")
	t.Setenv("RECEIPT_TIMEOUT", "90s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=baselibrary sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, 90*time.Second, cfg.Chain.ReceiptTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.BrokerList())
	assert.True(t, cfg.MinIO.UseSSL)
	assert.True(t, cfg.MinIO.Enabled())
}

func TestChainEndpoints(t *testing.T) {
	c := ChainConfig{ChainID: 8453, RPCURL: "https://mainnet.base.org", RPCURLs: "1=https://eth.example, 84532=https://sepolia.base.org"}
	eps, err := c.Endpoints()
	require.NoError(t, err)
	assert.Equal(t, map[uint64]string{
		1:     "https://eth.example",
		84532: "https://sepolia.base.org",
		8453:  "https://mainnet.base.org",
	}, eps)

	c.RPCURLs = "oops"
	_, err = c.Endpoints()
	assert.Error(t, err)
}
