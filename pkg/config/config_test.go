package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	c := &Config{}
	c.Environment = "production"
	c.MarketData.Source = "alphavantage"
	c.MarketData.APIKey = "demo"
	c.Consensus.Sources = []string{"deepseek", "gemini", "groq"}
	return c
}

func TestValidateMinimal(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateClickHouseSourceRequiresEnabledClient(t *testing.T) {
	c := validConfig()
	c.MarketData.Source = "clickhouse"
	assert.ErrorContains(t, c.Validate(), "clickhouse.enabled")

	c.ClickHouse.Enabled = true
	assert.NoError(t, c.Validate())
}

func TestValidateAlphaVantageRequiresAPIKey(t *testing.T) {
	c := validConfig()
	c.MarketData.APIKey = ""
	assert.ErrorContains(t, c.Validate(), "api_key")
}

func TestValidateRedisCacheRequiresAddr(t *testing.T) {
	c := validConfig()
	c.Cache.Type = "redis"
	assert.ErrorContains(t, c.Validate(), "cache.redis.addr")

	c.Cache.Redis.Addr = "localhost:6379"
	assert.NoError(t, c.Validate())
}

func TestValidateQueueRequiresRedisAddr(t *testing.T) {
	c := validConfig()
	c.Queue.Enabled = true
	assert.ErrorContains(t, c.Validate(), "cache.redis.addr")

	c.Cache.Redis.Addr = "localhost:6379"
	assert.NoError(t, c.Validate())
}

func TestValidateCollectorRequiresKafka(t *testing.T) {
	c := validConfig()
	c.Logging.Collector.Enabled = true
	assert.ErrorContains(t, c.Validate(), "kafka.enabled")

	c.Kafka.Enabled = true
	c.Kafka.Brokers = []string{"localhost:9092"}
	assert.NoError(t, c.Validate())
}

func TestValidateEmptySources(t *testing.T) {
	c := validConfig()
	c.Consensus.Sources = nil
	assert.ErrorContains(t, c.Validate(), "consensus.sources")
}
