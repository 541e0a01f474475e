package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schedulerConfig struct {
	url   string
	queue string
}

func (c schedulerConfig) GetRedisURL() string       { return c.url }
func (c schedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c schedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c schedulerConfig) GetAsynqConcurrency() int  { return 1 }

func TestRedisClientOptFromURL(t *testing.T) {
	opt, err := redisClientOpt("redis://worker:pw@cache:6380/3", false)
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", opt.Addr)
	assert.Equal(t, "worker", opt.Username)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 3, opt.DB)
	assert.Nil(t, opt.TLSConfig)
}

func TestRedisClientOptTLS(t *testing.T) {
	opt, err := redisClientOpt("rediss://cache:6380", true)
	require.NoError(t, err)
	require.NotNil(t, opt.TLSConfig)
	assert.True(t, opt.TLSConfig.InsecureSkipVerify)

	opt, err = redisClientOpt("redis://cache:6379", true)
	require.NoError(t, err)
	require.NotNil(t, opt.TLSConfig)
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	_, err := NewClient(schedulerConfig{})
	assert.Error(t, err)
}

func TestQueueNameDefaults(t *testing.T) {
	assert.Equal(t, "default", queueName(schedulerConfig{}))
	assert.Equal(t, "leads", queueName(schedulerConfig{queue: "leads"}))
}

func TestNilClientEnqueueIsNoop(t *testing.T) {
	var c *Client
	queued, err := c.EnqueuePoolRelease(context.Background(), PoolReleasePayload{}, "id")

	require.NoError(t, err)
	assert.False(t, queued)
	assert.NoError(t, c.Close())
}
