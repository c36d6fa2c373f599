package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfigApplyEnv 环境变量覆盖命令行（托管平台只能注入环境变量）
func TestConfigApplyEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

// TestConfigValidate 保活参数必须自洽：pong 等待要长于 ping 周期
func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.PongWait = cfg.PingInterval
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Addr = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.PingInterval = -time.Second
	assert.Error(t, cfg.Validate())
}
