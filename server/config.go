package server

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config 中继服务器的运行配置
// 同一份实现通过它覆盖不同部署形态（本地开发 / 线上托管），不再维护分叉副本
type Config struct {
	Addr           string        // 监听地址，如 ":8001"
	AllowedOrigins []string      // 允许的 Origin 白名单；空表示放行所有（开发模式）
	PingInterval   time.Duration // 保活探测周期：超过一个周期未应答即判定失联
	PongWait       time.Duration // 等待对端 pong 的读超时，必须大于 PingInterval
	IdleRoomTTL    time.Duration // 半满房间的最大等待时长，超时清理；0 表示不清理
	LogFile        string        // 日志文件路径
	StaticDir      string        // 浏览器客户端静态资源目录；空表示不提供
}

// DefaultConfig 返回默认配置，可被命令行与环境变量覆盖
func DefaultConfig() Config {
	return Config{
		Addr:         ":8001",
		PingInterval: 30 * time.Second,
		PongWait:     60 * time.Second,
		IdleRoomTTL:  10 * time.Minute,
		LogFile:      "relay.log",
		StaticDir:    "web",
	}
}

// ApplyEnv 应用环境变量覆盖（托管平台只给 PORT，不给命令行参数）
// PORT: 监听端口；ALLOWED_ORIGINS: 逗号分隔的 Origin 白名单
func (c *Config) ApplyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = splitOrigins(origins)
	}
}

// Validate 检查配置自洽性
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: empty listen addr")
	}
	if c.PingInterval <= 0 {
		return fmt.Errorf("config: ping interval must be positive")
	}
	if c.PongWait <= c.PingInterval {
		return fmt.Errorf("config: pong wait (%v) must exceed ping interval (%v)", c.PongWait, c.PingInterval)
	}
	return nil
}

// splitOrigins 解析逗号分隔的 Origin 列表，忽略空段与首尾空白
func splitOrigins(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if o := strings.TrimSpace(part); o != "" {
			out = append(out, o)
		}
	}
	return out
}
