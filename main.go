package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"duelrelay/server"
)

// DuelRelay 入口：启动 HTTP + WebSocket 服务，并初始化对战中继路由器
func main() {
	cfg := server.DefaultConfig()
	var origins string
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. :8001")
	flag.StringVar(&origins, "origins", "", "comma-separated allowed origins (empty = allow all)")
	flag.DurationVar(&cfg.PingInterval, "ping", cfg.PingInterval, "keepalive ping interval")
	flag.DurationVar(&cfg.IdleRoomTTL, "idle-ttl", cfg.IdleRoomTTL, "half-empty room lifetime before cleanup (0 = keep forever)")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file path")
	flag.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "static web dir for the browser client (empty = disabled)")
	flag.Parse()
	if origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	// 托管平台只注入环境变量（PORT / ALLOWED_ORIGINS），优先级高于命令行
	cfg.ApplyEnv()

	// 使用第三方 zap 日志库写入 relay.log（带滚动）
	if err := server.InitLogger(cfg.LogFile); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	if err := cfg.Validate(); err != nil {
		server.Log.Fatalf("bad config: %v", err)
	}

	hub := server.NewHub(cfg, nil)
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.ServeWS(hub))
	// 前后端分离：将 / 映射到浏览器客户端的静态资源
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}
	// 管理与监控接口
	mux.HandleFunc("/metrics", server.HandleMetrics(hub.Metrics()))
	mux.HandleFunc("/admin/rooms", server.HandleRooms(hub))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		server.Log.Infof("DuelRelay listening on %s; websocket endpoint at ws://localhost%v/ws", cfg.Addr, cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）：先停收新连接，再停事件循环
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	hub.Stop()
}
