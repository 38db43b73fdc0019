package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tankarena/server"
)

// TankArena 入口：启动 HTTP + WebSocket 服务，并开动全局模拟循环
func main() {
	var (
		addr    string
		logPath string
		dev     bool
	)
	flag.StringVar(&addr, "addr", ":8080", "server listen address, e.g. :8080")
	flag.StringVar(&logPath, "log", "app.log", "log file path")
	flag.BoolVar(&dev, "dev", false, "also log to stderr")
	flag.Parse()

	// 使用第三方 zap 日志库写入文件（带滚动）
	if err := server.InitLogger(logPath, dev); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	game := server.NewGame(server.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	game.StartTicker(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", game.HandleWS)
	// 前后端分离：将 / 映射到 web 目录的静态资源
	mux.Handle("/", http.FileServer(http.Dir("web")))
	// 管理与监控接口
	mux.HandleFunc("/admin/config", game.HandleAdminConfig)
	mux.HandleFunc("/metrics", game.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		server.Log.Infof("TankArena listening on %s; open http://localhost%v/", addr, addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")
	cancel()
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
}
