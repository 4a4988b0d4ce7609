package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"schema-matcher/internal/config"
	"schema-matcher/internal/logger"
)

func main() {
	cfg := config.Default()
	if path := os.Getenv("MATCHER_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ 读取配置失败: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	log := logger.New(&cfg.Log)
	logger.SetGlobal(log)

	srv := newServer(cfg.Matcher, log)

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir("web/static")))
	srv.register(mux)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("🚀 Schema Matcher Web Server\n")
	fmt.Printf("📡 服务地址: http://localhost:%s\n", port)
	fmt.Printf("🔗 POST /api/match 提交匹配任务\n\n")

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := httpServer.ListenAndServe(); err != nil {
		log.ErrorWith("server stopped", err, map[string]interface{}{"port": port})
		os.Exit(1)
	}
}
