package main

import (
	"context"
	"log"
	"net/http"
	"net/http/pprof"
	"os/signal"
	"syscall"
	"time"

	"chatrelay.com/internal/relay/bridge"
	"chatrelay.com/internal/relay/broker"
	relaycfg "chatrelay.com/internal/relay/config"
	"chatrelay.com/internal/relay/hub"
	"chatrelay.com/internal/relay/ledger"
	"chatrelay.com/internal/relay/metrics"
	"chatrelay.com/internal/relay/session"
	vipConfig "chatrelay.com/pkg/config"
	"chatrelay.com/pkg/logger"
	"chatrelay.com/pkg/safe"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 1. 支持 Ctrl+C / kubernetes 停止信号的 context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := relaycfg.Default()
	if _, err := vipConfig.LoadAndWatch("relay-service", &cfg); err != nil {
		// 没有配置文件也能跑，默认值 + 环境变量
		log.Printf("config not loaded, using defaults: %v", err)
	}

	logger.Init(cfg.Name, cfg.Log.Level)
	defer logger.Sync()

	metrics.MustRegister()

	led := ledger.New(cfg.Ledger.MaxEntries, time.Duration(cfg.Ledger.TTLSeconds)*time.Second)
	h := hub.New(cfg.Hub.Backlog)

	// broker 连不上直接退出
	bk, err := broker.NewNatsBroker(cfg.Broker.URL)
	if err != nil {
		logger.Fatal(ctx, "broker connect failed", zap.String("url", cfg.Broker.URL), zap.Error(err))
	}
	defer bk.Close()

	// 订阅失败同样是致命的
	bg := bridge.New(bk, led, h, cfg.Broker.Topic)
	if err := bg.Start(ctx); err != nil {
		logger.Fatal(ctx, "topic subscribe failed", zap.String("topic", cfg.Broker.Topic), zap.Error(err))
	}

	wss := session.NewServer(h, led, bk, cfg.Broker.Topic, cfg.Broker.Key)
	wss.EchoRequiresPublish = cfg.Relay.EchoRequiresPublish

	mux := http.NewServeMux()
	mux.Handle("/ws", wss)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: mux}
	safe.Go(func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(context.Background(), "listen failed", zap.Error(err))
		}
	})
	logger.Info(ctx, "relay running",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("topic", cfg.Broker.Topic),
	)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(context.Background(), "shutdown error", zap.Error(err))
	}
	logger.Info(context.Background(), "relay exit")
}
