package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/mcworld/internal/api"
	"github.com/annel0/mcworld/internal/cache"
	"github.com/annel0/mcworld/internal/config"
	"github.com/annel0/mcworld/internal/logging"
	"github.com/annel0/mcworld/internal/observability"
	"github.com/annel0/mcworld/internal/world"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML-конфигурации (иначе MCWORLD_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := logging.Init(cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🗺️ Запуск сервиса чтения мира...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Error("❌ Ошибка инициализации телеметрии: %v", err)
		os.Exit(1)
	}
	defer shutdownTelemetry(context.Background())

	// === МИР ===
	exporter := cache.NewExporter()
	prometheus.MustRegister(exporter)

	worldPath := cfg.World.GetPath()
	w, err := world.Open(worldPath, world.Options{
		CacheCapacity:        cfg.World.GetCacheCapacity(),
		SkipBrokenRegionsets: cfg.World.SkipBrokenRegionsets,
		Exporter:             exporter,
	})
	if err != nil {
		logging.Error("❌ Не удалось открыть мир %s: %v", worldPath, err)
		os.Exit(1)
	}
	defer w.Close()

	for i, rs := range w.Regionsets() {
		logging.Info("   [%d] %s (%s): %d регионов", i, rs.Dir(), rs.Type(), rs.Index().Len())
	}

	// === REST API ===
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	restServer := api.NewRestServer(api.Config{
		Addr:        cfg.Server.GetHTTPAddr(),
		World:       w,
		ServiceName: cfg.Telemetry.GetServiceName(),
	})
	srv := api.NewHTTPServer(restServer)
	if err := srv.Start(); err != nil {
		logging.Error("❌ Ошибка запуска REST API: %v", err)
		os.Exit(1)
	}

	logging.Info("✅ Мир %q доступен", w.Name())
	logging.Info("   ❤️  Health check: http://%s/health", srv.Addr())
	logging.Info("   📈 Метрики: http://%s/metrics", srv.Addr())

	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал, завершение работы...")
	case err := <-srv.Done():
		logging.Error("❌ REST API остановился: %v", err)
	}

	if err := srv.Stop(context.Background()); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	logging.Info("👋 Сервис остановлен")
}
