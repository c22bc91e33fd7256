package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/mmrzaf/tabgen/internal/api"
	"github.com/mmrzaf/tabgen/internal/app"
	"github.com/mmrzaf/tabgen/internal/config"
	"github.com/mmrzaf/tabgen/internal/infra/cache"
	"github.com/mmrzaf/tabgen/internal/infra/repos/runs"
	"github.com/mmrzaf/tabgen/internal/infra/repos/specs"
	"github.com/mmrzaf/tabgen/internal/infra/repos/targets"
	"github.com/mmrzaf/tabgen/internal/logging"
)

func main() {
	cfg := config.Load()

	specsDir := flag.String("specs-dir", cfg.SpecsDir, "Table specs directory")
	tabgenDB := flag.String("db", cfg.TabgenDBDSN, "Metadata database DSN (PostgreSQL); empty uses --runs-db")
	runsDB := flag.String("runs-db", cfg.RunsDBPath, "SQLite metadata database path")
	cacheDB := flag.String("cache-db", cfg.CacheDBPath, "Table cache file (empty disables caching)")
	bindAddr := flag.String("bind", cfg.BindAddr, "Bind address")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level")
	batchSize := flag.Int("batch-size", cfg.BatchSize, "Default insert batch size")
	flag.Parse()

	logger := logging.NewLogger(*logLevel).WithComponent("api_main")

	var (
		runRepo    runs.Repository
		targetRepo *targets.SQLRepository
	)
	if *tabgenDB != "" {
		runRepo = runs.NewPostgresRepository(*tabgenDB)
	} else {
		runRepo = runs.NewSQLiteRepository(*runsDB)
	}
	if err := runRepo.Init(); err != nil {
		logger.Errorw("startup.failed", map[string]any{"error": err.Error(), "stage": "init_run_repo"})
		os.Exit(1)
	}
	defer runRepo.Close()
	if *tabgenDB != "" {
		targetRepo = targets.NewPostgresRepository(runRepo.DB())
	} else {
		targetRepo = targets.NewSQLiteRepository(runRepo.DB())
	}

	var tableCache cache.TableCache = cache.Nop{}
	if *cacheDB != "" {
		c, err := cache.OpenBolt(*cacheDB)
		if err != nil {
			logger.Errorw("startup.failed", map[string]any{"error": err.Error(), "stage": "open_cache"})
			os.Exit(1)
		}
		tableCache = c
	}
	defer tableCache.Close()

	specRepo := specs.NewFileRepository(*specsDir)
	runService := app.NewRunService(specRepo, targetRepo, runRepo, tableCache, logger, *batchSize)
	if err := runService.SetDefaultCategories(cfg.DefaultCategories); err != nil {
		logger.Errorw("startup.failed", map[string]any{"error": err.Error(), "stage": "default_categories"})
		os.Exit(1)
	}

	handler := api.NewHandler(targetRepo, runService)
	router := api.NewRouter(handler, logger.WithComponent("http"))

	logger.Infow("startup.listening", map[string]any{
		"bind":      *bindAddr,
		"specs_dir": *specsDir,
		"postgres":  *tabgenDB != "",
		"cache":     *cacheDB != "",
	})
	if err := http.ListenAndServe(*bindAddr, router); err != nil {
		logger.Errorw("startup.failed", map[string]any{"error": err.Error(), "stage": "listen"})
		os.Exit(1)
	}
}
