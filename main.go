package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mzlab/mzwake/config"
	"github.com/mzlab/mzwake/engine"
	"github.com/mzlab/mzwake/routes"
	"github.com/mzlab/mzwake/store"
	"github.com/mzlab/mzwake/store/cloud"
	"github.com/mzlab/mzwake/store/local"
	"github.com/mzlab/mzwake/utils"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := utils.InitLogger(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Logger.Sync()

	var (
		primary  store.Store
		exporter store.Exporter
		cloudDst store.Store
	)

	switch cfg.StoreBackend {
	case config.BackendLocal:
		localStore, err := local.Open(cfg.DataDir)
		if err != nil {
			utils.Sugar.Fatalw("open local store failed", "dir", cfg.DataDir, "error", err)
		}
		primary = localStore
		exporter = localStore
		// A configured database while running local is the migration target.
		if cfg.DBConfigured {
			db, err := config.OpenDatabase(cfg)
			if err != nil {
				utils.Sugar.Warnw("cloud migration target unavailable", "error", err)
			} else if err := cloud.Migrate(db); err != nil {
				utils.Sugar.Warnw("cloud schema migration failed", "error", err)
			} else {
				cloudDst = cloud.New(db)
			}
		}
	case config.BackendCloud:
		db, err := config.OpenDatabase(cfg)
		if err != nil {
			utils.Sugar.Fatalw("open database failed", "error", err)
		}
		if err := cloud.Migrate(db); err != nil {
			utils.Sugar.Fatalw("schema migration failed", "error", err)
		}
		primary = cloud.New(db)
	default:
		utils.Sugar.Fatalw("unknown store backend", "backend", cfg.StoreBackend)
	}

	cache := utils.NewCache(cfg)
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL())

	scorer := engine.NewScorer(primary, cache, utils.Sugar)
	sessions := engine.NewSessions(primary, scorer, utils.Sugar)
	catalog := engine.NewCatalog(primary)
	groups := engine.NewGroups(primary)

	router := routes.SetupRouter(cfg, routes.Deps{
		Store:    primary,
		Exporter: exporter,
		Cloud:    cloudDst,
		Catalog:  catalog,
		Sessions: sessions,
		Groups:   groups,
		Tokens:   tokens,
		Cache:    cache,
	})

	utils.Sugar.Infow("server starting", "port", cfg.AppPort, "backend", cfg.StoreBackend)
	if err := utils.GraceServer(":"+cfg.AppPort, router); err != nil {
		utils.Sugar.Fatalw("server exited", "error", err)
	}
}
