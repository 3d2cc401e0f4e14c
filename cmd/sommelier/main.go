// Command sommelier serves the chocolate sommelier chat API.
//
// @title       Choco Sommelier API
// @version     1.0
// @description Conversation-flow sommelier for a chocolate retailer: guided flows, knowledge answers and product suggestions.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/choco-sommelier/internal/catalog"
	"github.com/tbourn/choco-sommelier/internal/config"
	httpapi "github.com/tbourn/choco-sommelier/internal/http"
	"github.com/tbourn/choco-sommelier/internal/observability"
	"github.com/tbourn/choco-sommelier/internal/repo"
	"github.com/tbourn/choco-sommelier/internal/services"
	"github.com/tbourn/choco-sommelier/internal/sommelier"
	"github.com/tbourn/choco-sommelier/internal/sysutil"
)

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	seed := flag.Bool("seed", false, "import SEED_PATH and KNOWLEDGE_MD_PATH into the database before serving")
	seedOnly := flag.Bool("seed-only", false, "import the seed files and exit")
	flag.Parse()

	cfg := config.MustLoad()
	sysutil.ConfigureLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	gin.SetMode(cfg.GinMode)

	if err := run(cfg, *seed || *seedOnly, *seedOnly); err != nil {
		log.Fatal().Err(err).Msg("sommelier exited")
	}
}

func run(cfg config.Config, seed, seedOnly bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, sysutil.Version(),
		attribute.String("catalog.source", cfg.Catalog.Source))
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	if seed {
		res, err := catalog.ImportFiles(ctx, db, cfg.SeedPath, cfg.KnowledgeMDPath)
		if err != nil {
			return err
		}
		log.Info().
			Int("products", res.Products).
			Int("flows", res.Flows).
			Int("knowledge", res.Knowledge).
			Msg("catalog imported")
		if seedOnly {
			return nil
		}
	}

	src, closeSrc, err := catalogSource(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeSrc()

	engine, kidx, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:        db,
		Catalog:   catalog.NewCached(src, cfg.Catalog.TTL),
		Engine:    engine,
		Knowledge: kidx,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go purgeIdempotency(ctx, db, time.Hour)

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("catalog", cfg.Catalog.Source).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// catalogSource opens the configured catalog backend. The returned close
// function is always safe to call.
func catalogSource(ctx context.Context, cfg config.Config, db *gorm.DB) (catalog.Source, func(), error) {
	if cfg.Catalog.Source != config.CatalogFirestore {
		return &catalog.SQLSource{DB: db}, func() {}, nil
	}
	fs, err := catalog.NewFirestoreSource(ctx, cfg.Catalog.FirebaseProjectID, cfg.Catalog.FirebaseCredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() {
		if err := fs.Close(); err != nil {
			log.Warn().Err(err).Msg("firestore close")
		}
	}, nil
}

// buildEngine applies the keyword override, the flow step bound and the
// knowledge retriever.
func buildEngine(cfg config.Config) (*sommelier.Engine, *services.KnowledgeIndex, error) {
	kw := sommelier.DefaultKeywords()
	if cfg.Engine.KeywordsPath != "" {
		f, err := os.Open(cfg.Engine.KeywordsPath)
		if err != nil {
			return nil, nil, err
		}
		override, err := sommelier.LoadKeywords(f)
		f.Close()
		if err != nil {
			return nil, nil, err
		}
		kw = kw.Merge(override)
	}

	kidx := services.NewKnowledgeIndex()
	engine := sommelier.New(
		sommelier.WithClassifier(sommelier.NewClassifier(kw)),
		sommelier.WithMaxFlowSteps(cfg.Engine.FlowMaxSteps),
		sommelier.WithRetriever(kidx, cfg.Engine.KnowledgeThreshold),
	)
	return engine, kidx, nil
}

// purgeIdempotency drops expired replay records until ctx ends.
func purgeIdempotency(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("purged idempotency records")
			}
		}
	}
}
