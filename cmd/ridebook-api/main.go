// README: Entry point; loads config, wires services, starts the HTTP gateway and ride sync.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"ridebook/internal/ai"
	"ridebook/internal/backend"
	"ridebook/internal/config"
	httptransport "ridebook/internal/http"
	"ridebook/internal/http/handlers"
	"ridebook/internal/infra"
	"ridebook/internal/logger"
	"ridebook/internal/maps"
	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/location"
	"ridebook/internal/modules/pricing"
	"ridebook/internal/modules/quota"
	"ridebook/internal/modules/ride"
	"ridebook/internal/modules/tracking"
	"ridebook/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier, err := infra.NewFirebaseVerifier(ctx, infra.FirebaseOptions{
		ProjectID:       cfg.Firebase.ProjectID,
		CredentialsFile: cfg.Firebase.CredentialsFile,
		CheckRevoked:    cfg.Firebase.CheckRevoked,
	})
	if err != nil {
		log.WithError(err).Fatal("firebase init")
	}

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, log.WithField("component", "backend"))
	rideStore := ride.NewStore(client)

	// The journal and the draft quota need Postgres; without a DSN both are off.
	var (
		recorder  ride.Recorder
		quotaSvc  booking.Quota
		allowance handlers.Allowance
	)
	if cfg.DB.DSN != "" {
		db, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			log.WithError(err).Fatal("db init")
		}
		defer db.Close()
		if err := infra.Migrate(ctx, db, migrations.FS); err != nil {
			log.WithError(err).Fatal("db migrate")
		}
		recorder = ride.NewJournal(db)
		q := quota.NewService(quota.NewStore(db, cfg.Quota.MonthlyDrafts))
		quotaSvc, allowance = q, q
	}

	var recentStore *location.Store
	if cfg.Redis.Addr != "" {
		rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			log.WithError(err).Fatal("redis init")
		}
		defer rdb.Close()
		recentStore = location.NewStore(rdb, cfg.Recent.Limit)
	}

	var (
		resolver location.Resolver
		searcher handlers.Searcher
	)
	if cfg.Maps.APIKey != "" {
		geo, err := maps.NewGeocoder(cfg.Maps.APIKey)
		if err != nil {
			log.WithError(err).Fatal("maps init")
		}
		resolver, searcher = geo, geo
	}
	locationSvc := location.NewService(recentStore, resolver, log.WithField("component", "location"))

	var assistant *booking.Assistant
	if cfg.AI.GeminiKey != "" {
		parser, err := ai.NewGeminiParser(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.WithError(err).Fatal("gemini init")
		}
		defer parser.Close()
		assistant = booking.NewAssistant(parser, quotaSvc, locationSvc, log.WithField("component", "assistant"))
	}

	syncer := tracking.NewSyncer(rideStore, recorder, cfg.Sync.Period, log.WithField("component", "sync"))
	registry := tracking.NewRegistry(ctx, syncer)
	defer registry.Close()

	router := httptransport.NewRouter(httptransport.Deps{
		Verifier:  verifier,
		Fares:     pricing.NewStore(client),
		Booking:   booking.NewService(client, log.WithField("component", "booking")),
		Assistant: assistant,
		Allowance: allowance,
		Rides:     ride.NewService(rideStore, recorder, log.WithField("component", "rides")),
		Registry:  registry,
		Locations: locationSvc,
		Search:    searcher,
		Currency:  cfg.Currency,
		Log:       log,
	})

	if err := httptransport.NewServer(cfg.HTTP.Addr, router, log).Run(ctx); err != nil {
		log.WithError(err).Fatal("http server")
	}
}
