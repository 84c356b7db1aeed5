package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
	"github.com/kycklingar/dbsession/db"
	"github.com/kycklingar/dbsession/dbsession"
	"github.com/kycklingar/dbsession/handlers"
	"github.com/kycklingar/dbsession/logger"
	"github.com/kycklingar/dbsession/middleware"
	migrate "github.com/kycklingar/dbsession/migrator"
	"github.com/kycklingar/dbsession/redisstore"
	"github.com/kycklingar/dbsession/scsstore"
	"github.com/kycklingar/dbsession/session"
	"go.uber.org/zap"
)

var gConf config

func main() {
	initConfig := flag.Bool("init-cfg", false, "Initialize the configfile and exit.")
	configFilePath := flag.String("cfg", "config.cfg", "Load config file.")
	migrateOnly := flag.Bool("migrate", false, "Apply database migrations and exit")
	collect := flag.Bool("gc", false, "Remove expired sessions and exit")

	flag.Parse()

	var err error
	gConf, err = exeConf(*configFilePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	if *initConfig {
		return
	}

	log, err := logger.New(gConf.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *migrateOnly {
		h, err := openDatabase(gConf, log)
		if err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		h.Close()
		return
	}

	backend, lister, err := openBackend(gConf, log)
	if err != nil {
		log.Fatal("failed to open session backend", zap.String("backend", gConf.Backend), zap.Error(err))
	}

	manager, err := session.NewManager(backend, gConf.SessionCfg, log)
	if err != nil {
		log.Fatal("failed to start session manager", zap.Error(err))
	}
	defer manager.Close()

	if *collect {
		if err = manager.GC(); err != nil {
			os.Exit(1)
		}
		log.Info("collected expired sessions")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go manager.CollectGarbage(ctx)

	sm := scs.New()
	sm.Store = scsstore.New(backend)
	sm.IdleTimeout = time.Duration(gConf.SessionCfg.MaxLifetime) * time.Second
	sm.Cookie.Name = "scs_" + gConf.SessionCfg.CookieName
	sm.Cookie.Secure = gConf.SessionCfg.CookieSecure

	if gConf.Env != "dev" && gConf.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLog(log))
	handlers.New(gConf.HCfg, manager, lister, sm, log).Register(r)

	srv := &http.Server{
		Addr:    gConf.HTTPAddress,
		Handler: r,
	}

	go func() {
		<-ctx.Done()

		sctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}()

	log.Info("listening", zap.String("address", srv.Addr), zap.String("backend", gConf.Backend))

	if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", zap.Error(err))
	}
}

// openBackend returns the session handler for the configured backend.
// The lister is nil for backends that cannot be searched.
func openBackend(conf config, log *zap.Logger) (session.Handler, handlers.Lister, error) {
	switch conf.Backend {
	case backendPostgres, backendPGX:
		h, err := openDatabase(conf, log)
		if err != nil {
			return nil, nil, err
		}

		return dbsession.New(h), dbsession.NewInspector(h), nil
	case backendRedis:
		return redisstore.Dial(conf.RedisCfg, conf.SessionCfg.MaxLifetime), nil, nil
	case backendMemory:
		return session.NewMemory(), nil, nil
	}

	return nil, nil, fmt.Errorf("unknown session backend '%s'", conf.Backend)
}

// openDatabase connects and brings the sessions schema up to date
func openDatabase(conf config, log *zap.Logger) (*db.Handle, error) {
	dbCfg := conf.DBCfg
	switch conf.Backend {
	case backendPGX:
		dbCfg.Driver = db.DriverPGX
	case backendPostgres:
		dbCfg.Driver = db.DriverPQ
	}

	h, err := db.Open(dbCfg)
	if err != nil {
		return nil, err
	}

	mig, err := migrate.Embedded()
	if err == nil {
		err = migrate.Apply(h.DB, mig, log)
	}
	if err != nil {
		h.Close()
		return nil, err
	}

	return h, nil
}
