package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/retailworks/opsledger/config"
	"github.com/retailworks/opsledger/internal/adminapi"
	"github.com/retailworks/opsledger/internal/app"
)

func main() {
	cfile := flag.String("c", "/etc/opsledger.yml", "config file")
	initdb := flag.Bool("initdb", false, "drop and recreate the database schema")
	flag.Parse()

	cfg := config.LoadConfig(*cfile)

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.L().Info("database initialized")
		return
	}

	ws := adminapi.NewWebServer(application)
	go func() {
		if err := ws.Start(); err != nil {
			zap.L().Fatal("web server stopped", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	zap.L().Info("shutting down")
}
