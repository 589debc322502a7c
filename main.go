package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"synced-lyrics-go/config"
	"synced-lyrics-go/logcolors"

	log "github.com/sirupsen/logrus"
)

const version = "1.4.0"

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatalf("%s Invalid configuration: %v", logcolors.LogConfig, err)
	}

	logFile, err := setupLogging(conf)
	if err != nil {
		log.Warnf("%s %v", logcolors.LogConfig, err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(conf).Run(ctx, os.Args); err != nil {
		log.Errorf("%s %v", logcolors.LogRun, err)
		stop()
		if logFile != nil {
			logFile.Close()
		}
		os.Exit(1)
	}
}
