package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gogpu/gg"
	"github.com/sirupsen/logrus"

	"MeetBoard/internal/config"
	boardnet "MeetBoard/internal/net"
	"MeetBoard/internal/ui"
)

const discoverTimeout = 3 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	setupLogging(cfg.LogLevel)

	args := os.Args[1:]
	switch {
	case len(args) > 0 && args[0] == "view":
		link := ""
		if len(args) > 1 {
			link = args[1]
		}
		runViewer(link)
	case len(args) > 0 && strings.HasPrefix(args[0], boardnet.LinkScheme):
		runViewer(args[0])
	default:
		runHost(cfg)
	}
}

func setupLogging(level logrus.Level) {
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	w := logrus.StandardLogger().WriterLevel(logrus.DebugLevel)
	gg.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func runHost(cfg config.Config) {
	logrus.WithField("component", "main").Info("starting as presenter")
	if err := ui.RunApp(cfg); err != nil {
		logrus.WithError(err).Fatal("whiteboard exited")
	}
}

func runViewer(link string) {
	log := logrus.WithField("component", "main")
	var addr string
	var err error
	if link == "" {
		log.Info("looking for a presenter on the local network")
		addr, err = boardnet.Discover(context.Background(), discoverTimeout)
	} else {
		addr, err = boardnet.ParseShareLink(link)
	}
	if err != nil {
		log.WithError(err).Fatal("cannot find presenter")
	}
	log.WithField("presenter", addr).Info("starting as viewer")
	if err := ui.RunViewer(addr); err != nil {
		log.WithError(err).Fatal("viewer exited")
	}
}
