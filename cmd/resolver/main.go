package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jthomson-dev/recursive-dns/internal/server"
)

func main() {
	addr := flag.String("address", "127.0.0.1:2053", "UDP address to listen for DNS queries on")
	metricsAddr := flag.String("metrics-address", "127.0.0.1:9153", "address to serve Prometheus metrics on")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
			logger.Error("metrics server exited", slog.Any("error", err))
		}
	}()

	srv, err := server.New(*addr, logger)
	if err != nil {
		log.Fatalln(err)
	}
	defer srv.Close()

	if err := srv.Serve(); err != nil {
		log.Fatalln(err)
	}
}
