// Command odonto-mockd serves an in-memory clinic backend for local
// development: the REST surface plus the websocket push channel, seeded
// with a demo admin (admin@odonto.com / admin123), units, services and
// doctors.
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/sinditur/odonto/internal/mockapi"
)

func main() {
	godotenv.Load() //nolint:errcheck

	defaultAddr := os.Getenv("ODONTO_MOCKD_ADDR")
	if defaultAddr == "" {
		defaultAddr = ":8750"
	}
	defaultSecret := os.Getenv("ODONTO_MOCKD_SECRET")
	if defaultSecret == "" {
		defaultSecret = "dev-secret-do-not-use"
	}

	addr := flag.String("addr", defaultAddr, "listen address")
	secret := flag.String("secret", defaultSecret, "JWT signing secret")
	debug := flag.Bool("debug", os.Getenv("ODONTO_DEBUG") != "", "log every request")
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)
	if *debug {
		log.SetLevel(logrus.DebugLevel)
	}

	srv := mockapi.New(log, *secret)
	log.WithField("addr", *addr).Info("mock clinic backend listening")
	if err := http.ListenAndServe(*addr, srv); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
