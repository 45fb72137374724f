package main

import (
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/centavo/backend/internal/ledger"
	"github.com/centavo/backend/internal/models"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// main runs the ledger maintenance worker. It periodically closes credit
// card bills whose closing date has passed, marks unpaid bills overdue and
// marks scheduled transactions overdue.
func main() {
	// .env is used for local development, it does not need to exist
	_ = godotenv.Load()

	// Log format can be explicitly set.
	// If it is not set, it defaults to JSON.
	output := io.Writer(os.Stdout)
	if os.Getenv("LOG_FORMAT") == "human" {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(output).With().Timestamp().Logger()

	dsn, ok := os.LookupEnv("DB_DSN")
	if !ok {
		dsn = filepath.Join("data", "ledger.db")
	}

	err := os.MkdirAll(filepath.Dir(dsn), os.ModePerm)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	// Connect to the database and migrate the schema
	err = models.Connect(dsn)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	interval := time.Hour
	if value, ok := os.LookupEnv("SWEEP_INTERVAL"); ok {
		interval, err = time.ParseDuration(value)
		if err != nil {
			log.Fatal().Str("SWEEP_INTERVAL", value).Msg(err.Error())
		}
	}

	l := ledger.New(models.DB)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("maintenance worker started")
	sweep(l)

	for {
		select {
		case <-ticker.C:
			sweep(l)
		case sig := <-quit:
			log.Info().Str("signal", sig.String()).Msg("maintenance worker stopped")
			return
		}
	}
}

// sweep runs all maintenance passes once.
func sweep(l ledger.Ledger) {
	now := time.Now().In(time.UTC)

	closed, err := l.CloseElapsedBills(now)
	if err != nil {
		log.Error().Err(err).Msg("closing elapsed bills failed")
	}

	overdueBills, err := l.MarkOverdueBills(now)
	if err != nil {
		log.Error().Err(err).Msg("marking overdue bills failed")
	}

	overdueTransactions, err := l.MarkOverdueTransactions(now)
	if err != nil {
		log.Error().Err(err).Msg("marking overdue transactions failed")
	}

	log.Info().
		Int64("billsClosed", closed).
		Int64("billsOverdue", overdueBills).
		Int64("transactionsOverdue", overdueTransactions).
		Msg("sweep finished")
}
