package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/reelmatch/chat-service/internal/database"
	"github.com/reelmatch/chat-service/internal/mail"
	"github.com/reelmatch/chat-service/internal/reminder"
	"github.com/reelmatch/chat-service/internal/stats"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

var (
	dsn          string
	debugAddr    string
	pollInterval time.Duration
	smtpHost     string
	smtpPort     int
	smtpUser     string
	smtpPassword string
	smtpFrom     string
)

func main() {
	_ = godotenv.Load()

	flag.StringVar(&dsn, "dsn", envOr("CHAT_DSN",
		"host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"), "database connection string")
	flag.StringVar(&debugAddr, "debug-addr", envOr("CHAT_POLLER_DEBUG_ADDR", "localhost:8001"), "debug stats listen address")
	flag.DurationVar(&pollInterval, "poll-interval", envDuration("CHAT_POLL_INTERVAL", time.Minute),
		"how often to scan for due reminders")
	flag.StringVar(&smtpHost, "smtp-host", envOr("CHAT_SMTP_HOST", "localhost"), "smtp server host")
	flag.IntVar(&smtpPort, "smtp-port", envInt("CHAT_SMTP_PORT", 587), "smtp server port")
	flag.StringVar(&smtpUser, "smtp-user", envOr("CHAT_SMTP_USER", ""), "smtp username")
	flag.StringVar(&smtpPassword, "smtp-password", envOr("CHAT_SMTP_PASSWORD", ""), "smtp password")
	flag.StringVar(&smtpFrom, "smtp-from", envOr("CHAT_SMTP_FROM", "noreply@reelmatch.example"), "reminder sender address")
	flag.Parse()

	logger := log.New(os.Stderr, "[chat-poller] ", log.LstdFlags)

	dbConn, err := database.NewPgChatRepository(dsn)
	if err != nil {
		logger.Fatal("db open: ", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close: ", err)
		}
	}()

	mux := http.NewServeMux()
	statsUpdater := stats.NewStatsUpdater(mux)
	statsUpdater.Run()
	defer statsUpdater.Stop()

	go func() {
		if err := http.ListenAndServe(debugAddr, mux); err != nil {
			logger.Println("debug server:", err)
		}
	}()

	mailer := mail.NewSMTPMailer(smtpHost, smtpPort, smtpUser, smtpPassword, smtpFrom)

	poller := reminder.NewPoller(logger, dbConn, mailer, statsUpdater, pollInterval)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Printf("starting reminder poller, scanning every %s", pollInterval)
	poller.Run(ctx)

	logger.Println("shutdown complete")
}
