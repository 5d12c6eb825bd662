package main

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/ckr3453/finito/api"
	"github.com/ckr3453/finito/domain"
	"github.com/ckr3453/finito/snapshot"
	"github.com/ckr3453/finito/storage"
	"github.com/ckr3453/finito/transport/email"
	"github.com/ckr3453/finito/transport/push"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("reminder dispatch service starting")

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	usersTable := os.Getenv("USERS_TABLE")
	tasksTable := os.Getenv("TASKS_TABLE")
	tokensTable := os.Getenv("TOKENS_TABLE")
	if connStr == "" || usersTable == "" || tasksTable == "" || tokensTable == "" {
		log.Fatal("missing storage config")
	}
	store, err := storage.New(connStr, usersTable, tasksTable, tokensTable)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPassword := os.Getenv("SMTP_PASSWORD")
	mailFrom := os.Getenv("MAIL_FROM")
	if mailFrom == "" {
		mailFrom = smtpUser
	}
	if smtpHost == "" || smtpUser == "" || smtpPassword == "" {
		log.Fatal("missing smtp config")
	}
	smtpPort := 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Fatalf("invalid SMTP_PORT: %v", err)
		}
		smtpPort = n
	}
	emailSender := email.NewSender(smtpHost, smtpPort, smtpUser, smtpPassword)

	ctx := context.Background()
	pushSender, err := push.NewSender(ctx, os.Getenv("FIREBASE_CREDENTIALS_FILE"))
	if err != nil {
		log.Fatalf("push transport: %v", err)
	}

	tzName := os.Getenv("REMINDER_TIMEZONE")
	if tzName == "" {
		tzName = "Asia/Seoul"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Fatalf("invalid REMINDER_TIMEZONE: %v", err)
	}
	composer := domain.NewComposer(loc)

	var refresher domain.SnapshotRefresher
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		rc := redis.NewClient(redisOptions(redisConn))
		ttl := 12 * time.Hour
		if v := os.Getenv("SNAPSHOT_TTL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				log.Fatalf("invalid SNAPSHOT_TTL: %v", err)
			}
			ttl = d
		}
		refresher = snapshot.NewUpdater(store, rc, ttl, loc)
	} else {
		log.Info("no redis configured, widget snapshot refresh disabled")
	}

	dispatcher := domain.NewDispatcher(store, store, composer, emailSender, pushSender, mailFrom, refresher)
	logger := log.StandardLogger()
	runner := api.NewRunner(dispatcher, logger)

	schedule := "*/5 * * * *"
	if v, ok := os.LookupEnv("SWEEP_SCHEDULE"); ok {
		schedule = v
	}
	if schedule != "" {
		c := cron.New(cron.WithLocation(loc))
		if _, err := c.AddFunc(schedule, func() { runSweeps(runner) }); err != nil {
			log.Fatalf("invalid SWEEP_SCHEDULE: %v", err)
		}
		c.Start()
		log.WithField("schedule", schedule).Info("sweep scheduler started")
	}

	e := echo.New()
	e.HideBanner = true
	api.Register(e, runner, os.Getenv("FUNCTIONS_KEY"))

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}
	e.Logger.Fatal(e.Start(listenAddr))
}

// runSweeps runs one tick on both channels. The channels are independent
// and never block each other.
func runSweeps(runner *api.Runner) {
	ctx := context.Background()
	var wg sync.WaitGroup
	for _, ch := range []domain.Channel{domain.ChannelEmail, domain.ChannelPush} {
		wg.Add(1)
		go func(ch domain.Channel) {
			defer wg.Done()
			runner.Run(ctx, ch)
		}(ch)
	}
	wg.Wait()
}

// redisOptions parses either a redis URL or an Azure-style
// "host:port,password=...,ssl=true" connection string.
func redisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
