package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/guidepost/launchpad/internal/utils"
	"github.com/guidepost/launchpad/pkg/notify"
	"github.com/guidepost/launchpad/pkg/structs"
)

var CLI struct {
	RedisURL string `long:"redis-url" env:"REDIS_URL" description:"Redis connection string" default:"localhost:6379"`

	SMTPAddr string `long:"smtp-addr" env:"SMTP_ADDR" description:"SMTP host:port for email delivery"`

	SMTPFrom string `long:"smtp-from" env:"SMTP_FROM" description:"Email From address" default:"no-reply@localhost"`

	SMTPUser string `long:"smtp-user" env:"SMTP_USER" description:"SMTP auth user"`

	SMTPPass string `long:"smtp-pass" env:"SMTP_PASS" description:"SMTP auth password"`

	RedisCACert string `long:"redis-cacert" env:"REDIS_CACERT" description:"CA cert for the queue broker"`

	RedisCert string `long:"redis-cert" env:"REDIS_CERT" description:"Client cert for the queue broker"`

	RedisKey string `long:"redis-key" env:"REDIS_KEY" description:"Client key for the queue broker"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func main() {
	// This main drains the notification queue. The apiserver enqueues
	// messages; senders registered here do the actual channel delivery.
	//
	// Email goes out over SMTP. SMS & WhatsApp senders log only; wiring
	// a gateway means replacing those SenderFuncs.

	var parser = flags.NewParser(&CLI, flags.Default)
	if _, err := parser.Parse(); err != nil {
		switch flagsErr := err.(type) {
		case flags.ErrorType:
			if flagsErr == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(1)
		default:
			os.Exit(1)
		}
	}

	logLevel := slog.LevelInfo
	if CLI.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	tlsCfg, err := utils.ClientTLSConfig(CLI.RedisCACert, CLI.RedisCert, CLI.RedisKey)
	if err != nil {
		panic(err)
	}
	q, err := notify.NewQueue(&notify.Options{URL: CLI.RedisURL, TLSConfig: tlsCfg})
	if err != nil {
		panic(err)
	}

	q.Register(structs.ChannelEmail, notify.SenderFunc(sendEmail))
	q.Register(structs.ChannelSMS, logSender(logger, structs.ChannelSMS))
	q.Register(structs.ChannelWhatsApp, logSender(logger, structs.ChannelWhatsApp))

	logger.Info("worker starting", "redis", CLI.RedisURL)
	if err := q.Run(); err != nil {
		logger.Error("worker stopped", "err", err)
		os.Exit(1)
	}
}

func sendEmail(ctx context.Context, n *structs.Notification) error {
	if CLI.SMTPAddr == "" {
		return fmt.Errorf("no smtp address configured")
	}

	var auth smtp.Auth
	if CLI.SMTPUser != "" {
		host := CLI.SMTPAddr
		if i := strings.Index(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", CLI.SMTPUser, CLI.SMTPPass, host)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		CLI.SMTPFrom, n.Recipient, n.Subject, n.Body)
	return smtp.SendMail(CLI.SMTPAddr, auth, CLI.SMTPFrom, []string{n.Recipient}, []byte(msg))
}

func logSender(logger *slog.Logger, ch structs.Channel) notify.SenderFunc {
	return func(ctx context.Context, n *structs.Notification) error {
		logger.Info("delivery not wired for channel, logging only",
			"channel", ch, "recipient", n.Recipient, "job", n.JobID)
		return nil
	}
}
