package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"user-registry/config"
	"user-registry/internal/worker"
	"user-registry/pkg/helpers"
	"user-registry/pkg/mailer"
)

// The welcome worker consumes user_created events and sends each new user a
// welcome message. The queue delivers at least once, so the notifier
// deduplicates by email and bounds redelivery with an attempt counter;
// messages that keep failing land in <queue>.dlq instead of looping forever.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-welcome-worker", cfg.Env)

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.RabbitMQDurable, cfg.WorkerPrefetch)
	if err != nil {
		log.Fatalf("amqp consumer: %v", err)
	}
	defer consumer.Close()

	// Dead letters always survive a broker restart.
	dlq, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQQueue+".dlq", true)
	if err != nil {
		log.Fatalf("amqp dlq publisher: %v", err)
	}
	defer dlq.Close()

	var sender worker.Sender
	if cfg.MailSendEnabled {
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			log.Fatal("MAIL_SEND_ENABLED=true but Mailgun not configured")
		}
		sender = mailer.NewWelcomeMailer(mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender))
	} else {
		sender = &mailer.LogWelcomeSender{Logger: logger}
	}

	notifier := worker.NewWelcomeNotifier(sender, worker.NewRedisTracker(rdb), logger, cfg.WorkerMaxAttempts)

	msgs, err := consumer.Deliveries()
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx := context.Background()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			c, cancel := context.WithTimeout(ctx, 30*time.Second)
			action := notifier.Handle(c, msg.MessageId, msg.Body)
			cancel()

			switch action {
			case worker.Ack:
				_ = msg.Ack(false)
			case worker.Requeue:
				_ = msg.Nack(false, true)
			case worker.DeadLetter:
				c, cancel := context.WithTimeout(ctx, 5*time.Second)
				err := dlq.PublishRaw(c, msg.ContentType, msg.MessageId, msg.Body)
				cancel()
				if err != nil {
					// Keep the message alive rather than losing it.
					logger.WithError(err).Warn("dead-letter publish failed, requeueing")
					_ = msg.Nack(false, true)
					continue
				}
				_ = msg.Ack(false)
			}
		}
		close(done)
	}()

	logger.Infof("welcome worker listening on queue=%s (dlq=%s.dlq, max attempts=%d)",
		cfg.RabbitMQQueue, cfg.RabbitMQQueue, cfg.WorkerMaxAttempts)
	<-stop
	logger.Info("shutting down...")
	consumer.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
