package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"

	"github.com/fablesmith/storyforge/internal/config"
	"github.com/fablesmith/storyforge/internal/db"
	"github.com/fablesmith/storyforge/internal/email"
	"github.com/fablesmith/storyforge/internal/logging"
	"github.com/fablesmith/storyforge/internal/models"
	"github.com/fablesmith/storyforge/internal/store/rabbitmq"
	"github.com/fablesmith/storyforge/internal/story"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()
	log := logging.New(cfg.AppEnv)

	gdb := db.Connect(cfg.DBDSN)

	mail := email.NewSender(email.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	})

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit dial")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit channel")
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.RabbitQueue + ".dlq",
	}); err != nil {
		log.Fatal().Err(err).Msg("queue declare")
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal().Err(err).Msg("qos")
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("queue", cfg.RabbitQueue).Int("concurrency", concurrency).Msg("worker started")

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var ev rabbitmq.StoryEvent
				if err := json.Unmarshal(d.Body, &ev); err != nil || ev.JobID == "" {
					log.Warn().Int("worker", workerID).Err(err).Msg("bad message")
					_ = d.Nack(false, false)
					continue
				}

				if err := notifyUser(ctx, gdb, mail, ev); err != nil {
					log.Error().Int("worker", workerID).Str("job_id", ev.JobID).Err(err).Msg("notify failed")
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Warn().Int("worker", workerID).Str("job_id", ev.JobID).Err(err).Msg("ack failed")
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn().Msg("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

func notifyUser(ctx context.Context, gdb *gorm.DB, mail *email.Sender, ev rabbitmq.StoryEvent) error {
	var u models.User
	if err := gdb.WithContext(ctx).First(&u, ev.UserID).Error; err != nil {
		return fmt.Errorf("load user %d: %w", ev.UserID, err)
	}

	var subject, body string
	switch ev.Status {
	case string(story.JobCompleted):
		subject = "Your story is ready"
		body = fmt.Sprintf("Hi %s,\n\nYour story %q has finished generating. Open the app to read it!\n", u.DisplayName, ev.Title)
	case string(story.JobFailed):
		subject = "Story generation failed"
		body = fmt.Sprintf("Hi %s,\n\nWe could not finish generating your story. Please try again.\n", u.DisplayName)
	default:
		// only terminal events are published; ignore anything else
		return nil
	}

	return mail.Send(u.Email, subject, body)
}
