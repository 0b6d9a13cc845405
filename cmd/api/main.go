package main

import (
	"github.com/fablesmith/storyforge/internal/ai"
	"github.com/fablesmith/storyforge/internal/config"
	"github.com/fablesmith/storyforge/internal/db"
	"github.com/fablesmith/storyforge/internal/email"
	"github.com/fablesmith/storyforge/internal/httpapi"
	"github.com/fablesmith/storyforge/internal/httpapi/handlers"
	"github.com/fablesmith/storyforge/internal/imagegen"
	"github.com/fablesmith/storyforge/internal/logging"
	"github.com/fablesmith/storyforge/internal/project"
	"github.com/fablesmith/storyforge/internal/share"
	"github.com/fablesmith/storyforge/internal/storage"
	"github.com/fablesmith/storyforge/internal/store/rabbitmq"
	"github.com/fablesmith/storyforge/internal/store/redisstore"
	"github.com/fablesmith/storyforge/internal/story"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.AppEnv)

	gdb := db.Connect(cfg.DBDSN)
	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	mail := email.NewSender(email.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	})

	objStore := storage.NewSupabaseStore(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket)

	reg := ai.NewRegistry()
	reg.Register("gemini", func(model string) (ai.TextProvider, error) {
		if model == "" {
			model = cfg.GeminiModel
		}
		return ai.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, model), nil
	})
	textProvider, err := reg.Get("gemini", cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("text provider")
	}
	imageProvider := ai.NewVertexImageProvider(cfg.ImageBaseURL, cfg.ImageAPIKey, cfg.ImageModel, cfg.UpscaleModel)

	illustrator := imagegen.NewService(imageProvider, objStore)

	// lifecycle events are best effort; the API keeps running without the
	// notification queue
	var events story.EventSink
	if pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Warn().Err(err).Msg("rabbit unavailable, story events disabled")
	} else {
		defer pub.Close()
		events = pub
	}

	jobs := story.NewJobStore()
	pipeline := story.NewPipeline(jobs, textProvider, illustrator, objStore, events, log)

	repo := project.NewRepo(gdb)
	projects := project.NewService(repo)
	shareSvc := share.NewService(projects, repo, objStore)

	h := handlers.NewHandler(gdb, cfg, log, rds, mail, pipeline, projects, shareSvc, illustrator, objStore)
	r := httpapi.NewRouter(h, cfg, log)

	log.Info().Str("addr", cfg.HTTPAddr).Msg("api listening")
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
