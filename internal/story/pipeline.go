package story

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fablesmith/storyforge/internal/ai"
	"github.com/fablesmith/storyforge/internal/imagegen"
	"github.com/fablesmith/storyforge/internal/storage"
	"github.com/fablesmith/storyforge/internal/store/rabbitmq"
)

const signedURLTTL = 15 * time.Minute

var (
	ErrNotFound      = errors.New("job not found")
	ErrInvalidParams = errors.New("missing required story parameters")
)

// Params are the thematic inputs for one story. All fields are required.
type Params struct {
	Theme    string `json:"theme" binding:"required"`
	AgeGroup string `json:"age_group" binding:"required"`
	Length   string `json:"length" binding:"required"`
	Moral    string `json:"moral" binding:"required"`
}

func (p Params) validate() error {
	if p.Theme == "" || p.AgeGroup == "" || p.Length == "" || p.Moral == "" {
		return ErrInvalidParams
	}
	return nil
}

func (p Params) prompt() string {
	return fmt.Sprintf(
		"Create a children's story about %s. The story should be appropriate for a %s-year-old, be approximately %s pages long, and have a moral about %s.",
		p.Theme, p.AgeGroup, p.Length, p.Moral,
	)
}

// EventSink receives terminal lifecycle events. Satisfied by the rabbitmq
// publisher; nil disables publishing.
type EventSink interface {
	PublishStoryEvent(ctx context.Context, ev rabbitmq.StoryEvent) error
}

// Pipeline owns the full generation flow for a job: text, page split, one
// illustration per page, terminal transition. It is the only writer of any
// job it creates.
type Pipeline struct {
	jobs   *JobStore
	text   ai.TextProvider
	images imagegen.Illustrator
	store  storage.ObjectStore
	events EventSink
	log    zerolog.Logger
}

func NewPipeline(jobs *JobStore, text ai.TextProvider, images imagegen.Illustrator, store storage.ObjectStore, events EventSink, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		jobs:   jobs,
		text:   text,
		images: images,
		store:  store,
		events: events,
		log:    log,
	}
}

// Submit validates params, registers a pending job, and kicks off generation
// in the background. It returns the job id immediately; the caller never
// waits on generation. The run uses its own context because it outlives the
// submitting request.
func (p *Pipeline) Submit(userID uint64, params Params) (string, error) {
	if err := params.validate(); err != nil {
		return "", err
	}
	id, err := p.jobs.Create(userID)
	if err != nil {
		return "", err
	}
	go p.run(context.Background(), id, userID, params)
	return id, nil
}

func (p *Pipeline) run(ctx context.Context, jobID string, userID uint64, params Params) {
	p.jobs.MarkInProgress(jobID)

	result, err := p.generate(ctx, params)
	if err != nil {
		p.log.Error().Err(err).Str("job_id", jobID).Msg("story generation failed")
		p.jobs.MarkFailed(jobID, err.Error())
		p.publish(ctx, rabbitmq.StoryEvent{
			JobID:  jobID,
			UserID: userID,
			Status: string(JobFailed),
			Error:  err.Error(),
		})
		return
	}

	p.jobs.MarkCompleted(jobID, result)
	p.log.Info().Str("job_id", jobID).Int("pages", len(result.Pages)).Msg("story generation completed")
	p.publish(ctx, rabbitmq.StoryEvent{
		JobID:  jobID,
		UserID: userID,
		Status: string(JobCompleted),
		Title:  result.Title,
	})
}

func (p *Pipeline) generate(ctx context.Context, params Params) (*Story, error) {
	text, err := p.text.Generate(ctx, params.prompt())
	if err != nil {
		return nil, fmt.Errorf("generate story text: %w", err)
	}

	segments := SplitPages(text)
	pages := make([]Page, 0, len(segments))

	// one illustration per page, strictly in page order; any failure fails
	// the whole job
	for _, seg := range segments {
		ref, err := p.images.Generate(ctx, seg)
		if err != nil {
			return nil, err
		}
		pages = append(pages, Page{Text: seg, Image: ref})
	}

	return &Story{
		Title: fmt.Sprintf("A story about %s", params.Theme),
		Pages: pages,
	}, nil
}

func (p *Pipeline) publish(ctx context.Context, ev rabbitmq.StoryEvent) {
	if p.events == nil {
		return
	}
	if err := p.events.PublishStoryEvent(ctx, ev); err != nil {
		// best effort only; the job record is already terminal
		p.log.Warn().Err(err).Str("job_id", ev.JobID).Msg("publish story event failed")
	}
}

// Status returns the caller's job snapshot. Jobs belonging to other users
// are indistinguishable from unknown ids. Completed jobs have every page
// image resolved to a time-boxed signed URL in the returned copy; the stored
// record keeps the durable references. A signing failure is a retrieval
// error, not a job failure.
func (p *Pipeline) Status(ctx context.Context, userID uint64, jobID string) (Job, error) {
	j, ok := p.jobs.Get(jobID)
	if !ok || j.UserID != userID {
		return Job{}, ErrNotFound
	}
	if j.Status != JobCompleted || j.Story == nil {
		return j, nil
	}

	for i, page := range j.Story.Pages {
		url, err := p.store.SignedURL(ctx, page.Image, signedURLTTL)
		if err != nil {
			return Job{}, fmt.Errorf("sign page image: %w", err)
		}
		j.Story.Pages[i].Image = url
	}
	return j, nil
}
