package story

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fablesmith/storyforge/internal/store/rabbitmq"
)

type fakeText struct {
	text    string
	err     error
	release chan struct{}
}

func (f *fakeText) Generate(ctx context.Context, prompt string) (string, error) {
	if f.release != nil {
		<-f.release
	}
	return f.text, f.err
}

type fakeIllustrator struct {
	mu      sync.Mutex
	calls   int
	failAt  int
	prompts []string
}

func (f *fakeIllustrator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.failAt != 0 && f.calls == f.failAt {
		return "", errors.New("image generation failed")
	}
	return fmt.Sprintf("img%d", f.calls), nil
}

func (f *fakeIllustrator) Upscale(ctx context.Context, reference string) (string, error) {
	return "upscaled-" + reference, nil
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	signErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Store(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[name] = data
	return name, nil
}

func (f *fakeStore) SignedURL(ctx context.Context, reference string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://signed.example/" + reference, nil
}

func (f *fakeStore) Download(ctx context.Context, reference string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[reference]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type fakeSink struct {
	mu     sync.Mutex
	events []rabbitmq.StoryEvent
}

func (f *fakeSink) PublishStoryEvent(ctx context.Context, ev rabbitmq.StoryEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeSink) all() []rabbitmq.StoryEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]rabbitmq.StoryEvent(nil), f.events...)
}

func validParams() Params {
	return Params{Theme: "a brave fox", AgeGroup: "6", Length: "3", Moral: "courage"}
}

func waitTerminal(t *testing.T, jobs *JobStore, id string) Job {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if j, ok := jobs.Get(id); ok && j.Status.Terminal() {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", id)
	return Job{}
}

func TestSubmit_MissingParams(t *testing.T) {
	jobs := NewJobStore()
	p := NewPipeline(jobs, &fakeText{}, &fakeIllustrator{}, newFakeStore(), nil, zerolog.Nop())

	params := validParams()
	params.Moral = ""
	if _, err := p.Submit(1, params); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestSubmit_ReturnsBeforeGeneration(t *testing.T) {
	jobs := NewJobStore()
	release := make(chan struct{})
	text := &fakeText{text: "One.\n\nTwo.", release: release}
	p := NewPipeline(jobs, text, &fakeIllustrator{}, newFakeStore(), nil, zerolog.Nop())

	id, err := p.Submit(1, validParams())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// text provider is still blocked, so the job cannot be terminal yet
	j, statusErr := p.Status(context.Background(), 1, id)
	if statusErr != nil {
		t.Fatalf("status: %v", statusErr)
	}
	if j.Status != JobPending && j.Status != JobInProgress {
		t.Fatalf("status before generation = %q", j.Status)
	}

	close(release)
	final := waitTerminal(t, jobs, id)
	if final.Status != JobCompleted {
		t.Fatalf("final status = %q (%s)", final.Status, final.Error)
	}
}

func TestPipeline_CompletedResult(t *testing.T) {
	jobs := NewJobStore()
	text := &fakeText{text: "Page one text.\n\nPage two text.\n\n\n\nPage three text."}
	ill := &fakeIllustrator{}
	store := newFakeStore()
	sink := &fakeSink{}
	p := NewPipeline(jobs, text, ill, store, sink, zerolog.Nop())

	id, err := p.Submit(7, validParams())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	j := waitTerminal(t, jobs, id)

	if j.Status != JobCompleted {
		t.Fatalf("status = %q (%s)", j.Status, j.Error)
	}
	if j.Story == nil {
		t.Fatal("completed job has no story")
	}
	if j.Story.Title != "A story about a brave fox" {
		t.Fatalf("title = %q", j.Story.Title)
	}
	if len(j.Story.Pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(j.Story.Pages))
	}
	for i, want := range []string{"img1", "img2", "img3"} {
		if j.Story.Pages[i].Image != want {
			t.Fatalf("page %d image = %q, want %q", i, j.Story.Pages[i].Image, want)
		}
	}
	wantTexts := []string{"Page one text.", "Page two text.", "Page three text."}
	for i, want := range wantTexts {
		if j.Story.Pages[i].Text != want {
			t.Fatalf("page %d text = %q, want %q", i, j.Story.Pages[i].Text, want)
		}
	}
	// illustrations requested with the page text, in page order
	for i, want := range wantTexts {
		if ill.prompts[i] != want {
			t.Fatalf("prompt %d = %q, want %q", i, ill.prompts[i], want)
		}
	}

	events := sink.all()
	if len(events) != 1 || events[0].Status != string(JobCompleted) || events[0].UserID != 7 {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestPipeline_ImageFailureFailsWholeJob(t *testing.T) {
	jobs := NewJobStore()
	text := &fakeText{text: "One.\n\nTwo.\n\nThree."}
	ill := &fakeIllustrator{failAt: 2}
	sink := &fakeSink{}
	p := NewPipeline(jobs, text, ill, newFakeStore(), sink, zerolog.Nop())

	id, _ := p.Submit(1, validParams())
	j := waitTerminal(t, jobs, id)

	if j.Status != JobFailed {
		t.Fatalf("status = %q, want %q", j.Status, JobFailed)
	}
	if j.Story != nil {
		t.Fatal("failed job must not keep a partial page list")
	}
	if j.Error == "" {
		t.Fatal("failed job must carry the error message")
	}

	events := sink.all()
	if len(events) != 1 || events[0].Status != string(JobFailed) {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestPipeline_TextFailureFailsJob(t *testing.T) {
	jobs := NewJobStore()
	text := &fakeText{err: errors.New("quota exceeded")}
	p := NewPipeline(jobs, text, &fakeIllustrator{}, newFakeStore(), nil, zerolog.Nop())

	id, _ := p.Submit(1, validParams())
	j := waitTerminal(t, jobs, id)

	if j.Status != JobFailed {
		t.Fatalf("status = %q, want %q", j.Status, JobFailed)
	}
}

func TestStatus_UnknownJob(t *testing.T) {
	p := NewPipeline(NewJobStore(), &fakeText{}, &fakeIllustrator{}, newFakeStore(), nil, zerolog.Nop())
	if _, err := p.Status(context.Background(), 1, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatus_OtherUsersJobHidden(t *testing.T) {
	jobs := NewJobStore()
	text := &fakeText{text: "One."}
	p := NewPipeline(jobs, text, &fakeIllustrator{}, newFakeStore(), nil, zerolog.Nop())

	id, _ := p.Submit(1, validParams())
	waitTerminal(t, jobs, id)

	if _, err := p.Status(context.Background(), 2, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign job, got %v", err)
	}
}

func TestStatus_CompletedResolvesSignedURLs(t *testing.T) {
	jobs := NewJobStore()
	text := &fakeText{text: "One.\n\nTwo."}
	store := newFakeStore()
	p := NewPipeline(jobs, text, &fakeIllustrator{}, store, nil, zerolog.Nop())

	id, _ := p.Submit(1, validParams())
	waitTerminal(t, jobs, id)

	j, err := p.Status(context.Background(), 1, id)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if j.Story.Pages[0].Image != "https://signed.example/img1" {
		t.Fatalf("page image = %q, want signed url", j.Story.Pages[0].Image)
	}

	// the stored record keeps the durable reference
	raw, _ := jobs.Get(id)
	if raw.Story.Pages[0].Image != "img1" {
		t.Fatalf("stored reference mutated: %q", raw.Story.Pages[0].Image)
	}
}

func TestStatus_SignFailureIsRetrievalError(t *testing.T) {
	jobs := NewJobStore()
	text := &fakeText{text: "One."}
	store := newFakeStore()
	p := NewPipeline(jobs, text, &fakeIllustrator{}, store, nil, zerolog.Nop())

	id, _ := p.Submit(1, validParams())
	waitTerminal(t, jobs, id)

	store.signErr = errors.New("storage unavailable")
	if _, err := p.Status(context.Background(), 1, id); err == nil {
		t.Fatal("expected retrieval error")
	}

	// the job itself stays completed and usable once signing recovers
	store.signErr = nil
	j, err := p.Status(context.Background(), 1, id)
	if err != nil {
		t.Fatalf("status after recovery: %v", err)
	}
	if j.Status != JobCompleted {
		t.Fatalf("status = %q, want %q", j.Status, JobCompleted)
	}
}
