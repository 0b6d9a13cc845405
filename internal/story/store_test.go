package story

import "testing"

func TestJobStore_CreateAndGet(t *testing.T) {
	s := NewJobStore()

	id, err := s.Create(1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty job id")
	}

	j, ok := s.Get(id)
	if !ok {
		t.Fatal("expected job to exist")
	}
	if j.Status != JobPending {
		t.Fatalf("new job status = %q, want %q", j.Status, JobPending)
	}
	if j.Story != nil || j.Error != "" {
		t.Fatal("pending job must carry neither result nor error")
	}
}

func TestJobStore_GetUnknown(t *testing.T) {
	s := NewJobStore()
	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected absent job")
	}
}

func TestJobStore_UpdateMissingIsNoop(t *testing.T) {
	s := NewJobStore()
	// must not panic or create anything
	s.MarkInProgress("missing")
	s.MarkCompleted("missing", &Story{Title: "x"})
	s.MarkFailed("missing", "boom")
	if _, ok := s.Get("missing"); ok {
		t.Fatal("update of missing id must not create a job")
	}
}

func TestJobStore_TerminalStatesAreFinal(t *testing.T) {
	s := NewJobStore()
	id, _ := s.Create(1)
	s.MarkInProgress(id)
	s.MarkCompleted(id, &Story{Title: "done"})

	s.MarkFailed(id, "late failure")
	j, _ := s.Get(id)
	if j.Status != JobCompleted {
		t.Fatalf("status = %q, want terminal %q", j.Status, JobCompleted)
	}
	if j.Story == nil || j.Error != "" {
		t.Fatal("completed job must keep its result and no error")
	}
}

func TestJobStore_SnapshotIsIsolated(t *testing.T) {
	s := NewJobStore()
	id, _ := s.Create(1)
	s.MarkInProgress(id)
	s.MarkCompleted(id, &Story{Title: "t", Pages: []Page{{Text: "a", Image: "ref-a"}}})

	snap, _ := s.Get(id)
	snap.Story.Pages[0].Image = "mutated"

	again, _ := s.Get(id)
	if again.Story.Pages[0].Image != "ref-a" {
		t.Fatalf("stored job mutated through snapshot: %q", again.Story.Pages[0].Image)
	}
}
