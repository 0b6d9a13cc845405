package story

import "time"

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobInProgress JobStatus = "in-progress"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Page is one illustrated page of a generated story. Image holds the opaque
// stored-image reference; the polling path swaps in a signed URL.
type Page struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// Story is the result of a completed generation job.
type Story struct {
	Title string `json:"title"`
	Pages []Page `json:"pages"`
}

func (st *Story) clone() *Story {
	if st == nil {
		return nil
	}
	cp := &Story{Title: st.Title, Pages: make([]Page, len(st.Pages))}
	copy(cp.Pages, st.Pages)
	return cp
}

// Job tracks one asynchronous generation request. Exactly one of Story and
// Error is set once the status is terminal; both are empty before that.
type Job struct {
	ID     string `json:"id"`
	UserID uint64 `json:"-"`

	Status JobStatus `json:"status"`
	Story  *Story    `json:"story,omitempty"`
	Error  string    `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
