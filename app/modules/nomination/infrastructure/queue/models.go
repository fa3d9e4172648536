package nominationqueue

import "github.com/google/uuid"

// ThreadExpiryJob publishes a close request for a thread once its voting
// window has ended.
type ThreadExpiryJob struct {
	ThreadID uuid.UUID `json:"thread_id"`
}

// Kind returns the job type identifier for River
func (ThreadExpiryJob) Kind() string { return "nomination_thread_expiry" }

// ExpirySweepJob looks for open threads past their deadline whose expiry job
// never ran.
type ExpirySweepJob struct {
	Limit int `json:"limit"`
}

// Kind returns the job type identifier for River
func (ExpirySweepJob) Kind() string { return "nomination_expiry_sweep" }
