package n8n

// Stats counts executions by outcome.
type Stats struct {
	Total     int `json:"totalExecutions"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Running   int `json:"running"`
}

// Bucket is the outcome class of an execution status.
type Bucket string

const (
	BucketOther     Bucket = ""
	BucketSucceeded Bucket = "succeeded"
	BucketFailed    Bucket = "failed"
	BucketRunning   Bucket = "running"
)

// Outcome buckets an execution status. Statuses outside the three buckets
// (for example "canceled") map to BucketOther and only count toward the total.
func Outcome(status string) Bucket {
	switch status {
	case "success":
		return BucketSucceeded
	case "error", "crashed":
		return BucketFailed
	case "running", "new", "waiting":
		return BucketRunning
	default:
		return BucketOther
	}
}

// Summarize aggregates a page of executions. It makes no remote calls.
func Summarize(execs []Execution) Stats {
	s := Stats{Total: len(execs)}
	for _, e := range execs {
		switch Outcome(e.Status) {
		case BucketSucceeded:
			s.Succeeded++
		case BucketFailed:
			s.Failed++
		case BucketRunning:
			s.Running++
		}
	}
	return s
}
