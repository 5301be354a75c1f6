package signer

// Outcome is the terminal state of one signing job.
type Outcome string

const (
	// OutcomeSucceeded means one attempt returned success.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeExhausted means every attempt failed.
	OutcomeExhausted Outcome = "exhausted"
)

// Job records the signing of one file.
type Job struct {
	// Path is the signed file.
	Path string
	// Attempts is the number of backend calls made, never above the attempt bound.
	Attempts int
	// Outcome is the terminal state.
	Outcome Outcome
	// LastErr is the failure of the last attempt, kept for logs only.
	LastErr error
}

// Report summarizes a signing run in processing order.
type Report struct {
	// Jobs lists one entry per non-excluded candidate.
	Jobs []Job
	// Excluded lists the candidate names skipped by the exclusion set.
	Excluded []string
}

// Signed returns the paths whose signing succeeded.
func (r *Report) Signed() []string {
	return r.pathsWith(OutcomeSucceeded)
}

// Exhausted returns the paths left unsigned after every attempt failed.
func (r *Report) Exhausted() []string {
	return r.pathsWith(OutcomeExhausted)
}

// Attempts returns the total number of backend calls.
func (r *Report) Attempts() int {
	if r == nil {
		return 0
	}

	total := 0
	for _, job := range r.Jobs {
		total += job.Attempts
	}

	return total
}

func (r *Report) pathsWith(outcome Outcome) []string {
	if r == nil {
		return nil
	}

	var paths []string

	for _, job := range r.Jobs {
		if job.Outcome == outcome {
			paths = append(paths, job.Path)
		}
	}

	return paths
}
