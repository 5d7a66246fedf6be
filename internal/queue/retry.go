package queue

// Decision is the outcome of the retry policy for a failed job.
type Decision int

const (
	// DecisionRetry requeues the job with an incremented retry count.
	DecisionRetry Decision = iota
	// DecisionExhausted moves the job to terminal FAILED.
	DecisionExhausted
)

// Decide applies the retry budget: a job that has been requeued fewer than
// maxRetries times gets another attempt, otherwise it is exhausted. Pure and
// deterministic; maxRetries comes from configuration
// (config.DefaultMaxRetries unless overridden).
func Decide(retryCount, maxRetries int) Decision {
	if retryCount < maxRetries {
		return DecisionRetry
	}
	return DecisionExhausted
}
