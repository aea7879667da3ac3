package models

// CallOutcome is the result of a single call attempt.
type CallOutcome string

const (
	CallAnswered         CallOutcome = "answered"
	CallTimedOut         CallOutcome = "timed_out"
	CallFailedToInitiate CallOutcome = "failed_to_initiate"
)

// CallAttempt records one iteration of a call campaign.
type CallAttempt struct {
	AttemptNumber int         `json:"attempt_number"`
	Outcome       CallOutcome `json:"outcome"`
	Err           string      `json:"error,omitempty"`
}

// CampaignResult summarizes a finished call campaign.
type CampaignResult struct {
	ID       string        `json:"id"`
	Answered bool          `json:"answered"`
	Attempts []CallAttempt `json:"attempts"`
	// Interrupted is set when shutdown cut the campaign short after an attempt.
	Interrupted bool `json:"interrupted,omitempty"`
}
