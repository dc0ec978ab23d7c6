package fairness

import "errors"

// Sentinel kinds for fairness audits.
var (
	ErrUnknownParticipant  = errors.New("account is not a participant")
	ErrScheduledTrackAudit = errors.New("time-neutrality audit undefined for scheduled-emission games")
)
