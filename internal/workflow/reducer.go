package workflow

import (
	"errors"
	"fmt"
	"time"

	"trustlessid/internal/evidence/analysis"
	"trustlessid/internal/evidence/fraud"
	"trustlessid/internal/evidence/vc/models"
)

// ErrInvalidTransition is returned by Reduce for an event the current stage
// does not accept. The state is left unchanged.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// Event drives the state machine.
type Event interface {
	eventName() string
}

// DetailsSubmitted moves CollectingDetails to AwaitingDocument.
type DetailsSubmitted struct {
	Details Details
	At      time.Time
}

// DocumentSubmitted moves AwaitingDocument to Verifying.
type DocumentSubmitted struct {
	Document DocumentRef
}

// BackRequested returns AwaitingDocument to CollectingDetails.
type BackRequested struct{}

// VerificationFinished moves Verifying to AssessingFraud. A non-nil Err
// leaves Result unused and adds a notice.
type VerificationFinished struct {
	Result analysis.Result
	Err    error
	At     time.Time
}

// FraudAssessed moves AssessingFraud to Issuing.
type FraudAssessed struct {
	Assessment fraud.Assessment
	Err        error
	At         time.Time
}

// CredentialRecorded moves Issuing to Complete.
type CredentialRecorded struct {
	Credential models.Credential
	Err        error
	At         time.Time
}

// Restarted returns any idle state to a fresh CollectingDetails.
type Restarted struct {
	Prefill Details
}

func (DetailsSubmitted) eventName() string     { return "details_submitted" }
func (DocumentSubmitted) eventName() string    { return "document_submitted" }
func (BackRequested) eventName() string        { return "back_requested" }
func (VerificationFinished) eventName() string { return "verification_finished" }
func (FraudAssessed) eventName() string        { return "fraud_assessed" }
func (CredentialRecorded) eventName() string   { return "credential_recorded" }
func (Restarted) eventName() string            { return "restarted" }

// Notice messages shown when a stage fails.
const (
	NoticeVerificationFailed = "Verification failed"
	NoticeFraudCheckFailed   = "Fraud check failed"
	NoticeIssuanceFailed     = "Failed to issue credential"
)

// Reduce computes the state that follows event. Validation failures and
// illegal events return the unchanged state with an error.
func Reduce(state State, event Event) (State, error) {
	switch ev := event.(type) {
	case DetailsSubmitted:
		if state.Stage != StageCollectingDetails {
			return state, invalid(state, event)
		}
		details := ev.Details.Normalized()
		if err := details.Validate(ev.At); err != nil {
			return state, err
		}
		next := state
		next.Details = details
		next.Stage = StageAwaitingDocument
		return next, nil

	case BackRequested:
		if state.Stage != StageAwaitingDocument {
			return state, invalid(state, event)
		}
		next := state
		next.Stage = StageCollectingDetails
		return next, nil

	case DocumentSubmitted:
		if state.Stage != StageAwaitingDocument {
			return state, invalid(state, event)
		}
		if err := ev.Document.Validate(); err != nil {
			return state, err
		}
		doc := ev.Document
		next := state
		next.Document = &doc
		next.Stage = StageVerifying
		return next, nil

	case VerificationFinished:
		if state.Stage != StageVerifying {
			return state, invalid(state, event)
		}
		next := state
		next.Stage = StageAssessingFraud
		if ev.Err != nil {
			return next.withNotice(Notice{Stage: StageVerifying, Message: NoticeVerificationFailed, At: ev.At}), nil
		}
		result := ev.Result
		next.Verification = &result
		return next, nil

	case FraudAssessed:
		if state.Stage != StageAssessingFraud {
			return state, invalid(state, event)
		}
		next := state
		next.Stage = StageIssuing
		if ev.Err != nil {
			return next.withNotice(Notice{Stage: StageAssessingFraud, Message: NoticeFraudCheckFailed, At: ev.At}), nil
		}
		assessment := ev.Assessment
		next.Fraud = &assessment
		return next, nil

	case CredentialRecorded:
		if state.Stage != StageIssuing {
			return state, invalid(state, event)
		}
		next := state
		next.Stage = StageComplete
		if ev.Err != nil {
			return next.withNotice(Notice{Stage: StageIssuing, Message: NoticeIssuanceFailed, At: ev.At}), nil
		}
		cred := ev.Credential
		next.Credential = &cred
		return next, nil

	case Restarted:
		if state.Stage.Busy() {
			return state, invalid(state, event)
		}
		return NewState(ev.Prefill), nil

	default:
		return state, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, event)
	}
}

func invalid(state State, event Event) error {
	return fmt.Errorf("%w: %s in stage %s", ErrInvalidTransition, event.eventName(), state.Stage)
}
