package contributions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"arheritage/internal/apperr"
	"arheritage/internal/device"
)

// MsgPlaceNameRequired rejects the details step without a place name.
const MsgPlaceNameRequired = "Please enter the name of the place."

// ErrInvalidStep is returned for an action the current step does not offer.
var ErrInvalidStep = errors.New("invalid contribution step")

// Step is the position of a draft in the upload flow.
type Step int

const (
	StepDetails Step = iota
	StepUpload
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepSubmitted:
		return "submitted"
	default:
		return "details"
	}
}

// Draft is an in-progress contribution.
type Draft struct {
	mu          sync.Mutex
	step        Step
	placeName   string
	description string
}

// NewDraft starts on the details step.
func NewDraft() *Draft {
	return &Draft{}
}

// DraftState is a copy of a draft for rendering.
type DraftState struct {
	Step        string `json:"step"`
	PlaceName   string `json:"placeName"`
	Description string `json:"description"`
}

// State copies the draft.
func (d *Draft) State() DraftState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DraftState{Step: d.step.String(), PlaceName: d.placeName, Description: d.description}
}

// Step returns the current step.
func (d *Draft) Step() Step {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.step
}

// SetDetails replaces the place name and description.
func (d *Draft) SetDetails(placeName, description string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.placeName = placeName
	d.description = description
}

// SubmitDetails moves to the upload step.
func (d *Draft) SubmitDetails() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.step != StepDetails {
		return fmt.Errorf("%w: submit details from %s step", ErrInvalidStep, d.step)
	}
	if strings.TrimSpace(d.placeName) == "" {
		return apperr.Validation("contribution details", MsgPlaceNameRequired)
	}
	d.step = StepUpload
	return nil
}

// Back returns from the upload step to the details step.
func (d *Draft) Back() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.step == StepUpload {
		d.step = StepDetails
	}
}

// StartOver leaves the submitted confirmation for a fresh details step.
func (d *Draft) StartOver() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step = StepDetails
	d.placeName = ""
	d.description = ""
}

// ApplyTranscript appends the final segments verbatim to the description.
// Interim segments are ignored.
func (d *Draft) ApplyTranscript(segments ...device.Segment) {
	text := device.FinalText(segments)
	if text == "" {
		return
	}
	d.mu.Lock()
	d.description += text
	d.mu.Unlock()
}

// Listen applies segments from a dictation session until it closes or ctx
// ends.
func (d *Draft) Listen(ctx context.Context, segments <-chan device.Segment) {
	for {
		select {
		case <-ctx.Done():
			return
		case seg, ok := <-segments:
			if !ok {
				return
			}
			d.ApplyTranscript(seg)
		}
	}
}

// snapshotForSubmit returns the fields to record, or an error when the draft
// is not on the upload step.
func (d *Draft) snapshotForSubmit() (string, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.step != StepUpload {
		return "", "", fmt.Errorf("%w: submit from %s step", ErrInvalidStep, d.step)
	}
	return d.placeName, d.description, nil
}

// markSubmitted resets the fields and shows the confirmation.
func (d *Draft) markSubmitted() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step = StepSubmitted
	d.placeName = ""
	d.description = ""
}
