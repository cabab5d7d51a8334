package events

import (
	"maps"
	"slices"
	"sort"
)

// SubmissionCreated is the name of the event published after a submission
// has been persisted.
const SubmissionCreated = "submission.created"

// SubmissionCreatedEvent carries a persisted submission by value.
type SubmissionCreatedEvent struct {
	FormID       uint64
	SubmissionID uint64
	Data         map[string]string
	// Fields lists the form's field ids in display order.
	Fields []string
}

// EventName implements Event.
func (SubmissionCreatedEvent) EventName() string { return SubmissionCreated }

// NewSubmissionCreated builds the event with its own copy of data, so later
// changes to the caller's map never reach subscribers.
func NewSubmissionCreated(formID, submissionID uint64, data map[string]string) SubmissionCreatedEvent {
	cp := make(map[string]string, len(data))
	maps.Copy(cp, data)
	return SubmissionCreatedEvent{FormID: formID, SubmissionID: submissionID, Data: cp}
}

// WithFields returns e with a copy of the form's field order attached.
func (e SubmissionCreatedEvent) WithFields(ids []string) SubmissionCreatedEvent {
	e.Fields = slices.Clone(ids)
	return e
}

// Keys returns the keys of Data in form order. Keys not named by Fields
// follow alphabetically.
func (e SubmissionCreatedEvent) Keys() []string {
	out := make([]string, 0, len(e.Data))
	seen := make(map[string]struct{}, len(e.Data))
	for _, id := range e.Fields {
		if _, ok := e.Data[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	rest := make([]string, 0, len(e.Data)-len(out))
	for k := range e.Data {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
