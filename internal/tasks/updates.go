package tasks

import "fmt"

// Phase identifies the stage of a reconciliation run a progress update
// belongs to.
type Phase int

const (
	PhaseFetchCopper Phase = iota
	PhaseFetchMailchimp
	PhaseClassify
	PhaseIndex
	PhaseCopperToMailchimp
	PhaseMailchimpToCopper
	PhaseLifecycle
	PhaseComplete
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseFetchCopper:
		return "Fetching Copper contacts"
	case PhaseFetchMailchimp:
		return "Fetching Mailchimp members"
	case PhaseClassify:
		return "Classifying contacts"
	case PhaseIndex:
		return "Building identity indexes"
	case PhaseCopperToMailchimp:
		return "Syncing Copper → Mailchimp"
	case PhaseMailchimpToCopper:
		return "Syncing Mailchimp → Copper"
	case PhaseLifecycle:
		return "Processing marked contacts"
	case PhaseComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// ProgressUpdate carries run status for display layers. Sent on a channel via
// non-blocking send, so consumers may drop updates but never stall the run.
type ProgressUpdate struct {
	Phase   Phase
	Message string
	Current int
	Total   int
}

func fetchCopperUpdate(page int, service string) ProgressUpdate {
	msg := fmt.Sprintf("Enumerating %s", service)
	if page > 0 {
		msg = fmt.Sprintf("Fetched %s page %d", service, page)
	}
	return ProgressUpdate{Phase: PhaseFetchCopper, Message: msg, Current: page}
}

func fetchMailchimpUpdate(page int, service string) ProgressUpdate {
	msg := fmt.Sprintf("Enumerating %s", service)
	if page > 0 {
		msg = fmt.Sprintf("Fetched %s page %d", service, page)
	}
	return ProgressUpdate{Phase: PhaseFetchMailchimp, Message: msg, Current: page}
}

func classifyUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseClassify,
		Message: fmt.Sprintf("Classifying %d contacts", total),
		Total:   total,
	}
}

func indexUpdate(contacts, members int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseIndex,
		Message: fmt.Sprintf("Indexed %d contacts and %d members", contacts, members),
	}
}

func copperToMailchimpUpdate(current, total int, email string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseCopperToMailchimp,
		Message: email,
		Current: current,
		Total:   total,
	}
}

func mailchimpToCopperUpdate(current, total int, email string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseMailchimpToCopper,
		Message: email,
		Current: current,
		Total:   total,
	}
}

func lifecycleUpdate(current, total int, email string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseLifecycle,
		Message: email,
		Current: current,
		Total:   total,
	}
}
