package dashboard

import "fmt"

// ProgressUpdate is a progress event emitted while the dashboard loads.
//
// Sent to the CLI or UI layer for display; sends never block.
type ProgressUpdate struct {
	Phase      Phase  // Load phase
	Step       int    // Current step number within the load
	Total      int    // Total steps in the load
	Message    string // Human-readable message for display
	Generation uint64 // View generation the update belongs to
}

// Load phase enumeration
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseProfiles
	PhaseHistory
	PhaseDetails
	PhaseReady
	PhaseRedirect
	PhaseFetchNow
)

// loadSteps is the number of phases a full load walks through before it is ready.
const loadSteps = 4

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseProfiles:
		return "fetch_profiles"
	case PhaseHistory:
		return "fetch_history"
	case PhaseDetails:
		return "fetch_details"
	case PhaseReady:
		return "ready"
	case PhaseRedirect:
		return "redirect"
	case PhaseFetchNow:
		return "fetch_now"
	default:
		return ""
	}
}

func waitingUpdate(gen uint64) ProgressUpdate {
	return ProgressUpdate{Phase: PhaseWaiting, Step: 0, Total: loadSteps, Message: "Loading dashboard...", Generation: gen}
}

func profilesUpdate(gen uint64, subjectID string) ProgressUpdate {
	msg := "Fetching profile..."
	if subjectID != "" {
		msg = fmt.Sprintf("Fetching profiles (viewing %s)...", subjectID)
	}
	return ProgressUpdate{Phase: PhaseProfiles, Step: 1, Total: loadSteps, Message: msg, Generation: gen}
}

func historyUpdate(gen uint64, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:      PhaseHistory,
		Step:       2,
		Total:      loadSteps,
		Message:    fmt.Sprintf("Fetching listening history for %s...", name),
		Generation: gen,
	}
}

func detailsUpdate(gen uint64, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:      PhaseDetails,
		Step:       3,
		Total:      loadSteps,
		Message:    fmt.Sprintf("Loaded %d tracks, fetching scores and song of the day...", tracks),
		Generation: gen,
	}
}

func readyUpdate(gen uint64) ProgressUpdate {
	return ProgressUpdate{Phase: PhaseReady, Step: loadSteps, Total: loadSteps, Message: "Dashboard ready", Generation: gen}
}

func redirectUpdate(gen uint64, reason string) ProgressUpdate {
	return ProgressUpdate{
		Phase:      PhaseRedirect,
		Step:       1,
		Total:      loadSteps,
		Message:    fmt.Sprintf("Session could not be resolved (%s), redirecting to login", reason),
		Generation: gen,
	}
}

func fetchNowUpdate(gen uint64, added int) ProgressUpdate {
	msg := "History already up to date"
	if added > 0 {
		msg = fmt.Sprintf("Added %d tracks from recent activity", added)
	}
	return ProgressUpdate{Phase: PhaseFetchNow, Step: 1, Total: 1, Message: msg, Generation: gen}
}
