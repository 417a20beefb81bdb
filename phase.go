package bgmm

// Phase is a state of the Gibbs driver.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseSamplingParameters
	PhaseSamplingWeights
	PhaseSamplingAssignments
	PhaseRecordingDiagnostic
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseSamplingParameters:
		return "sampling parameters"
	case PhaseSamplingWeights:
		return "sampling weights"
	case PhaseSamplingAssignments:
		return "sampling assignments"
	case PhaseRecordingDiagnostic:
		return "recording diagnostic"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}
