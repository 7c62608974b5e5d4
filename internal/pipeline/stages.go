package pipeline

// Stage identifies a state of the run state machine. Transitions are strictly
// forward; a stage is only re-entered through the bounded retry policy scoped
// to it.
type Stage int

const (
	StageExtractInspection Stage = iota
	StageExtractThermal
	StageMerge
	StageAnalyze
	StageGenerate
	StageDone
	StageFailed
)

func (s Stage) String() string {
	names := [...]string{
		"ExtractInspection",
		"ExtractThermal",
		"Merge",
		"Analyze",
		"Generate",
		"Done",
		"Failed",
	}
	if int(s) >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}
