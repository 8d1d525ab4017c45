package action

// Action represents input actions the render loop reacts to
type Action int

const (
	// Pacing controls
	PacingToggle Action = iota
	WorkloadHeavier
	WorkloadLighter
	StatsReset

	// Debug controls
	DebugLogLevelIncrease
	DebugLogLevelDecrease

	Quit
)

var names = map[Action]string{
	PacingToggle:          "Toggle pacing",
	WorkloadHeavier:       "Heavier workload",
	WorkloadLighter:       "Lighter workload",
	StatsReset:            "Reset stats",
	DebugLogLevelIncrease: "More verbose logs",
	DebugLogLevelDecrease: "Less verbose logs",
	Quit:                  "Quit",
}

func (a Action) String() string {
	if name, ok := names[a]; ok {
		return name
	}
	return "Unknown"
}
