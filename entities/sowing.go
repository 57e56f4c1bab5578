package entities

// SowingStatus is the lifecycle state of the single sowing session.
// The values are the strings shown to operators and pushed to subscribers.
type SowingStatus string

const (
	StatusNotStarted SowingStatus = "Not started"
	StatusInProgress SowingStatus = "In progress"
	StatusPaused     SowingStatus = "Paused"
	StatusComplete   SowingStatus = "Complete"
	// StatusStopped is only recorded on the field row, never held by a session.
	StatusStopped SowingStatus = "Stopped"
)
