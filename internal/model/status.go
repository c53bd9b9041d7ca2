package model

// Status is the lifecycle state of the model registry.
type Status string

const (
	// StatusUnloaded means loading has not started.
	StatusUnloaded Status = "unloaded"

	// StatusLoading means the model is being loaded.
	StatusLoading Status = "loading"

	// StatusReady means a handle is stored and usable.
	StatusReady Status = "ready"

	// StatusFailed means loading failed. There is no automatic retry.
	StatusFailed Status = "failed"
)

func (s Status) String() string {
	return string(s)
}
