package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by every configuration validation failure
	ErrInvalidConfig = errors.New("invalid config")

	// ErrEmptyUpstreamArtifact matches any *EmptyUpstreamArtifactError
	ErrEmptyUpstreamArtifact = errors.New("empty upstream artifact")
)

// EmptyUpstreamArtifactError aborts a stage whose required input table is absent or empty
type EmptyUpstreamArtifactError struct {
	Artifact string // e.g. "fact sheet"
	Path     string
	Reason   string
}

func (e *EmptyUpstreamArtifactError) Error() string {
	msg := e.Artifact
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	reason := e.Reason
	if reason == "" {
		reason = "is missing or empty"
	}
	return fmt.Sprintf("%s %s; run the upstream stage first", msg, reason)
}

// Is makes errors.Is(err, ErrEmptyUpstreamArtifact) match
func (e *EmptyUpstreamArtifactError) Is(target error) bool {
	return target == ErrEmptyUpstreamArtifact
}
