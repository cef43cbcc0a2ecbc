package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/replibyte/releaser/internal/domain/release"
)

// ErrUnrecognizedEvent indicates the trigger payload is not a release
// publication. This aborts the whole run before any branch starts and is
// never retried.
var ErrUnrecognizedEvent = errors.New("unrecognized trigger event")

// EventName is the only trigger event name the pipeline reacts to.
const EventName = "release"

// acceptedActions are the release actions that start a run.
var acceptedActions = map[string]struct{}{
	"published": {},
	"created":   {},
}

// payload mirrors the subset of the hosting service's release event that
// the pipeline consumes.
type payload struct {
	// Action is the release sub-action (published, created, edited, ...).
	Action string `json:"action"`
	// Release carries the tag and commit identity of the release object.
	Release struct {
		// TagName is the version tag being released.
		TagName string `json:"tag_name"`
		// TargetCommitish is the commit the release points at.
		TargetCommitish string `json:"target_commitish"`
	} `json:"release"`
}

// Parse extracts the release event from a trigger payload.
// The event name and the payload action must both identify a release
// publication; anything else fails with ErrUnrecognizedEvent.
func Parse(eventName string, data []byte) (*release.Event, error) {
	if eventName != EventName {
		return nil, fmt.Errorf("%w: event %q", ErrUnrecognizedEvent, eventName)
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode trigger payload: %w", err)
	}

	if _, ok := acceptedActions[p.Action]; !ok {
		return nil, fmt.Errorf("%w: release action %q", ErrUnrecognizedEvent, p.Action)
	}

	tag := strings.TrimSpace(p.Release.TagName)
	if tag == "" {
		return nil, fmt.Errorf("%w: payload carries no tag", ErrUnrecognizedEvent)
	}

	revision := strings.TrimSpace(p.Release.TargetCommitish)
	if revision == "" {
		return nil, fmt.Errorf("%w: payload carries no commit revision", ErrUnrecognizedEvent)
	}

	return &release.Event{
		TagName:        tag,
		CommitRevision: revision,
	}, nil
}

// ParseFile reads a trigger payload from disk, mirroring how the hosting
// service delivers events to runners (event name plus a JSON file path).
func ParseFile(eventName, path string) (*release.Event, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read trigger payload: %w", err)
	}

	return Parse(eventName, data)
}
