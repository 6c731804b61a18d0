package tui

import "github.com/homeshelf-tv/homeshelf/internal/homerow"

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// SnapshotMsg carries a fresh home-screen snapshot
type SnapshotMsg struct {
	Snapshot homerow.Snapshot
}

// MutationDoneMsg signals that a watched/favorite mutation completed
type MutationDoneMsg struct {
	ItemID string
	Action string
}

// LastPlayedMsg carries the memoized last-played time for the selected episode
type LastPlayedMsg struct {
	ItemID    string
	Timestamp int64
}

// StatusMsg sets a temporary status bar message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}
