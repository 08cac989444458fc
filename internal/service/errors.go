package service

import "errors"

var (
	// ErrSyncDisabled is returned by TriggerSync when synchronization is
	// switched off in configuration. Local tracking still works.
	ErrSyncDisabled = errors.New("synchronization is disabled")

	// ErrOffline is returned by TriggerSync when the network monitor reports
	// no connectivity.
	ErrOffline = errors.New("device is offline")

	// ErrUnknownOperation is returned when a change is tracked with an
	// operation outside {create, update, delete}.
	ErrUnknownOperation = errors.New("unknown change operation")

	// ErrUnknownResolution is returned when a conflict resolution names a
	// strategy outside {keep-local, keep-remote, merge-manual}.
	ErrUnknownResolution = errors.New("unknown resolution strategy")

	// ErrNoMergedContent is returned when merge-manual is chosen without
	// supplying the merged note.
	ErrNoMergedContent = errors.New("merge-manual resolution requires merged content")
)
