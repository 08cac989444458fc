package store

const (
	saveSyncState = `
		INSERT INTO sync_state (
			note_id,
			local_version,
			server_version,
			content_hash,
			last_synced_at,
			status
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(note_id) DO UPDATE SET
			local_version  = excluded.local_version,
			server_version = excluded.server_version,
			content_hash   = excluded.content_hash,
			last_synced_at = excluded.last_synced_at,
			status         = excluded.status;`

	getSyncState = `
		SELECT
			note_id,
			local_version,
			server_version,
			content_hash,
			last_synced_at,
			status
		FROM sync_state
		WHERE note_id = ?;`

	getAllSyncStates = `
		SELECT
			note_id,
			local_version,
			server_version,
			content_hash,
			last_synced_at,
			status
		FROM sync_state;`

	deleteSyncState = `
		DELETE FROM sync_state
		WHERE note_id = ?;`

	appendQueuedChange = `
		INSERT INTO change_queue (
			note_id,
			operation,
			version,
			payload,
			created_at
		) VALUES (?, ?, ?, ?, ?);`

	markQueuedChangeAttempt = `
		UPDATE change_queue SET
			attempts        = attempts + 1,
			error           = ?,
			last_attempt_at = ?
		WHERE id = ?;`

	removeQueuedChangesForNote = `
		DELETE FROM change_queue
		WHERE note_id = ?;`

	countQueuedChanges = `
		SELECT COUNT(*) FROM change_queue;`

	saveConflict = `
		INSERT INTO conflicts (
			note_id,
			local_note,
			remote_note,
			local_version,
			remote_version,
			detected_at,
			type
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(note_id) DO UPDATE SET
			local_note     = excluded.local_note,
			remote_note    = excluded.remote_note,
			local_version  = excluded.local_version,
			remote_version = excluded.remote_version,
			detected_at    = excluded.detected_at,
			type           = excluded.type;`

	getConflict = `
		SELECT
			note_id,
			local_note,
			remote_note,
			local_version,
			remote_version,
			detected_at,
			type
		FROM conflicts
		WHERE note_id = ?;`

	getAllConflicts = `
		SELECT
			note_id,
			local_note,
			remote_note,
			local_version,
			remote_version,
			detected_at,
			type
		FROM conflicts
		ORDER BY detected_at;`

	deleteConflict = `
		DELETE FROM conflicts
		WHERE note_id = ?;`

	countConflicts = `
		SELECT COUNT(*) FROM conflicts;`

	getMetadata = `
		SELECT value FROM metadata
		WHERE key = ?;`

	setMetadata = `
		INSERT INTO metadata (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value;`
)
