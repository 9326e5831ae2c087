package dto

import "time"

// SyncStatusResponse reports the offline surface's view of sync state.
type SyncStatusResponse struct {
	IsOnline        bool       `json:"isOnline"`
	IsSyncing       bool       `json:"isSyncing"`
	PendingChanges  int        `json:"pendingChanges"`
	LastSynced      *time.Time `json:"lastSynced,omitempty"`
	StorageDegraded bool       `json:"storageDegraded"`
}

// QueueActionRequest records an arbitrary mutation intent for later replay.
type QueueActionRequest struct {
	Type    string      `json:"type" binding:"required"`
	Payload interface{} `json:"payload" binding:"required"`
}

// QueueActionResponse returns the durable queue id of the recorded intent.
type QueueActionResponse struct {
	ID int64 `json:"id"`
}
