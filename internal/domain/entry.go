package domain

import (
	"time"
)

// Entry represents a stored cache record in the database-backed store
type Entry struct {
	Key       string     `gorm:"primaryKey;size:250" json:"key"`
	Value     []byte     `gorm:"not null" json:"-"` // JSON-encoded value
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"` // Nullable for non-expiring entries
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Entry) TableName() string {
	return "cache_entries"
}

// IsExpired checks if the entry has expired at the given time
func (e *Entry) IsExpired(now time.Time) bool {
	if e.ExpiresAt == nil {
		return false // Never expires
	}
	return !now.Before(*e.ExpiresAt)
}

// SetRequest represents the request payload for storing a single value
type SetRequest struct {
	Value      any  `json:"value"`
	TTLSeconds *int `json:"ttl_seconds,omitempty"` // Omitted means the namespace default
}

// SetResponse reports the store's answer to a write
type SetResponse struct {
	Key    string `json:"key,omitempty"`
	Stored bool   `json:"stored"`
}

// GetResponse carries a single value
type GetResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// ExistsResponse carries a presence check
type ExistsResponse struct {
	Key    string `json:"key"`
	Exists bool   `json:"exists"`
}

// DeleteResponse reports the store's answer to a delete
type DeleteResponse struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
}

// StorageKeyResponse maps a logical key to the key the store sees
type StorageKeyResponse struct {
	Key        string `json:"key"`
	StorageKey string `json:"storage_key"`
}

// SetMultipleRequest represents a bulk write
type SetMultipleRequest struct {
	Values     map[string]any `json:"values" binding:"required"`
	TTLSeconds *int           `json:"ttl_seconds,omitempty"`
}

// GetMultipleRequest represents a bulk read
type GetMultipleRequest struct {
	Keys    []string `json:"keys" binding:"required"`
	Default any      `json:"default,omitempty"`
}

// GetMultipleResponse is keyed by storage keys, as returned by the store
type GetMultipleResponse struct {
	Values map[string]any `json:"values"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Backend   string    `json:"backend"`
	Namespace string    `json:"namespace"`
	Timestamp time.Time `json:"timestamp"`
}
