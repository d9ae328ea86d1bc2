package store

import "time"

// DBType identifies the backing database engine.
type DBType int

// supported database types, detected from the connection URL.
const (
	DBTypeSQLite DBType = iota
	DBTypePostgres
)

// RWLocker is a subset of sync.RWMutex, allowing a no-op implementation for
// databases that handle concurrent writers themselves.
type RWLocker interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

// noopLocker is used for postgres, which doesn't need serialized access.
type noopLocker struct{}

func (noopLocker) Lock()    {}
func (noopLocker) Unlock()  {}
func (noopLocker) RLock()   {}
func (noopLocker) RUnlock() {}

// DocInfo holds metadata for a stored channel-1 document.
type DocInfo struct {
	Slot      string    `db:"slot" json:"slot"`
	Size      int64     `db:"size" json:"size"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
