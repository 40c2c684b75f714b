package librus

import "context"

// SnapshotRepository persists the last-seen state of each account.
// Implemented by the infrastructure layer; the domain has no knowledge of
// the actual storage mechanism (JSON files or PostgreSQL).
type SnapshotRepository interface {
	// Load returns the snapshot for an account key. A missing or unreadable
	// record yields the empty snapshot, never an error that aborts the run:
	// losing history means the next diff treats everything as new, which is
	// preferred over silently losing notifications forever.
	Load(ctx context.Context, accountKey string) (*AccountSnapshot, error)

	// Save overwrites the account's entire record with the given snapshot.
	Save(ctx context.Context, accountKey string, snapshot *AccountSnapshot) error
}
