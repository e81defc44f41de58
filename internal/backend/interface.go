package backend

import (
	"context"

	"cupsreport/internal/amqp"
	"cupsreport/internal/services"
	"cupsreport/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the archive side of the report service. Repo and
// Publisher are nil when the backend does not provide them.
type BackendResult struct {
	Type      BackendType
	Repo      *storage.SQLiteRepository
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// ServiceOptions returns the report service options wiring this backend in.
// Nil components are left out so the service never sees a typed-nil interface.
func (r *BackendResult) ServiceOptions() []services.Option {
	var opts []services.Option
	if r.Repo != nil {
		opts = append(opts, services.WithArchive(r.Repo))
	}
	if r.Publisher != nil {
		opts = append(opts, services.WithPublisher(r.Publisher))
	}
	return opts
}

// Ping checks the archive, if there is one.
func (r *BackendResult) Ping(ctx context.Context) error {
	if r.Repo == nil {
		return nil
	}
	return r.Repo.Ping(ctx)
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP is optional for the sqlite backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	// FileBackend writes report files only.
	FileBackend BackendType = "file"
	// SQLiteBackend writes report files and archives every save in SQLite.
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
