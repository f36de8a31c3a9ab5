package backend

import (
	"context"
	"time"

	"terapia/internal/api"
	"terapia/internal/ports"
)

// Backend is every data operation the web surface needs.
type Backend interface {
	ports.PatientStore
	ports.ProgramStore
	ports.RecordStore
	ports.ContactStore
	ports.StatusStore
	ports.UserReader
}

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// api
	APIHost      string
	APITimeout   time.Duration
	UserCacheTTL time.Duration
	Observer     api.Observer

	// memory
	SeedFile string
}

type BackendType string

const (
	APIBackend    BackendType = "api"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case APIBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
