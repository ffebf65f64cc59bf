package application

import (
	"context"

	"github.com/alorle/iptv-catalog/internal/port/driven"
)

// HealthService orchestrates health checks for the application and its dependencies.
type HealthService struct {
	store driven.CatalogStore
}

// NewHealthService creates a new health check service.
func NewHealthService(store driven.CatalogStore) *HealthService {
	return &HealthService{store: store}
}

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Status string // "ok" or "error"
	Error  string // empty if status is "ok", otherwise contains error message
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status string          // "ok" if all components are healthy, "degraded" otherwise
	Store  ComponentHealth // catalog store health
}

// Check performs health checks on all dependencies.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status: "ok",
		Store:  ComponentHealth{Status: "ok"},
	}

	if err := s.store.Ping(ctx); err != nil {
		status.Store = ComponentHealth{
			Status: "error",
			Error:  err.Error(),
		}
		status.Status = "degraded"
	}

	return status
}
