package storage

import (
	"fmt"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
)

// Registry holds every configured backend keyed by strategy and names one
// of them active for new uploads.
type Registry struct {
	active   ports.FileStorage
	backends map[domain.StorageStrategy]ports.FileStorage
}

// NewRegistry fails when the active strategy has no backend.
func NewRegistry(active domain.StorageStrategy, backends ...ports.FileStorage) (*Registry, error) {
	r := &Registry{backends: make(map[domain.StorageStrategy]ports.FileStorage, len(backends))}
	for _, b := range backends {
		r.backends[b.Strategy()] = b
	}
	a, ok := r.backends[active]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrStrategyUnavailable, active)
	}
	r.active = a
	return r, nil
}

func (r *Registry) Active() ports.FileStorage { return r.active }

// For returns the backend that wrote references tagged with strategy.
// Untagged references are treated as disk.
func (r *Registry) For(strategy domain.StorageStrategy) (ports.FileStorage, error) {
	if strategy == "" {
		strategy = domain.StorageDisk
	}
	b, ok := r.backends[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrStrategyUnavailable, strategy)
	}
	return b, nil
}
