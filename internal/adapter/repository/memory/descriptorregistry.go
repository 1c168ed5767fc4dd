// Package memory provides an in-memory implementation of the repository.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ssdl-lang/ssdlc/internal/domain"
	"github.com/ssdl-lang/ssdlc/internal/port"
)

type DescriptorRegistryStub struct {
	mu   sync.RWMutex
	data map[string]*domain.DescriptorRecord
}

func NewDescriptorRegistryStub() *DescriptorRegistryStub {
	return &DescriptorRegistryStub{
		data: make(map[string]*domain.DescriptorRecord),
	}
}

func (r *DescriptorRegistryStub) Save(ctx context.Context, rec *domain.DescriptorRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec == nil {
		return fmt.Errorf("record is required")
	}
	if rec.Name == "" {
		return fmt.Errorf("record name is required")
	}
	cp := *rec
	r.data[rec.Name] = &cp
	return nil
}

func (r *DescriptorRegistryStub) Find(ctx context.Context, name string) (*domain.DescriptorRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.data[name]
	if !ok {
		return nil, port.ErrDescriptorNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *DescriptorRegistryStub) List(ctx context.Context, offset, limit int) ([]domain.DescriptorRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.data))
	for name := range r.data {
		names = append(names, name)
	}
	sort.Strings(names)
	var items []domain.DescriptorRecord
	for _, name := range names {
		items = append(items, *r.data[name])
	}
	// Apply pagination
	if offset >= len(items) {
		return []domain.DescriptorRecord{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

func (r *DescriptorRegistryStub) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[name]; !ok {
		return port.ErrDescriptorNotFound
	}
	delete(r.data, name)
	return nil
}

var _ port.DescriptorRegistry = (*DescriptorRegistryStub)(nil)
