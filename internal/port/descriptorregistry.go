package port

import (
	"context"
	"errors"

	"github.com/ssdl-lang/ssdlc/internal/domain"
)

// ErrDescriptorNotFound is returned when a named descriptor does not exist.
var ErrDescriptorNotFound = errors.New("descriptor not found")

// DescriptorRegistry stores named descriptors with their latest compile
// outcome.
type DescriptorRegistry interface {
	Save(ctx context.Context, rec *domain.DescriptorRecord) error
	Find(ctx context.Context, name string) (*domain.DescriptorRecord, error)
	List(ctx context.Context, offset int, limit int) ([]domain.DescriptorRecord, error)
	Delete(ctx context.Context, name string) error
}
