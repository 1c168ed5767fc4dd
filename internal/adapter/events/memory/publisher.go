// Package memory records published events for tests and eventless
// deployments.
package memory

import (
	"context"
	"sync"

	"github.com/ssdl-lang/ssdlc/internal/domain"
	"github.com/ssdl-lang/ssdlc/internal/port"
)

type PublisherStub struct {
	mu       sync.Mutex
	Compiled []domain.DescriptorCompiled
	Failed   []domain.DescriptorFailed
}

func NewPublisherStub() *PublisherStub {
	return &PublisherStub{}
}

func (p *PublisherStub) PublishDescriptorCompiled(ctx context.Context, event domain.DescriptorCompiled) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Compiled = append(p.Compiled, event)
	return nil
}

func (p *PublisherStub) PublishDescriptorFailed(ctx context.Context, event domain.DescriptorFailed) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Failed = append(p.Failed, event)
	return nil
}

var _ port.Publisher = (*PublisherStub)(nil)
