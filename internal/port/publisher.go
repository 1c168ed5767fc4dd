package port

import (
	"context"

	"github.com/ssdl-lang/ssdlc/internal/domain"
)

type Publisher interface {
	PublishDescriptorCompiled(ctx context.Context, event domain.DescriptorCompiled) error
	PublishDescriptorFailed(ctx context.Context, event domain.DescriptorFailed) error
}
