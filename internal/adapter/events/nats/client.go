package nats

import (
	"context"
	"encoding/json"
	"fmt"

	natspkg "github.com/nats-io/nats.go"

	"github.com/ssdl-lang/ssdlc/internal/domain"
	"github.com/ssdl-lang/ssdlc/internal/port"
)

type Client struct {
	nc *natspkg.Conn
}

func NewClient(url string) (*Client, error) {
	nc, err := natspkg.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Client{nc: nc}, nil
}

func (c *Client) Close() {
	c.nc.Close()
}

func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.Status() == natspkg.CONNECTED
}

func (c *Client) Subscribe(subject string, handler func(data []byte) error) (*natspkg.Subscription, error) {
	return c.nc.Subscribe(subject, func(msg *natspkg.Msg) {
		_ = handler(msg.Data)
	})
}

// Publisher emits compile outcomes on "<prefix>.descriptor.compiled" and
// "<prefix>.descriptor.failed" for provisioning collaborators.
type Publisher struct {
	client *Client
	prefix string
}

func NewPublisher(client *Client, prefix string) *Publisher {
	return &Publisher{client: client, prefix: prefix}
}

func (p *Publisher) PublishDescriptorCompiled(ctx context.Context, event domain.DescriptorCompiled) error {
	return p.publish("descriptor.compiled", event)
}

func (p *Publisher) PublishDescriptorFailed(ctx context.Context, event domain.DescriptorFailed) error {
	return p.publish("descriptor.failed", event)
}

func (p *Publisher) publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.client.nc.Publish(p.prefix+"."+subject, data)
}

var _ port.Publisher = (*Publisher)(nil)
