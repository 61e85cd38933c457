package clients

import (
	"context"
	"errors"
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
)

var ErrNoInstances = errors.New("no healthy backend instance")

// Discovery looks up the commerce backend in the Consul catalog.
type Discovery struct {
	client  *consulapi.Client
	service string
}

func NewDiscovery(addr, service string) (*Discovery, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return &Discovery{client: client, service: service}, nil
}

// Resolve returns the base URL (scheme and host) of the first passing
// instance.
func (d *Discovery) Resolve(ctx context.Context) (string, error) {
	opts := (&consulapi.QueryOptions{}).WithContext(ctx)
	entries, _, err := d.client.Health().Service(d.service, "", true, opts)
	if err != nil {
		return "", fmt.Errorf("consul lookup %s: %w", d.service, err)
	}
	if len(entries) == 0 {
		return "", ErrNoInstances
	}
	entry := entries[0]
	if entry.Service == nil {
		return "", ErrNoInstances
	}
	address := entry.Service.Address
	if address == "" && entry.Node != nil {
		address = entry.Node.Address
	}
	if address == "" {
		return "", ErrNoInstances
	}
	return fmt.Sprintf("http://%s:%d", address, entry.Service.Port), nil
}
