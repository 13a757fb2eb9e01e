package system

import "context"

// Service is a component with a start/stop lifecycle. The Manager starts
// services in registration order and stops them in reverse, so a store
// registered first is closed last.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Closer adapts a Close-only component, such as an audit sink, to Service.
type Closer struct {
	ServiceName string
	Close       func() error
}

// Name implements Service.
func (c Closer) Name() string { return c.ServiceName }

// Start implements Service.
func (c Closer) Start(context.Context) error { return nil }

// Stop calls Close.
func (c Closer) Stop(context.Context) error {
	if c.Close == nil {
		return nil
	}
	return c.Close()
}
