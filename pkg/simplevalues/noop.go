package simplevalues

import (
	"context"

	"github.com/google/uuid"
)

// NoopReporter is a no-operation implementation of Reporter
// Useful for testing or when anomalies are tracked elsewhere
type NoopReporter struct{}

// NewNoopReporter creates a new no-operation reporter
func NewNoopReporter() Reporter {
	return &NoopReporter{}
}

// ReferenceUnresolved does nothing
func (n *NoopReporter) ReferenceUnresolved(ctx context.Context, d *PropertyDescriptor, ownerID uuid.UUID, key uuid.UUID, preview bool) {
}

// EntryMalformed does nothing
func (n *NoopReporter) EntryMalformed(ctx context.Context, d *PropertyDescriptor, index int, err error) {
}

// ConfigurationFault does nothing
func (n *NoopReporter) ConfigurationFault(ctx context.Context, err *ConfigurationError) {
}

// ConversionFailed does nothing
func (n *NoopReporter) ConversionFailed(ctx context.Context, d *PropertyDescriptor, ownerID uuid.UUID, err error) {
}
