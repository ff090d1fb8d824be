package gateway

import (
	"context"
	"fmt"

	"github.com/tendant/simple-translate-pipeline/internal/schema"
)

// StubProvider stands in for providers that are declared but not yet
// implemented. It deterministically returns a not-implemented failure Outcome
// instead of raising, so the result contract stays uniform.
type StubProvider struct {
	name string
}

func NewStubProvider(name string) *StubProvider {
	return &StubProvider{name: name}
}

func (p *StubProvider) Name() string { return p.name }

func (p *StubProvider) Translate(_ context.Context, _ map[string]any, _ *schema.Validator, _ Options) Outcome {
	return failure(FailureNotImplemented, fmt.Sprintf("provider not implemented: %s", p.name), 0)
}
