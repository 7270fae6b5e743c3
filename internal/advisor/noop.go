package advisor

import "context"

// ProviderNameNoop identifies the degraded-mode provider.
const ProviderNameNoop = "noop"

// NoopProvider is the deterministic stand-in used when no credential is
// configured. It always yields empty advice so the analysis proceeds in
// degraded mode.
type NoopProvider struct{}

// Name implements Provider.
func (p *NoopProvider) Name() string { return ProviderNameNoop }

// Advise implements Provider. It never fails and never produces advice.
func (p *NoopProvider) Advise(_ context.Context, _ Input) (*Advice, error) {
	return &Advice{}, nil
}
