package boot

// Policy holds the named recovery decisions of the sequencer.
type Policy struct {
	// Permissive keeps booting when a required service fails to start.
	Permissive bool
	// AbortOnUnhealthy stops booting when a required service never becomes ready.
	AbortOnUnhealthy bool
}

// BootPlan is the fixed, ordered description of one boot.
// It is built once and only hands out copies.
type BootPlan struct {
	services []ServiceSpec
	primary  ServiceSpec
	fallback ServiceSpec
	sync     SyncSpec
	policy   Policy
}

// NewBootPlan freezes the given services, actions, sync settings and policy.
func NewBootPlan(services []ServiceSpec, primary, fallback ServiceSpec, sync SyncSpec, policy Policy) *BootPlan {
	frozen := make([]ServiceSpec, 0, len(services))
	for _, s := range services {
		frozen = append(frozen, s.Clone())
	}

	return &BootPlan{
		services: frozen,
		primary:  primary.Clone(),
		fallback: fallback.Clone(),
		sync:     sync,
		policy:   policy,
	}
}

// Services returns the dependency services in boot order.
func (p *BootPlan) Services() []ServiceSpec {
	services := make([]ServiceSpec, 0, len(p.services))
	for _, s := range p.services {
		services = append(services, s.Clone())
	}

	return services
}

// Primary returns the primary action.
func (p *BootPlan) Primary() ServiceSpec {
	return p.primary.Clone()
}

// Fallback returns the fallback action.
func (p *BootPlan) Fallback() ServiceSpec {
	return p.fallback.Clone()
}

// Sync returns the bundle sync settings.
func (p *BootPlan) Sync() SyncSpec {
	return p.sync
}

// Policy returns the recovery policy.
func (p *BootPlan) Policy() Policy {
	return p.policy
}
