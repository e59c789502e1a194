package shift

import "sync/atomic"

// Provider hands out the active Schedule. Config reloads swap the schedule
// without blocking readers.
type Provider struct {
	current atomic.Pointer[Schedule]
}

// NewProvider returns a Provider serving s, or the default schedule when s is nil.
func NewProvider(s *Schedule) *Provider {
	if s == nil {
		s = DefaultSchedule()
	}
	p := &Provider{}
	p.current.Store(s)
	return p
}

// Current returns the active schedule.
func (p *Provider) Current() *Schedule { return p.current.Load() }

// Replace installs s as the active schedule. A nil s is ignored.
func (p *Provider) Replace(s *Schedule) {
	if s != nil {
		p.current.Store(s)
	}
}
