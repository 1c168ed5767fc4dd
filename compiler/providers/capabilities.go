package providers

import "sort"

// Capability describes a query ability a provider strategy supports.
type Capability string

const (
	CapabilityProjection       Capability = "projection"
	CapabilityGeoQuery         Capability = "geo_query"
	CapabilityTimeRange        Capability = "time_range"
	CapabilityPagination       Capability = "pagination"
	CapabilityLiveSubscription Capability = "live_subscription"
)

// CapabilitySet is the declared capability matrix of a provider strategy.
type CapabilitySet map[Capability]bool

func (s CapabilitySet) Has(cap Capability) bool {
	return s[cap]
}

func (s CapabilitySet) HasAll(caps ...Capability) bool {
	for _, cap := range caps {
		if !s.Has(cap) {
			return false
		}
	}
	return true
}

func (s CapabilitySet) Missing(caps ...Capability) []Capability {
	var out []Capability
	for _, cap := range caps {
		if !s.Has(cap) {
			out = append(out, cap)
		}
	}
	return out
}

// StringSlice returns the enabled capabilities sorted, for stable output.
func (s CapabilitySet) StringSlice() []string {
	var out []string
	for cap, ok := range s {
		if ok {
			out = append(out, string(cap))
		}
	}
	sort.Strings(out)
	return out
}
