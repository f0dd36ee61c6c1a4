package domain

// Platform is the outbound-communication system a lead is currently routed
// through. Automated routing only ever moves a lead forward along
// none -> outreach -> hybrid -> crm.
type Platform string

const (
	PlatformNone     Platform = "none"
	PlatformOutreach Platform = "outreach"
	PlatformHybrid   Platform = "hybrid"
	PlatformCRM      Platform = "crm"
)

var platformRank = map[Platform]int{
	PlatformNone:     0,
	PlatformOutreach: 1,
	PlatformHybrid:   2,
	PlatformCRM:      3,
}

// IsKnownPlatform reports whether p is a valid platform value.
func IsKnownPlatform(p Platform) bool {
	_, ok := platformRank[p]
	return ok
}

// Rank returns the position of p in the forward ordering. Unknown platforms
// rank below none so they never pass a forward check.
func (p Platform) Rank() int {
	if rank, ok := platformRank[p]; ok {
		return rank
	}
	return -1
}

// ForwardOf reports whether p is strictly ahead of other in the routing
// order. Skipping intermediate platforms is still forward.
func (p Platform) ForwardOf(other Platform) bool {
	return p.Rank() > other.Rank()
}

// IsTerminal reports whether automated routing is finished for p. A lead at
// crm is never moved again by the decision engine; only a manual override
// may touch it.
func (p Platform) IsTerminal() bool {
	return p == PlatformCRM
}

// Level is the discrete engagement bucket derived from the score.
type Level string

const (
	LevelCold     Level = "cold"
	LevelLukewarm Level = "lukewarm"
	LevelWarm     Level = "warm"
	LevelHot      Level = "hot"
)

var levelRank = map[Level]int{
	LevelCold:     0,
	LevelLukewarm: 1,
	LevelWarm:     2,
	LevelHot:      3,
}

// IsKnownLevel reports whether l is a valid level value.
func IsKnownLevel(l Level) bool {
	_, ok := levelRank[l]
	return ok
}

// Rank returns the position of l in the cold..hot ordering.
func (l Level) Rank() int {
	if rank, ok := levelRank[l]; ok {
		return rank
	}
	return -1
}
