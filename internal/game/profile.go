package game

import (
	"errors"
	"math"
)

var (
	// ErrUnknownUpgrade is returned for upgrade ids missing from the catalog.
	ErrUnknownUpgrade = errors.New("game: unknown upgrade")
	// ErrUpgradeOwned is returned when buying an upgrade twice.
	ErrUpgradeOwned = errors.New("game: upgrade already owned")
	// ErrInsufficientCredits is returned when the agent cannot afford a purchase.
	ErrInsufficientCredits = errors.New("game: insufficient credits")
)

// DiscoveredIntel is an intel log the agent has recovered.
type DiscoveredIntel struct {
	ID      string `json:"id" validate:"required"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Profile is the persistent part of a run: everything that survives between
// missions.
type Profile struct {
	AgentName string
	Credits   float64
	Upgrades  UpgradeSet
	Intel     []DiscoveredIntel
}

// NewProfile returns a fresh profile.
func NewProfile(agent string, credits float64) *Profile {
	return &Profile{AgentName: agent, Credits: credits, Upgrades: UpgradeSet{}}
}

// AddCredits adds a reward.
func (p *Profile) AddCredits(amount float64) {
	p.Credits += amount
}

// Charge removes up to amount credits, never going below MinCredits. It
// returns what was actually taken.
func (p *Profile) Charge(amount float64) float64 {
	taken := math.Min(amount, p.Credits-MinCredits)
	if taken < 0 {
		taken = 0
	}
	p.Credits -= taken
	return taken
}

// HasIntel reports whether intel id was already recovered.
func (p *Profile) HasIntel(id string) bool {
	for _, l := range p.Intel {
		if l.ID == id {
			return true
		}
	}
	return false
}

// AddIntel records a log once. It reports whether the log was new.
func (p *Profile) AddIntel(l DiscoveredIntel) bool {
	if p.HasIntel(l.ID) {
		return false
	}
	p.Intel = append(p.Intel, l)
	return true
}

// Purchase buys u. Upgrades are permanent and can be bought once.
func (p *Profile) Purchase(u Upgrade) error {
	if p.Upgrades.Has(u.ID) {
		return ErrUpgradeOwned
	}
	if p.Credits < u.Cost {
		return ErrInsufficientCredits
	}
	p.Credits -= u.Cost
	if p.Upgrades == nil {
		p.Upgrades = UpgradeSet{}
	}
	p.Upgrades[u.ID] = true
	return nil
}

func (p *Profile) upgradesCopy() UpgradeSet {
	out := make(UpgradeSet, len(p.Upgrades))
	for k, v := range p.Upgrades {
		if v {
			out[k] = true
		}
	}
	return out
}
