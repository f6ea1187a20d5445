// Package content supplies mission records for the game. The provider is
// pure: given the same random source it always produces the same picks.
package content

import "math/rand"

type Category string

const (
	CategoryDrawing  Category = "drawing"
	CategoryOrdering Category = "ordering"
	CategoryCode     Category = "code"
	CategoryStory    Category = "story"
)

type FactType string

const (
	FactDrawing  FactType = "drawing"
	FactOrdering FactType = "ordering"
	FactCode     FactType = "code"
	FactStory    FactType = "story"
)

// SecretFact is the round's hidden information. Only Agents and the
// Triple Agent ever receive the authoritative value.
type SecretFact struct {
	Type        FactType `json:"type"`
	Value       string   `json:"value"`
	Hint        string   `json:"hint"`
	Items       []string `json:"items,omitempty"`
	Criteria    string   `json:"criteria,omitempty"`
	StoryTitle  string   `json:"storyTitle,omitempty"`
	StoryPrompt string   `json:"storyPrompt,omitempty"`
}

type Mission struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	SecretFact  SecretFact `json:"secretFact"`
	Duration    int        `json:"duration"` // seconds
}

type Provider struct {
	rng      *rand.Rand
	missions []Mission
}

func NewProvider(rng *rand.Rand) *Provider {
	return &Provider{rng: rng, missions: allMissions}
}

// RandomMission picks a mission, restricted to a category when one is
// given. An unknown or empty category falls back to the full pool.
func (p *Provider) RandomMission(category Category) Mission {
	pool := p.missions
	if category != "" {
		filtered := make([]Mission, 0, len(pool))
		for _, m := range pool {
			if m.Category == category {
				filtered = append(filtered, m)
			}
		}
		if len(filtered) > 0 {
			pool = filtered
		}
	}
	return pool[p.rng.Intn(len(pool))]
}

// Alternatives returns k facts for the role-reveal decoy screen: the
// mission's own fact plus k-1 same-category decoys, shuffled so the
// correct answer carries no positional bias.
func (p *Provider) Alternatives(mission Mission, k int) []SecretFact {
	decoys := make([]SecretFact, 0, len(p.missions))
	for _, m := range p.missions {
		if m.Category == mission.Category && m.ID != mission.ID {
			decoys = append(decoys, m.SecretFact)
		}
	}
	shuffle(p.rng, decoys)
	if len(decoys) > k-1 {
		decoys = decoys[:k-1]
	}
	out := append([]SecretFact{mission.SecretFact}, decoys...)
	shuffle(p.rng, out)
	return out
}

// shuffle is Fisher-Yates; sort-by-random-comparator is biased.
func shuffle[T any](rng *rand.Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
