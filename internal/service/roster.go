package service

import (
	"strings"

	"github.com/CouSixz/Ciborg/internal/models"
)

// RosterIndex groups agents by the pool their declared key names. It is
// rebuilt for every distribution run.
type RosterIndex struct {
	pools map[Pool][]models.Agent
}

func NewRosterIndex(agents []models.Agent) RosterIndex {
	idx := RosterIndex{pools: map[Pool][]models.Agent{}}
	seen := map[Pool]map[string]struct{}{}
	for _, a := range agents {
		pool, ok := poolForKey(a.BandKey)
		if !ok {
			continue
		}
		if seen[pool] == nil {
			seen[pool] = map[string]struct{}{}
		}
		if _, dup := seen[pool][a.ID]; dup {
			continue
		}
		seen[pool][a.ID] = struct{}{}
		idx.pools[pool] = append(idx.pools[pool], a)
	}
	return idx
}

// Candidates returns the agents of a pool in roster order. An empty result
// means the pool has no capacity.
func (r RosterIndex) Candidates(pool Pool) []models.Agent {
	return r.pools[pool]
}

func (r RosterIndex) Size(pool Pool) int {
	return len(r.pools[pool])
}

// poolForKey matches N2 case-insensitively and value bands exactly, both
// after trimming.
func poolForKey(key string) (Pool, bool) {
	v := strings.TrimSpace(key)
	if strings.EqualFold(v, string(PoolN2)) {
		return PoolN2, true
	}
	for _, b := range Bands() {
		if v == b.Label() {
			return b.Pool(), true
		}
	}
	return "", false
}

func filterAgents(agents []models.Agent, keep func(models.Agent) bool) []models.Agent {
	out := make([]models.Agent, 0, len(agents))
	for _, a := range agents {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// ActiveAgents keeps the agents whose status marks them as working.
func ActiveAgents(agents []models.Agent) []models.Agent {
	return filterAgents(agents, IsActive)
}

func IsActive(a models.Agent) bool {
	s := strings.TrimSpace(a.Status)
	return strings.EqualFold(s, "Active") || strings.EqualFold(s, "Ativo")
}
