package main

import "fmt"

var fallbackCrewNames = []string{
	"Rene Aldana", "Sol Medrano", "Teo Braganza", "Una Farkas",
}

// randomCrewName picks a name for a freshly hired crew member from the
// configured pool, avoiding names already on the active roster when it
// can.
func (s *Store) randomCrewName(g *Game) string {
	pool := s.reference.CrewNames
	if len(pool) == 0 {
		pool = fallbackCrewNames
	}

	taken := map[string]bool{}
	for _, emp := range g.Employees {
		if emp.Active {
			taken[emp.Name] = true
		}
	}

	free := []string{}
	for _, name := range pool {
		if !taken[name] {
			free = append(free, name)
		}
	}
	if len(free) > 0 {
		return free[s.rng.Intn(len(free))]
	}
	// Pool exhausted: disambiguate a reused name.
	base := pool[s.rng.Intn(len(pool))]
	return fmt.Sprintf("%s (II)", base)
}

// suggestCrewNames returns up to n candidate names for the UI's
// suggestion box.
func (s *Store) suggestCrewNames(n int) []string {
	pool := s.reference.CrewNames
	if len(pool) == 0 {
		pool = fallbackCrewNames
	}
	if n > len(pool) {
		n = len(pool)
	}
	idx := s.rng.Perm(len(pool))[:n]
	out := make([]string, 0, n)
	for _, i := range idx {
		out = append(out, pool[i])
	}
	return out
}
