package engine

import (
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"classalloc/internal/milp"
)

// Preprocessor shrinks the search space before and after model assembly.
// Dominance runs on the arena so dominated patterns never generate
// variables; the remaining passes run on the built model.
type Preprocessor struct {
	Arena *Arena
	Feas  *Feasibility
	Log   *zap.Logger
}

// RemoveDominated tombstones patterns that another pattern of the same
// component strictly improves on: fewer sessions, no more total class time
// and at least as many valid starts per session on average. The last active
// pattern of a component is never removed. Returns the number of patterns
// tombstoned.
func (p *Preprocessor) RemoveDominated() int {
	removed := 0
	for c := range p.Arena.Components {
		active := p.Arena.ActivePatterns(c)
		for _, candidate := range active {
			if len(p.Arena.ActivePatterns(c)) <= 1 {
				break
			}
			if p.Arena.Patterns[candidate].Removed {
				continue
			}
			for _, other := range active {
				if other == candidate || p.Arena.Patterns[other].Removed {
					continue
				}
				if p.dominates(other, candidate) {
					p.Arena.Patterns[candidate].Removed = true
					removed++
					break
				}
			}
		}
	}
	if p.Log != nil && removed > 0 {
		p.Log.Info("dominated patterns removed", zap.Int("count", removed))
	}
	return removed
}

func (p *Preprocessor) dominates(a, b int) bool {
	pa, pb := &p.Arena.Patterns[a], &p.Arena.Patterns[b]
	if len(pa.Sessions) >= len(pb.Sessions) {
		return false
	}
	if pa.DurationSlots*pa.Meetings > pb.DurationSlots*pb.Meetings {
		return false
	}
	return p.Feas.PatternFlexibility(a) >= p.Feas.PatternFlexibility(b)
}

// FixInfeasible pins to zero any assignment variable whose room fails the
// compatibility check or whose start slot is not among the session's valid
// starts, which covers cross-day spans and midday-gap straddles. Candidate
// generation already filters these, so hits here indicate the feasibility
// index and the model drifted apart.
func (p *Preprocessor) FixInfeasible(bm *BuiltModel, rooms []Room) int {
	fixed := 0
	for key, x := range bm.X {
		if p.Feas.RoomCompatible(key.Session, rooms[key.Room]) &&
			lo.Contains(p.Feas.ValidStarts(key.Session), key.Start) {
			continue
		}
		name := fmt.Sprintf("FixZero_s%d_r%d_k%d", key.Session, key.Room, key.Start)
		bm.Model.Add(name, []milp.Term{{Var: x, Coef: 1}}, milp.Equal, 0)
		fixed++
	}
	if p.Log != nil && fixed > 0 {
		p.Log.Warn("incompatible assignment variables pinned to zero", zap.Int("count", fixed))
	}
	return fixed
}

// sessionSignature keys sessions that are interchangeable from the model's
// point of view.
type sessionSignature struct {
	Kind     SessionKind
	Duration int
	Students int
	Category RoomCategory
	Rule     DayRule
}

// BreakSymmetry orders interchangeable sessions by weighted start slot so
// the solver does not explore permutations of identical placements. Only
// sessions of components with a single modeled pattern qualify, since the
// ordering assumes both sessions are placed whenever their components are
// covered. Groups are capped at five sessions; beyond that the constraints
// cost more than the symmetry they cut.
func (p *Preprocessor) BreakSymmetry(bm *BuiltModel) int {
	groups := make(map[sessionSignature][]int)
	for _, c := range bm.Scope {
		component := &p.Arena.Components[c]
		var modeled []int
		for _, pid := range component.Patterns {
			if _, ok := bm.Y[pid]; ok {
				modeled = append(modeled, pid)
			}
		}
		if len(modeled) != 1 {
			continue
		}
		for _, pid := range modeled {
			for _, s := range p.Arena.Patterns[pid].Sessions {
				session := &p.Arena.Sessions[s]
				sig := sessionSignature{
					Kind:     component.Kind,
					Duration: session.DurationSlots,
					Students: component.Students,
					Category: component.RoomCategory,
					Rule:     session.Rule,
				}
				groups[sig] = append(groups[sig], s)
			}
		}
	}

	added := 0
	for _, sessions := range groups {
		if len(sessions) < 2 {
			continue
		}
		if len(sessions) > 5 {
			sessions = sessions[:5]
		}
		for i := 0; i+1 < len(sessions); i++ {
			curr, next := sessions[i], sessions[i+1]
			if p.Arena.Sessions[curr].Component == p.Arena.Sessions[next].Component {
				continue
			}
			terms := startWeightTerms(bm, curr, 1)
			terms = append(terms, startWeightTerms(bm, next, -1)...)
			if len(terms) == 0 {
				continue
			}
			name := fmt.Sprintf("Symmetry_s%d_s%d", curr, next)
			bm.Model.Add(name, terms, milp.LessEq, 0)
			added++
		}
	}
	if p.Log != nil && added > 0 {
		p.Log.Info("symmetry ordering constraints added", zap.Int("count", added))
	}
	return added
}

func startWeightTerms(bm *BuiltModel, session int, sign float64) []milp.Term {
	var terms []milp.Term
	for _, key := range bm.XBySession[session] {
		terms = append(terms, milp.Term{Var: bm.X[key], Coef: sign * float64(key.Start+1)})
	}
	return terms
}
