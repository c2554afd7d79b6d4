package store

import (
	"basegraph.app/studiobot/core/db"
)

type Stores struct {
	q db.Querier
}

func NewStores(q db.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Outcomes() OutcomeStore {
	return newOutcomeStore(s.q)
}

func (s *Stores) Sweeps() SweepStore {
	return newSweepStore(s.q)
}
