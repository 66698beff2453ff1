package match

import (
	"battleship/internal/game"
	"battleship/internal/stats"
)

// Observer is the host side of a match: a renderer, a terminal, a
// websocket fan-out. Calls are made synchronously from Strike, except
// Statistics which arrives after the presentation delay on its own
// goroutine.
type Observer interface {
	LuckyStrike(game.Outcome)
	BadStrike(game.Outcome)
	ShipSunk(game.Outcome)
	FleetDestroyed()
	Statistics(stats.Summary)
}

// ObserverFuncs adapts optional callbacks to Observer. Nil fields are
// skipped.
type ObserverFuncs struct {
	OnLuckyStrike    func(game.Outcome)
	OnBadStrike      func(game.Outcome)
	OnShipSunk       func(game.Outcome)
	OnFleetDestroyed func()
	OnStatistics     func(stats.Summary)
}

func (o ObserverFuncs) LuckyStrike(out game.Outcome) {
	if o.OnLuckyStrike != nil {
		o.OnLuckyStrike(out)
	}
}

func (o ObserverFuncs) BadStrike(out game.Outcome) {
	if o.OnBadStrike != nil {
		o.OnBadStrike(out)
	}
}

func (o ObserverFuncs) ShipSunk(out game.Outcome) {
	if o.OnShipSunk != nil {
		o.OnShipSunk(out)
	}
}

func (o ObserverFuncs) FleetDestroyed() {
	if o.OnFleetDestroyed != nil {
		o.OnFleetDestroyed()
	}
}

func (o ObserverFuncs) Statistics(s stats.Summary) {
	if o.OnStatistics != nil {
		o.OnStatistics(s)
	}
}
