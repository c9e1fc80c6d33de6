package ascension

import (
	"ascension-server/internal/domain"
	"ascension-server/pkg/rng"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// BargainOptions - сколько апгрейдов предлагает сделка
const BargainOptions = 2

// BargainEligible - может ли сделка появиться на этом этаже (без бросков)
func BargainEligible(run *domain.AscensionRunState, floor int, kind domain.RoomKind) bool {
	if !run.ResonanceActive || !run.BargainPending || run.BargainTakenForResonance {
		return false
	}
	if run.BargainsTaken >= domain.MaxBargainsPerRun {
		return false
	}
	switch kind {
	case domain.RoomShop, domain.RoomChallenge, domain.RoomBoss:
		return false
	}
	if run.LastBargainFloor != nil && floor-*run.LastBargainFloor <= 1 {
		return false
	}
	return true
}

// RollBargain решает, появляется ли сделка при входе на этаж.
// Пока окно открыто - бросок 0.7, неудача сужает окно. Окно 0 - появление без броска.
func (g *Generator) RollBargain(run *domain.AscensionRunState, floor int, kind domain.RoomKind) *domain.BargainOffer {
	if !BargainEligible(run, floor, kind) {
		return nil
	}

	forced := run.BargainWindow <= 0
	if !forced {
		if !g.stream.Chance(domain.BargainSpawnChance) {
			run.BargainWindow--
			g.sync(run)
			g.logger.WithFields(logrus.Fields{
				"run_id": run.RunID,
				"floor":  floor,
				"window": run.BargainWindow,
			}).Debug("Bargain delayed.")
			return nil
		}
	}

	offer := g.buildBargain(run, floor)
	g.sync(run)
	if offer == nil {
		// нечего предложить - окно закрывается без цены
		run.BargainPending = false
		run.BargainWindow = 0
		return nil
	}
	run.LastBargainFloor = domain.IntPtr(floor)

	g.logger.WithFields(logrus.Fields{
		"run_id": run.RunID,
		"floor":  floor,
		"forced": forced,
		"offer":  len(offer.Options),
	}).Info("Bargain spawned.")
	return offer
}

func (g *Generator) buildBargain(run *domain.AscensionRunState, floor int) *domain.BargainOffer {
	res, ok := g.catalog.Resonance(run.ResonanceID)
	if !ok {
		g.reportMissing("resonance", run.ResonanceID)
		return nil
	}

	var pool []domain.BargainOption
	for _, u := range res.Upgrades {
		if run.HasResonanceUpgrade(u.ID) {
			continue
		}
		pool = append(pool, domain.BargainOption{
			UpgradeID: u.ID,
			Stat:      u.Stat,
			Amount:    u.Amount,
			HPCostPct: u.HPCostPct,
		})
	}
	if len(pool) == 0 {
		return nil
	}
	rng.Shuffle(g.stream, pool)
	if len(pool) > BargainOptions {
		pool = pool[:BargainOptions]
	}
	return &domain.BargainOffer{Floor: floor, Options: pool}
}

// BargainHPCost - сколько макс. HP съедает сделка: floor(hpMax*cost%), минимум 1 при ненулевой цене
func BargainHPCost(hpMax int, costPct float64) int {
	if !(costPct > 0) {
		return 0
	}
	cost := int(math.Floor(float64(hpMax) * costPct / 100))
	if cost < 1 {
		cost = 1
	}
	return cost
}

// AcceptBargain - навсегда режет макс. HP и дает апгрейд резонанса
func (g *Generator) AcceptBargain(run *domain.AscensionRunState, offer *domain.BargainOffer, index int) (domain.BargainOption, error) {
	if offer == nil {
		return domain.BargainOption{}, domain.ErrNoOffer
	}
	if index < 0 || index >= len(offer.Options) {
		return domain.BargainOption{}, fmt.Errorf("%w: bargain index %d of %d", domain.ErrInvalidChoice, index, len(offer.Options))
	}
	opt := offer.Options[index]

	cost := BargainHPCost(run.HPMax, opt.HPCostPct)
	run.HPMax = max(1, run.HPMax-cost)
	run.HPCurrent = clamp(run.HPCurrent, 0, run.HPMax)

	run.ResonanceUpgradeIDs = append(run.ResonanceUpgradeIDs, opt.UpgradeID)
	run.Upgrades = append(run.Upgrades, domain.ActiveUpgrade{
		ID:               opt.UpgradeID,
		Stat:             opt.Stat,
		Amount:           opt.Amount,
		RemainingBattles: -1,
	})
	run.BargainsTaken++
	run.BargainTakenForResonance = true
	run.BargainPending = false
	run.BargainWindow = 0

	g.logger.WithFields(logrus.Fields{
		"run_id":   run.RunID,
		"upgrade":  opt.UpgradeID,
		"hp_cost":  cost,
		"hp_max":   run.HPMax,
		"bargains": run.BargainsTaken,
	}).Info("Bargain taken.")
	return opt, nil
}

// DeclineBargain - окно закрывается без цены
func (g *Generator) DeclineBargain(run *domain.AscensionRunState) {
	run.BargainPending = false
	run.BargainWindow = 0
	g.logger.WithField("run_id", run.RunID).Info("Bargain declined.")
}
