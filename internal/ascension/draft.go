package ascension

import (
	"ascension-server/internal/content"
	"ascension-server/internal/domain"
	"ascension-server/pkg/rng"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// OfferSize - вариантов в драфте и на витрине
const OfferSize = 3

// Веса путей в лотерее драфта
const (
	WeightOrigin = 0.45
	WeightRun    = 0.35
	WeightFlex   = 0.20
)

// RestHealFraction - "Отдых" лечит долю текущего HP
const RestHealFraction = 0.15

// GenerateDraft строит предложение из трех вариантов для текущего этажа и пишет запись в историю драфта.
//
//  1. Резонанс открыт -> веса путей отключаются, выборка равномерная по всем доступным эхо.
//  2. Иначе жалость: два предыдущих предложения без варианта пути -> один слот принудительно
//     этого пути (сначала run, потом origin).
//  3. Остальные слоты - лотерея origin/run/flex, перенормированная по непустым пулам.
//  4. Не хватило эхо - добиваем "Отдыхом" до ровно трех.
func (g *Generator) GenerateDraft(run *domain.AscensionRunState) domain.DraftOffer {
	all := g.catalog.Echoes()
	pools := g.buildPools(run)
	var picked []content.EchoDef

	if ResonanceTier(run.OriginEchoCount, run.RunEchoCount) > 0 {
		flat := pools.flat(all)
		rng.Shuffle(g.stream, flat)
		if len(flat) > OfferSize {
			flat = flat[:OfferSize]
		}
		picked = flat
	} else {
		forced := g.pityForced(run, pools)
		for _, path := range forced {
			if e, ok := rng.Pick(g.stream, pools[path]); ok {
				picked = append(picked, e)
				pools.remove(e)
			}
		}
		for len(picked) < OfferSize {
			e, ok := g.lotteryPick(run, pools, all, WeightOrigin, WeightRun, WeightFlex)
			if !ok {
				break
			}
			picked = append(picked, e)
			pools.remove(e)
		}
	}

	offer := domain.DraftOffer{Floor: run.FloorIndex, Options: make([]domain.DraftOption, 0, OfferSize)}
	entry := domain.DraftHistoryEntry{}
	for _, e := range picked {
		offer.Options = append(offer.Options, echoOption(e))
		if e.PathID == run.OriginPathID {
			entry.OriginOptions++
		}
		if e.PathID == run.RunPathID {
			entry.RunOptions++
		}
	}
	for len(offer.Options) < OfferSize {
		offer.Options = append(offer.Options, domain.DraftOption{Kind: domain.OptionRest})
	}
	run.DraftHistory = run.DraftHistory.Push(entry)
	g.sync(run)

	g.logger.WithFields(logrus.Fields{
		"run_id":  run.RunID,
		"floor":   run.FloorIndex,
		"options": optionIDs(offer.Options),
		"origin":  entry.OriginOptions,
		"run":     entry.RunOptions,
		"draws":   run.RandomCounter,
	}).Debug("Draft generated.")
	return offer
}

// pityForced - пути, которым положен принудительный слот
func (g *Generator) pityForced(run *domain.AscensionRunState, pools pathPools) []string {
	h := run.DraftHistory
	if !h.Full() {
		return nil
	}
	var forced []string
	if h[0].RunOptions == 0 && h[1].RunOptions == 0 && len(pools[run.RunPathID]) > 0 {
		forced = append(forced, run.RunPathID)
	}
	if run.OriginPathID != run.RunPathID &&
		h[0].OriginOptions == 0 && h[1].OriginOptions == 0 && len(pools[run.OriginPathID]) > 0 {
		forced = append(forced, run.OriginPathID)
	}
	return forced
}

// lotteryPick: выбор категории пути по весам (только непустые), потом эхо внутри категории
func (g *Generator) lotteryPick(run *domain.AscensionRunState, pools pathPools, all []content.EchoDef, wOrigin, wRun, wFlex float64) (content.EchoDef, bool) {
	candidates := [3][]content.EchoDef{
		pools[run.OriginPathID],
		pools[run.RunPathID],
		pools.flex(run.OriginPathID, run.RunPathID, all),
	}
	weights := []float64{wOrigin, wRun, wFlex}
	if run.OriginPathID == run.RunPathID {
		// один и тот же путь не должен получить двойной вес
		weights[0] += weights[1]
		weights[1] = 0
	}
	for i := range candidates {
		if len(candidates[i]) == 0 {
			weights[i] = 0
		}
	}
	idx := rng.Weighted(g.stream, weights)
	if idx < 0 {
		return content.EchoDef{}, false
	}
	return rng.Pick(g.stream, candidates[idx])
}

// PickDraft применяет выбор игрока. При ошибке стейт не меняется.
func (g *Generator) PickDraft(run *domain.AscensionRunState, offer *domain.DraftOffer, index int, healPct float64) (domain.DraftOption, error) {
	if offer == nil {
		return domain.DraftOption{}, domain.ErrNoOffer
	}
	if index < 0 || index >= len(offer.Options) {
		return domain.DraftOption{}, fmt.Errorf("%w: draft index %d of %d", domain.ErrInvalidChoice, index, len(offer.Options))
	}
	opt := offer.Options[index]
	switch opt.Kind {
	case domain.OptionRest:
		g.Rest(run, healPct)
	case domain.OptionEcho:
		g.ApplyEcho(run, opt.EchoID)
	default:
		return domain.DraftOption{}, fmt.Errorf("%w: option kind %q", domain.ErrInvalidChoice, opt.Kind)
	}
	g.logger.WithFields(logrus.Fields{
		"run_id": run.RunID,
		"floor":  run.FloorIndex,
		"index":  index,
		"option": opt.ID(),
	}).Info("Draft picked.")
	return opt, nil
}

// RestHeal - сколько лечит "Отдых": floor(hp*0.15*(1+heal%)), минимум 1
func RestHeal(hpCurrent int, healPct float64) int {
	if math.IsNaN(healPct) || healPct < -100 {
		healPct = -100
	}
	heal := int(math.Floor(float64(hpCurrent) * RestHealFraction * (1 + healPct/100)))
	if heal < 1 {
		heal = 1
	}
	return heal
}

// Rest лечит ран "Отдыхом"
func (g *Generator) Rest(run *domain.AscensionRunState, healPct float64) int {
	before := run.HPCurrent
	run.HPCurrent = clamp(run.HPCurrent+RestHeal(run.HPCurrent, healPct), 0, run.HPMax)
	return run.HPCurrent - before
}

func echoOption(e content.EchoDef) domain.DraftOption {
	return domain.DraftOption{Kind: domain.OptionEcho, EchoID: e.ID, PathID: e.PathID, Rarity: e.Rarity}
}

func optionIDs(opts []domain.DraftOption) []string {
	ids := make([]string, len(opts))
	for i, o := range opts {
		ids[i] = o.ID()
	}
	return ids
}
