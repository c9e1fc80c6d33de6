package ascension

import (
	"ascension-server/internal/content"
	"ascension-server/internal/domain"
	"ascension-server/pkg/rng"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Цены и услуги магазина
const (
	PriceCommon = 6
	PriceRare   = 9
	PriceEpic   = 12
	PriceRest   = 3

	HealServicePrice    = 5
	HealServiceFraction = 0.30
	BuffServicePrice    = 4
	BuffDuration        = 3

	// Веса "мягкой" лотереи для слотов после помощи отстающему пути
	ShopWeightOrigin = 0.50
	ShopWeightRun    = 0.40
	ShopWeightAny    = 0.10

	MaxBuffsPerVisit = 2
)

// Id услуг
const (
	ServiceHealID        = "heal"
	ServiceBuffAttackID  = "buff-attack"
	ServiceBuffDefenseID = "buff-guard"
)

// PriceFor - цена эха по редкости
func PriceFor(r domain.Rarity) int {
	switch r {
	case domain.RarityRare:
		return PriceRare
	case domain.RarityEpic:
		return PriceEpic
	default:
		return PriceCommon
	}
}

// OpenShop возвращает витрину этажа. Повторный вход на тот же этаж отдает ту же витрину из кеша.
func (g *Generator) OpenShop(run *domain.AscensionRunState, floor int) *domain.ShopInventory {
	if inv, ok := g.shops[floor]; ok {
		return inv
	}

	all := g.catalog.Echoes()
	pools := g.buildPools(run)
	inv := &domain.ShopInventory{Floor: floor}

	// Слот помощи: путь, которому дальше всего до порога
	if e, ok := g.neediestPick(run, pools, all); ok {
		inv.Offers = append(inv.Offers, shopOffer(e))
		pools.remove(e)
	}
	for len(inv.Offers) < OfferSize {
		e, ok := g.softPick(run, pools, all)
		if !ok {
			break
		}
		inv.Offers = append(inv.Offers, shopOffer(e))
		pools.remove(e)
	}
	for len(inv.Offers) < OfferSize {
		inv.Offers = append(inv.Offers, domain.ShopOffer{
			DraftOption: domain.DraftOption{Kind: domain.OptionRest},
			Price:       PriceRest,
		})
	}

	inv.Services = []domain.ShopService{
		{ID: ServiceHealID, Kind: domain.ServiceHeal, Price: HealServicePrice, Amount: HealServiceFraction},
		{ID: ServiceBuffAttackID, Kind: domain.ServiceBuff, Price: BuffServicePrice, Stat: domain.StatDamagePct, Amount: 15, Duration: BuffDuration},
		{ID: ServiceBuffDefenseID, Kind: domain.ServiceBuff, Price: BuffServicePrice, Stat: domain.StatDamageReduction, Amount: 10, Duration: BuffDuration},
	}

	g.shops[floor] = inv
	run.ShopVisited = true
	g.sync(run)

	g.logger.WithFields(logrus.Fields{
		"run_id": run.RunID,
		"floor":  floor,
		"offers": len(inv.Offers),
		"draws":  run.RandomCounter,
	}).Debug("Shop generated.")
	return inv
}

// CacheShop кладет витрину в кеш (восстановление из снапшота)
func (g *Generator) CacheShop(inv *domain.ShopInventory) {
	if inv != nil {
		g.shops[inv.Floor] = inv
	}
}

// neediestPick: путь, дальше всего отстоящий от порога резонанса; ничья - монетка.
// Пустой пул выбранного пути -> другой путь -> любой.
func (g *Generator) neediestPick(run *domain.AscensionRunState, pools pathPools, all []content.EchoDef) (content.EchoDef, bool) {
	originNeed := max(0, domain.ResonanceOriginThreshold-run.OriginEchoCount)
	runNeed := max(0, domain.ResonanceRunThreshold-run.RunEchoCount)

	first, second := run.OriginPathID, run.RunPathID
	switch {
	case runNeed > originNeed:
		first, second = second, first
	case runNeed == originNeed:
		if g.stream.Chance(0.5) {
			first, second = second, first
		}
	}

	if e, ok := rng.Pick(g.stream, pools[first]); ok {
		return e, true
	}
	if e, ok := rng.Pick(g.stream, pools[second]); ok {
		return e, true
	}
	return rng.Pick(g.stream, pools.flex(run.OriginPathID, run.RunPathID, all))
}

// softPick - лотерея 50% origin / 40% run / 10% любой путь, по непустым пулам
func (g *Generator) softPick(run *domain.AscensionRunState, pools pathPools, all []content.EchoDef) (content.EchoDef, bool) {
	candidates := [3][]content.EchoDef{
		pools[run.OriginPathID],
		pools[run.RunPathID],
		pools.flat(all),
	}
	weights := []float64{ShopWeightOrigin, ShopWeightRun, ShopWeightAny}
	if run.OriginPathID == run.RunPathID {
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

// BuyEcho - покупка с витрины. Лимит - одна покупка эха за визит.
func (g *Generator) BuyEcho(run *domain.AscensionRunState, inv *domain.ShopInventory, index int, healPct float64) (domain.ShopOffer, error) {
	if inv == nil {
		return domain.ShopOffer{}, domain.ErrNoOffer
	}
	if index < 0 || index >= len(inv.Offers) {
		return domain.ShopOffer{}, fmt.Errorf("%w: offer index %d of %d", domain.ErrInvalidChoice, index, len(inv.Offers))
	}
	offer := inv.Offers[index]
	if inv.EchoBought || offer.Sold {
		return domain.ShopOffer{}, domain.ErrPurchaseCap
	}
	if run.EchoFragments < offer.Price {
		return domain.ShopOffer{}, fmt.Errorf("%w: need %d, have %d", domain.ErrInsufficientFragments, offer.Price, run.EchoFragments)
	}

	run.EchoFragments -= offer.Price
	inv.Offers[index].Sold = true
	inv.EchoBought = true
	if offer.Kind == domain.OptionRest {
		g.Rest(run, healPct)
	} else {
		g.ApplyEcho(run, offer.EchoID)
	}

	g.logger.WithFields(logrus.Fields{
		"run_id":    run.RunID,
		"floor":     inv.Floor,
		"offer":     offer.ID(),
		"price":     offer.Price,
		"fragments": run.EchoFragments,
	}).Info("Shop echo bought.")
	return inv.Offers[index], nil
}

// UseService - лечение (одно за визит) или бафф (до двух за визит)
func (g *Generator) UseService(run *domain.AscensionRunState, inv *domain.ShopInventory, index int, healPct float64) (domain.ShopService, error) {
	if inv == nil {
		return domain.ShopService{}, domain.ErrNoOffer
	}
	if index < 0 || index >= len(inv.Services) {
		return domain.ShopService{}, fmt.Errorf("%w: service index %d of %d", domain.ErrInvalidChoice, index, len(inv.Services))
	}
	svc := inv.Services[index]
	if svc.Used {
		return domain.ShopService{}, domain.ErrPurchaseCap
	}
	switch svc.Kind {
	case domain.ServiceHeal:
		if inv.HealBought {
			return domain.ShopService{}, domain.ErrPurchaseCap
		}
	case domain.ServiceBuff:
		if inv.BuffsBought >= MaxBuffsPerVisit {
			return domain.ShopService{}, domain.ErrPurchaseCap
		}
	default:
		return domain.ShopService{}, fmt.Errorf("%w: service kind %q", domain.ErrInvalidChoice, svc.Kind)
	}
	if run.EchoFragments < svc.Price {
		return domain.ShopService{}, fmt.Errorf("%w: need %d, have %d", domain.ErrInsufficientFragments, svc.Price, run.EchoFragments)
	}

	run.EchoFragments -= svc.Price
	inv.Services[index].Used = true
	switch svc.Kind {
	case domain.ServiceHeal:
		inv.HealBought = true
		if math.IsNaN(healPct) || healPct < -100 {
			healPct = -100
		}
		heal := int(math.Floor(float64(run.HPMax) * svc.Amount * (1 + healPct/100)))
		run.HPCurrent = clamp(run.HPCurrent+max(1, heal), 0, run.HPMax)
	case domain.ServiceBuff:
		inv.BuffsBought++
		run.Upgrades = append(run.Upgrades, domain.ActiveUpgrade{
			ID:               svc.ID,
			Stat:             svc.Stat,
			Amount:           svc.Amount,
			RemainingBattles: svc.Duration,
		})
	}

	g.logger.WithFields(logrus.Fields{
		"run_id":    run.RunID,
		"floor":     inv.Floor,
		"service":   svc.ID,
		"fragments": run.EchoFragments,
	}).Info("Shop service used.")
	return inv.Services[index], nil
}

func shopOffer(e content.EchoDef) domain.ShopOffer {
	return domain.ShopOffer{DraftOption: echoOption(e), Price: PriceFor(e.Rarity)}
}
