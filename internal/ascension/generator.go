// Package ascension - генератор рана: драфт, магазин, сделка, резонанс.
// Все случайное берется из одного подпотока "ascension"; его счетчик бросков - это randomCounter рана.
package ascension

import (
	"ascension-server/internal/content"
	"ascension-server/internal/domain"
	"ascension-server/pkg/logger"
	"ascension-server/pkg/rng"
	"fmt"

	"github.com/sirupsen/logrus"
)

// StreamName - имя подпотока генератора рана
const StreamName = "ascension"

// RunLength - этажей в ране; последний - босс
const RunLength = 20

// Награды осколками за победу
const (
	RewardBattle    = 3
	RewardElite     = 5
	RewardChallenge = 5
	RewardBoss      = 8
)

// Reporter - канал диагностики (неизвестные id, клампы)
type Reporter interface {
	Report(d domain.Diagnostic)
}

// Generator - владеет подпотоком рана и кешем магазинов.
// Сам стейт рана не хранит: его передают явно в каждую операцию.
type Generator struct {
	catalog  content.Catalog
	reporter Reporter
	stream   *rng.Stream
	shops    map[int]*domain.ShopInventory
	logger   *logrus.Entry

	// reported - что уже ушло в диагностику за этот ран (игрок собирается на каждый драфт и снапшот)
	reported map[string]bool
}

func NewGenerator(catalog content.Catalog, reporter Reporter) *Generator {
	return &Generator{
		catalog:  catalog,
		reporter: reporter,
		shops:    make(map[int]*domain.ShopInventory),
		logger:   logger.Log.WithField("component", "ascension"),
		reported: make(map[string]bool),
	}
}

// Attach подключает подпоток генератора. Для нового рана - свежий fork, для снапшота - восстановленный.
func (g *Generator) Attach(stream *rng.Stream) {
	g.stream = stream
}

// Stream - текущий подпоток (для снапшота и тестов)
func (g *Generator) Stream() *rng.Stream { return g.stream }

// Reset - забыть кеш магазинов и поток (между ранами)
func (g *Generator) Reset() {
	g.stream = nil
	g.shops = make(map[int]*domain.ShopInventory)
	g.reported = make(map[string]bool)
}

// CreateNewRun - единственная точка создания стейта рана
func (g *Generator) CreateNewRun(runID string, seed uint32, characterID, originPathID, runPathID string, hpMax int) *domain.AscensionRunState {
	if hpMax < 1 {
		g.report("clamp", "hpMax below 1 clamped", logrus.Fields{"hp_max": hpMax})
		hpMax = 1
	}
	run := &domain.AscensionRunState{
		RunID:         runID,
		Seed:          seed,
		RandomCounter: 0,
		FloorIndex:    0,
		OriginPathID:  originPathID,
		RunPathID:     runPathID,
		CharacterID:   characterID,
		HPCurrent:     hpMax,
		HPMax:         hpMax,
	}
	g.logger.WithFields(logrus.Fields{
		"run_id":    runID,
		"seed":      seed,
		"origin":    originPathID,
		"run_path":  runPathID,
		"character": characterID,
		"hp_max":    hpMax,
	}).Info("Run created.")
	return run
}

// RoomKindFor - тип этажа f (0-based) по номеру f+1
func RoomKindFor(floor int) domain.RoomKind {
	n := floor + 1
	switch {
	case n%10 == 0:
		return domain.RoomBoss
	case n%5 == 0:
		return domain.RoomShop
	case n%7 == 0:
		return domain.RoomChallenge
	case n%4 == 0:
		return domain.RoomElite
	default:
		return domain.RoomBattle
	}
}

// FragmentReward - осколки за победу в комнате
func FragmentReward(kind domain.RoomKind) int {
	switch kind {
	case domain.RoomElite:
		return RewardElite
	case domain.RoomChallenge:
		return RewardChallenge
	case domain.RoomBoss:
		return RewardBoss
	case domain.RoomBattle:
		return RewardBattle
	}
	return 0
}

// BattleSeed - сид боя этажа. Выводится из сида рана, а не из потока генератора.
func BattleSeed(runSeed uint32, floor int) uint32 {
	return rng.DeriveSeed(runSeed, fmt.Sprintf("battle/%d", floor))
}

// CompleteFloor - этаж пройден. После последнего этажа ран выигран.
func (g *Generator) CompleteFloor(run *domain.AscensionRunState) {
	run.FloorIndex++
	if run.FloorIndex >= RunLength && !run.Finished() {
		run.RunOutcome = domain.RunOutcomeVictory
		g.logger.WithFields(logrus.Fields{"run_id": run.RunID, "floors": run.FloorIndex}).Info("Run won.")
	}
}

// RecordBattle - итог боя в стейт рана: HP переносится, временные апгрейды тикают.
func (g *Generator) RecordBattle(run *domain.AscensionRunState, kind domain.RoomKind, outcome domain.Outcome, hpAfter int) {
	run.HPCurrent = clamp(hpAfter, 0, run.HPMax)
	g.TickUpgrades(run)

	if outcome != domain.OutcomeVictory {
		run.RunOutcome = domain.RunOutcomeDefeat
		g.logger.WithFields(logrus.Fields{"run_id": run.RunID, "floor": run.FloorIndex}).Info("Run lost.")
		return
	}
	run.EchoFragments += FragmentReward(kind)
}

// TickUpgrades - временные апгрейды теряют один бой, истекшие удаляются
func (g *Generator) TickUpgrades(run *domain.AscensionRunState) {
	kept := run.Upgrades[:0]
	for _, u := range run.Upgrades {
		if !u.Permanent() {
			u.RemainingBattles--
			if u.RemainingBattles <= 0 {
				continue
			}
		}
		kept = append(kept, u)
	}
	if len(kept) == 0 {
		kept = nil
	}
	run.Upgrades = kept
}

// sync - счетчик бросков потока в стейт рана. Вызывается после каждой операции с броском.
func (g *Generator) sync(run *domain.AscensionRunState) {
	if g.stream != nil {
		run.RandomCounter = g.stream.Draws()
	}
}

func (g *Generator) report(kind, msg string, fields logrus.Fields) {
	if g.reporter == nil {
		return
	}
	g.reporter.Report(domain.Diagnostic{Kind: kind, Message: msg, Fields: fields})
}

// reportOnce - один и тот же дефект контента рапортуется раз за ран
func (g *Generator) reportOnce(key, kind, msg string, fields logrus.Fields) {
	if g.reported[key] {
		return
	}
	g.reported[key] = true
	g.report(kind, msg, fields)
}

func (g *Generator) reportMissing(kind, id string) {
	err := &domain.ContentError{Kind: kind, ID: id}
	g.reportOnce("missing:"+kind+":"+id, "content", err.Error(), logrus.Fields{"kind": kind, "id": id})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
