package engine

import (
	"ascension-server/internal/ascension"
	"ascension-server/internal/content"
	"ascension-server/internal/domain"
	"ascension-server/pkg/api"
	"ascension-server/pkg/logger"
	"ascension-server/pkg/rng"
	"ascension-server/pkg/utils"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
)

// BattleStreamName - имя подпотока боя. Сид всегда явный (per-floor), поэтому мемоизации нет.
const BattleStreamName = "battle"

// RunParams - параметры нового рана
type RunParams struct {
	RunID        string
	Seed         uint32
	CharacterID  string
	OriginPathID string
	RunPathID    string
	HPMax        int // 0 - макс. HP персонажа из каталога
}

// Session - один ран одного игрока: стейт рана, текущий бой, висящие предложения
// и лента решений для реплея.
//
// Сессия однопоточная: хост сам решает, кто и когда ее двигает.
// Каждое решение игрока пишется в ленту только после успешного применения.
type Session struct {
	ID string

	catalog content.Catalog
	diag    *Diagnostics
	gen     *ascension.Generator
	forker  *rng.Forker
	policy  domain.SkillPolicy

	phase    domain.Phase
	run      *domain.AscensionRunState
	roomKind domain.RoomKind
	battle   *Battle
	draft    *domain.DraftOffer
	shop     *domain.ShopInventory
	bargain  *domain.BargainOffer
	events   []domain.ReplayEvent

	logs   []api.LogEntry
	logSeq int
	now    func() time.Time

	logger *logrus.Entry
}

func NewSession(catalog content.Catalog, cfg Config) *Session {
	diag := NewDiagnostics()
	s := &Session{
		ID:      utils.GenerateID(),
		catalog: catalog,
		diag:    diag,
		gen:     ascension.NewGenerator(catalog, diag),
		forker:  rng.NewForker(cfg.Seed),
		policy:  cfg.Policy,
		now:     time.Now,
	}
	s.logger = logger.Log.WithFields(logrus.Fields{
		"component":  "session",
		"session_id": s.ID,
	})
	return s
}

// --- РАН ---

// StartRun начинает новый ран, сбрасывая все, что было в сессии
func (s *Session) StartRun(p RunParams) (*domain.AscensionRunState, error) {
	if p.OriginPathID == "" || p.RunPathID == "" {
		return nil, fmt.Errorf("%w: origin and run paths are required", domain.ErrInvalidChoice)
	}
	s.Reset()
	if p.RunID == "" {
		p.RunID = utils.GenerateID()
	}
	if p.HPMax <= 0 {
		p.HPMax = s.gen.StartingHP(p.CharacterID)
	}
	s.checkPath(p.OriginPathID)
	s.checkPath(p.RunPathID)

	s.forker.SetRoot(p.Seed)
	s.gen.Attach(s.forker.Fork(ascension.StreamName, nil))
	s.run = s.gen.CreateNewRun(p.RunID, p.Seed, p.CharacterID, p.OriginPathID, p.RunPathID, p.HPMax)
	s.phase = domain.PhaseMap

	s.record(domain.RunStartPayload{
		RunID:        s.run.RunID,
		Seed:         domain.F64Ptr(float64(s.run.Seed)),
		OriginPathID: s.run.OriginPathID,
		RunPathID:    s.run.RunPathID,
		HPMax:        domain.IntPtr(s.run.HPMax),
		CharacterID:  s.run.CharacterID,
		Policy:       s.policy.String(),
	})
	s.AddLog(fmt.Sprintf("Run %s started: %s / %s.", s.run.RunID, s.run.OriginPathID, s.run.RunPathID), LogInfo)
	return s.run.Clone(), nil
}

// EnterRoom открывает этаж. Из магазина можно уйти только на следующий этаж.
func (s *Session) EnterRoom(floor int) (domain.RoomKind, error) {
	if err := s.requireRun(); err != nil {
		return domain.RoomUnknown, err
	}
	expected := s.run.FloorIndex
	switch s.phase {
	case domain.PhaseMap:
	case domain.PhaseShop:
		expected++
	case domain.PhaseBattle:
		return domain.RoomUnknown, domain.ErrBattleInProgress
	default:
		return domain.RoomUnknown, fmt.Errorf("%w: cannot enter a room in phase %s", domain.ErrWrongRoom, s.phase)
	}
	if floor != expected {
		return domain.RoomUnknown, fmt.Errorf("%w: floor %d, expected %d", domain.ErrInvalidChoice, floor, expected)
	}

	if s.phase == domain.PhaseShop {
		s.gen.CompleteFloor(s.run)
		s.shop = nil
		if s.run.Finished() {
			s.phase = domain.PhaseFinished
			return domain.RoomUnknown, domain.ErrRunFinished
		}
	}

	kind := ascension.RoomKindFor(floor)
	s.roomKind = kind
	s.record(domain.EnterRoomPayload{FloorIndex: domain.IntPtr(floor), RoomKind: kind.String()})

	if kind == domain.RoomShop {
		s.shop = s.gen.OpenShop(s.run, floor)
		s.phase = domain.PhaseShop
	} else if offer := s.gen.RollBargain(s.run, floor, kind); offer != nil {
		s.bargain = offer
		s.phase = domain.PhaseBargain
	} else {
		s.phase = domain.PhaseRoom
	}

	s.logger.WithFields(logrus.Fields{
		"floor": floor,
		"room":  kind.String(),
		"phase": s.phase.String(),
	}).Debug("Room entered.")
	s.AddLog(fmt.Sprintf("Floor %d: %s.", floor+1, kind), LogInfo)
	return kind, nil
}

// --- СДЕЛКА ---

func (s *Session) PickBargain(index int) (domain.BargainOption, error) {
	if err := s.requirePhase(domain.PhaseBargain); err != nil {
		return domain.BargainOption{}, err
	}
	opt, err := s.gen.AcceptBargain(s.run, s.bargain, index)
	if err != nil {
		return domain.BargainOption{}, err
	}
	s.record(domain.BargainPickPayload{OptionIndex: domain.IntPtr(index), UpgradeID: domain.StrPtr(opt.UpgradeID)})
	s.bargain = nil
	s.phase = domain.PhaseRoom
	s.AddLog(fmt.Sprintf("Bargain struck: %s for %.0f%% max HP.", opt.UpgradeID, opt.HPCostPct), LogInfo)
	return opt, nil
}

func (s *Session) DeclineBargain() error {
	if err := s.requirePhase(domain.PhaseBargain); err != nil {
		return err
	}
	s.gen.DeclineBargain(s.run)
	s.record(domain.BargainPickPayload{OptionIndex: domain.IntPtr(-1), UpgradeID: domain.StrPtr("")})
	s.bargain = nil
	s.phase = domain.PhaseRoom
	return nil
}

// --- БОЙ ---

// StartBattle выбирает врага комнаты и поднимает бой с сидом этажа
func (s *Session) StartBattle() (*Battle, error) {
	if err := s.requireRun(); err != nil {
		return nil, err
	}
	if s.phase == domain.PhaseBattle {
		return nil, domain.ErrBattleInProgress
	}
	if s.phase != domain.PhaseRoom || !s.roomKind.HasBattle() {
		return nil, fmt.Errorf("%w: no battle in phase %s", domain.ErrWrongRoom, s.phase)
	}

	floor := s.run.FloorIndex
	def := s.gen.PickEnemy(s.run, s.roomKind)
	player := s.gen.BuildPlayer(s.run)
	enemy := s.gen.BuildEnemy(def, floor, s.roomKind)

	seed := ascension.BattleSeed(s.run.Seed, floor)
	b := NewBattle(s.forker.Fork(BattleStreamName, &seed), player, enemy, def.ID, def.Profile())
	b.Policy = s.policy
	s.battle = b
	s.phase = domain.PhaseBattle

	s.record(domain.BattleStartPayload{
		FloorIndex: domain.IntPtr(floor),
		EnemyID:    def.ID,
		BattleSeed: domain.U32Ptr(seed),
	})
	s.AddLog(fmt.Sprintf("%s blocks the way.", enemy.Name), LogCombat)
	return b, nil
}

// AdvanceBattle - один ход боя. На последнем ходу итог сразу уходит в ран.
func (s *Session) AdvanceBattle() ([]domain.TurnEvent, error) {
	if s.phase != domain.PhaseBattle || s.battle == nil {
		return nil, domain.ErrNoBattle
	}
	events := s.battle.Advance()
	if s.battle.Finished() {
		s.finishBattle()
	}
	return events, nil
}

// RunBattle доигрывает бой без пауз (автобой)
func (s *Session) RunBattle() (domain.Outcome, error) {
	return s.ReplayBattle(nil)
}

// ReplayBattle доигрывает бой, повторяя записанные приказы умения
func (s *Session) ReplayBattle(skillTurns []int) (domain.Outcome, error) {
	if s.phase != domain.PhaseBattle || s.battle == nil {
		return domain.OutcomeNone, domain.ErrNoBattle
	}
	outcome := s.battle.RunScripted(skillTurns)
	s.finishBattle()
	return outcome, nil
}

// QueueSkill - умение в ближайший ход игрока
func (s *Session) QueueSkill() error {
	if s.phase != domain.PhaseBattle || s.battle == nil {
		return domain.ErrNoBattle
	}
	s.battle.QueueSkill()
	return nil
}

func (s *Session) finishBattle() {
	b := s.battle
	s.gen.RecordBattle(s.run, s.roomKind, b.Outcome(), b.Player.Attrs.HP)
	s.record(domain.BattleEndPayload{
		Outcome:    b.Outcome().String(),
		Turns:      domain.IntPtr(b.Turn()),
		HPAfter:    domain.IntPtr(s.run.HPCurrent),
		SkillTurns: b.SkillTurns(),
	})
	s.AddLog(fmt.Sprintf("Battle %s in %d turns.", b.Outcome(), b.Turn()), LogCombat)

	switch {
	case s.run.Finished():
		s.phase = domain.PhaseFinished
	case s.run.FloorIndex+1 >= ascension.RunLength:
		s.gen.CompleteFloor(s.run)
		s.phase = domain.PhaseFinished
	default:
		offer := s.gen.GenerateDraft(s.run)
		s.draft = &offer
		s.phase = domain.PhaseDraft
	}
	if s.phase == domain.PhaseFinished {
		s.AddLog(fmt.Sprintf("Run over: %s on floor %d.", s.run.RunOutcome, s.run.FloorIndex+1), LogInfo)
	}
}

// --- ДРАФТ И МАГАЗИН ---

// PickDraft применяет выбор и закрывает этаж
func (s *Session) PickDraft(index int) (domain.DraftOption, error) {
	if err := s.requirePhase(domain.PhaseDraft); err != nil {
		return domain.DraftOption{}, err
	}
	opt, err := s.gen.PickDraft(s.run, s.draft, index, s.gen.HealPct(s.run))
	if err != nil {
		return domain.DraftOption{}, err
	}
	s.record(domain.DraftPickPayload{OptionIndex: domain.IntPtr(index), OptionID: opt.ID()})
	s.draft = nil
	s.gen.CompleteFloor(s.run)
	s.phase = domain.PhaseMap
	if s.run.Finished() {
		s.phase = domain.PhaseFinished
	}
	return opt, nil
}

func (s *Session) BuyEcho(index int) (domain.ShopOffer, error) {
	if err := s.requirePhase(domain.PhaseShop); err != nil {
		return domain.ShopOffer{}, err
	}
	offer, err := s.gen.BuyEcho(s.run, s.shop, index, s.gen.HealPct(s.run))
	if err != nil {
		return domain.ShopOffer{}, err
	}
	s.record(domain.ShopBuyPayload{OfferIndex: domain.IntPtr(index), EchoID: offer.ID()})
	return offer, nil
}

func (s *Session) UseService(index int) (domain.ShopService, error) {
	if err := s.requirePhase(domain.PhaseShop); err != nil {
		return domain.ShopService{}, err
	}
	svc, err := s.gen.UseService(s.run, s.shop, index, s.gen.HealPct(s.run))
	if err != nil {
		return domain.ShopService{}, err
	}
	s.record(domain.ServiceUsePayload{ServiceIndex: domain.IntPtr(index), ServiceID: svc.ID})
	return svc, nil
}

// --- СНАПШОТ ---

// Snapshot - самодостаточная копия сессии. Живой стейт не разделяется.
func (s *Session) Snapshot() (domain.RunSnapshot, error) {
	if s.run == nil {
		return domain.RunSnapshot{}, domain.ErrNoActiveRun
	}
	snap := domain.RunSnapshot{
		SnapshotVersion: domain.SnapshotVersion,
		Seed:            s.run.Seed,
		Phase:           s.phase,
		FloorIndex:      s.run.FloorIndex,
		RoomKind:        s.roomKind,
		Policy:          s.policy,
		PathLevels:      s.gen.PathLevels(s.run),
		Run:             *s.run.Clone(),
		Draft:           s.draft.Clone(),
		Shop:            s.shop.Clone(),
		Bargain:         s.bargain.Clone(),
		Events:          s.Events(),
	}
	if s.phase == domain.PhaseBattle && s.battle != nil {
		p, e, bs := s.battle.Player.Clone(), s.battle.Enemy.Clone(), s.battle.Snapshot()
		snap.Player, snap.Enemy, snap.Battle = &p, &e, &bs
	} else {
		p := s.gen.BuildPlayer(s.run)
		snap.Player = &p
	}
	return snap, nil
}

// Restore поднимает сессию из снапшота. Поток генератора выставляется по randomCounter,
// поток боя продолжается с сохраненного состояния. Политика умения берется из снапшота.
func (s *Session) Restore(snap domain.RunSnapshot) error {
	if snap.SnapshotVersion != domain.SnapshotVersion {
		return fmt.Errorf("%w: snapshot v%d, supported v%d", domain.ErrVersionMismatch, snap.SnapshotVersion, domain.SnapshotVersion)
	}
	if snap.Phase == domain.PhaseBattle && (snap.Battle == nil || snap.Player == nil || snap.Enemy == nil) {
		return fmt.Errorf("%w: battle phase without battle block", domain.ErrNoBattle)
	}

	s.Reset()
	s.forker.SetRoot(snap.Seed)
	stream := rng.Restore(rng.DeriveSeed(snap.Seed, ascension.StreamName), snap.Run.RandomCounter)
	s.forker.Adopt(ascension.StreamName, stream)
	s.gen.Attach(stream)

	s.run = snap.Run.Clone()
	s.policy = snap.Policy
	s.phase = snap.Phase
	s.roomKind = snap.RoomKind
	s.draft = snap.Draft.Clone()
	s.shop = snap.Shop.Clone()
	s.gen.CacheShop(s.shop)
	s.bargain = snap.Bargain.Clone()
	if snap.Phase == domain.PhaseBattle {
		s.battle = RestoreBattle(*snap.Battle, *snap.Player, *snap.Enemy)
	}
	s.events = append([]domain.ReplayEvent(nil), snap.Events...)

	s.logger.WithFields(logrus.Fields{
		"run_id": s.run.RunID,
		"phase":  s.phase.String(),
		"floor":  s.run.FloorIndex,
		"draws":  s.run.RandomCounter,
	}).Info("Session restored from snapshot.")
	return nil
}

// Reset забывает ран, ленту и кеши генератора
func (s *Session) Reset() {
	s.gen.Reset()
	s.phase = domain.PhaseIdle
	s.run = nil
	s.roomKind = domain.RoomUnknown
	s.battle = nil
	s.draft = nil
	s.shop = nil
	s.bargain = nil
	s.events = nil
}

// --- ДОСТУП ---

func (s *Session) Phase() domain.Phase { return s.phase }
func (s *Session) RoomKind() domain.RoomKind { return s.roomKind }
func (s *Session) Battle() *Battle { return s.battle }
func (s *Session) Diagnostics() *Diagnostics { return s.diag }
func (s *Session) Catalog() content.Catalog { return s.catalog }

// Run - копия стейта рана (nil, если рана нет)
func (s *Session) Run() *domain.AscensionRunState {
	if s.run == nil {
		return nil
	}
	return s.run.Clone()
}

func (s *Session) Draft() *domain.DraftOffer { return s.draft.Clone() }
func (s *Session) Shop() *domain.ShopInventory { return s.shop.Clone() }
func (s *Session) Bargain() *domain.BargainOffer { return s.bargain.Clone() }
func (s *Session) Policy() domain.SkillPolicy { return s.policy }
func (s *Session) SetPolicy(p domain.SkillPolicy) { s.policy = p }

// Events - копия ленты решений
func (s *Session) Events() []domain.ReplayEvent {
	return append([]domain.ReplayEvent(nil), s.events...)
}

// --- ВНУТРЕННЕЕ ---

func (s *Session) requireRun() error {
	if s.run == nil {
		return domain.ErrNoActiveRun
	}
	if s.run.Finished() {
		return domain.ErrRunFinished
	}
	return nil
}

func (s *Session) requirePhase(p domain.Phase) error {
	if err := s.requireRun(); err != nil {
		return err
	}
	if s.phase != p {
		return fmt.Errorf("%w: phase is %s, need %s", domain.ErrNoOffer, s.phase, p)
	}
	return nil
}

func (s *Session) record(p domain.ReplayPayload) {
	ev, err := domain.NewReplayEvent(p)
	if err != nil {
		s.logger.WithError(err).Error("Failed to record replay event")
		return
	}
	s.events = append(s.events, ev)
}

func (s *Session) checkPath(path string) {
	if !slices.Contains(content.Paths(s.catalog), path) {
		s.diag.Report(domain.Diagnostic{
			Kind:    "content",
			Message: (&domain.ContentError{Kind: "path", ID: path}).Error(),
			Fields:  map[string]any{"kind": "path", "id": path},
		})
	}
}
