package agent

import (
	"ascension-server/internal/domain"
	"ascension-server/internal/engine"
	"ascension-server/pkg/logger"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultMaxSteps - предохранитель от зацикливания: решений + ходов боя на один ран
const DefaultMaxSteps = 50000

// ErrStepLimit - бот не довел ран до конца за MaxSteps
var ErrStepLimit = errors.New("bot step limit reached")

// Bot представляет собой "Игрока-компьютера" (Headless Agent).
// Он играет ран теми же вызовами сессии, что и websocket клиент,
// поэтому его лента решений - обычный реплей, который проверяется раннером.
//
// Решения простые и детерминированные (никакого случая):
//   - сделка: берем самую дешевую по HP, если здоровья больше HealthyPct, иначе отказ;
//   - бой: при PolicyAttackOnly умение приказывается, как только готово;
//   - драфт: при низком HP - отдых, иначе эхо пути забега, пока резонанс не открыт;
//   - магазин: лечение при низком HP, затем первое доступное эхо.
type Bot struct {
	Session  *engine.Session
	MaxSteps int

	// LowHPPct - ниже этой доли HP бот лечится / отдыхает
	LowHPPct float64
	// HealthyPct - выше этой доли HP бот соглашается на сделку
	HealthyPct float64

	steps  int
	logger *logrus.Entry
}

func NewBot(s *engine.Session) *Bot {
	return &Bot{
		Session:    s,
		MaxSteps:   DefaultMaxSteps,
		LowHPPct:   0.4,
		HealthyPct: 0.6,
		logger:     logger.Component("bot").WithField("session_id", s.ID),
	}
}

// Play начинает ран и играет его до конца. Возвращает итог рана.
func (b *Bot) Play(p engine.RunParams) (domain.RunOutcome, error) {
	if _, err := b.Session.StartRun(p); err != nil {
		return "", err
	}
	b.steps = 0

	for b.Session.Phase() != domain.PhaseFinished {
		if b.steps >= b.MaxSteps {
			return "", fmt.Errorf("%w: %d", ErrStepLimit, b.MaxSteps)
		}
		b.steps++
		if err := b.step(); err != nil {
			if errors.Is(err, domain.ErrRunFinished) {
				break
			}
			return "", fmt.Errorf("phase %s: %w", b.Session.Phase(), err)
		}
	}

	run := b.Session.Run()
	b.logger.WithFields(logrus.Fields{
		"run_id":  run.RunID,
		"outcome": string(run.RunOutcome),
		"floor":   run.FloorIndex,
		"steps":   b.steps,
		"echoes":  len(run.PickedEchoIDs),
	}).Info("Bot finished run.")
	return run.RunOutcome, nil
}

// Steps - сколько шагов сделал бот в последнем ране
func (b *Bot) Steps() int { return b.steps }

// step - одно решение в текущей фазе
func (b *Bot) step() error {
	s := b.Session
	switch s.Phase() {
	case domain.PhaseMap:
		_, err := s.EnterRoom(s.Run().FloorIndex)
		return err

	case domain.PhaseBargain:
		return b.bargain()

	case domain.PhaseRoom:
		_, err := s.StartBattle()
		return err

	case domain.PhaseBattle:
		if s.Policy() == domain.PolicyAttackOnly && s.Battle().SkillReady() {
			if err := s.QueueSkill(); err != nil {
				return err
			}
		}
		_, err := s.AdvanceBattle()
		return err

	case domain.PhaseDraft:
		_, err := s.PickDraft(b.chooseDraft())
		return err

	case domain.PhaseShop:
		b.shop()
		_, err := s.EnterRoom(s.Run().FloorIndex + 1)
		return err
	}
	return fmt.Errorf("%w: bot cannot act in phase %s", domain.ErrWrongRoom, s.Phase())
}

func (b *Bot) bargain() error {
	s := b.Session
	offer := s.Bargain()
	run := s.Run()
	if offer == nil || len(offer.Options) == 0 || b.hpShare(run) < b.HealthyPct {
		return s.DeclineBargain()
	}
	best := 0
	for i, opt := range offer.Options {
		if opt.HPCostPct < offer.Options[best].HPCostPct {
			best = i
		}
	}
	_, err := s.PickBargain(best)
	return err
}

func (b *Bot) chooseDraft() int {
	s := b.Session
	offer := s.Draft()
	run := s.Run()
	if offer == nil || len(offer.Options) == 0 {
		return 0
	}

	lowHP := b.hpShare(run) < b.LowHPPct
	firstEcho, runPath := -1, -1
	for i, opt := range offer.Options {
		if opt.Kind == domain.OptionRest {
			if lowHP {
				return i
			}
			continue
		}
		if firstEcho < 0 {
			firstEcho = i
		}
		if runPath < 0 && opt.PathID == run.RunPathID {
			runPath = i
		}
	}
	if runPath >= 0 && !run.ResonanceActive {
		return runPath
	}
	if firstEcho >= 0 {
		return firstEcho
	}
	return 0
}

// shop - покупки за визит. Отказы магазина (не хватило осколков, лимит) не ошибка.
func (b *Bot) shop() {
	s := b.Session
	inv := s.Shop()
	if inv == nil {
		return
	}
	if b.hpShare(s.Run()) < b.LowHPPct {
		for i, svc := range inv.Services {
			if svc.Kind == domain.ServiceHeal && !svc.Used {
				if _, err := s.UseService(i); err == nil {
					break
				}
			}
		}
	}
	for i, offer := range inv.Offers {
		if offer.Sold || offer.Kind == domain.OptionRest {
			continue
		}
		if _, err := s.BuyEcho(i); err == nil {
			return
		}
	}
}

func (b *Bot) hpShare(run *domain.AscensionRunState) float64 {
	if run == nil || run.HPMax <= 0 {
		return 0
	}
	return float64(run.HPCurrent) / float64(run.HPMax)
}
