package replay

import (
	"ascension-server/internal/domain"
	"ascension-server/internal/engine"
	"ascension-server/pkg/rng"
	"fmt"
	"strconv"
)

func applyRunStart(r *Runner, index int, p domain.RunStartPayload) error {
	policy := domain.PolicyAuto
	if p.Policy != "" {
		policy, _ = domain.ParseSkillPolicy(p.Policy)
	}
	r.session.SetPolicy(policy)

	_, err := r.session.StartRun(engine.RunParams{
		RunID:        p.RunID,
		Seed:         rng.NormalizeSeed(*p.Seed),
		CharacterID:  p.CharacterID,
		OriginPathID: p.OriginPathID,
		RunPathID:    p.RunPathID,
		HPMax:        *p.HPMax,
	})
	return wrap(index, domain.ReplayRunStart, err)
}

func applyEnterRoom(r *Runner, index int, p domain.EnterRoomPayload) error {
	kind, err := r.session.EnterRoom(*p.FloorIndex)
	if err != nil {
		return wrap(index, domain.ReplayEnterRoom, err)
	}
	return expect(index, domain.ReplayEnterRoom, "roomKind", p.RoomKind, kind.String())
}

func applyDraftPick(r *Runner, index int, p domain.DraftPickPayload) error {
	idx := *p.OptionIndex
	if offer := r.session.Draft(); offer != nil {
		actual := ""
		if idx < len(offer.Options) {
			actual = offer.Options[idx].ID()
		}
		if err := expect(index, domain.ReplayDraftPick, "optionId", p.OptionID, actual); err != nil {
			return err
		}
	}
	_, err := r.session.PickDraft(idx)
	return wrap(index, domain.ReplayDraftPick, err)
}

func applyShopBuy(r *Runner, index int, p domain.ShopBuyPayload) error {
	idx := *p.OfferIndex
	if shop := r.session.Shop(); shop != nil {
		actual := ""
		if idx < len(shop.Offers) {
			actual = shop.Offers[idx].ID()
		}
		if err := expect(index, domain.ReplayShopBuy, "echoId", p.EchoID, actual); err != nil {
			return err
		}
	}
	_, err := r.session.BuyEcho(idx)
	return wrap(index, domain.ReplayShopBuy, err)
}

func applyServiceUse(r *Runner, index int, p domain.ServiceUsePayload) error {
	idx := *p.ServiceIndex
	if shop := r.session.Shop(); shop != nil {
		actual := ""
		if idx < len(shop.Services) {
			actual = shop.Services[idx].ID
		}
		if err := expect(index, domain.ReplayServiceUse, "serviceId", p.ServiceID, actual); err != nil {
			return err
		}
	}
	_, err := r.session.UseService(idx)
	return wrap(index, domain.ReplayServiceUse, err)
}

// applyBargainPick: индекс -1 - отказ от сделки
func applyBargainPick(r *Runner, index int, p domain.BargainPickPayload) error {
	idx := *p.OptionIndex
	if idx < 0 {
		return wrap(index, domain.ReplayBargainPick, r.session.DeclineBargain())
	}
	if offer := r.session.Bargain(); offer != nil {
		actual := ""
		if idx < len(offer.Options) {
			actual = offer.Options[idx].UpgradeID
		}
		if err := expect(index, domain.ReplayBargainPick, "upgradeId", *p.UpgradeID, actual); err != nil {
			return err
		}
	}
	_, err := r.session.PickBargain(idx)
	return wrap(index, domain.ReplayBargainPick, err)
}

func applyBattleStart(r *Runner, index int, p domain.BattleStartPayload) error {
	b, err := r.session.StartBattle()
	if err != nil {
		return wrap(index, domain.ReplayBattleStart, err)
	}
	if err := expect(index, domain.ReplayBattleStart, "enemyId", p.EnemyID, b.EnemyID); err != nil {
		return err
	}
	return expect(index, domain.ReplayBattleStart, "battleSeed", fmtSeed(*p.BattleSeed), fmtSeed(b.Seed))
}

// applyBattleEnd доигрывает бой без пауз, повторяя приказы умения, и сверяет итог
func applyBattleEnd(r *Runner, index int, p domain.BattleEndPayload) error {
	outcome, err := r.session.ReplayBattle(p.SkillTurns)
	if err != nil {
		return wrap(index, domain.ReplayBattleEnd, err)
	}
	if err := expect(index, domain.ReplayBattleEnd, "outcome", p.Outcome, outcome.String()); err != nil {
		return err
	}
	turns := r.session.Battle().Turn()
	if err := expect(index, domain.ReplayBattleEnd, "turns", strconv.Itoa(*p.Turns), strconv.Itoa(turns)); err != nil {
		return err
	}
	hp := r.session.Run().HPCurrent
	return expect(index, domain.ReplayBattleEnd, "hpAfter", strconv.Itoa(*p.HPAfter), strconv.Itoa(hp))
}

// expect - записанное значение должно совпасть с перегенерированным
func expect(index int, t domain.ReplayEventType, field, expected, actual string) error {
	if expected == actual {
		return nil
	}
	return &domain.DeterminismError{
		EventIndex: index,
		EventType:  t.String(),
		Field:      field,
		Expected:   expected,
		Actual:     actual,
	}
}

func wrap(index int, t domain.ReplayEventType, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("event #%d (%s): %w", index, t, err)
}

func fmtSeed(v uint32) string { return strconv.FormatUint(uint64(v), 10) }
