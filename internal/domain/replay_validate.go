package domain

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Проверки схемы payload'ов. Каждая собирает все нарушения, а не первое.

func required(field string) error { return fmt.Errorf("%s is required", field) }

func checkIndex(field string, v *int) error {
	switch {
	case v == nil:
		return required(field)
	case *v < 0:
		return fmt.Errorf("%s must be >= 0, got %d", field, *v)
	}
	return nil
}

func checkID(field, v string) error {
	if v == "" {
		return required(field)
	}
	return nil
}

func (p RunStartPayload) Validate() error {
	var err error
	err = multierr.Append(err, checkID("runId", p.RunID))
	if p.Seed == nil {
		err = multierr.Append(err, required("seed"))
	}
	err = multierr.Append(err, checkID("originPathId", p.OriginPathID))
	err = multierr.Append(err, checkID("runPathId", p.RunPathID))
	if p.HPMax == nil {
		err = multierr.Append(err, required("hpMax"))
	}
	if p.Policy != "" {
		if _, ok := ParseSkillPolicy(p.Policy); !ok {
			err = multierr.Append(err, &EnumError{Enum: "skill policy", Value: p.Policy})
		}
	}
	return err
}

func (p EnterRoomPayload) Validate() error {
	err := checkIndex("floorIndex", p.FloorIndex)
	if p.RoomKind == "" {
		err = multierr.Append(err, required("roomKind"))
	} else if ParseRoomKind(p.RoomKind) == RoomUnknown {
		err = multierr.Append(err, &EnumError{Enum: "room kind", Value: p.RoomKind})
	}
	return err
}

func (p DraftPickPayload) Validate() error {
	return multierr.Combine(
		checkIndex("optionIndex", p.OptionIndex),
		checkID("optionId", p.OptionID),
	)
}

func (p ShopBuyPayload) Validate() error {
	return multierr.Combine(
		checkIndex("offerIndex", p.OfferIndex),
		checkID("echoId", p.EchoID),
	)
}

func (p ServiceUsePayload) Validate() error {
	return multierr.Combine(
		checkIndex("serviceIndex", p.ServiceIndex),
		checkID("serviceId", p.ServiceID),
	)
}

// Validate: индекс -1 с пустым id - отказ, иначе нужен и индекс, и id
func (p BargainPickPayload) Validate() error {
	var err error
	if p.OptionIndex == nil {
		err = multierr.Append(err, required("optionIndex"))
	}
	if p.UpgradeID == nil {
		err = multierr.Append(err, required("upgradeId"))
	}
	if err != nil {
		return err
	}
	idx, id := *p.OptionIndex, *p.UpgradeID
	switch {
	case idx < -1:
		err = fmt.Errorf("optionIndex must be >= -1, got %d", idx)
	case idx == -1 && id != "":
		err = errors.New("declined bargain must have an empty upgradeId")
	case idx >= 0 && id == "":
		err = required("upgradeId")
	}
	return err
}

func (p BattleStartPayload) Validate() error {
	err := multierr.Combine(
		checkIndex("floorIndex", p.FloorIndex),
		checkID("enemyId", p.EnemyID),
	)
	if p.BattleSeed == nil {
		err = multierr.Append(err, required("battleSeed"))
	}
	return err
}

func (p BattleEndPayload) Validate() error {
	var err error
	if o, ok := ParseOutcome(p.Outcome); !ok || o == OutcomeNone {
		err = multierr.Append(err, &EnumError{Enum: "outcome", Value: p.Outcome})
	}
	err = multierr.Append(err, checkIndex("turns", p.Turns))
	err = multierr.Append(err, checkIndex("hpAfter", p.HPAfter))
	for i, turn := range p.SkillTurns {
		if turn < 0 || (i > 0 && turn < p.SkillTurns[i-1]) {
			err = multierr.Append(err, fmt.Errorf("skillTurns must be ascending and >= 0, got %v", p.SkillTurns))
			break
		}
	}
	return err
}
