package replay

import (
	"ascension-server/internal/domain"
	"ascension-server/pkg/api"
	"encoding/json"
	"errors"
	"fmt"
)

// stepFunc применяет одно событие ленты к сессии раннера
type stepFunc func(r *Runner, index int, raw json.RawMessage) error

// typedStepFunc - "чистый" обработчик, который работает с готовым payload
type typedStepFunc[T domain.ReplayPayload] func(r *Runner, index int, payload T) error

// withPayload берет на себя Unmarshal и Validate, затем зовет обработчик
func withPayload[T domain.ReplayPayload](handler typedStepFunc[T]) stepFunc {
	return func(r *Runner, index int, raw json.RawMessage) error {
		payload, err := decode[T](raw)
		if err != nil {
			return domain.NewSchemaError(prefixed(index, payload.EventType(), err))
		}
		return handler(r, index, payload)
	}
}

// decode распаковывает payload и, если тип умеет, проверяет его схему
func decode[T domain.ReplayPayload](raw json.RawMessage) (T, error) {
	var payload T
	if len(raw) == 0 {
		return payload, errors.New("payload is required")
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("invalid payload format: %w", err)
	}
	if v, ok := any(payload).(api.Validator); ok {
		if err := v.Validate(); err != nil {
			return payload, err
		}
	}
	return payload, nil
}

func check[T domain.ReplayPayload](raw json.RawMessage) error {
	_, err := decode[T](raw)
	return err
}

// checks - проверка схемы по типу события
var checks = map[domain.ReplayEventType]func(json.RawMessage) error{
	domain.ReplayRunStart:    check[domain.RunStartPayload],
	domain.ReplayEnterRoom:   check[domain.EnterRoomPayload],
	domain.ReplayDraftPick:   check[domain.DraftPickPayload],
	domain.ReplayShopBuy:     check[domain.ShopBuyPayload],
	domain.ReplayServiceUse:  check[domain.ServiceUsePayload],
	domain.ReplayBargainPick: check[domain.BargainPickPayload],
	domain.ReplayBattleStart: check[domain.BattleStartPayload],
	domain.ReplayBattleEnd:   check[domain.BattleEndPayload],
}

// steps - обработчики событий после runStart
var steps = map[domain.ReplayEventType]stepFunc{
	domain.ReplayEnterRoom:   withPayload(applyEnterRoom),
	domain.ReplayDraftPick:   withPayload(applyDraftPick),
	domain.ReplayShopBuy:     withPayload(applyShopBuy),
	domain.ReplayServiceUse:  withPayload(applyServiceUse),
	domain.ReplayBargainPick: withPayload(applyBargainPick),
	domain.ReplayBattleStart: withPayload(applyBattleStart),
	domain.ReplayBattleEnd:   withPayload(applyBattleEnd),
}
