package domain

import (
	"encoding/json"
	"fmt"
)

// ReplayVersion - версия формата событий, которую понимает раннер
const ReplayVersion = 1

// ReplayEvent - запись одного решения игрока: {v, t, payload}
type ReplayEvent struct {
	V       int             `json:"v"`
	T       string          `json:"t"`
	Payload json.RawMessage `json:"payload"`
}

// Type - распарсенный тип события
func (e ReplayEvent) Type() ReplayEventType {
	return ParseReplayEventType(e.T)
}

// ReplayPayload - типизированное тело события
type ReplayPayload interface {
	EventType() ReplayEventType
}

// NewReplayEvent упаковывает payload в событие текущей версии
func NewReplayEvent(p ReplayPayload) (ReplayEvent, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return ReplayEvent{}, fmt.Errorf("marshal %s payload: %w", p.EventType(), err)
	}
	return ReplayEvent{V: ReplayVersion, T: p.EventType().String(), Payload: raw}, nil
}

// --- Payloads ---
// Указатели нужны, чтобы отличать "поле отсутствует" от нулевого значения при валидации.

// RunStartPayload - начало рана
type RunStartPayload struct {
	RunID        string   `json:"runId"`
	Seed         *float64 `json:"seed"`
	OriginPathID string   `json:"originPathId"`
	RunPathID    string   `json:"runPathId"`
	HPMax        *int     `json:"hpMax"`
	CharacterID  string   `json:"characterId,omitempty"`
	Policy       string   `json:"policy,omitempty"`
}

func (RunStartPayload) EventType() ReplayEventType { return ReplayRunStart }

// EnterRoomPayload - вход на этаж
type EnterRoomPayload struct {
	FloorIndex *int   `json:"floorIndex"`
	RoomKind   string `json:"roomKind"`
}

func (EnterRoomPayload) EventType() ReplayEventType { return ReplayEnterRoom }

// DraftPickPayload - выбор в драфте (optionId = id эха или "rest")
type DraftPickPayload struct {
	OptionIndex *int   `json:"optionIndex"`
	OptionID    string `json:"optionId"`
}

func (DraftPickPayload) EventType() ReplayEventType { return ReplayDraftPick }

// ShopBuyPayload - покупка эха в магазине
type ShopBuyPayload struct {
	OfferIndex *int   `json:"offerIndex"`
	EchoID     string `json:"echoId"`
}

func (ShopBuyPayload) EventType() ReplayEventType { return ReplayShopBuy }

// ServiceUsePayload - покупка услуги магазина
type ServiceUsePayload struct {
	ServiceIndex *int   `json:"serviceIndex"`
	ServiceID    string `json:"serviceId"`
}

func (ServiceUsePayload) EventType() ReplayEventType { return ReplayServiceUse }

// BargainPickPayload - выбор в сделке. Пустой upgradeId - отказ.
type BargainPickPayload struct {
	OptionIndex *int    `json:"optionIndex"`
	UpgradeID   *string `json:"upgradeId"`
}

func (BargainPickPayload) EventType() ReplayEventType { return ReplayBargainPick }

// BattleStartPayload - начало боя на этаже
type BattleStartPayload struct {
	FloorIndex *int    `json:"floorIndex"`
	EnemyID    string  `json:"enemyId"`
	BattleSeed *uint32 `json:"battleSeed"`
}

func (BattleStartPayload) EventType() ReplayEventType { return ReplayBattleStart }

// BattleEndPayload - итог боя. SkillTurns - ходы, на которых игрок приказал применить умение.
type BattleEndPayload struct {
	Outcome    string `json:"outcome"`
	Turns      *int   `json:"turns"`
	HPAfter    *int   `json:"hpAfter"`
	SkillTurns []int  `json:"skillTurns,omitempty"`
}

func (BattleEndPayload) EventType() ReplayEventType { return ReplayBattleEnd }

// IntPtr / StrPtr / F64Ptr / U32Ptr - хелперы для сборки payload'ов
func IntPtr(v int) *int { return &v }
func StrPtr(v string) *string { return &v }
func F64Ptr(v float64) *float64 { return &v }
func U32Ptr(v uint32) *uint32 { return &v }
