package domain

// ReplayEventType - внутренний числовой идентификатор решения игрока в реплее
type ReplayEventType uint8

const (
	ReplayUnknown ReplayEventType = iota
	ReplayRunStart
	ReplayEnterRoom
	ReplayDraftPick
	ReplayShopBuy
	ReplayBargainPick
	ReplayServiceUse
	ReplayBattleStart
	ReplayBattleEnd
)

// Маппинг для конвертации JSON -> Domain. Регистр значим: это формат файла.
var replayStringToType = map[string]ReplayEventType{
	"runStart":    ReplayRunStart,
	"enterRoom":   ReplayEnterRoom,
	"draftPick":   ReplayDraftPick,
	"shopBuy":     ReplayShopBuy,
	"bargainPick": ReplayBargainPick,
	"serviceUse":  ReplayServiceUse,
	"battleStart": ReplayBattleStart,
	"battleEnd":   ReplayBattleEnd,
}

// Маппинг для логов Domain -> String
var replayTypeToString = map[ReplayEventType]string{
	ReplayRunStart:    "runStart",
	ReplayEnterRoom:   "enterRoom",
	ReplayDraftPick:   "draftPick",
	ReplayShopBuy:     "shopBuy",
	ReplayBargainPick: "bargainPick",
	ReplayServiceUse:  "serviceUse",
	ReplayBattleStart: "battleStart",
	ReplayBattleEnd:   "battleEnd",
}

// ParseReplayEventType конвертирует строку из JSON в ReplayEventType
func ParseReplayEventType(s string) ReplayEventType {
	if val, ok := replayStringToType[s]; ok {
		return val
	}
	return ReplayUnknown
}

// String реализует интерфейс Stringer (для fmt.Printf)
func (t ReplayEventType) String() string {
	if val, ok := replayTypeToString[t]; ok {
		return val
	}
	return "unknown"
}
