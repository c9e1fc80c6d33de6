package domain

import "strings"

// RoomKind - тип этажа
type RoomKind uint8

const (
	RoomUnknown RoomKind = iota
	RoomBattle
	RoomElite
	RoomChallenge
	RoomShop
	RoomBoss
)

var roomStringTo = map[string]RoomKind{
	"battle":    RoomBattle,
	"elite":     RoomElite,
	"challenge": RoomChallenge,
	"shop":      RoomShop,
	"boss":      RoomBoss,
}

var roomToString = map[RoomKind]string{
	RoomBattle:    "battle",
	RoomElite:     "elite",
	RoomChallenge: "challenge",
	RoomShop:      "shop",
	RoomBoss:      "boss",
}

// ParseRoomKind конвертирует строку в RoomKind
func ParseRoomKind(s string) RoomKind {
	if v, ok := roomStringTo[strings.ToLower(s)]; ok {
		return v
	}
	return RoomUnknown
}

func (r RoomKind) String() string {
	if v, ok := roomToString[r]; ok {
		return v
	}
	return "unknown"
}

// HasBattle - на этаже есть бой
func (r RoomKind) HasBattle() bool {
	return r == RoomBattle || r == RoomElite || r == RoomChallenge || r == RoomBoss
}

func (r RoomKind) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *RoomKind) UnmarshalText(b []byte) error {
	v := ParseRoomKind(string(b))
	if v == RoomUnknown {
		return &EnumError{Enum: "room kind", Value: string(b)}
	}
	*r = v
	return nil
}

// Rarity - редкость эха, от нее зависит цена в магазине
type Rarity string

const (
	RarityCommon Rarity = "common"
	RarityRare   Rarity = "rare"
	RarityEpic   Rarity = "epic"
)

// Valid - известная редкость
func (r Rarity) Valid() bool {
	return r == RarityCommon || r == RarityRare || r == RarityEpic
}

// DraftHistoryEntry - сколько вариантов каждого пути было в предложении
type DraftHistoryEntry struct {
	OriginOptions int `json:"originOptions"`
	RunOptions    int `json:"runOptions"`
}

// DraftHistoryLen - размер кольцевого буфера истории драфта
const DraftHistoryLen = 2

// DraftHistory - последние два предложения драфта (старое первым)
type DraftHistory []DraftHistoryEntry

// Push добавляет запись, выталкивая самую старую
func (h DraftHistory) Push(e DraftHistoryEntry) DraftHistory {
	h = append(h, e)
	if len(h) > DraftHistoryLen {
		h = append(DraftHistory(nil), h[len(h)-DraftHistoryLen:]...)
	}
	return h
}

// Full - в буфере уже две записи
func (h DraftHistory) Full() bool { return len(h) >= DraftHistoryLen }

// ActiveUpgrade - модификатор рана. RemainingBattles = -1 - навсегда.
type ActiveUpgrade struct {
	ID               string  `json:"id"`
	Stat             string  `json:"stat"`
	Amount           float64 `json:"amount"`
	RemainingBattles int     `json:"remainingBattles"`
}

// Permanent - апгрейд без срока
func (u ActiveUpgrade) Permanent() bool { return u.RemainingBattles < 0 }

// RunOutcome - итог рана
type RunOutcome string

const (
	RunOutcomeVictory RunOutcome = "victory"
	RunOutcomeDefeat  RunOutcome = "defeat"
)

// AscensionRunState - состояние рана. Создается один раз (createNewRun) и мутируется на месте.
// OriginEchoCount/RunEchoCount - кеш, пересчитываемый из PickedEchoIDs после каждой мутации.
type AscensionRunState struct {
	RunID         string `json:"runId"`
	Seed          uint32 `json:"seed"`
	RandomCounter uint64 `json:"randomCounter"`
	FloorIndex    int    `json:"floorIndex"`
	OriginPathID  string `json:"originPathId"`
	RunPathID     string `json:"runPathId"`
	CharacterID   string `json:"characterId,omitempty"`
	HPCurrent     int    `json:"hpCurrent"`
	HPMax         int    `json:"hpMax"`

	EchoFragments   int      `json:"echoFragments"`
	PickedEchoIDs   []string `json:"pickedEchoIds"`
	OriginEchoCount int      `json:"originEchoCount"`
	RunEchoCount    int      `json:"runEchoCount"`

	ResonanceActive     bool     `json:"resonanceActive"`
	ResonanceID         string   `json:"resonanceId,omitempty"`
	ResonanceTier       int      `json:"resonanceTier"`
	ResonanceUpgradeIDs []string `json:"resonanceUpgradeIds"`

	BargainPending           bool `json:"bargainPending"`
	BargainWindow            int  `json:"bargainWindow"`
	BargainsTaken            int  `json:"bargainsTaken"`
	BargainTakenForResonance bool `json:"bargainTakenForResonance"`
	LastBargainFloor         *int `json:"lastBargainFloor,omitempty"`

	ShopVisited  bool            `json:"shopVisited"`
	DraftHistory DraftHistory    `json:"draftHistory"`
	Upgrades     []ActiveUpgrade `json:"upgrades"`
	RunOutcome   RunOutcome      `json:"runOutcome,omitempty"`
}

// HasPicked - эхо уже взято
func (s *AscensionRunState) HasPicked(echoID string) bool {
	for _, id := range s.PickedEchoIDs {
		if id == echoID {
			return true
		}
	}
	return false
}

// HasResonanceUpgrade - апгрейд резонанса уже взят
func (s *AscensionRunState) HasResonanceUpgrade(id string) bool {
	for _, u := range s.ResonanceUpgradeIDs {
		if u == id {
			return true
		}
	}
	return false
}

// Finished - ран завершен
func (s *AscensionRunState) Finished() bool { return s.RunOutcome != "" }

// --- ПРЕДЛОЖЕНИЯ (драфт / магазин / сделка) ---

// OptionKind - вариант предложения: эхо или отдых
type OptionKind string

const (
	OptionEcho OptionKind = "echo"
	OptionRest OptionKind = "rest"
)

// RestOptionID - id варианта "Отдых"
const RestOptionID = "rest"

// DraftOption - один из трех вариантов драфта
type DraftOption struct {
	Kind   OptionKind `json:"kind"`
	EchoID string     `json:"echoId,omitempty"`
	PathID string     `json:"pathId,omitempty"`
	Rarity Rarity     `json:"rarity,omitempty"`
}

// ID - идентификатор варианта, который пишется в реплей
func (o DraftOption) ID() string {
	if o.Kind == OptionRest {
		return RestOptionID
	}
	return o.EchoID
}

// DraftOffer - предложение драфта на этаже
type DraftOffer struct {
	Floor   int           `json:"floor"`
	Options []DraftOption `json:"options"`
}

// ShopOffer - эхо на витрине
type ShopOffer struct {
	DraftOption
	Price int  `json:"price"`
	Sold  bool `json:"sold"`
}

// ServiceKind - тип услуги магазина
type ServiceKind string

const (
	ServiceHeal ServiceKind = "heal"
	ServiceBuff ServiceKind = "buff"
)

// ShopService - услуга (лечение или временный бафф)
type ShopService struct {
	ID       string      `json:"id"`
	Kind     ServiceKind `json:"kind"`
	Price    int         `json:"price"`
	Stat     string      `json:"stat,omitempty"`
	Amount   float64     `json:"amount"`
	Duration int         `json:"duration,omitempty"`
	Used     bool        `json:"used"`
}

// ShopInventory - витрина одного посещения магазина
type ShopInventory struct {
	Floor       int           `json:"floor"`
	Offers      []ShopOffer   `json:"offers"`
	Services    []ShopService `json:"services"`
	EchoBought  bool          `json:"echoBought"`
	HealBought  bool          `json:"healBought"`
	BuffsBought int           `json:"buffsBought"`
}

// BargainOption - вариант сделки: апгрейд резонанса за процент макс. HP
type BargainOption struct {
	UpgradeID string  `json:"upgradeId"`
	Stat      string  `json:"stat"`
	Amount    float64 `json:"amount"`
	HPCostPct float64 `json:"hpCostPct"`
}

// BargainOffer - сделка на этаже
type BargainOffer struct {
	Floor   int             `json:"floor"`
	Options []BargainOption `json:"options"`
}

// --- КОПИИ ---
// Снапшот не должен делить слайсы с живым стейтом

// Clone - глубокая копия стейта рана
func (s *AscensionRunState) Clone() *AscensionRunState {
	c := *s
	c.PickedEchoIDs = cloneSlice(s.PickedEchoIDs)
	c.ResonanceUpgradeIDs = cloneSlice(s.ResonanceUpgradeIDs)
	c.DraftHistory = cloneSlice(s.DraftHistory)
	c.Upgrades = cloneSlice(s.Upgrades)
	if s.LastBargainFloor != nil {
		c.LastBargainFloor = IntPtr(*s.LastBargainFloor)
	}
	return &c
}

// Clone - копия предложения драфта
func (o *DraftOffer) Clone() *DraftOffer {
	if o == nil {
		return nil
	}
	c := *o
	c.Options = cloneSlice(o.Options)
	return &c
}

// Clone - копия витрины
func (inv *ShopInventory) Clone() *ShopInventory {
	if inv == nil {
		return nil
	}
	c := *inv
	c.Offers = cloneSlice(inv.Offers)
	c.Services = cloneSlice(inv.Services)
	return &c
}

// Clone - копия сделки
func (o *BargainOffer) Clone() *BargainOffer {
	if o == nil {
		return nil
	}
	c := *o
	c.Options = cloneSlice(o.Options)
	return &c
}

func cloneSlice[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}
	return append(S(make([]E, 0, len(s))), s...)
}
