package api

import (
	"encoding/json"
)

// --- СЕРВЕР -> КЛИЕНТ ---

// Типы сообщений сервера
const (
	ResponseUpdate     = "UPDATE"      // состояние сессии после команды
	ResponseBattleTurn = "BATTLE_TURN" // один ход боя (стрим по таймеру)
	ResponseSnapshot   = "SNAPSHOT"    // полный снапшот рана
	ResponseError      = "ERROR"       // команда отклонена, состояние не изменилось
)

// ServerResponse это корневой объект, который сервер отправляет клиенту.
type ServerResponse struct {
	// Type тип сообщения (UPDATE, BATTLE_TURN, SNAPSHOT, ERROR).
	Type string `json:"type"`

	// SessionID сессия, к которой относится сообщение. Клиент сохраняет его
	// и присылает как Token при переподключении.
	SessionID string `json:"sessionId"`

	// Phase текущая фаза рана (map, battle, draft...).
	Phase string `json:"phase,omitempty"`

	// Turn номер хода боя. Только для BATTLE_TURN.
	Turn int `json:"turn,omitempty"`

	// Data тело сообщения. Структура зависит от Type.
	Data any `json:"data,omitempty"`

	// Error текст ошибки для ERROR.
	Error string `json:"error,omitempty"`

	// Logs срез новых сообщений, сгенерированных с прошлого ответа.
	Logs []LogEntry `json:"logs,omitempty"`
}

// LogEntry представляет одну запись в игровом логе (чате).
type LogEntry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Type      string `json:"type"`      // INFO, COMBAT, ERROR
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// ErrorResponse - тело HTTP ошибки
type ErrorResponse struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations,omitempty"`
}

// --- КЛИЕНТ -> СЕРВЕР ---

// Действия клиента
const (
	ActionStartRun    = "START_RUN"
	ActionEnterRoom   = "ENTER_ROOM"
	ActionStartBattle = "START_BATTLE"
	ActionSkill       = "SKILL"
	ActionPickDraft   = "PICK_DRAFT"
	ActionBuyEcho     = "BUY_ECHO"
	ActionUseService  = "USE_SERVICE"
	ActionPickBargain = "PICK_BARGAIN"
	ActionSnapshot    = "SNAPSHOT"
)

// ClientCommand это корневой объект для всех сообщений от клиента к серверу.
type ClientCommand struct {
	// Token ID сессии. В первом сообщении (handshake) - для возобновления
	// существующей сессии; пусто - новая сессия.
	Token string `json:"token,omitempty"`

	// Action название действия, которое нужно выполнить.
	Action string `json:"action"`

	// Payload JSON-объект с данными для действия. Его структура зависит от Action.
	Payload json.RawMessage `json:"payload"`
}

// --- Payloads ---

// StartRunPayload используется для START_RUN.
type StartRunPayload struct {
	Seed         uint32 `json:"seed"` // 0 - сид сервера
	CharacterID  string `json:"characterId,omitempty"`
	OriginPathID string `json:"originPathId"`
	RunPathID    string `json:"runPathId"`
	HPMax        int    `json:"hpMax,omitempty"`
	Policy       string `json:"policy,omitempty"` // auto | attack-only
}

// FloorPayload используется для ENTER_ROOM.
type FloorPayload struct {
	Floor int `json:"floor"`
}

// IndexPayload используется для PICK_DRAFT, BUY_ECHO, USE_SERVICE.
type IndexPayload struct {
	Index int `json:"index"`
}

// BargainPayload используется для PICK_BARGAIN. Decline - отказ от сделки.
type BargainPayload struct {
	Index   int  `json:"index"`
	Decline bool `json:"decline,omitempty"`
}
