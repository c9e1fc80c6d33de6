package server

import (
	"ascension-server/internal/domain"
	"ascension-server/internal/engine"
)

// SessionView - то, что клиент видит после каждой команды
type SessionView struct {
	Phase    string                    `json:"phase"`
	RoomKind string                    `json:"roomKind,omitempty"`
	Run      *domain.AscensionRunState `json:"run,omitempty"`
	Battle   *BattleView               `json:"battle,omitempty"`
	Draft    *domain.DraftOffer        `json:"draft,omitempty"`
	Shop     *domain.ShopInventory     `json:"shop,omitempty"`
	Bargain  *domain.BargainOffer      `json:"bargain,omitempty"`
}

// BattleView - состояние боя для отрисовки
type BattleView struct {
	Turn       int              `json:"turn"`
	NextActor  domain.Side      `json:"nextActor"`
	Outcome    domain.Outcome   `json:"outcome"`
	SkillReady bool             `json:"skillReady"`
	Player     domain.Combatant `json:"player"`
	Enemy      domain.Combatant `json:"enemy"`
}

// buildView собирает DTO из сессии. Вызывать под mu сессии.
func buildView(s *engine.Session) SessionView {
	v := SessionView{
		Phase:   s.Phase().String(),
		Run:     s.Run(),
		Draft:   s.Draft(),
		Shop:    s.Shop(),
		Bargain: s.Bargain(),
	}
	if k := s.RoomKind(); k != domain.RoomUnknown {
		v.RoomKind = k.String()
	}
	if b := s.Battle(); b != nil && s.Phase() == domain.PhaseBattle {
		v.Battle = &BattleView{
			Turn:       b.Turn(),
			NextActor:  b.NextActor(),
			Outcome:    b.Outcome(),
			SkillReady: b.SkillReady(),
			Player:     b.Player.Clone(),
			Enemy:      b.Enemy.Clone(),
		}
	}
	return v
}
