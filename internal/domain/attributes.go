package domain

import "math"

// Sanitize чинит битые значения из каталога или сейва.
// Отрицательные статы -> 0, NaN/Inf -> 0, текущие значения зажимаются в [0, max].
// Возвращает true, если что-то пришлось поправить.
func (a *Attributes) Sanitize() bool {
	fixed := false

	fixF := func(v *float64) {
		if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
			*v = 0
			fixed = true
		}
	}
	fixI := func(v *int) {
		if *v < 0 {
			*v = 0
			fixed = true
		}
	}

	fixI(&a.MaxHP)
	fixI(&a.MaxPosture)
	fixI(&a.MaxEnergy)
	fixI(&a.BonusHits)
	fixF(&a.Attack)
	fixF(&a.Defense)
	fixF(&a.CritChance)
	fixF(&a.CritDamage)
	fixF(&a.MultiHitChance)
	fixF(&a.DotChance)
	fixF(&a.Penetration)
	fixF(&a.DamagePct)
	fixF(&a.DamageReductionPct)
	fixF(&a.HealPct)
	fixF(&a.PostureDamagePct)
	fixF(&a.EnergyRegenPct)

	if a.MaxHP < 1 {
		a.MaxHP = 1
		fixed = true
	}

	before := [3]int{a.HP, a.Posture, a.Energy}
	a.HP = clampInt(a.HP, 0, a.MaxHP)
	a.Posture = clampInt(a.Posture, 0, a.MaxPosture)
	a.Energy = clampInt(a.Energy, 0, a.MaxEnergy)
	if before != [3]int{a.HP, a.Posture, a.Energy} {
		fixed = true
	}
	return fixed
}

// TakeDamage наносит урон. Возвращает фактически снятое HP.
func (a *Attributes) TakeDamage(amount int) int {
	if amount < 0 {
		amount = 0
	}
	before := a.HP
	a.HP = clampInt(a.HP-amount, 0, a.MaxHP)
	return before - a.HP
}

// Heal лечит. Возвращает фактически восстановленное HP.
func (a *Attributes) Heal(amount int) int {
	if amount < 0 {
		amount = 0
	}
	before := a.HP
	a.HP = clampInt(a.HP+amount, 0, a.MaxHP)
	return a.HP - before
}

// DrainPosture снимает стойку. Возвращает фактически снятое.
func (a *Attributes) DrainPosture(amount int) int {
	if amount < 0 {
		amount = 0
	}
	before := a.Posture
	a.Posture = clampInt(a.Posture-amount, 0, a.MaxPosture)
	return before - a.Posture
}

// RestorePosture - пассивный реген стойки
func (a *Attributes) RestorePosture(amount int) {
	if amount < 0 {
		return
	}
	a.Posture = clampInt(a.Posture+amount, 0, a.MaxPosture)
}

// RefillPosture - полный сброс стойки после слома (не частичный реген)
func (a *Attributes) RefillPosture() {
	a.Posture = a.MaxPosture
}

// SpendEnergy тратит энергию. Возвращает false, если не хватило.
func (a *Attributes) SpendEnergy(cost int) bool {
	if cost < 0 || a.Energy < cost {
		return false
	}
	a.Energy -= cost
	return true
}

// RestoreEnergy восстанавливает энергию (реген)
func (a *Attributes) RestoreEnergy(amount int) {
	if amount < 0 {
		return
	}
	a.Energy = clampInt(a.Energy+amount, 0, a.MaxEnergy)
}

// SetMaxHP меняет потолок HP и зажимает текущее значение
func (a *Attributes) SetMaxHP(v int) {
	if v < 1 {
		v = 1
	}
	a.MaxHP = v
	a.HP = clampInt(a.HP, 0, a.MaxHP)
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
