package domain

// Пороги резонанса: сколько эха нужно с пути происхождения и пути забега
const (
	ResonanceOriginThreshold = 3
	ResonanceRunThreshold    = 2

	// Второй тир резонанса заново открывает сделку
	ResonanceTier2Origin = 5
	ResonanceTier2Run    = 4
)

// Сделки
const (
	BargainWindowFloors = 2
	BargainSpawnChance  = 0.7
	MaxBargainsPerRun   = 2
)

// Имена статов для апгрейдов
const (
	StatAttack          = "attack"
	StatDefense         = "defense"
	StatCritChance      = "critChance"
	StatCritDamage      = "critDamage"
	StatMultiHitChance  = "multiHitChance"
	StatDotChance       = "dotChance"
	StatPenetration     = "penetration"
	StatBonusHits       = "bonusHits"
	StatDamagePct       = "damagePct"
	StatDamageReduction = "damageReductionPct"
	StatHealPct         = "healPct"
	StatPostureDamage   = "postureDamagePct"
	StatEnergyRegen     = "energyRegenPct"
	StatMaxPosture      = "maxPosture"
)

// KnownStat - стат известен движку
func KnownStat(stat string) bool {
	switch stat {
	case StatAttack, StatDefense, StatCritChance, StatCritDamage, StatMultiHitChance,
		StatDotChance, StatPenetration, StatBonusHits, StatDamagePct, StatDamageReduction,
		StatHealPct, StatPostureDamage, StatEnergyRegen, StatMaxPosture:
		return true
	}
	return false
}

// ApplyStat добавляет amount к стату. Неизвестный стат - false, ничего не меняется.
func ApplyStat(a *Attributes, stat string, amount float64) bool {
	switch stat {
	case StatAttack:
		a.Attack += amount
	case StatDefense:
		a.Defense += amount
	case StatCritChance:
		a.CritChance += amount
	case StatCritDamage:
		a.CritDamage += amount
	case StatMultiHitChance:
		a.MultiHitChance += amount
	case StatDotChance:
		a.DotChance += amount
	case StatPenetration:
		a.Penetration += amount
	case StatBonusHits:
		a.BonusHits += int(amount)
	case StatDamagePct:
		a.DamagePct += amount
	case StatDamageReduction:
		a.DamageReductionPct += amount
	case StatHealPct:
		a.HealPct += amount
	case StatPostureDamage:
		a.PostureDamagePct += amount
	case StatEnergyRegen:
		a.EnergyRegenPct += amount
	case StatMaxPosture:
		a.MaxPosture += int(amount)
		a.Posture += int(amount)
	default:
		return false
	}
	return true
}
