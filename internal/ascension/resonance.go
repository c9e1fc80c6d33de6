package ascension

import (
	"ascension-server/internal/content"
	"ascension-server/internal/domain"

	"github.com/sirupsen/logrus"
)

// pathPools - доступные (еще не взятые) эхо по путям, каждый список отсортирован по id
type pathPools map[string][]content.EchoDef

func (g *Generator) buildPools(run *domain.AscensionRunState) pathPools {
	pools := make(pathPools)
	for _, e := range g.catalog.Echoes() {
		if run.HasPicked(e.ID) {
			continue
		}
		pools[e.PathID] = append(pools[e.PathID], e)
	}
	return pools
}

// flex - эхо всех путей, кроме origin и run, в порядке id
func (p pathPools) flex(origin, runPath string, all []content.EchoDef) []content.EchoDef {
	var out []content.EchoDef
	for _, e := range all {
		if e.PathID == origin || e.PathID == runPath {
			continue
		}
		if containsEcho(p[e.PathID], e.ID) {
			out = append(out, e)
		}
	}
	return out
}

// remove убирает эхо из пула его пути
func (p pathPools) remove(e content.EchoDef) {
	list := p[e.PathID]
	for i := range list {
		if list[i].ID == e.ID {
			p[e.PathID] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// flat - все доступные эхо в порядке каталога
func (p pathPools) flat(all []content.EchoDef) []content.EchoDef {
	var out []content.EchoDef
	for _, e := range all {
		if containsEcho(p[e.PathID], e.ID) {
			out = append(out, e)
		}
	}
	return out
}

func containsEcho(list []content.EchoDef, id string) bool {
	for _, e := range list {
		if e.ID == id {
			return true
		}
	}
	return false
}

// RecountEchoes пересчитывает кешированные счетчики путей из PickedEchoIDs.
// Единственное место, где они пишутся.
func (g *Generator) RecountEchoes(run *domain.AscensionRunState) {
	origin, runCount := 0, 0
	for _, id := range run.PickedEchoIDs {
		def, ok := g.catalog.Echo(id)
		if !ok {
			continue
		}
		if def.PathID == run.OriginPathID {
			origin++
		}
		if def.PathID == run.RunPathID {
			runCount++
		}
	}
	run.OriginEchoCount = origin
	run.RunEchoCount = runCount
}

// PathLevels - сколько эха взято с каждого пути
func (g *Generator) PathLevels(run *domain.AscensionRunState) map[string]int {
	levels := make(map[string]int)
	for _, id := range run.PickedEchoIDs {
		if def, ok := g.catalog.Echo(id); ok {
			levels[def.PathID]++
		}
	}
	return levels
}

// ApplyEcho добавляет эхо в ран. Повтор игнорируется: PickedEchoIDs - упорядоченное множество.
func (g *Generator) ApplyEcho(run *domain.AscensionRunState, echoID string) bool {
	if run.HasPicked(echoID) {
		return false
	}
	if _, ok := g.catalog.Echo(echoID); !ok {
		g.reportMissing("echo", echoID)
	}
	run.PickedEchoIDs = append(run.PickedEchoIDs, echoID)
	g.RecountEchoes(run)
	g.checkResonance(run)
	return true
}

// ResonanceTier - тир по текущим счетчикам: 0, 1 или 2
func ResonanceTier(originCount, runCount int) int {
	switch {
	case originCount >= domain.ResonanceTier2Origin && runCount >= domain.ResonanceTier2Run:
		return 2
	case originCount >= domain.ResonanceOriginThreshold && runCount >= domain.ResonanceRunThreshold:
		return 1
	}
	return 0
}

// checkResonance: в момент первого пересечения порогов включает резонанс и открывает сделку.
// Каждый новый тир заново взводит сделку (в пределах лимита на ран).
func (g *Generator) checkResonance(run *domain.AscensionRunState) {
	tier := ResonanceTier(run.OriginEchoCount, run.RunEchoCount)
	if tier <= run.ResonanceTier {
		return
	}
	run.ResonanceTier = tier
	run.ResonanceActive = true
	if run.ResonanceID == "" {
		run.ResonanceID = g.resolveResonance(run)
	}
	if run.BargainsTaken < domain.MaxBargainsPerRun {
		run.BargainPending = true
		run.BargainWindow = domain.BargainWindowFloors
		run.BargainTakenForResonance = false
	}

	g.logger.WithFields(logrus.Fields{
		"run_id":       run.RunID,
		"resonance_id": run.ResonanceID,
		"tier":         tier,
		"origin_count": run.OriginEchoCount,
		"run_count":    run.RunEchoCount,
		"floor":        run.FloorIndex,
	}).Info("Resonance unlocked.")
}

// resolveResonance: сначала точная пара путей, потом резонанс только по origin
func (g *Generator) resolveResonance(run *domain.AscensionRunState) string {
	var wildcard string
	for _, r := range g.catalog.Resonances() {
		if r.OriginPathID != run.OriginPathID {
			continue
		}
		if r.RunPathID == run.RunPathID {
			return r.ID
		}
		if r.RunPathID == "" && wildcard == "" {
			wildcard = r.ID
		}
	}
	if wildcard == "" {
		g.reportMissing("resonance", run.OriginPathID+"+"+run.RunPathID)
	}
	return wildcard
}
