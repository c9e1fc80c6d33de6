package ascension

import (
	"ascension-server/internal/content"
	"ascension-server/internal/domain"
	"ascension-server/pkg/logger"
	"ascension-server/pkg/rng"
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// recorder собирает диагностику в тестах
type recorder struct {
	items []domain.Diagnostic
}

func (r *recorder) Report(d domain.Diagnostic) { r.items = append(r.items, d) }

func (r *recorder) has(kind string) bool {
	for _, d := range r.items {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

func newTestGenerator(t *testing.T, seed uint32) (*Generator, *recorder) {
	t.Helper()
	cat, err := content.LoadBuiltin()
	if err != nil {
		t.Fatalf("builtin catalog: %v", err)
	}
	rec := &recorder{}
	g := NewGenerator(cat, rec)
	g.Attach(rng.New(rng.DeriveSeed(seed, StreamName)))
	return g, rec
}

// newTestRun - ран ember/gale за warden
func newTestRun(g *Generator, seed uint32) *domain.AscensionRunState {
	return g.CreateNewRun("run-test", seed, "warden", "ember", "gale", 100)
}
