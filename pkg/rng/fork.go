package rng

import (
	"ascension-server/pkg/utils"
	"math"
)

// NormalizeSeed приводит произвольное число из сейва к сиду.
// NaN и бесконечности не роняют игру, а дают FallbackSeed.
func NormalizeSeed(v float64) uint32 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return FallbackSeed
	}
	return uint32(int64(math.Trunc(math.Mod(v, 4294967296.0))))
}

// DeriveSeed - сид подпотока: root XOR hash(label).
func DeriveSeed(root uint32, label string) uint32 {
	return root ^ utils.HashString32(label)
}

// Forker раздает именованные подпотоки одного корневого сида.
// Повторный Fork с тем же именем возвращает тот же объект и продолжает его последовательность.
type Forker struct {
	root  uint32
	forks map[string]*Stream
}

func NewForker(root uint32) *Forker {
	return &Forker{root: root, forks: make(map[string]*Stream)}
}

// Root - текущий корневой сид.
func (f *Forker) Root() uint32 { return f.root }

// SetRoot меняет эпоху: все запомненные подпотоки сбрасываются.
func (f *Forker) SetRoot(root uint32) {
	f.root = root
	f.forks = make(map[string]*Stream)
}

// Fork возвращает подпоток по имени.
// С override всегда создается свежий независимый поток (мимо кеша).
func (f *Forker) Fork(name string, override *uint32) *Stream {
	if override != nil {
		return New(*override)
	}
	if s, ok := f.forks[name]; ok {
		return s
	}
	s := New(DeriveSeed(f.root, name))
	f.forks[name] = s
	return s
}

// Adopt кладет в кеш уже восстановленный поток (загрузка снапшота).
func (f *Forker) Adopt(name string, s *Stream) {
	f.forks[name] = s
}

// Draws возвращает счетчики всех живых подпотоков.
func (f *Forker) Draws() map[string]uint64 {
	out := make(map[string]uint64, len(f.forks))
	for name, s := range f.forks {
		out[name] = s.Draws()
	}
	return out
}
