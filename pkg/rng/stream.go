// Package rng - детерминированный генератор (mulberry32) с именованными подпотоками.
// Не криптостойкий: задача - воспроизводимость, а не безопасность.
package rng

import "math"

// FallbackSeed используется вместо битых сидов (NaN, Inf).
const FallbackSeed uint32 = 0

// stateStep - приращение состояния mulberry32 за один бросок
const stateStep uint32 = 0x6D2B79F5

// Stream - один независимый поток случайных чисел.
// Состояние - ровно 32 бита, Next() зависит только от него.
type Stream struct {
	seed  uint32
	state uint32
	draws uint64
}

// New создает поток из сида.
func New(seed uint32) *Stream {
	return &Stream{seed: seed, state: seed}
}

// FromState восстанавливает поток по сохраненному состоянию (для снапшотов боя).
func FromState(seed, state uint32, draws uint64) *Stream {
	return &Stream{seed: seed, state: state, draws: draws}
}

// Restore пересоздает поток после draws бросков.
// Состояние растет на stateStep за бросок, поэтому прокрутка не нужна: O(1) для любого счетчика.
func Restore(seed uint32, draws uint64) *Stream {
	return FromState(seed, seed+uint32(draws)*stateStep, draws)
}

// Next возвращает число в [0, 1) и продвигает состояние.
func (s *Stream) Next() float64 {
	s.draws++
	s.state += stateStep
	t := s.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// Int возвращает целое в [min, max]. При max <= min - сразу min, без броска.
func (s *Stream) Int(min, max int) int {
	if max <= min {
		return min
	}
	return int(math.Floor(s.Next()*float64(max-min+1) + float64(min)))
}

// Chance - бросок с вероятностью p. На границах бросок не тратится.
func (s *Stream) Chance(p float64) bool {
	if math.IsNaN(p) || p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.Next() < p
}

// Seed - сид, с которого поток стартовал.
func (s *Stream) Seed() uint32 { return s.seed }

// State - текущее внутреннее состояние.
func (s *Stream) State() uint32 { return s.state }

// Draws - сколько раз был вызван Next().
func (s *Stream) Draws() uint64 { return s.draws }

// Pick выбирает случайный элемент. Пустой список - ok=false, бросок не тратится.
func Pick[T any](s *Stream, list []T) (T, bool) {
	var zero T
	if len(list) == 0 {
		return zero, false
	}
	return list[s.Int(0, len(list)-1)], true
}

// Shuffle - Фишер-Йетс на месте, индексы берутся через Int.
func Shuffle[T any](s *Stream, list []T) {
	for i := len(list) - 1; i > 0; i-- {
		j := s.Int(0, i)
		list[i], list[j] = list[j], list[i]
	}
}

// Weighted выбирает индекс по весам. Неположительные и битые веса игнорируются.
// Если все веса нулевые - возвращает -1 без броска.
func Weighted(s *Stream, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 && !math.IsInf(w, 0) {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	roll := s.Next() * total
	acc := 0.0
	last := -1
	for i, w := range weights {
		if w <= 0 || math.IsInf(w, 0) {
			continue
		}
		acc += w
		last = i
		if roll < acc {
			return i
		}
	}
	return last
}
