package server

import (
	"ascension-server/internal/domain"
	"ascension-server/internal/engine"
	"ascension-server/pkg/api"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CommandContext передает хендлеру сессию, над которой выполняется команда.
// Хендлер вызывается под mu сессии.
type CommandContext struct {
	Live    *liveSession
	Session *engine.Session
	Config  engine.Config
}

// Result - что хендлер вернул клиенту. Пустой Type - UPDATE с SessionView.
type Result struct {
	Type string
	Data any
}

// HandlerFunc - контракт для любой команды клиента
type HandlerFunc func(ctx CommandContext, payload json.RawMessage) (Result, error)

// TypedHandlerFunc - "чистый" хендлер, который работает с готовой структурой T
type TypedHandlerFunc[T any] func(ctx CommandContext, payload T) (Result, error)

// EmptyHandlerFunc - хендлер, которому НЕ нужны данные (START_BATTLE, SKILL)
type EmptyHandlerFunc func(ctx CommandContext) (Result, error)

// WithPayload берет на себя Unmarshal и Validate
func WithPayload[T any](handler TypedHandlerFunc[T]) HandlerFunc {
	return func(ctx CommandContext, raw json.RawMessage) (Result, error) {
		var payload T
		if len(raw) == 0 {
			return Result{}, errors.New("payload is required")
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return Result{}, fmt.Errorf("invalid payload format: %w", err)
		}
		if v, ok := any(payload).(api.Validator); ok {
			if err := v.Validate(); err != nil {
				return Result{}, fmt.Errorf("validation failed: %w", err)
			}
		}
		return handler(ctx, payload)
	}
}

// WithEmptyPayload - обертка для команд без данных
func WithEmptyPayload(handler EmptyHandlerFunc) HandlerFunc {
	return func(ctx CommandContext, _ json.RawMessage) (Result, error) {
		return handler(ctx)
	}
}

func commandTable() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		api.ActionStartRun:    WithPayload(handleStartRun),
		api.ActionEnterRoom:   WithPayload(handleEnterRoom),
		api.ActionStartBattle: WithEmptyPayload(handleStartBattle),
		api.ActionSkill:       WithEmptyPayload(handleSkill),
		api.ActionPickDraft:   WithPayload(handlePickDraft),
		api.ActionBuyEcho:     WithPayload(handleBuyEcho),
		api.ActionUseService:  WithPayload(handleUseService),
		api.ActionPickBargain: WithPayload(handlePickBargain),
		api.ActionSnapshot:    WithEmptyPayload(handleSnapshot),
	}
}

func handleStartRun(ctx CommandContext, p api.StartRunPayload) (Result, error) {
	policy := ctx.Config.Policy
	if p.Policy != "" {
		parsed, ok := domain.ParseSkillPolicy(p.Policy)
		if !ok {
			return Result{}, fmt.Errorf("%w: policy %q", domain.ErrInvalidChoice, p.Policy)
		}
		policy = parsed
	}

	seed := p.Seed
	if seed == 0 {
		seed = ctx.Config.Seed
	}
	if seed == 0 {
		seed = uint32(time.Now().UnixNano())
	}

	prev := ctx.Session.Policy()
	ctx.Session.SetPolicy(policy)
	_, err := ctx.Session.StartRun(engine.RunParams{
		Seed:         seed,
		CharacterID:  p.CharacterID,
		OriginPathID: p.OriginPathID,
		RunPathID:    p.RunPathID,
		HPMax:        p.HPMax,
	})
	if err != nil {
		ctx.Session.SetPolicy(prev)
		return Result{}, err
	}
	ctx.Live.archived = false
	return Result{}, nil
}

func handleEnterRoom(ctx CommandContext, p api.FloorPayload) (Result, error) {
	_, err := ctx.Session.EnterRoom(p.Floor)
	return Result{}, err
}

func handleStartBattle(ctx CommandContext) (Result, error) {
	_, err := ctx.Session.StartBattle()
	return Result{}, err
}

func handleSkill(ctx CommandContext) (Result, error) {
	return Result{}, ctx.Session.QueueSkill()
}

func handlePickDraft(ctx CommandContext, p api.IndexPayload) (Result, error) {
	_, err := ctx.Session.PickDraft(p.Index)
	return Result{}, err
}

func handleBuyEcho(ctx CommandContext, p api.IndexPayload) (Result, error) {
	_, err := ctx.Session.BuyEcho(p.Index)
	return Result{}, err
}

func handleUseService(ctx CommandContext, p api.IndexPayload) (Result, error) {
	_, err := ctx.Session.UseService(p.Index)
	return Result{}, err
}

func handlePickBargain(ctx CommandContext, p api.BargainPayload) (Result, error) {
	if p.Decline {
		return Result{}, ctx.Session.DeclineBargain()
	}
	_, err := ctx.Session.PickBargain(p.Index)
	return Result{}, err
}

func handleSnapshot(ctx CommandContext) (Result, error) {
	snap, err := ctx.Session.Snapshot()
	if err != nil {
		return Result{}, err
	}
	return Result{Type: api.ResponseSnapshot, Data: snap}, nil
}
