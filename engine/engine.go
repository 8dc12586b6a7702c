// Package engine routes inbound messages to either stateless intent
// replies or stateful scenario step advancement, and produces the ordered
// output effects for each turn.
package engine

import (
	"context"
	"fmt"
	"sync"

	"confbot/core/logger"
	"confbot/dialog"
	"confbot/scenario"
	"log/slog"
)

// Engine is the scenario state machine. It holds no mutable state beyond
// the immutable configuration; per-user positions live in the injected
// store.
type Engine struct {
	cfg    *scenario.Config
	states dialog.Store
	regs   dialog.RegistrationStore

	// Striped locks serialize read-modify-write per user so concurrent
	// transports cannot race a user's step advancement.
	locks [64]sync.Mutex
}

// New wires the engine with its configuration and persistence.
func New(cfg *scenario.Config, states dialog.Store, regs dialog.RegistrationStore) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil dialog configuration", scenario.ErrConfig)
	}
	if states == nil || regs == nil {
		return nil, fmt.Errorf("%w: nil persistence", scenario.ErrConfig)
	}
	return &Engine{cfg: cfg, states: states, regs: regs}, nil
}

func (e *Engine) userLock(userID int64) *sync.Mutex {
	idx := uint64(userID) % uint64(len(e.locks))
	return &e.locks[idx]
}

// HandleText processes one inbound message from a user and returns the
// ordered effects to emit. With no active dialog state the text is
// classified against the intents; otherwise it is the answer to the
// user's current step.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) ([]Effect, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	state, err := e.states.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load dialog state: %w", err)
	}
	if state == nil {
		return e.handleStateless(ctx, userID, text)
	}
	return e.continueScenario(ctx, state, text)
}

func (e *Engine) handleStateless(ctx context.Context, userID int64, text string) ([]Effect, error) {
	intent := e.cfg.MatchIntent(text)
	if intent == nil {
		logger.Debug(ctx, "engine", "intent.none",
			slog.Int64("user_id", userID),
		)
		return []Effect{TextEffect{Body: e.cfg.DefaultAnswer}}, nil
	}

	if intent.Answer != "" {
		logger.Debug(ctx, "engine", "intent.answer",
			slog.Int64("user_id", userID),
			slog.String("intent", intent.Name),
		)
		return []Effect{TextEffect{Body: intent.Answer}}, nil
	}

	return e.startScenario(ctx, userID, intent.Scenario)
}

func (e *Engine) startScenario(ctx context.Context, userID int64, sc *scenario.Scenario) ([]Effect, error) {
	first, ok := sc.Step(sc.FirstStep)
	if !ok {
		return nil, fmt.Errorf("%w: scenario %q first step %q missing", scenario.ErrConfig, sc.Name, sc.FirstStep)
	}

	state := &dialog.State{
		UserID:   userID,
		Scenario: sc.Name,
		Step:     sc.FirstStep,
	}
	effects, err := stepEffects(first, &state.Context)
	if err != nil {
		return nil, err
	}
	if err := e.states.Create(ctx, state); err != nil {
		return nil, fmt.Errorf("start scenario %q: %w", sc.Name, err)
	}

	logger.Info(ctx, "engine", "scenario.start",
		slog.Int64("user_id", userID),
		slog.String("scenario", sc.Name),
		slog.String("step", sc.FirstStep),
	)
	return effects, nil
}

func (e *Engine) continueScenario(ctx context.Context, state *dialog.State, text string) ([]Effect, error) {
	sc, ok := e.cfg.Scenario(state.Scenario)
	if !ok {
		return nil, fmt.Errorf("dialog state of user %d references unknown scenario %q", state.UserID, state.Scenario)
	}
	current, ok := sc.Step(state.Step)
	if !ok {
		return nil, fmt.Errorf("dialog state of user %d references unknown step %q of scenario %q",
			state.UserID, state.Step, state.Scenario)
	}
	if current.Validator == nil {
		return nil, fmt.Errorf("%w: step %q of scenario %q awaits input but has no validator",
			scenario.ErrConfig, state.Step, state.Scenario)
	}

	if !current.Validator.Validate(text, &state.Context) {
		// Retries are unbounded: the step re-prompts until it is passed
		// or the state is purged externally.
		failure, err := scenario.Render(current.FailureText, &state.Context)
		if err != nil {
			return nil, err
		}
		logger.Debug(ctx, "engine", "step.retry",
			slog.Int64("user_id", state.UserID),
			slog.String("scenario", state.Scenario),
			slog.String("step", state.Step),
			slog.String("validator", current.Validator.Key()),
		)
		return []Effect{TextEffect{Body: failure}}, nil
	}

	next, ok := sc.Step(current.NextStep)
	if !ok {
		return nil, fmt.Errorf("%w: step %q of scenario %q points at missing step %q",
			scenario.ErrConfig, state.Step, state.Scenario, current.NextStep)
	}

	effects, err := stepEffects(next, &state.Context)
	if err != nil {
		return nil, err
	}

	if next.Terminal() {
		if err := e.complete(ctx, state); err != nil {
			return nil, err
		}
		return effects, nil
	}

	state.Step = current.NextStep
	if err := e.states.Update(ctx, state); err != nil {
		return nil, fmt.Errorf("advance scenario %q: %w", state.Scenario, err)
	}
	logger.Debug(ctx, "engine", "step.advance",
		slog.Int64("user_id", state.UserID),
		slog.String("scenario", state.Scenario),
		slog.String("step", state.Step),
	)
	return effects, nil
}

// complete persists the completion record and removes the dialog state.
// The record survives independently of the state lifecycle.
func (e *Engine) complete(ctx context.Context, state *dialog.State) error {
	if err := e.regs.CreateRegistration(ctx, state.Context.Name, state.Context.Email); err != nil {
		return fmt.Errorf("persist registration: %w", err)
	}
	if err := e.states.Delete(ctx, state.UserID); err != nil {
		return fmt.Errorf("finish scenario %q: %w", state.Scenario, err)
	}
	logger.Info(ctx, "engine", "scenario.complete",
		slog.Int64("user_id", state.UserID),
		slog.String("scenario", state.Scenario),
		slog.String("username", logger.SanitizeLimit(state.Context.Name, 64)),
	)
	return nil
}

// stepEffects renders a step's configured output: prompt text first, then
// the optional attachment.
func stepEffects(step *scenario.Step, dialogCtx *scenario.Context) ([]Effect, error) {
	body, err := scenario.Render(step.Text, dialogCtx)
	if err != nil {
		return nil, fmt.Errorf("render step %q: %w", step.Name, err)
	}
	effects := []Effect{TextEffect{Body: body}}
	if step.Image != nil {
		effects = append(effects, ImageEffect{Generator: step.Image, Context: *dialogCtx})
	}
	return effects, nil
}
