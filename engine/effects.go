package engine

import (
	"context"
	"errors"

	"confbot/core/logger"
	"confbot/scenario"
	"log/slog"
)

// Effect is one outbound side effect produced by handling a message.
type Effect interface{ effect() }

// TextEffect sends an already-rendered text reply.
type TextEffect struct {
	Body string
}

func (TextEffect) effect() {}

// ImageEffect generates a binary attachment from collected context and
// sends it. Generation is deferred until dispatch so a generator failure
// cannot interfere with the text portion of a step's output.
type ImageEffect struct {
	Generator scenario.ImageGenerator
	Context   scenario.Context
}

func (ImageEffect) effect() {}

// Sink is the outbound side of the messaging platform: two fire-and-forget
// primitives, no delivery feedback.
type Sink interface {
	SendText(ctx context.Context, text string) error
	SendImage(ctx context.Context, image []byte) error
}

// Dispatch emits effects in order, text before image. Every effect is
// best-effort: a failed image generation or send is logged and must not
// suppress effects that were already emitted or still follow.
func Dispatch(ctx context.Context, effects []Effect, sink Sink) error {
	var errs []error
	for _, effect := range effects {
		switch e := effect.(type) {
		case TextEffect:
			if err := sink.SendText(ctx, e.Body); err != nil {
				logger.Error(ctx, "engine", "dispatch.text.fail",
					slog.String("err", err.Error()),
				)
				errs = append(errs, err)
			}
		case ImageEffect:
			image, err := e.Generator.Generate(ctx, &e.Context)
			if err != nil {
				logger.Error(ctx, "engine", "dispatch.image.generate.fail",
					slog.String("err", err.Error()),
				)
				errs = append(errs, err)
				continue
			}
			if err := sink.SendImage(ctx, image); err != nil {
				logger.Error(ctx, "engine", "dispatch.image.send.fail",
					slog.String("err", err.Error()),
				)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
