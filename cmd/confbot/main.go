// Command confbot runs the conference registration bot.
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"confbot/core/bootstrap"
	corecmd "confbot/core/cmd"
	coreconfig "confbot/core/config"
	"confbot/core/logger"
	coretelegram "confbot/core/telegram"
	"confbot/core/telegram/router"
	"confbot/engine"
	"confbot/invite"
	"confbot/scenario"

	"log/slog"
)

type app struct {
	cfg     *coreconfig.Config
	eng     *engine.Engine
	storage *bootstrap.Result
}

func buildApp(cfg *coreconfig.Config) (corecmd.App, error) {
	storage, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}

	handlers := scenario.NewHandlers()
	gen, err := invite.New(invite.Config{
		TemplatePath: cfg.Invite.TemplatePath,
		FontPath:     cfg.Invite.FontPath,
		FontSize:     cfg.Invite.FontSize,
		AvatarURL:    cfg.Invite.AvatarURL,
		Client:       http.DefaultClient,
	})
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	handlers.RegisterImage("invitation", gen)

	dialogCfg, err := scenario.Load(cfg.Dialog.ScenariosPath, handlers)
	if err != nil {
		_ = storage.Close()
		return nil, err
	}

	eng, err := engine.New(dialogCfg, storage.States, storage.Registrations)
	if err != nil {
		_ = storage.Close()
		return nil, err
	}

	return &app{cfg: cfg, eng: eng, storage: storage}, nil
}

func (a *app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		Config:      a.cfg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, nil),
		Routes:      router.DialogRoutes(a.eng),
		OnStart: func(ctx context.Context, _ coretelegram.Runtime) error {
			logger.ENG.Info("dialog engine ready",
				slog.String("event", "engine.ready"),
				slog.String("backend", a.cfg.Storage.Backend),
			)
			return nil
		},
	}, nil
}

func (a *app) Close() error {
	return a.storage.Close()
}

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yml",
		LoadConfig:        coreconfig.Load,
		Bootstrap:         buildApp,
	})
	if err != nil {
		log.Fatalf("confbot: %v", err)
	}
}
