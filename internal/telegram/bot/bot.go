package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/vitiscan/treatment-plan/internal/config"
	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/pkg/logger"
	"github.com/vitiscan/treatment-plan/internal/telegram/middleware"
	"github.com/vitiscan/treatment-plan/internal/telegram/render"
	"github.com/vitiscan/treatment-plan/internal/usecase/treatment"
)

// TreatmentUsecase is the part of the treatment usecase the bot drives.
type TreatmentUsecase interface {
	GenerateTreatmentAdvice(ctx context.Context, req *entity.SolutionRequest) (*entity.TreatmentAdvice, error)
	GetPlan(ctx context.Context, id string) (*entity.TreatmentAdvice, error)
	ExportPlan(ctx context.Context, id, format string) (*treatment.ExportedPlan, error)
}

// Sender delivers replies to Telegram. Request is used for calls whose
// answer is not a message, such as chat actions.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot represents the Telegram bot
type Bot struct {
	api         *tgbotapi.BotAPI
	sender      Sender
	cfg         *config.TelegramConfig
	usecase     TreatmentUsecase
	logger      *zap.Logger
	loggingMW   *middleware.LoggingMiddleware
	recoveryMW  *middleware.RecoveryMiddleware
	rateLimitMW *middleware.RateLimiterMiddleware
	updatesChan tgbotapi.UpdatesChannel
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// New creates a new Telegram bot
func New(cfg *config.TelegramConfig, usecase TreatmentUsecase, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	b := newBot(api, cfg, usecase, logger)
	b.api = api
	return b, nil
}

func newBot(sender Sender, cfg *config.TelegramConfig, usecase TreatmentUsecase, logger *zap.Logger) *Bot {
	b := &Bot{
		sender:   sender,
		cfg:      cfg,
		usecase:  usecase,
		logger:   logger,
		stopChan: make(chan struct{}),
	}

	b.initMiddleware()
	return b
}

func (b *Bot) initMiddleware() {
	b.loggingMW = middleware.NewLoggingMiddleware(b.logger)
	b.recoveryMW = middleware.NewRecoveryMiddleware(b.logger, b.sender)
	b.rateLimitMW = middleware.NewRateLimiterMiddleware(b.cfg.RateLimitPerMinute, b.logger, b.sender)
}

// Start starts the bot
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout

	b.updatesChan = b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)
	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot gracefully with timeout
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	close(b.stopChan)
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdateWithMiddleware(ctx, u)
			}(update)
		}
	}
}

// handleUpdateWithMiddleware runs rate limit, logging and recovery before
// the command itself
func (b *Bot) handleUpdateWithMiddleware(ctx context.Context, update tgbotapi.Update) {
	b.rateLimitMW.Handle(update, func(u tgbotapi.Update) {
		b.loggingMW.Handle(u, func(u2 tgbotapi.Update) {
			b.recoveryMW.Handle(u2, func(u3 tgbotapi.Update) {
				b.handleUpdate(ctx, u3)
			})
		})
	})
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.Chat == nil {
		return
	}

	ctx = ctxzap.ToContext(ctx, b.logger)
	ctx = logger.AddFields(ctx, zap.Int64("chat_id", message.Chat.ID))

	if !message.IsCommand() {
		b.sendMessage(ctx, message.Chat.ID, render.ErrNotACommand)
		return
	}

	b.handleCommand(ctx, message)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	ctx = logger.WithAction(ctx, message.Command())

	switch message.Command() {
	case "start":
		b.sendMessage(ctx, chatID, render.MsgWelcome)
	case "help":
		b.sendMessage(ctx, chatID, render.MsgHelp)
	case "treat":
		b.handleTreat(ctx, chatID, message.CommandArguments())
	case "plan":
		b.handlePlan(ctx, chatID, message.CommandArguments())
	case "export":
		b.handleExport(ctx, chatID, message.CommandArguments())
	default:
		b.sendMessage(ctx, chatID, render.ErrUnknownCommand)
	}
}

func (b *Bot) handleTreat(ctx context.Context, chatID int64, args string) {
	req, err := ParseTreatCommand(args)
	if err != nil {
		b.sendMessage(ctx, chatID, render.Usage(err))
		return
	}

	b.sendTyping(ctx, chatID)

	plan, err := b.usecase.GenerateTreatmentAdvice(ctx, req)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}

	ctxzap.Info(ctx, "treatment plan sent",
		zap.String("plan_id", plan.ID),
		zap.String("disease_key", plan.Context.DiseaseKey),
		zap.Bool("llm_failed", plan.LLMFailed),
	)

	b.sendMessage(ctx, chatID, render.Plan(plan))
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64, args string) {
	id, err := ParsePlanCommand(args)
	if err != nil {
		b.sendMessage(ctx, chatID, render.Usage(err))
		return
	}

	plan, err := b.usecase.GetPlan(ctx, id)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}

	b.sendMessage(ctx, chatID, render.Plan(plan))
}

func (b *Bot) handleExport(ctx context.Context, chatID int64, args string) {
	id, format, err := ParseExportCommand(args)
	if err != nil {
		b.sendMessage(ctx, chatID, render.Usage(err))
		return
	}

	exported, err := b.usecase.ExportPlan(ctx, id, format)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  exported.Filename,
		Bytes: exported.Data,
	})
	if _, err := b.sender.Send(doc); err != nil {
		ctxzap.Error(ctx, "failed to send document",
			zap.Error(err),
			zap.String("filename", exported.Filename),
		)
		b.sendMessage(ctx, chatID, render.ErrGeneric)
	}
}

func (b *Bot) sendTyping(ctx context.Context, chatID int64) {
	if _, err := b.sender.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		ctxzap.Warn(ctx, "failed to send typing action", zap.Error(err))
	}
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := b.sender.Send(msg); err != nil {
		ctxzap.Error(ctx, "failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

func (b *Bot) sendError(ctx context.Context, chatID int64, err error) {
	switch {
	case errors.Is(err, entity.ErrPlanNotFound),
		errors.Is(err, entity.ErrInvalidFormat),
		errors.Is(err, entity.ErrUnsupportedFormat),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidParameter):
		ctxzap.Info(ctx, "command rejected", zap.Error(err))
	default:
		ctxzap.Error(ctx, "command failed", zap.Error(err))
	}

	b.sendMessage(ctx, chatID, render.Error(err))
}
