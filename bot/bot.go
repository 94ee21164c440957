package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/HemangVora/LetsBet/agent"
	"github.com/HemangVora/LetsBet/aptos"
	"github.com/HemangVora/LetsBet/internal/telegram"
	"github.com/HemangVora/LetsBet/internal/userstore"
	"github.com/HemangVora/LetsBet/market"
)

type Config struct {
	// PollTimeout is the Telegram long-poll window.
	PollTimeout time.Duration
	// ConversationTimeout bounds the conversational agent path.
	ConversationTimeout time.Duration
	// RequestTimeout bounds one orchestrated extract+submit request.
	RequestTimeout time.Duration
	MaxConcurrency int
	// Network names the Aptos network for explorer links.
	Network string
	// FundingOctas is transferred to freshly created wallets when a funder
	// account is configured.
	FundingOctas uint64
}

func (c *Config) applyDefaults() {
	if c.PollTimeout <= 0 {
		c.PollTimeout = 30 * time.Second
	}
	if c.ConversationTimeout <= 0 {
		c.ConversationTimeout = 20 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 2 * time.Minute
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 8
	}
	if c.Network == "" {
		c.Network = "testnet"
	}
	if c.FundingOctas == 0 {
		c.FundingOctas = 20_000_000 // 0.2 APT
	}
}

// Bot routes inbound Telegram messages: heuristic intent classification,
// then either an orchestrated extract+submit request or a conversational
// agent run.
type Bot struct {
	api       *telegram.API
	store     userstore.Store
	runtime   *agent.Runtime
	extractor *Extractor
	submitter *market.Submitter
	chain     *aptos.Client
	funder    *aptos.Account
	cfg       Config
	log       *slog.Logger

	busy      *busyRegistry
	importing *importRegistry
}

func New(api *telegram.API, store userstore.Store, runtime *agent.Runtime, submitter *market.Submitter, chain *aptos.Client, funder *aptos.Account, cfg Config, log *slog.Logger) *Bot {
	cfg.applyDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Bot{
		api:       api,
		store:     store,
		runtime:   runtime,
		extractor: NewExtractor(runtime),
		submitter: submitter,
		chain:     chain,
		funder:    funder,
		cfg:       cfg,
		log:       log,
		busy:      newBusyRegistry(),
		importing: newImportRegistry(),
	}
}

// Run long-polls Telegram until the context is cancelled. Each update is
// handled on its own goroutine, bounded by a semaphore.
func (b *Bot) Run(ctx context.Context) error {
	var me *telegram.User
	for {
		var err error
		me, err = b.api.GetMe(ctx)
		if err == nil {
			break
		}
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			b.log.Info("bot_stop", "reason", "context_canceled")
			return nil
		}
		b.log.Warn("telegram_get_me_error", "error", err.Error())
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(2 * time.Second):
		}
	}

	b.log.Info("bot_start",
		"bot_username", me.Username,
		"bot_id", me.ID,
		"poll_timeout", b.cfg.PollTimeout.String(),
		"conversation_timeout", b.cfg.ConversationTimeout.String(),
		"max_concurrency", b.cfg.MaxConcurrency,
		"network", b.cfg.Network,
	)

	sem := make(chan struct{}, b.cfg.MaxConcurrency)
	var offset int64
	for {
		updates, nextOffset, err := b.api.GetUpdates(ctx, offset, b.cfg.PollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				b.log.Info("bot_stop", "reason", "context_canceled")
				return nil
			}
			if telegram.IsPollTimeout(err) {
				b.log.Debug("telegram_get_updates_timeout", "error", err.Error())
			} else {
				b.log.Warn("telegram_get_updates_error", "error", err.Error())
			}
			time.Sleep(1 * time.Second)
			continue
		}
		offset = nextOffset

		for _, u := range updates {
			update := u
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
			go func() {
				defer func() { <-sem }()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.api.SendMessage(ctx, chatID, text, nil); err != nil {
		b.log.Warn("telegram_send_error", "chat_id", chatID, "error", err.Error())
	}
}
