package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HemangVora/LetsBet/aptos"
	"github.com/HemangVora/LetsBet/market"
)

// acquire marks the user busy in memory and mirrors the flag to the store.
// The in-memory registry is authoritative; the stored flag is advisory and
// failures to persist it never block the request.
func (b *Bot) acquire(ctx context.Context, userID string) bool {
	if !b.busy.TryAcquire(userID) {
		return false
	}
	if err := b.store.SetInProgress(ctx, userID, true); err != nil {
		b.log.Warn("in_progress_mirror_error", "user_id", userID, "error", err.Error())
	}
	return true
}

func (b *Bot) release(userID string) {
	b.busy.Release(userID)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.store.SetInProgress(ctx, userID, false); err != nil {
		b.log.Warn("in_progress_mirror_error", "user_id", userID, "error", err.Error())
	}
}

func (b *Bot) explorerLink(hash string) string {
	return fmt.Sprintf("https://explorer.aptoslabs.com/txn/%s?network=%s", hash, b.cfg.Network)
}

// handleMarketCreation runs the full create-market flow: acknowledge,
// extract details from the message, submit, report.
func (b *Bot) handleMarketCreation(ctx context.Context, chatID int64, userID, text string, account *aptos.Account) {
	if !b.acquire(ctx, userID) {
		b.reply(ctx, chatID, replyStillProcessing)
		return
	}
	defer b.release(userID)

	requestID := uuid.NewString()
	log := b.log.With("request_id", requestID, "user_id", userID, "intent", "create_market")
	log.Info("request_start")

	reqCtx, cancel := context.WithTimeout(ctx, b.cfg.RequestTimeout)
	defer cancel()

	b.reply(reqCtx, chatID, replyMarketDetected)
	_ = b.api.SendChatAction(reqCtx, chatID, "typing")

	intent, err := b.extractor.ExtractMarket(reqCtx, text, userID)
	if err != nil {
		log.Warn("extraction_error", "error", err.Error())
		b.reply(ctx, chatID, replyExtractionFailed)
		return
	}
	log.Info("market_extracted", "question", intent.Question, "end_timestamp", intent.EndTimestamp)

	hash, err := b.submitter.CreateMarket(reqCtx, account, intent)
	if err != nil {
		log.Warn("submission_error", "error", err.Error())
		b.reply(ctx, chatID, fmt.Sprintf("Failed to create prediction market: %s", err.Error()))
		return
	}
	log.Info("request_done", "hash", hash)
	b.reply(ctx, chatID, fmt.Sprintf(
		"Prediction market created! 🎯\n\nQuestion: %s\n\nTransaction: %s",
		intent.Question, b.explorerLink(hash)))
}

// handleBetPlacement runs the full place-bet flow. An empty market id in
// the extracted details resolves to the latest on-chain market.
func (b *Bot) handleBetPlacement(ctx context.Context, chatID int64, userID, text string, account *aptos.Account) {
	if !b.acquire(ctx, userID) {
		b.reply(ctx, chatID, replyStillProcessing)
		return
	}
	defer b.release(userID)

	requestID := uuid.NewString()
	log := b.log.With("request_id", requestID, "user_id", userID, "intent", "place_bet")
	log.Info("request_start")

	reqCtx, cancel := context.WithTimeout(ctx, b.cfg.RequestTimeout)
	defer cancel()

	b.reply(reqCtx, chatID, replyBetDetected)
	_ = b.api.SendChatAction(reqCtx, chatID, "typing")

	intent, err := b.extractor.ExtractBet(reqCtx, text, userID)
	if err != nil {
		log.Warn("extraction_error", "error", err.Error())
		b.reply(ctx, chatID, replyExtractionFailed)
		return
	}

	if intent.MarketID == "" {
		latest, err := b.submitter.LatestMarket(reqCtx)
		if err != nil {
			if errors.Is(err, market.ErrNoMarkets) {
				log.Info("no_markets")
				b.reply(ctx, chatID, replyNoMarkets)
				return
			}
			log.Warn("latest_market_error", "error", err.Error())
			b.reply(ctx, chatID, replyMarketLookupFailed)
			return
		}
		intent.MarketID = latest.ID.String()
		b.reply(reqCtx, chatID, fmt.Sprintf("Using the latest prediction market: %q", latest.Question))
	}

	side := "NO"
	if intent.BetOnYes {
		side = "YES"
	}
	log.Info("bet_extracted", "market_id", intent.MarketID, "amount_apt", intent.BetAmount.String(), "side", side)
	b.reply(reqCtx, chatID, fmt.Sprintf("Placing your bet of %s APT on %s...", intent.BetAmount.String(), side))

	hash, err := b.submitter.PlaceBet(reqCtx, account, intent)
	if err != nil {
		log.Warn("submission_error", "error", err.Error())
		b.reply(ctx, chatID, fmt.Sprintf("Failed to place bet: %s", err.Error()))
		return
	}
	log.Info("request_done", "hash", hash)
	b.reply(ctx, chatID, fmt.Sprintf(
		"Bet placed! 🎲\n\n%s APT on %s for market %s\n\nTransaction: %s",
		intent.BetAmount.String(), side, intent.MarketID, b.explorerLink(hash)))
}

// handleConversation runs a bounded agent turn. Successful replies are
// deliberately not forwarded: conversational chatter stays quiet, and the
// user only hears back on timeout or failure.
func (b *Bot) handleConversation(ctx context.Context, chatID int64, userID, text string, account *aptos.Account) {
	if !b.acquire(ctx, userID) {
		b.reply(ctx, chatID, replyStillProcessing)
		return
	}
	defer b.release(userID)

	requestID := uuid.NewString()
	log := b.log.With("request_id", requestID, "user_id", userID, "intent", "conversation")
	log.Info("request_start")

	runCtx, cancel := context.WithTimeout(ctx, b.cfg.ConversationTimeout)
	defer cancel()

	_ = b.api.SendChatAction(runCtx, chatID, "typing")

	for chunk := range b.runtime.Run(runCtx, text, toolsetFor(b.submitter, account), userID) {
		if chunk.Err != nil {
			// A deadline can also surface through the LLM call itself.
			if errors.Is(chunk.Err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
				log.Warn("conversation_timeout", "timeout", b.cfg.ConversationTimeout.String())
				b.reply(ctx, chatID, replyTimeout)
				return
			}
			log.Warn("agent_error", "error", chunk.Err.Error())
			b.reply(ctx, chatID, replyAgentError)
			return
		}
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		log.Warn("conversation_timeout", "timeout", b.cfg.ConversationTimeout.String())
		b.reply(ctx, chatID, replyTimeout)
		return
	}
	log.Info("request_done")
}
