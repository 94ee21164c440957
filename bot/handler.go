package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/HemangVora/LetsBet/aptos"
	"github.com/HemangVora/LetsBet/internal/telegram"
)

const (
	callbackCreateAccount = "create_account"
	callbackImportAccount = "import_account"
)

func (b *Bot) handleUpdate(ctx context.Context, update telegram.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	userID := strconv.FormatInt(cb.From.ID, 10)
	if err := b.api.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		b.log.Debug("callback_answer_error", "error", err.Error())
	}

	switch cb.Data {
	case callbackCreateAccount:
		account, created, err := b.getOrCreateWallet(ctx, userID)
		if err != nil {
			b.log.Error("wallet_create_error", "user_id", userID, "error", err.Error())
			b.reply(ctx, chatID, replyAgentError)
			return
		}
		if !created {
			b.reply(ctx, chatID, replyWelcomeBack)
			return
		}
		b.reply(ctx, chatID, fmt.Sprintf("%s\n\n%s\n\n%s", replyAccountCreated, account.Address, replyAccountReady))
		b.fundWallet(chatID, userID, account.Address)
	case callbackImportAccount:
		b.importing.Arm(userID)
		b.reply(ctx, chatID, replySendPrivateKey)
	default:
		b.log.Debug("unknown_callback", "data", cb.Data)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.Chat == nil || msg.From == nil || msg.From.IsBot {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	chatID := msg.Chat.ID
	userID := strconv.FormatInt(msg.From.ID, 10)
	log := b.log.With("user_id", userID, "chat_id", chatID)

	switch {
	case text == "/start" || strings.HasPrefix(text, "/start "):
		b.handleStart(ctx, chatID, userID)
		return
	case text == "/help":
		b.reply(ctx, chatID, replyHelp)
		return
	}

	if b.importing.Armed(userID) {
		b.handleImportKey(ctx, chatID, userID, text)
		return
	}

	account, created, err := b.getOrCreateWallet(ctx, userID)
	if err != nil {
		log.Error("wallet_bootstrap_error", "error", err.Error())
		b.reply(ctx, chatID, replyAgentError)
		return
	}
	if created {
		b.reply(ctx, chatID, fmt.Sprintf("%s\n\n%s\n\n%s", replyAccountCreated, account.Address, replyAccountReady))
		b.fundWallet(chatID, userID, account.Address)
	}

	intent := Classify(text)
	log.Info("message_classified", "intent", intent.String())
	switch intent {
	case IntentPlaceBet:
		b.handleBetPlacement(ctx, chatID, userID, text, account)
	case IntentCreateMarket:
		b.handleMarketCreation(ctx, chatID, userID, text, account)
	default:
		b.handleConversation(ctx, chatID, userID, text, account)
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64, userID string) {
	record, err := b.store.FindByUserID(ctx, userID)
	if err != nil {
		b.log.Error("start_lookup_error", "user_id", userID, "error", err.Error())
		b.reply(ctx, chatID, replyAgentError)
		return
	}
	if record != nil {
		b.reply(ctx, chatID, replyWelcomeBack)
		return
	}
	markup := telegram.ButtonRow(
		telegram.InlineKeyboardButton{Text: "Create New Account", CallbackData: callbackCreateAccount},
		telegram.InlineKeyboardButton{Text: "Import Existing Account", CallbackData: callbackImportAccount},
	)
	if err := b.api.SendMessage(ctx, chatID, replyWelcomeNew, &telegram.SendOptions{ReplyMarkup: markup}); err != nil {
		b.log.Warn("telegram_send_error", "chat_id", chatID, "error", err.Error())
	}
}

// handleImportKey consumes the message after "Import Existing Account":
// it must be a bare 64-hex private key. Validation failures keep the
// import armed so the user can retry.
func (b *Bot) handleImportKey(ctx context.Context, chatID int64, userID, text string) {
	key := strings.TrimSpace(text)
	if !aptos.IsValidPrivateKeyHex(key) {
		b.reply(ctx, chatID, replyInvalidKey)
		return
	}
	account, err := b.importWallet(ctx, userID, key)
	if err != nil {
		b.log.Warn("wallet_import_error", "user_id", userID, "error", err.Error())
		b.reply(ctx, chatID, replyImportFailed)
		return
	}
	b.importing.Disarm(userID)
	b.reply(ctx, chatID, fmt.Sprintf("%s\n\n%s\n\n%s", replyImported, account.Address, replyImportedReady))
}
