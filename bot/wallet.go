package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/HemangVora/LetsBet/aptos"
	"github.com/HemangVora/LetsBet/internal/retryutil"
	"github.com/HemangVora/LetsBet/internal/userstore"
)

// getOrCreateWallet loads the user's account, creating and persisting a
// fresh keypair on first contact. The second return reports whether the
// wallet was just created.
func (b *Bot) getOrCreateWallet(ctx context.Context, userID string) (*aptos.Account, bool, error) {
	record, err := b.store.FindByUserID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("load account %s: %w", userID, err)
	}
	if record != nil {
		account, err := aptos.AccountFromPrivateKeyHex(record.PrivateKey)
		if err != nil {
			return nil, false, fmt.Errorf("restore account %s: %w", userID, err)
		}
		return account, false, nil
	}

	account, err := aptos.GenerateAccount()
	if err != nil {
		return nil, false, fmt.Errorf("generate account: %w", err)
	}
	if err := b.store.Insert(ctx, &userstore.Account{
		UserID:     userID,
		PublicKey:  account.Address,
		PrivateKey: account.PrivateKeyHex(),
	}); err != nil {
		return nil, false, fmt.Errorf("persist account %s: %w", userID, err)
	}
	b.log.Info("wallet_created", "user_id", userID, "address", account.Address)
	return account, true, nil
}

// fundWallet transfers the bootstrap balance to a fresh wallet without
// blocking the caller. Outcome is reported to the chat when it lands.
func (b *Bot) fundWallet(chatID int64, userID, address string) {
	if b.funder == nil {
		b.log.Warn("wallet_funding_skipped", "user_id", userID, "reason", "no funder account configured")
		return
	}
	b.reply(context.Background(), chatID, replyFundingStart)
	log := b.log.With("user_id", userID, "address", address)
	retryutil.Async(log, "wallet_funding", 0, 45*time.Second, func(ctx context.Context) error {
		hash, err := b.chain.Transfer(ctx, b.funder, address, b.cfg.FundingOctas)
		if err != nil {
			b.reply(context.Background(), chatID, replyFundingFail)
			return err
		}
		log.Info("wallet_funded", "hash", hash, "octas", b.cfg.FundingOctas)
		b.reply(context.Background(), chatID, replyFundingOK)
		return nil
	})
}

// importWallet replaces the user's stored keypair with an imported key.
func (b *Bot) importWallet(ctx context.Context, userID, privateKeyHex string) (*aptos.Account, error) {
	account, err := aptos.AccountFromPrivateKeyHex(privateKeyHex)
	if err != nil {
		return nil, err
	}
	if err := b.store.Upsert(ctx, &userstore.Account{
		UserID:     userID,
		PublicKey:  account.Address,
		PrivateKey: account.PrivateKeyHex(),
	}); err != nil {
		return nil, fmt.Errorf("persist imported account %s: %w", userID, err)
	}
	b.log.Info("wallet_imported", "user_id", userID, "address", account.Address)
	return account, nil
}
