package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HemangVora/LetsBet/agent"
	"github.com/HemangVora/LetsBet/aptos"
	"github.com/HemangVora/LetsBet/bot"
	"github.com/HemangVora/LetsBet/internal/logutil"
	"github.com/HemangVora/LetsBet/internal/telegram"
	"github.com/HemangVora/LetsBet/internal/userstore"
	"github.com/HemangVora/LetsBet/market"
	"github.com/HemangVora/LetsBet/providers/anthropic"
)

func newBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram prediction-market bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(flagOrViperString(cmd, "telegram-bot-token", "telegram.bot_token"))
			if token == "" {
				return fmt.Errorf("missing telegram.bot_token (set via --telegram-bot-token or LETSBET_TELEGRAM_BOT_TOKEN)")
			}
			databaseURL := strings.TrimSpace(flagOrViperString(cmd, "database-url", "database.url"))
			if databaseURL == "" {
				return fmt.Errorf("missing database.url (set via --database-url or LETSBET_DATABASE_URL)")
			}
			apiKey := strings.TrimSpace(viper.GetString("llm.api_key"))
			if apiKey == "" {
				return fmt.Errorf("missing llm.api_key (set via LETSBET_LLM_API_KEY)")
			}

			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			var cipher *userstore.Cipher
			if keyHex := strings.TrimSpace(viper.GetString("database.encryption_key")); keyHex != "" {
				cipher, err = userstore.NewCipher(keyHex)
				if err != nil {
					return fmt.Errorf("database.encryption_key: %w", err)
				}
			} else {
				logger.Warn("key_encryption_disabled", "reason", "database.encryption_key not set")
			}

			store, err := userstore.NewPostgres(databaseURL, cipher)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			if err := store.EnsureSchema(cmd.Context()); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}

			client := anthropic.New(viper.GetString("llm.endpoint"), apiKey)
			runtime := agent.New(client,
				agent.WithLogger(logger),
				agent.WithModel(viper.GetString("llm.model")),
			)

			nodeURL := strings.TrimSpace(flagOrViperString(cmd, "aptos-node-url", "aptos.node_url"))
			if nodeURL == "" {
				nodeURL = aptos.TestnetNodeURL
			}
			chain := aptos.NewClient(nodeURL)
			submitter := market.NewSubmitter(chain, viper.GetString("aptos.module_address"), logger)

			var funder *aptos.Account
			if keyHex := strings.TrimSpace(viper.GetString("wallet.funder_private_key")); keyHex != "" {
				funder, err = aptos.AccountFromPrivateKeyHex(keyHex)
				if err != nil {
					return fmt.Errorf("wallet.funder_private_key: %w", err)
				}
			} else {
				logger.Warn("wallet_funding_disabled", "reason", "wallet.funder_private_key not set")
			}

			api := telegram.NewAPI(nil, flagOrViperString(cmd, "telegram-base-url", "telegram.base_url"), token)

			cfg := bot.Config{
				PollTimeout:         flagOrViperDuration(cmd, "telegram-poll-timeout", "telegram.poll_timeout"),
				ConversationTimeout: viper.GetDuration("bot.conversation_timeout"),
				RequestTimeout:      viper.GetDuration("bot.request_timeout"),
				MaxConcurrency:      flagOrViperInt(cmd, "telegram-max-concurrency", "telegram.max_concurrency"),
				Network:             viper.GetString("aptos.network"),
				FundingOctas:        viper.GetUint64("wallet.funding_octas"),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b := bot.New(api, store, runtime, submitter, chain, funder, cfg, logger)
			return b.Run(ctx)
		},
	}

	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token.")
	cmd.Flags().String("telegram-base-url", "", "Telegram API base URL (default: https://api.telegram.org).")
	cmd.Flags().Duration("telegram-poll-timeout", 30*time.Second, "Long-poll window for getUpdates.")
	cmd.Flags().Int("telegram-max-concurrency", 8, "Max updates handled concurrently.")
	cmd.Flags().String("database-url", "", "Postgres connection URL.")
	cmd.Flags().String("aptos-node-url", "", "Aptos fullnode URL (default: testnet).")

	return cmd
}
