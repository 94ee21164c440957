package bot

const (
	replyStillProcessing = "Hold on! I'm still processing your previous request..."

	replyBetDetected    = "I detected a bet placement request! Processing..."
	replyMarketDetected = "I detected a prediction market request! Processing..."

	replyExtractionFailed = "Sorry, I encountered an error while processing your request. Please try again with more details."

	replyNoMarkets = "No prediction markets found. Please create one first."

	replyMarketLookupFailed = "Sorry, I couldn't fetch the prediction markets right now. Please try again later."

	replyTimeout      = "I'm sorry, the operation took too long and timed out. Please try again."
	replyAgentError   = "I'm sorry, an error occurred while processing your request."
	replyInvalidKey   = "Invalid private key format. Please try again with a valid 64-character hex private key."
	replyImportFailed = "Error importing account. Please check your private key and try again."

	replySendPrivateKey = "Please send your private key in hex format (64 characters)."

	replyAccountCreated = "Your new account has been created! Here's your wallet address:"
	replyAccountReady   = "You can now start using the bot. Mention betting or prediction-related keywords in your messages to create prediction markets!"
	replyImported       = "Account successfully imported! Your wallet address is:"
	replyImportedReady  = "Your account is ready! You can now start using the bot to create prediction markets."

	replyFundingStart = "Setting up your wallet..."
	replyFundingOK    = "Wallet setup successful! ✅"
	replyFundingFail  = "There was an error setting up your wallet. Please contact support."

	replyWelcomeBack = "Welcome back! You can use this bot to create prediction markets. Just mention betting or prediction-related keywords in your messages."
	replyWelcomeNew  = "Welcome! Would you like to create a new account or import an existing one?"

	replyHelp = `Prediction Market Bot

This bot helps you create prediction markets on Aptos blockchain.

Commands:
/start - Start the bot and create your account
/help - Show this help message

Creating Markets:
Simply mention keywords like "bet", "wager", "prediction" in your message along with what you want to bet on.

Example: "Let's bet on whether BTC will reach $200k by the end of the year"

Placing Bets:
To place a bet, say something like "place my bet of 0.5 APT on yes"

The bot will detect your intent and help you create a prediction market or place a bet.`
)
