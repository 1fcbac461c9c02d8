package extract

import "fmt"

// parsePrompt is the fixed instruction template sent to the model for each
// message. The model is expected to answer with a bare JSON object.
const parsePrompt = `You are parsing politician stock trading signals from a Telegram channel.

Extract the following from this message:
- ticker: Stock symbol (e.g., NVDA, AAPL, MSFT). Must be uppercase.
- politician_name: Full name of the politician (e.g., "Nancy Pelosi", "Dan Crenshaw")
- transaction_type: "BUY" for purchases, "SELL" for sales
- amount_range: Dollar range if mentioned (e.g., "$1K-$15K", "$50K-$100K", "$1M-$5M")
- signal_date: Date of the transaction in ISO format (YYYY-MM-DD)
- confidence: Your confidence in this extraction from 0.0 to 1.0

IMPORTANT RULES:
1. If this is NOT a politician trading signal (e.g., general news, commentary), return: {"is_signal": false}
2. If you cannot confidently extract the ticker, return: {"is_signal": false}
3. For transaction_type, "purchased", "bought", "acquired" = "BUY"; "sold", "sold off", "disposed" = "SELL"
4. If signal_date is not explicitly mentioned, use the message timestamp date
5. Return ONLY valid JSON, no explanation or markdown

Message:
%s

Message timestamp: %s

Return JSON:`

// buildPrompt renders the extraction prompt for one message.
func buildPrompt(text, timestamp string) string {
	return fmt.Sprintf(parsePrompt, text, timestamp)
}
