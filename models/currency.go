package models

// AcceptedCurrencies is the closed set of reward currencies: the supported
// fiat codes followed by the curated cryptocurrency tickers.
var AcceptedCurrencies = []string{
	"USD", "EUR", "CAD",
	"ADA", "AVAX", "BNB", "BTC", "CRO", "DAI", "DOGE", "ETH",
	"LINK", "LTC", "SOL", "TRX", "USDC", "USDT", "XRP",
}

var acceptedCurrencySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(AcceptedCurrencies))
	for _, code := range AcceptedCurrencies {
		set[code] = struct{}{}
	}
	return set
}()

func IsAcceptedCurrency(code string) bool {
	_, ok := acceptedCurrencySet[code]
	return ok
}
