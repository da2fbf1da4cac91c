package validator

import "testing"

func TestTickerRegex(t *testing.T) {
	valid := []string{"AAPL", "a", "BRK.B", "RDS-A", "MSFT", "nflx", "X1234567.9"}
	for _, symbol := range valid {
		if !tickerRegex.MatchString(symbol) {
			t.Errorf("expected %q to be a valid ticker", symbol)
		}
	}

	invalid := []string{"", " ", "1AAPL", ".AAPL", "-X", "TOOLONGSYMBOL", "AA PL", "AAPL!"}
	for _, symbol := range invalid {
		if tickerRegex.MatchString(symbol) {
			t.Errorf("expected %q to be rejected", symbol)
		}
	}
}
