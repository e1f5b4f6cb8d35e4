/**
 * @description
 * This file defines the currencies supported by the BPAY wallet product and
 * the precision rules attached to each of them.
 *
 * @notes
 * - Fiat balances are displayed with 2 decimal places, crypto with 8.
 *   Precision is a display concern only; amounts are never rounded before
 *   they are submitted upstream.
 */
package domain

// Currency identifies one of the wallet currencies supported by BPAY.
type Currency string

const (
	NGN  Currency = "NGN"
	KES  Currency = "KES"
	BTC  Currency = "BTC"
	ETH  Currency = "ETH"
	USDT Currency = "USDT"
)

// Currencies lists every supported currency.
var Currencies = []Currency{NGN, KES, BTC, ETH, USDT}

// FiatCurrencies are the currencies that support withdrawals.
var FiatCurrencies = []Currency{NGN, KES}

// CryptoCurrencies are the blockchain-native assets.
var CryptoCurrencies = []Currency{BTC, ETH, USDT}

// IsFiat reports whether c is a government-issued currency.
func (c Currency) IsFiat() bool {
	return c == NGN || c == KES
}

// IsCrypto reports whether c is a blockchain-native asset.
func (c Currency) IsCrypto() bool {
	return c == BTC || c == ETH || c == USDT
}

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	return c.IsFiat() || c.IsCrypto()
}

// DisplayPrecision returns the number of decimal places used when
// rendering balances in this currency.
func (c Currency) DisplayPrecision() int32 {
	if c.IsFiat() {
		return 2
	}
	return 8
}
