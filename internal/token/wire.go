// Package token defines the canonical token entity, the relay's wire
// representation, and the normalization between them.
package token

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Flag is a tolerant boolean for relay payloads. The scanner stores
// booleans as SQLite integers, so the wire may carry true/false, 0/1,
// "0"/"1"/"true", or null. Anything absent, null, zero or empty
// decodes as false.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = false
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = n != 0
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "0", "false", "no":
			*f = false
		default:
			*f = true
		}
		return nil
	}

	// Unrecognized shape is treated as unset rather than failing the
	// whole record.
	*f = false
	return nil
}

// Bool returns the flag as a plain bool.
func (f Flag) Bool() bool { return bool(f) }

// Number is a tolerant numeric for relay payloads: accepts JSON
// numbers and numeric strings. Valid reports whether the field was
// present and parseable, so downstream display can distinguish 0 from
// "N/A".
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = Number{}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number{Value: f, Valid: true}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = Number{Value: f, Valid: true}
			return nil
		}
	}

	*n = Number{}
	return nil
}

// Ptr returns the value as a pointer, nil when the field was absent.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// Or returns the value, or def when the field was absent.
func (n Number) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

// Text is a string field that tolerates numeric encodings. Large
// quantities such as total supply and pair reserves arrive sometimes
// as strings, sometimes as raw numbers.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*t = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}

	// Raw number (possibly in scientific notation): keep the source
	// text so no precision is lost.
	*t = Text(data)
	return nil
}

// RawToken is a scan record exactly as the relay broadcasts it: the
// scanner's SQLite row serialized with snake_case keys. hp_* fields
// come from the honeypot buy/sell simulation, gp_* fields from the
// GoPlus-style security scan, liq10..liq200 is the liquidity ladder
// sampled at fixed scan-count checkpoints.
type RawToken struct {
	TokenAddress  string `json:"token_address"`
	ScanTimestamp string `json:"scan_timestamp"`
	PairAddress   string `json:"pair_address"`
	TokenName     string `json:"token_name"`
	TokenSymbol   string `json:"token_symbol"`
	TokenDecimals Number `json:"token_decimals"`
	TotalSupply   Text   `json:"token_total_supply"`
	AgeHours      Number `json:"token_age_hours"`

	HPSimulationSuccess  Flag   `json:"hp_simulation_success"`
	HPBuyTax             Number `json:"hp_buy_tax"`
	HPSellTax            Number `json:"hp_sell_tax"`
	HPTransferTax        Number `json:"hp_transfer_tax"`
	HPLiquidityAmount    Number `json:"hp_liquidity_amount"`
	HPPairReserves0      Text   `json:"hp_pair_reserves0"`
	HPPairReserves1      Text   `json:"hp_pair_reserves1"`
	HPBuyGasUsed         Number `json:"hp_buy_gas_used"`
	HPSellGasUsed        Number `json:"hp_sell_gas_used"`
	HPCreationTime       string `json:"hp_creation_time"`
	HPHolderCount        Number `json:"hp_holder_count"`
	HPIsHoneypot         Flag   `json:"hp_is_honeypot"`
	HPHoneypotReason     string `json:"hp_honeypot_reason"`
	HPIsOpenSource       Flag   `json:"hp_is_open_source"`
	HPIsProxy            Flag   `json:"hp_is_proxy"`
	HPIsMintable         Flag   `json:"hp_is_mintable"`
	HPCanBeMinted        Flag   `json:"hp_can_be_minted"`
	HPOwnerAddress       string `json:"hp_owner_address"`
	HPCreatorAddress     string `json:"hp_creator_address"`
	HPDeployerAddress    string `json:"hp_deployer_address"`
	HPHasProxyCalls      Flag   `json:"hp_has_proxy_calls"`
	HPPairLiquidity      Number `json:"hp_pair_liquidity"`
	HPPairLiquidityTok0  Number `json:"hp_pair_liquidity_token0"`
	HPPairLiquidityTok1  Number `json:"hp_pair_liquidity_token1"`
	HPPairToken0Symbol   string `json:"hp_pair_token0_symbol"`
	HPPairToken1Symbol   string `json:"hp_pair_token1_symbol"`
	HPFlags              string `json:"hp_flags"`

	GPIsOpenSource             *Flag  `json:"gp_is_open_source"`
	GPIsProxy                  Flag   `json:"gp_is_proxy"`
	GPIsMintable               Flag   `json:"gp_is_mintable"`
	GPOwnerAddress             string `json:"gp_owner_address"`
	GPCreatorAddress           string `json:"gp_creator_address"`
	GPCanTakeBackOwnership     Flag   `json:"gp_can_take_back_ownership"`
	GPOwnerChangeBalance       Flag   `json:"gp_owner_change_balance"`
	GPHiddenOwner              Flag   `json:"gp_hidden_owner"`
	GPSelfDestruct             Flag   `json:"gp_selfdestruct"`
	GPExternalCall             Flag   `json:"gp_external_call"`
	GPBuyTax                   Number `json:"gp_buy_tax"`
	GPSellTax                  Number `json:"gp_sell_tax"`
	GPIsAntiWhale              Flag   `json:"gp_is_anti_whale"`
	GPAntiWhaleModifiable      Flag   `json:"gp_anti_whale_modifiable"`
	GPCannotBuy                Flag   `json:"gp_cannot_buy"`
	GPCannotSellAll            Flag   `json:"gp_cannot_sell_all"`
	GPSlippageModifiable       Flag   `json:"gp_slippage_modifiable"`
	GPPersonalSlippageModif    Flag   `json:"gp_personal_slippage_modifiable"`
	GPTradingCooldown          Flag   `json:"gp_trading_cooldown"`
	GPIsBlacklisted            Flag   `json:"gp_is_blacklisted"`
	GPIsWhitelisted            Flag   `json:"gp_is_whitelisted"`
	GPIsInDex                  Flag   `json:"gp_is_in_dex"`
	GPTransferPausable         Flag   `json:"gp_transfer_pausable"`
	GPCanBeMinted              Flag   `json:"gp_can_be_minted"`
	GPTotalSupply              Text   `json:"gp_total_supply"`
	GPHolderCount              Number `json:"gp_holder_count"`
	GPOwnerPercent             Number `json:"gp_owner_percent"`
	GPOwnerBalance             Text   `json:"gp_owner_balance"`
	GPCreatorPercent           Number `json:"gp_creator_percent"`
	GPCreatorBalance           Text   `json:"gp_creator_balance"`
	GPLPHolderCount            Number `json:"gp_lp_holder_count"`
	GPLPTotalSupply            Text   `json:"gp_lp_total_supply"`
	GPIsTrueToken              Flag   `json:"gp_is_true_token"`
	GPIsAirdropScam            Flag   `json:"gp_is_airdrop_scam"`
	GPTrustList                string `json:"gp_trust_list"`
	GPOtherPotentialRisks      string `json:"gp_other_potential_risks"`
	GPNote                     string `json:"gp_note"`
	GPHoneypotWithSameCreator  Flag   `json:"gp_honeypot_with_same_creator"`
	GPFakeToken                Flag   `json:"gp_fake_token"`
	GPHolders                  string `json:"gp_holders"`
	GPLPHolders                string `json:"gp_lp_holders"`
	GPDexInfo                  string `json:"gp_dex_info"`

	Liq10  Number `json:"liq10"`
	Liq20  Number `json:"liq20"`
	Liq30  Number `json:"liq30"`
	Liq40  Number `json:"liq40"`
	Liq50  Number `json:"liq50"`
	Liq60  Number `json:"liq60"`
	Liq70  Number `json:"liq70"`
	Liq80  Number `json:"liq80"`
	Liq90  Number `json:"liq90"`
	Liq100 Number `json:"liq100"`
	Liq110 Number `json:"liq110"`
	Liq120 Number `json:"liq120"`
	Liq130 Number `json:"liq130"`
	Liq140 Number `json:"liq140"`
	Liq150 Number `json:"liq150"`
	Liq160 Number `json:"liq160"`
	Liq170 Number `json:"liq170"`
	Liq180 Number `json:"liq180"`
	Liq190 Number `json:"liq190"`
	Liq200 Number `json:"liq200"`

	TotalScans       Number `json:"total_scans"`
	HoneypotFailures Number `json:"honeypot_failures"`
	LastError        string `json:"last_error"`
	Status           string `json:"status"`
}
