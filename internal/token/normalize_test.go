package token

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, payload string) RawToken {
	t.Helper()
	var raw RawToken
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	return raw
}

func TestNormalizeHoneypotScenario(t *testing.T) {
	raw := decode(t, `{"token_address":"0xabc","hp_is_honeypot":1,"gp_buy_tax":5}`)
	tok := Normalize(raw)

	assert.Equal(t, "0xabc", tok.Address)
	assert.True(t, tok.Honeypot.IsHoneypot)
	assert.Equal(t, RiskDanger, tok.Risk)
	require.NotNil(t, tok.Security.BuyTax)
	assert.Equal(t, 5.0, *tok.Security.BuyTax)
}

func TestNormalizeMissingSecurityFieldsIsSafe(t *testing.T) {
	raw := decode(t, `{"token_address":"0xdef","token_name":"Test","token_symbol":"TST"}`)
	tok := Normalize(raw)

	sec := tok.Security
	assert.False(t, sec.IsProxy)
	assert.False(t, sec.IsMintable)
	assert.False(t, sec.HiddenOwner)
	assert.False(t, sec.SelfDestruct)
	assert.False(t, sec.IsBlacklisted)
	assert.False(t, sec.CanTakeBackOwnership)
	assert.False(t, sec.IsAirdropScam)
	assert.False(t, sec.FakeToken)
	assert.False(t, sec.OpenSourceKnown)
	assert.Equal(t, RiskSafe, tok.Risk)
}

func TestNormalizeHoneypotAlwaysDanger(t *testing.T) {
	// Honeypot confirmation wins regardless of every other field.
	raw := decode(t, `{"token_address":"0x1","hp_is_honeypot":true,"gp_is_open_source":1,"gp_holder_count":5000}`)
	assert.Equal(t, RiskDanger, Normalize(raw).Risk)
}

func TestNormalizeClosedSourceDanger(t *testing.T) {
	raw := decode(t, `{"token_address":"0x2","gp_is_open_source":0}`)
	assert.Equal(t, RiskDanger, Normalize(raw).Risk)
}

func TestNormalizeWarningConditions(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"proxy", `{"token_address":"0x3","gp_is_open_source":1,"gp_is_proxy":1}`},
		{"mintable", `{"token_address":"0x3","gp_is_open_source":1,"gp_is_mintable":"1"}`},
		{"slippage modifiable", `{"token_address":"0x3","gp_is_open_source":1,"gp_slippage_modifiable":1}`},
		{"trading cooldown", `{"token_address":"0x3","gp_is_open_source":1,"gp_trading_cooldown":1}`},
		{"transfer pausable", `{"token_address":"0x3","gp_is_open_source":1,"gp_transfer_pausable":1}`},
		{"high buy tax", `{"token_address":"0x3","gp_is_open_source":1,"gp_buy_tax":15}`},
		{"high sell tax", `{"token_address":"0x3","gp_is_open_source":1,"gp_sell_tax":"22.5"}`},
		{"high simulated sell tax", `{"token_address":"0x3","gp_is_open_source":1,"hp_sell_tax":40}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, RiskWarning, Normalize(decode(t, tt.payload)).Risk)
		})
	}
}

func TestNormalizeTaxAtThresholdIsNotWarning(t *testing.T) {
	raw := decode(t, `{"token_address":"0x4","gp_is_open_source":1,"gp_buy_tax":10,"gp_sell_tax":10}`)
	assert.Equal(t, RiskSafe, Normalize(raw).Risk)
}

func TestNormalizeLadderDefaults(t *testing.T) {
	raw := decode(t, `{"token_address":"0x5","liq10":1000,"liq20":"1500"}`)
	tok := Normalize(raw)

	require.Len(t, tok.LiquidityLadder, LadderCheckpoints)
	assert.Equal(t, 1000.0, tok.LiquidityLadder[0])
	assert.Equal(t, 1500.0, tok.LiquidityLadder[1])
	for i := 2; i < LadderCheckpoints; i++ {
		assert.Zero(t, tok.LiquidityLadder[i])
	}
}

func TestNormalizeMissingNumericsStayNil(t *testing.T) {
	tok := Normalize(decode(t, `{"token_address":"0x6"}`))

	assert.Nil(t, tok.AgeHours)
	assert.Nil(t, tok.Honeypot.BuyTax)
	assert.Nil(t, tok.Honeypot.LiquidityAmount)
	assert.Nil(t, tok.Security.HolderCount)
	assert.Zero(t, tok.Holders())
	assert.Zero(t, tok.Liquidity())
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := decode(t, `{
		"token_address":"0xAbCd","token_name":"Pepe","token_symbol":"PEPE",
		"token_age_hours":12.5,"hp_liquidity_amount":25000.5,
		"hp_pair_reserves0":"123456789012345678901234567890",
		"gp_is_open_source":1,"gp_holder_count":"321","liq10":100,"liq20":200
	}`)

	first := Normalize(raw)
	second := Normalize(raw)
	assert.Equal(t, first, second)
}

func TestNormalizeReservePrecision(t *testing.T) {
	tok := Normalize(decode(t, `{"token_address":"0x7","hp_pair_reserves0":"123456789012345678901234567890"}`))
	assert.Equal(t, "123456789012345678901234567890", tok.Honeypot.PairReserves0.String())
}

func TestFlagCoercions(t *testing.T) {
	var raw RawToken
	require.NoError(t, json.Unmarshal([]byte(`{
		"hp_is_honeypot":null,
		"gp_is_proxy":"true",
		"gp_is_mintable":0,
		"gp_hidden_owner":"0",
		"gp_selfdestruct":1
	}`), &raw))

	assert.False(t, raw.HPIsHoneypot.Bool())
	assert.True(t, raw.GPIsProxy.Bool())
	assert.False(t, raw.GPIsMintable.Bool())
	assert.False(t, raw.GPHiddenOwner.Bool())
	assert.True(t, raw.GPSelfDestruct.Bool())
}

func TestCollectionReplaceSemantics(t *testing.T) {
	c := NewCollection()
	c.Apply([]Token{
		{Address: "0xAAA", Name: "first"},
		{Address: "0xBBB", Name: "other"},
	})

	// Same address, different casing: wholesale replace, no duplicate.
	c.Apply([]Token{{Address: "0xaaa", Name: "second"}})

	assert.Equal(t, 2, c.Len())
	got, ok := c.Get("0xAAA")
	require.True(t, ok)
	assert.Equal(t, "second", got.Name)

	c.Clear()
	assert.Zero(t, c.Len())
	_, ok = c.Get("0xaaa")
	assert.False(t, ok)
}

func TestCollectionSnapshotDeterministic(t *testing.T) {
	c := NewCollection()
	c.Apply([]Token{{Address: "0xC"}, {Address: "0xA"}, {Address: "0xB"}})

	snap := c.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "0xA", snap[0].Address)
	assert.Equal(t, "0xB", snap[1].Address)
	assert.Equal(t, "0xC", snap[2].Address)
	assert.Equal(t, snap, c.Snapshot())
}
