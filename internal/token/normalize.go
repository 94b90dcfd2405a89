package token

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Normalize maps a raw relay record to the typed entity and computes
// its derived risk level. Pure and idempotent: the same raw input
// always yields the same Token.
func Normalize(raw RawToken) Token {
	t := Token{
		Address:       raw.TokenAddress,
		PairAddress:   raw.PairAddress,
		Name:          raw.TokenName,
		Symbol:        raw.TokenSymbol,
		Decimals:      raw.TokenDecimals.Ptr(),
		TotalSupply:   parseDecimal(raw.TotalSupply),
		AgeHours:      raw.AgeHours.Ptr(),
		ScanTimestamp: raw.ScanTimestamp,

		Honeypot: HoneypotResult{
			SimulationSuccess: raw.HPSimulationSuccess.Bool(),
			IsHoneypot:        raw.HPIsHoneypot.Bool(),
			HoneypotReason:    raw.HPHoneypotReason,
			BuyTax:            raw.HPBuyTax.Ptr(),
			SellTax:           raw.HPSellTax.Ptr(),
			TransferTax:       raw.HPTransferTax.Ptr(),
			BuyGasUsed:        raw.HPBuyGasUsed.Ptr(),
			SellGasUsed:       raw.HPSellGasUsed.Ptr(),
			LiquidityAmount:   raw.HPLiquidityAmount.Ptr(),
			PairReserves0:     parseDecimal(raw.HPPairReserves0),
			PairReserves1:     parseDecimal(raw.HPPairReserves1),
			PairToken0Sym:     raw.HPPairToken0Symbol,
			PairToken1Sym:     raw.HPPairToken1Symbol,
			HolderCount:       raw.HPHolderCount.Ptr(),
			OwnerAddress:      raw.HPOwnerAddress,
			CreatorAddress:    raw.HPCreatorAddress,
			DeployerAddress:   raw.HPDeployerAddress,
			CreationTime:      raw.HPCreationTime,
			IsOpenSource:      raw.HPIsOpenSource.Bool(),
			IsProxy:           raw.HPIsProxy.Bool(),
			IsMintable:        raw.HPIsMintable.Bool() || raw.HPCanBeMinted.Bool(),
			HasProxyCalls:     raw.HPHasProxyCalls.Bool(),
		},

		Security: SecurityScan{
			OpenSourceKnown:      raw.GPIsOpenSource != nil,
			IsOpenSource:         raw.GPIsOpenSource != nil && raw.GPIsOpenSource.Bool(),
			IsProxy:              raw.GPIsProxy.Bool(),
			IsMintable:           raw.GPIsMintable.Bool(),
			CanBeMinted:          raw.GPCanBeMinted.Bool(),
			CanTakeBackOwnership: raw.GPCanTakeBackOwnership.Bool(),
			OwnerChangeBalance:   raw.GPOwnerChangeBalance.Bool(),
			HiddenOwner:          raw.GPHiddenOwner.Bool(),
			SelfDestruct:         raw.GPSelfDestruct.Bool(),
			ExternalCall:         raw.GPExternalCall.Bool(),
			IsAntiWhale:          raw.GPIsAntiWhale.Bool(),
			AntiWhaleModifiable:  raw.GPAntiWhaleModifiable.Bool(),
			CannotBuy:            raw.GPCannotBuy.Bool(),
			CannotSellAll:        raw.GPCannotSellAll.Bool(),
			SlippageModifiable:   raw.GPSlippageModifiable.Bool(),
			PersonalSlippageMod:  raw.GPPersonalSlippageModif.Bool(),
			TradingCooldown:      raw.GPTradingCooldown.Bool(),
			IsBlacklisted:        raw.GPIsBlacklisted.Bool(),
			IsWhitelisted:        raw.GPIsWhitelisted.Bool(),
			IsInDex:              raw.GPIsInDex.Bool(),
			TransferPausable:     raw.GPTransferPausable.Bool(),
			IsTrueToken:          raw.GPIsTrueToken.Bool(),
			IsAirdropScam:        raw.GPIsAirdropScam.Bool(),
			HoneypotSameCreator:  raw.GPHoneypotWithSameCreator.Bool(),
			FakeToken:            raw.GPFakeToken.Bool(),
			BuyTax:               raw.GPBuyTax.Ptr(),
			SellTax:              raw.GPSellTax.Ptr(),
			OwnerAddress:         raw.GPOwnerAddress,
			CreatorAddress:       raw.GPCreatorAddress,
			OwnerPercent:         raw.GPOwnerPercent.Ptr(),
			CreatorPercent:       raw.GPCreatorPercent.Ptr(),
			OwnerBalance:         string(raw.GPOwnerBalance),
			CreatorBalance:       string(raw.GPCreatorBalance),
			HolderCount:          raw.GPHolderCount.Ptr(),
			LPHolderCount:        raw.GPLPHolderCount.Ptr(),
			TotalSupply:          parseDecimal(raw.GPTotalSupply),
			LPTotalSupply:        string(raw.GPLPTotalSupply),
			TrustList:            raw.GPTrustList,
			OtherRisks:           raw.GPOtherPotentialRisks,
			Note:                 raw.GPNote,
			HoldersJSON:          raw.GPHolders,
			LPHoldersJSON:        raw.GPLPHolders,
			DexInfoJSON:          raw.GPDexInfo,
		},

		LiquidityLadder: ladder(raw),

		TotalScans:       int(raw.TotalScans.Or(0)),
		HoneypotFailures: int(raw.HoneypotFailures.Or(0)),
		Status:           raw.Status,
		LastError:        raw.LastError,
	}

	t.Risk = ClassifyRisk(t)
	return t
}

// ladder collects the fixed-checkpoint liquidity snapshots in scan
// order, defaulting absent checkpoints to 0.
func ladder(raw RawToken) []float64 {
	fields := []Number{
		raw.Liq10, raw.Liq20, raw.Liq30, raw.Liq40, raw.Liq50,
		raw.Liq60, raw.Liq70, raw.Liq80, raw.Liq90, raw.Liq100,
		raw.Liq110, raw.Liq120, raw.Liq130, raw.Liq140, raw.Liq150,
		raw.Liq160, raw.Liq170, raw.Liq180, raw.Liq190, raw.Liq200,
	}
	out := make([]float64, LadderCheckpoints)
	for i, f := range fields {
		out[i] = f.Or(0)
	}
	return out
}

// parseDecimal parses a decimal-string quantity, returning zero for
// anything unparseable.
func parseDecimal(t Text) decimal.Decimal {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
