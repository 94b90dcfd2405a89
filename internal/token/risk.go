package token

// taxWarningThreshold is the buy/sell tax percentage above which a
// token is flagged as warning-level.
const taxWarningThreshold = 10

// ClassifyRisk derives the risk level from the honeypot simulation and
// the security scan. Two tiers of independent conditions, evaluated in
// fixed priority: any danger condition wins, then any warning
// condition, else safe.
//
// A token whose security scan explicitly reports closed source is
// danger; a record that never carried the open-source field is not
// penalized, so sparse records classify as safe.
func ClassifyRisk(t Token) RiskLevel {
	sec := t.Security

	switch {
	case t.Honeypot.IsHoneypot,
		sec.IsBlacklisted,
		sec.SelfDestruct,
		sec.HiddenOwner,
		sec.CanTakeBackOwnership,
		sec.IsAirdropScam,
		sec.HoneypotSameCreator,
		sec.FakeToken,
		sec.OpenSourceKnown && !sec.IsOpenSource:
		return RiskDanger
	}

	switch {
	case sec.IsProxy,
		sec.IsMintable,
		sec.SlippageModifiable,
		sec.PersonalSlippageMod,
		sec.CannotSellAll,
		sec.TradingCooldown,
		sec.TransferPausable,
		taxAbove(sec.BuyTax, taxWarningThreshold),
		taxAbove(sec.SellTax, taxWarningThreshold),
		taxAbove(t.Honeypot.BuyTax, taxWarningThreshold),
		taxAbove(t.Honeypot.SellTax, taxWarningThreshold):
		return RiskWarning
	}

	return RiskSafe
}

// SafetyScore orders risk levels for sorting: danger < warning < safe.
func SafetyScore(r RiskLevel) int {
	switch r {
	case RiskDanger:
		return 0
	case RiskWarning:
		return 1
	default:
		return 2
	}
}

func taxAbove(tax *float64, threshold float64) bool {
	return tax != nil && *tax > threshold
}
