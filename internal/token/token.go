package token

import "github.com/shopspring/decimal"

// RiskLevel is the derived classification of a token.
type RiskLevel string

const (
	RiskSafe    RiskLevel = "safe"
	RiskWarning RiskLevel = "warning"
	RiskDanger  RiskLevel = "danger"
)

// LadderCheckpoints is the number of liquidity-ladder samples bundled
// on every scan record (scan counts 10, 20, ... 200).
const LadderCheckpoints = 20

// Token is the canonical, fully-typed entity. Identity is Address;
// lookups are case-insensitive but the value is stored as provided.
// Pointer numerics are nil when the scanner never reported the field,
// so the UI can render "N/A" instead of a misleading zero.
type Token struct {
	Address       string
	PairAddress   string
	Name          string
	Symbol        string
	Decimals      *float64
	TotalSupply   decimal.Decimal
	AgeHours      *float64
	ScanTimestamp string

	Honeypot HoneypotResult
	Security SecurityScan

	// LiquidityLadder holds the fixed-checkpoint liquidity snapshots
	// (scan counts 10..200); absent checkpoints default to 0.
	LiquidityLadder []float64

	TotalScans       int
	HoneypotFailures int
	Status           string
	LastError        string

	// Risk is derived, never carried on the wire.
	Risk RiskLevel
}

// HoneypotResult is the outcome of the buy/sell transaction simulation.
type HoneypotResult struct {
	SimulationSuccess bool
	IsHoneypot        bool
	HoneypotReason    string

	BuyTax      *float64
	SellTax     *float64
	TransferTax *float64
	BuyGasUsed  *float64
	SellGasUsed *float64

	LiquidityAmount *float64
	PairReserves0   decimal.Decimal
	PairReserves1   decimal.Decimal
	PairToken0Sym   string
	PairToken1Sym   string
	HolderCount     *float64

	OwnerAddress    string
	CreatorAddress  string
	DeployerAddress string
	CreationTime    string

	IsOpenSource  bool
	IsProxy       bool
	IsMintable    bool
	HasProxyCalls bool
}

// SecurityScan is the independent GoPlus-style contract analysis.
// OpenSourceKnown distinguishes "scan says closed source" from "scan
// never reported the field"; only the former is a risk signal.
type SecurityScan struct {
	OpenSourceKnown bool
	IsOpenSource    bool

	IsProxy              bool
	IsMintable           bool
	CanBeMinted          bool
	CanTakeBackOwnership bool
	OwnerChangeBalance   bool
	HiddenOwner          bool
	SelfDestruct         bool
	ExternalCall         bool
	IsAntiWhale          bool
	AntiWhaleModifiable  bool
	CannotBuy            bool
	CannotSellAll        bool
	SlippageModifiable   bool
	PersonalSlippageMod  bool
	TradingCooldown      bool
	IsBlacklisted        bool
	IsWhitelisted        bool
	IsInDex              bool
	TransferPausable     bool
	IsTrueToken          bool
	IsAirdropScam        bool
	HoneypotSameCreator  bool
	FakeToken            bool

	BuyTax  *float64
	SellTax *float64

	OwnerAddress   string
	CreatorAddress string
	OwnerPercent   *float64
	CreatorPercent *float64
	OwnerBalance   string
	CreatorBalance string

	HolderCount   *float64
	LPHolderCount *float64
	TotalSupply   decimal.Decimal
	LPTotalSupply string

	TrustList  string
	OtherRisks string
	Note       string

	// Raw JSON blobs from the scan, kept verbatim for display.
	HoldersJSON   string
	LPHoldersJSON string
	DexInfoJSON   string
}

// Holders returns the best available holder count: the security scan's
// figure when present, else the honeypot simulation's.
func (t Token) Holders() float64 {
	if t.Security.HolderCount != nil {
		return *t.Security.HolderCount
	}
	if t.Honeypot.HolderCount != nil {
		return *t.Honeypot.HolderCount
	}
	return 0
}

// Liquidity returns the honeypot simulation's pool liquidity, 0 when
// unreported.
func (t Token) Liquidity() float64 {
	if t.Honeypot.LiquidityAmount != nil {
		return *t.Honeypot.LiquidityAmount
	}
	return 0
}

// Age returns the token age in hours, 0 when unreported.
func (t Token) Age() float64 {
	if t.AgeHours != nil {
		return *t.AgeHours
	}
	return 0
}

// LadderTail returns the last n non-leading-zero ladder checkpoints,
// the coarse on-row series the stagnant filters classify. Leading
// zeros are unsampled checkpoints, not observations.
func (t Token) LadderTail(n int) []float64 {
	start := 0
	for start < len(t.LiquidityLadder) && t.LiquidityLadder[start] == 0 {
		start++
	}
	tail := t.LiquidityLadder[start:]
	if n > 0 && len(tail) > n {
		tail = tail[len(tail)-n:]
	}
	return tail
}
