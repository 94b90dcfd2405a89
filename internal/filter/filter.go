// Package filter turns the token collection and the user's filter
// configuration into the ordered, capped display sequence.
package filter

import (
	"sort"
	"strings"

	"github.com/scanwatch/dashboard/internal/token"
	"github.com/scanwatch/dashboard/internal/trend"
)

// Sort field identifiers. The bare name sorts descending; the _asc
// suffix flips direction. Safety is the exception: its base order is
// ascending (danger < warning < safe) and safety_desc flips it.
const (
	SortAge          = "age"
	SortAgeAsc       = "age_asc"
	SortHolders      = "holders"
	SortHoldersAsc   = "holders_asc"
	SortLiquidity    = "liquidity"
	SortLiquidityAsc = "liquidity_asc"
	SortSafety       = "safetyScore"
	SortSafetyDesc   = "safetyScore_desc"
)

// State is the full filter configuration. It is persisted as one JSON
// object and rewritten wholesale on every change.
type State struct {
	MinHolders   float64 `json:"minHolders"`
	MinLiquidity float64 `json:"minLiquidity"`

	HideHoneypots bool `json:"hideHoneypots"`
	OnlyHoneypots bool `json:"onlyHoneypots"`
	HideDanger    bool `json:"hideDanger"`
	HideWarning   bool `json:"hideWarning"`
	OnlySafe      bool `json:"onlySafe"`

	HideStagnantHolders   bool `json:"hideStagnantHolders"`
	HideStagnantLiquidity bool `json:"hideStagnantLiquidity"`

	Search string `json:"search"`
	SortBy string `json:"sortBy"`

	MaxRecords     int `json:"maxRecords"`
	StagnantWindow int `json:"stagnantWindow"`
}

// Default returns the startup configuration used when nothing is
// persisted yet.
func Default() State {
	return State{
		SortBy:         SortAge,
		MaxRecords:     100,
		StagnantWindow: 5,
	}
}

// TrendSource supplies history-derived trend directions for the
// stagnant filters. May be nil; tokens without trend data always pass.
type TrendSource interface {
	Trends(address string) (liquidity, holders trend.Direction, ok bool)
}

// Apply filters, orders and caps the token set. It is a total
// recomputation: the same inputs always produce the same output slice,
// with no memoization between calls.
func Apply(tokens []token.Token, st State, trends TrendSource) []token.Token {
	out := make([]token.Token, 0, len(tokens))
	for _, t := range tokens {
		if passes(t, st, trends) {
			out = append(out, t)
		}
	}

	sortTokens(out, st.SortBy)

	if st.MaxRecords > 0 && len(out) > st.MaxRecords {
		out = out[:st.MaxRecords]
	}
	return out
}

func passes(t token.Token, st State, trends TrendSource) bool {
	if st.HideHoneypots && t.Honeypot.IsHoneypot {
		return false
	}
	if st.OnlyHoneypots && !t.Honeypot.IsHoneypot {
		return false
	}
	if st.HideDanger && t.Risk == token.RiskDanger {
		return false
	}
	if st.HideWarning && t.Risk == token.RiskWarning {
		return false
	}
	if st.OnlySafe && t.Risk != token.RiskSafe {
		return false
	}
	if st.MinHolders > 0 && t.Holders() < st.MinHolders {
		return false
	}
	if st.MinLiquidity > 0 && t.Liquidity() < st.MinLiquidity {
		return false
	}
	if !matchesSearch(t, st.Search) {
		return false
	}
	if st.HideStagnantLiquidity && liquidityStagnant(t, st, trends) {
		return false
	}
	if st.HideStagnantHolders && holdersStagnant(t, trends) {
		return false
	}
	return true
}

// matchesSearch is a case-insensitive substring match against name,
// symbol and address.
func matchesSearch(t token.Token, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.Symbol), q) ||
		strings.Contains(strings.ToLower(t.Address), q)
}

// liquidityStagnant prefers history-derived trends, falling back to
// the on-row liquidity ladder. A token with fewer than two ladder
// observations is not classifiable and always passes.
func liquidityStagnant(t token.Token, st State, trends TrendSource) bool {
	if trends != nil {
		if liq, _, ok := trends.Trends(t.Address); ok {
			return liq == trend.Stagnant
		}
	}
	tail := t.LadderTail(st.StagnantWindow)
	if len(tail) < 2 {
		return false
	}
	return trend.Classify(tail) == trend.Stagnant
}

// holdersStagnant has no on-row fallback; without history data the
// token passes.
func holdersStagnant(t token.Token, trends TrendSource) bool {
	if trends == nil {
		return false
	}
	_, holders, ok := trends.Trends(t.Address)
	return ok && holders == trend.Stagnant
}

// sortTokens orders the filtered set. sort.SliceStable keeps the
// collection's deterministic base order for ties.
func sortTokens(tokens []token.Token, sortBy string) {
	var less func(a, b token.Token) bool

	switch sortBy {
	case SortAgeAsc:
		less = func(a, b token.Token) bool { return a.Age() < b.Age() }
	case SortHolders:
		less = func(a, b token.Token) bool { return a.Holders() > b.Holders() }
	case SortHoldersAsc:
		less = func(a, b token.Token) bool { return a.Holders() < b.Holders() }
	case SortLiquidity:
		less = func(a, b token.Token) bool { return a.Liquidity() > b.Liquidity() }
	case SortLiquidityAsc:
		less = func(a, b token.Token) bool { return a.Liquidity() < b.Liquidity() }
	case SortSafety:
		less = func(a, b token.Token) bool {
			return token.SafetyScore(a.Risk) < token.SafetyScore(b.Risk)
		}
	case SortSafetyDesc:
		less = func(a, b token.Token) bool {
			return token.SafetyScore(a.Risk) > token.SafetyScore(b.Risk)
		}
	default: // SortAge
		less = func(a, b token.Token) bool { return a.Age() > b.Age() }
	}

	sort.SliceStable(tokens, func(i, j int) bool { return less(tokens[i], tokens[j]) })
}
