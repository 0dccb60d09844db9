package dedupe

import "propscan_backend/platform/config"

// GatesFromConfig builds the similarity gates from the environment,
// falling back to the defaults for any unset threshold.
func GatesFromConfig(cfg config.MatcherConfig) Gates {
	g := DefaultGates()
	if v := cfg.GetAddressSimilarityGate(); v > 0 {
		g.AddressGate = v
	}
	if v := cfg.GetPriceTolerancePct(); v > 0 {
		g.PricePct = v
	}
	if v := cfg.GetPriceToleranceTightPct(); v > 0 {
		g.PriceTightPct = v
	}
	if v := cfg.GetPriceTightThreshold(); v > 0 {
		g.PriceTightThreshold = v
	}
	if v := cfg.GetSizeToleranceSqm(); v > 0 {
		g.SizeSqm = v
	}
	if v := cfg.GetImageMaxHammingDistance(); v > 0 {
		g.ImageMaxHamming = v
	}
	return g
}
