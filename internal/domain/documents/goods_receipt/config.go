package goods_receipt

import "receiptflow/internal/core/numerator"

// NumberConfig is the numbering scheme of receipts: GR-YYYY-NNNNN, gapless, reset yearly.
func NumberConfig() numerator.Config {
	cfg := numerator.DefaultConfig("GR")
	cfg.Strategy = numerator.StrategyStrict
	return cfg
}
