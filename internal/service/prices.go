package service

import (
	"github.com/digkill/futurepro/internal/config"
	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/pricing"
)

// defaultBasePrices is the configured global price table, falling back to the built-in one.
func defaultBasePrices(cfg config.Config) models.BasePrices {
	return models.BasePrices{
		Image:   cfg.PriceImageBase,
		Video10: cfg.PriceVideo10Base,
		Video20: cfg.PriceVideo20Base,
	}.WithDefaults(pricing.DefaultBasePrices)
}
