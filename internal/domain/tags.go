package domain

// Strategy market type tags
const (
	MarketTypeStocks  = "stocks"
	MarketTypeOptions = "options"
	MarketTypeCrypto  = "crypto"
	MarketTypeSports  = "sports"
	MarketTypeForex   = "forex"
)

// Strategy timeframe tags
const (
	Timeframe1m     = "1m"
	Timeframe5m     = "5m"
	Timeframe15m    = "15m"
	Timeframe1h     = "1h"
	Timeframe4h     = "4h"
	TimeframeDaily  = "daily"
	TimeframeWeekly = "weekly"
)

// Strategy category tags
const (
	CategoryTrendAnalysis       = "trend-analysis"
	CategoryHarmonicPatterns    = "harmonic-patterns"
	CategoryChartPatterns       = "chart-patterns"
	CategoryTechnicalIndicators = "technical-indicators"
	CategoryWaveAnalysis        = "wave-analysis"
	CategoryGann                = "gann"
	CategoryFundamentalAnalysis = "fundamental-analysis"
	CategoryBeyondTechnical     = "beyond-technical"
)

var (
	MarketTypes = []string{
		MarketTypeStocks, MarketTypeOptions, MarketTypeCrypto, MarketTypeSports, MarketTypeForex,
	}
	Timeframes = []string{
		Timeframe1m, Timeframe5m, Timeframe15m, Timeframe1h, Timeframe4h, TimeframeDaily, TimeframeWeekly,
	}
	Categories = []string{
		CategoryTrendAnalysis, CategoryHarmonicPatterns, CategoryChartPatterns,
		CategoryTechnicalIndicators, CategoryWaveAnalysis, CategoryGann,
		CategoryFundamentalAnalysis, CategoryBeyondTechnical,
	}
)
