package config

import "time"

type APIConfig struct {
	Token         string `yaml:"token"`
	PricesBaseURL string `yaml:"pricesBaseUrl"`
	StocksBaseURL string `yaml:"stocksBaseUrl"`
}

type Config struct {
	API APIConfig `yaml:"api"`

	// TargetDir is where acquired price templates are stored and searched.
	// BaseDir, when set, is searched first for brand price lists.
	TargetDir string `yaml:"targetDir"`
	BaseDir   string `yaml:"baseDir"`

	Brands []string `yaml:"brands"`

	WarehouseID     int64   `yaml:"warehouseId"`
	PriceMultiplier float64 `yaml:"priceMultiplier"`

	AutoAdjustPrices bool `yaml:"autoAdjustPrices"`
	AcquireTemplate  bool `yaml:"acquireTemplate"`

	ReportPath string `yaml:"reportPath"`
	LogFile    string `yaml:"logFile"`
	Debug      bool   `yaml:"debug"`
}

const (
	DefaultPricesBaseURL = "https://discounts-prices-api.wildberries.ru/api/v2"
	DefaultStocksBaseURL = "https://marketplace-api.wildberries.ru/api/v3"

	// DefaultWarehouseID is the single warehouse whose stock this tool
	// maintains. Stock updates are absolute overwrites scoped to it.
	DefaultWarehouseID int64 = 1619436

	DefaultPriceMultiplier = 1.5
)

const (
	PriceUploadTimeout = 120 * time.Second
	StockUpdateTimeout = 60 * time.Second
)

func Default() Config {
	return Config{
		API: APIConfig{
			PricesBaseURL: DefaultPricesBaseURL,
			StocksBaseURL: DefaultStocksBaseURL,
		},
		TargetDir:        ".",
		Brands:           []string{"BOSCH", "TRIALLI", "MANN"},
		WarehouseID:      DefaultWarehouseID,
		PriceMultiplier:  DefaultPriceMultiplier,
		AutoAdjustPrices: true,
		AcquireTemplate:  true,
	}
}
