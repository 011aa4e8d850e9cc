/**
 * @description
 * This file handles the configuration management for the pricing service.
 * It uses the 'viper' library to load configuration from environment
 * variables, providing a centralized and consistent way to manage
 * application settings — including the full price table, so pricing can be
 * tuned per deployment without code changes.
 */
package config

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/kandjiabdou/yessal-sub001/internal/loyalty"
	"github.com/kandjiabdou/yessal-sub001/internal/pricing"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort     string `mapstructure:"SERVER_PORT"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	InternalAPIKey string `mapstructure:"INTERNAL_API_KEY"`

	AccrualReconcileSchedule string `mapstructure:"ACCRUAL_RECONCILE_SCHEDULE"`
	AccrualReconcileBatch    int    `mapstructure:"ACCRUAL_RECONCILE_BATCH"`

	// Price table. Amounts are whole currency units, rates are per kg,
	// discounts are percentages.
	Machine20kgPrice            int64   `mapstructure:"MACHINE_20KG_PRICE"`
	Machine6kgPrice             int64   `mapstructure:"MACHINE_6KG_PRICE"`
	DetailRatePerKg             int64   `mapstructure:"DETAIL_RATE_PER_KG"`
	DeliveryFee                 int64   `mapstructure:"DELIVERY_FEE"`
	DryingRatePerKg             int64   `mapstructure:"DRYING_RATE_PER_KG"`
	IroningRatePerKg            int64   `mapstructure:"IRONING_RATE_PER_KG"`
	ExpressFee                  int64   `mapstructure:"EXPRESS_FEE"`
	StudentDiscountPercent      float64 `mapstructure:"STUDENT_DISCOUNT_PERCENT"`
	OpeningPromoDiscountPercent float64 `mapstructure:"OPENING_PROMO_DISCOUNT_PERCENT"`
	PremiumMonthlyQuotaKg       float64 `mapstructure:"PREMIUM_MONTHLY_QUOTA_KG"`
	MinOrderWeightKg            float64 `mapstructure:"MIN_ORDER_WEIGHT_KG"`
	SmallMachineSlackKg         float64 `mapstructure:"SMALL_MACHINE_SLACK_KG"`

	// Loyalty thresholds.
	LoyaltyWashesPerFreeWash int64   `mapstructure:"LOYALTY_WASHES_PER_FREE_WASH"`
	LoyaltyDetailMilestoneKg float64 `mapstructure:"LOYALTY_DETAIL_MILESTONE_KG"`
}

var configKeys = []string{
	"SERVER_PORT",
	"DATABASE_URL",
	"RABBITMQ_URL",
	"INTERNAL_API_KEY",
	"ACCRUAL_RECONCILE_SCHEDULE",
	"ACCRUAL_RECONCILE_BATCH",
	"MACHINE_20KG_PRICE",
	"MACHINE_6KG_PRICE",
	"DETAIL_RATE_PER_KG",
	"DELIVERY_FEE",
	"DRYING_RATE_PER_KG",
	"IRONING_RATE_PER_KG",
	"EXPRESS_FEE",
	"STUDENT_DISCOUNT_PERCENT",
	"OPENING_PROMO_DISCOUNT_PERCENT",
	"PREMIUM_MONTHLY_QUOTA_KG",
	"MIN_ORDER_WEIGHT_KG",
	"SMALL_MACHINE_SLACK_KG",
	"LOYALTY_WASHES_PER_FREE_WASH",
	"LOYALTY_DETAIL_MILESTONE_KG",
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("ACCRUAL_RECONCILE_SCHEDULE", "*/15 * * * *") // Every 15 minutes.
	viper.SetDefault("ACCRUAL_RECONCILE_BATCH", 100)

	defaults := pricing.DefaultTariff()
	viper.SetDefault("MACHINE_20KG_PRICE", defaults.Machine20kgPrice)
	viper.SetDefault("MACHINE_6KG_PRICE", defaults.Machine6kgPrice)
	viper.SetDefault("DETAIL_RATE_PER_KG", defaults.DetailRatePerKg)
	viper.SetDefault("DELIVERY_FEE", defaults.DeliveryFee)
	viper.SetDefault("DRYING_RATE_PER_KG", defaults.DryingRatePerKg)
	viper.SetDefault("IRONING_RATE_PER_KG", defaults.IroningRatePerKg)
	viper.SetDefault("EXPRESS_FEE", defaults.ExpressFee)
	viper.SetDefault("STUDENT_DISCOUNT_PERCENT", 10.0)
	viper.SetDefault("OPENING_PROMO_DISCOUNT_PERCENT", 5.0)
	viper.SetDefault("PREMIUM_MONTHLY_QUOTA_KG", 40.0)
	viper.SetDefault("MIN_ORDER_WEIGHT_KG", 6.0)
	viper.SetDefault("SMALL_MACHINE_SLACK_KG", 1.5)

	rules := loyalty.DefaultRules()
	viper.SetDefault("LOYALTY_WASHES_PER_FREE_WASH", rules.WashesPerFreeWash)
	viper.SetDefault("LOYALTY_DETAIL_MILESTONE_KG", 70.0)

	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	for _, key := range configKeys {
		_ = viper.BindEnv(key)
	}

	err = viper.Unmarshal(&config)
	return
}

// Tariff builds the pricing table the engine is constructed with.
func (c Config) Tariff() pricing.Tariff {
	hundred := decimal.NewFromInt(100)
	return pricing.Tariff{
		Machine20kgPrice:         c.Machine20kgPrice,
		Machine6kgPrice:          c.Machine6kgPrice,
		DetailRatePerKg:          c.DetailRatePerKg,
		DeliveryFee:              c.DeliveryFee,
		DryingRatePerKg:          c.DryingRatePerKg,
		IroningRatePerKg:         c.IroningRatePerKg,
		ExpressFee:               c.ExpressFee,
		StudentDiscountRate:      decimal.NewFromFloat(c.StudentDiscountPercent).Div(hundred),
		OpeningPromoDiscountRate: decimal.NewFromFloat(c.OpeningPromoDiscountPercent).Div(hundred),
		PremiumMonthlyQuotaKg:    decimal.NewFromFloat(c.PremiumMonthlyQuotaKg),
		MinOrderWeightKg:         decimal.NewFromFloat(c.MinOrderWeightKg),
		SmallMachineSlackKg:      decimal.NewFromFloat(c.SmallMachineSlackKg),
	}
}

// LoyaltyRules builds the accrual thresholds.
func (c Config) LoyaltyRules() loyalty.Rules {
	return loyalty.Rules{
		WashesPerFreeWash: c.LoyaltyWashesPerFreeWash,
		DetailMilestoneKg: decimal.NewFromFloat(c.LoyaltyDetailMilestoneKg),
	}
}
