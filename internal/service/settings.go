package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"insiderwatch/internal/config"
	"insiderwatch/internal/filter"
	"insiderwatch/internal/models"
	"insiderwatch/internal/repository"
)

const SettingFilterConfig = "insider_filters"

// FilterSettings is the operator-facing shape of the admission filter,
// stored as JSON in the settings table and editable over the API. The
// numeric knobs are pointers so an explicit zero (disable) survives the
// round trip instead of collapsing into "absent, use the default".
type FilterSettings struct {
	AllowedInsiderTitles        []string `json:"allowed_insider_titles,omitempty"`
	MinTransactionValue         *float64 `json:"min_transaction_value,omitempty"`
	PreviousDayOnly             bool     `json:"previous_day_only"`
	MinMarketCap                *float64 `json:"min_market_cap"`
	OptionsDealThresholdPercent *float64 `json:"options_deal_threshold_percent"`
}

// FilterSettingsService reads and writes the admission-filter configuration.
// The poller takes one snapshot per cycle so a mid-cycle edit never produces
// a mixed filter state.
type FilterSettingsService struct {
	Repo     repository.Repository
	Defaults config.FilterConfig
	Logger   *zap.Logger
}

func (s *FilterSettingsService) defaultSettings() FilterSettings {
	minCap := s.Defaults.MinMarketCap
	threshold := s.Defaults.OptionsDealThresholdPercent
	settings := FilterSettings{
		AllowedInsiderTitles:        s.Defaults.AllowedInsiderTitles,
		PreviousDayOnly:             s.Defaults.PreviousDayOnly,
		MinMarketCap:                &minCap,
		OptionsDealThresholdPercent: &threshold,
	}
	if s.Defaults.MinTransactionValue > 0 {
		value := s.Defaults.MinTransactionValue
		settings.MinTransactionValue = &value
	}
	return settings
}

// EnsureDefaults seeds the settings row from the bootstrap config when the
// store has none yet. Operator edits are never overwritten.
func (s *FilterSettingsService) EnsureDefaults(ctx context.Context) error {
	if s.Repo == nil {
		return nil
	}
	existing, err := s.Repo.GetSystemSetting(ctx, SettingFilterConfig)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return s.Update(ctx, s.defaultSettings())
}

// Get returns the stored settings, falling back to bootstrap defaults when
// the row is missing or unreadable.
func (s *FilterSettingsService) Get(ctx context.Context) (FilterSettings, error) {
	if s.Repo == nil {
		return s.defaultSettings(), nil
	}
	row, err := s.Repo.GetSystemSetting(ctx, SettingFilterConfig)
	if err != nil {
		return s.defaultSettings(), err
	}
	if row == nil {
		return s.defaultSettings(), nil
	}
	var settings FilterSettings
	if err := json.Unmarshal(row.Value, &settings); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("unreadable filter settings, using defaults", zap.Error(err))
		}
		return s.defaultSettings(), nil
	}
	return settings, nil
}

func (s *FilterSettingsService) Update(ctx context.Context, settings FilterSettings) error {
	if s.Repo == nil {
		return nil
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding filter settings: %w", err)
	}
	return s.Repo.UpsertSystemSetting(ctx, &models.SystemSetting{
		Key:   SettingFilterConfig,
		Value: datatypes.JSON(payload),
	})
}

// Snapshot converts the stored settings into the filter engine's config.
// Absent knobs resolve to the bootstrap defaults; explicit zeros pass
// through unchanged so operators can disable a screen.
func (s *FilterSettingsService) Snapshot(ctx context.Context) filter.Config {
	settings, err := s.Get(ctx)
	if err != nil && s.Logger != nil {
		s.Logger.Warn("filter settings read failed, using defaults", zap.Error(err))
	}
	minCap := s.Defaults.MinMarketCap
	if settings.MinMarketCap != nil {
		minCap = *settings.MinMarketCap
	}
	threshold := s.Defaults.OptionsDealThresholdPercent
	if settings.OptionsDealThresholdPercent != nil {
		threshold = *settings.OptionsDealThresholdPercent
	}
	cfg := filter.Config{
		AllowedInsiderTitles:        settings.AllowedInsiderTitles,
		PreviousDayOnly:             settings.PreviousDayOnly,
		MinMarketCap:                decimal.NewFromFloat(minCap),
		OptionsDealThresholdPercent: decimal.NewFromFloat(threshold),
	}
	if settings.MinTransactionValue != nil && *settings.MinTransactionValue > 0 {
		value := decimal.NewFromFloat(*settings.MinTransactionValue)
		cfg.MinTransactionValue = &value
	}
	return cfg
}
