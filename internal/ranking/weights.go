// Package ranking implements the network discovery pipeline: signal
// normalization, weighted scoring with calibration support, boost
// application, deterministic sorting, cursor pagination, and sponsored
// result interleaving.
package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Weights defines the relative contribution of each normalized signal to the
// base score. All signals are in [0, 1], so with the default weights the base
// score is bounded by 1.0.
type Weights struct {
	Trust        float64 `json:"trust"`        // Seller trust score (default: 0.35)
	Recency      float64 `json:"recency"`      // Listing age (default: 0.10)
	Availability float64 `json:"availability"` // Stock depth (default: 0.15)
	Price        float64 `json:"price"`        // Price competitiveness in category (default: 0.25)
	LeadTime     float64 `json:"lead_time"`    // Dispatch lead time (default: 0.10)
	Match        float64 `json:"match"`        // Query match quality (default: 0.05)
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version, logged with every ranked request
	Weights Weights `json:"weights"` // Weight overrides
}

// DefaultWeightsVersion identifies the built-in weight set when no
// calibration file supplies its own version string.
const DefaultWeightsVersion = "v1"

// DefaultWeights returns the default signal weight configuration.
//
// Formula: base = (trust * 0.35) + (recency * 0.10) + (availability * 0.15)
// + (price * 0.25) + (leadTime * 0.10) + (match * 0.05)
//
// Trust dominates: a tier-A seller with a mediocre price should outrank a
// cheap listing from an untracked seller. Price is the second-largest factor
// so buyers still see competitive offers near the top.
func DefaultWeights() *Weights {
	return &Weights{
		Trust:        0.35,
		Recency:      0.10,
		Availability: 0.15,
		Price:        0.25,
		LeadTime:     0.10,
		Match:        0.05,
	}
}

// LoadCalibration loads signal weights from a JSON calibration file.
// If the file doesn't exist or can't be parsed, returns default weights with
// an error so the caller degrades gracefully. Partial configurations are
// merged with defaults; only non-zero overrides apply.
//
// Returns the merged weights, the effective version string, and any error.
func LoadCalibration(filePath string) (*Weights, string, error) {
	if filePath == "" {
		return DefaultWeights(), DefaultWeightsVersion, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), DefaultWeightsVersion, fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), DefaultWeightsVersion, fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	version := config.Version
	if version == "" {
		version = DefaultWeightsVersion
	}
	return merged, version, nil
}

// MergeCalibration merges override weights with base weights.
// Only non-zero values from the override are applied, allowing partial
// overrides in the calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}
	if override == nil {
		result := *base
		return &result
	}

	result := *base

	if override.Trust != 0 {
		result.Trust = override.Trust
	}
	if override.Recency != 0 {
		result.Recency = override.Recency
	}
	if override.Availability != 0 {
		result.Availability = override.Availability
	}
	if override.Price != 0 {
		result.Price = override.Price
	}
	if override.LeadTime != 0 {
		result.LeadTime = override.LeadTime
	}
	if override.Match != 0 {
		result.Match = override.Match
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	if loaded.Trust != defaults.Trust {
		overrides = append(overrides, fmt.Sprintf("trust: %.2f -> %.2f", defaults.Trust, loaded.Trust))
	}
	if loaded.Recency != defaults.Recency {
		overrides = append(overrides, fmt.Sprintf("recency: %.2f -> %.2f", defaults.Recency, loaded.Recency))
	}
	if loaded.Availability != defaults.Availability {
		overrides = append(overrides, fmt.Sprintf("availability: %.2f -> %.2f", defaults.Availability, loaded.Availability))
	}
	if loaded.Price != defaults.Price {
		overrides = append(overrides, fmt.Sprintf("price: %.2f -> %.2f", defaults.Price, loaded.Price))
	}
	if loaded.LeadTime != defaults.LeadTime {
		overrides = append(overrides, fmt.Sprintf("lead_time: %.2f -> %.2f", defaults.LeadTime, loaded.LeadTime))
	}
	if loaded.Match != defaults.Match {
		overrides = append(overrides, fmt.Sprintf("match: %.2f -> %.2f", defaults.Match, loaded.Match))
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
