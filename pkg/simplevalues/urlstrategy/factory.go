package urlstrategy

import (
	"fmt"
)

// URLStrategyType represents the type of URL strategy
type URLStrategyType string

const (
	// CDN strategy for maximum performance with direct CDN URLs
	StrategyTypeCDN URLStrategyType = "cdn"

	// Content-based strategy for application-routed URLs
	StrategyTypeContentBased URLStrategyType = "content-based"

	// Storage-delegated strategy for presigned storage URLs
	StrategyTypeStorageDelegated URLStrategyType = "storage-delegated"
)

// Config holds configuration for URL strategy creation
type Config struct {
	Type       URLStrategyType
	CDNBaseURL string // For CDN strategy
	APIBaseURL string // For content-based strategy
	Signer     Signer // For storage-delegated strategy
}

// NewURLStrategy creates a URL strategy based on the configuration
func NewURLStrategy(config Config) (MediaURLStrategy, error) {
	switch config.Type {
	case StrategyTypeCDN:
		if config.CDNBaseURL == "" {
			return nil, fmt.Errorf("CDN base URL is required for CDN strategy")
		}
		return NewCDNStrategy(config.CDNBaseURL), nil

	case StrategyTypeContentBased:
		if config.APIBaseURL == "" {
			return nil, fmt.Errorf("API base URL is required for content-based strategy")
		}
		return NewContentBasedStrategy(config.APIBaseURL), nil

	case StrategyTypeStorageDelegated:
		if config.Signer == nil {
			return nil, fmt.Errorf("storage signer is required for storage-delegated strategy")
		}
		return NewStorageDelegatedStrategy(config.Signer), nil

	default:
		return nil, fmt.Errorf("unknown URL strategy type: %s", config.Type)
	}
}

// NewRecommendedStrategy creates the recommended URL strategy based on environment
func NewRecommendedStrategy(environment string, cdnURL string, apiURL string) MediaURLStrategy {
	if apiURL == "" {
		apiURL = "/api/v1"
	}
	if environment == "production" && cdnURL != "" {
		return NewCDNStrategy(cdnURL)
	}
	// Development and staging - use content-based for easier debugging
	return NewContentBasedStrategy(apiURL)
}
