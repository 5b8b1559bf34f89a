package models

import "encoding/json"

// SiteConfigName is the reserved product name that carries the site
// configuration in its description field. The record is a convention of
// the remote API, not a separate endpoint, and must never reach the
// displayed catalog.
const SiteConfigName = "__SITE_CONFIG__"

// Product mirrors one product object of the remote API.
type Product struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock"`
	IsPromotion bool    `json:"isPromotion"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
}

// SiteConfig is the JSON payload hidden inside the sentinel record's
// description. Only the theme selector is guaranteed; anything else the
// backend adds later is ignored here.
type SiteConfig struct {
	Theme string `json:"theme"`
}

// ParseSiteConfig decodes a sentinel record's description.
func ParseSiteConfig(description string) (SiteConfig, error) {
	var cfg SiteConfig
	err := json.Unmarshal([]byte(description), &cfg)
	return cfg, err
}
