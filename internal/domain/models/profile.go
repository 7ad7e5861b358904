package models

import "time"

// ProfileBin is one price bucket of a volume profile.
type ProfileBin struct {
	PriceLow       float64 `json:"price_low"`
	PriceHigh      float64 `json:"price_high"`
	PriceMid       float64 `json:"price_mid"`
	Volume         float64 `json:"volume"`
	ValueArea      bool    `json:"value_area"`
	PointOfControl bool    `json:"point_of_control"`
}

// VolumeProfile is an ordered-by-price set of bins covering the full
// price range of a series. Exactly one bin carries the POC flag. An
// empty input series yields a single degenerate zero bin with NoData set.
type VolumeProfile struct {
	Bins   []ProfileBin `json:"bins"`
	NoData bool         `json:"no_data,omitempty"`
}

// POC returns the point-of-control bin.
func (p VolumeProfile) POC() ProfileBin {
	for _, b := range p.Bins {
		if b.PointOfControl {
			return b
		}
	}
	return ProfileBin{}
}

// TotalVolume sums the accumulated volume across all bins.
func (p VolumeProfile) TotalVolume() float64 {
	var total float64
	for _, b := range p.Bins {
		total += b.Volume
	}
	return total
}

// ProfileSummary carries the derived volume-profile metrics for one
// symbol and timeframe, including the qualitative relation of the
// current price to POC and value area.
type ProfileSummary struct {
	Symbol         string    `json:"symbol"`
	Timeframe      string    `json:"timeframe"`
	CurrentPrice   float64   `json:"current_price"`
	PointOfControl float64   `json:"point_of_control"`
	ValueAreaHigh  float64   `json:"value_area_high"`
	ValueAreaLow   float64   `json:"value_area_low"`
	VsPOC          string    `json:"position_relative_to_poc"` // "above" | "below" | "unknown"
	VsValueArea    string    `json:"position_relative_to_va"`  // "inside" | "outside" | "unknown"
	DataAvailable  bool      `json:"data_available"`
	Timestamp      time.Time `json:"analysis_timestamp"`
}
