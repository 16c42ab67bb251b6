package models

// HarvestMonth is the harvest of one location for one month and product pair.
type HarvestMonth struct {
	Month                 string  `json:"month"`
	MainProduct           string  `json:"harvest_main_product"`
	OtherProduct          string  `json:"harvest_other_product"`
	TotalWeight           float64 `json:"total_weight"`
	AvgHarvestWeight      float64 `json:"avg_harvest_weight"`
	AvgOtherHarvestWeight float64 `json:"avg_other_harvest_weight"`
}

// HarvestChart is the weight chart shown beside a map marker.
// Today is only set when the location harvested on the current day.
type HarvestChart struct {
	Monthly []HarvestMonth `json:"monthly"`
	Today   *HarvestMonth  `json:"today,omitempty"`
}
