package models

// QuoteRequest describes a parcel to price. Dimensions are in centimetres, weight in kilograms per package.
type QuoteRequest struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Weight      float64 `json:"weight" validate:"gt=0"`
	Length      float64 `json:"length" validate:"gte=0"`
	Width       float64 `json:"width" validate:"gte=0"`
	Height      float64 `json:"height" validate:"gte=0"`
	Packages    int     `json:"packages" validate:"gte=0"`
}

// QuoteOption is one service level price.
type QuoteOption struct {
	Code              string  `json:"code"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	EstimatedDelivery string  `json:"estimated_delivery"`
}

// RateQuote is a price computed from a stored shipping rate.
type RateQuote struct {
	RateID    int64    `json:"rate_id"`
	Name      string   `json:"name"`
	Type      RateType `json:"type"`
	Base      float64  `json:"base"`
	Insurance float64  `json:"insurance"`
	Pickup    float64  `json:"pickup"`
	Total     float64  `json:"total"`
}

// Quote is the result of pricing a parcel.
type Quote struct {
	ActualWeight     float64       `json:"actual_weight"`
	VolumetricWeight float64       `json:"volumetric_weight"`
	TaxedWeight      float64       `json:"taxed_weight"`
	OriginZone       string        `json:"origin_zone,omitempty"`
	Options          []QuoteOption `json:"options"`
	Rates            []RateQuote   `json:"rates"`
}
