package domain

import "time"

type ReferralLink struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Code        string    `json:"code"`
	Campaign    string    `json:"campaign"`
	Destination string    `json:"destination"`
	Visits      int       `json:"visits"`
	Signups     int       `json:"signups"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ReferralStats struct {
	Links          int     `json:"links"`
	Visits         int     `json:"visits"`
	Signups        int     `json:"signups"`
	ConversionRate float64 `json:"conversionRate"`
}
