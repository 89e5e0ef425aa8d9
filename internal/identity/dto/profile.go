package dto

import "time"

type TravelerInfoInput struct {
	DestinationCountry string     `json:"destination_country"`
	DepartureTime      *time.Time `json:"departure_time"`
	ArrivalTime        *time.Time `json:"arrival_time"`
	CostPerKg          float64    `json:"cost_per_kg"`
	PickUpLocation     string     `json:"pick_up_location"`
	Airline            string     `json:"airline"`
	StorageAvailable   string     `json:"storage_available"`
}

type CompleteProfileInput struct {
	PhoneNumber     string             `json:"phone_number"`
	Country         string             `json:"country"`
	Role            string             `json:"role"`
	TermsAccepted   bool               `json:"terms_and_conditions"`
	PrivacyAccepted bool               `json:"privacy_policy"`
	DocumentType    string             `json:"document_type"`
	DocumentURL     string             `json:"document_url"`
	TravelerInfo    *TravelerInfoInput `json:"traveler_info,omitempty"`
}

type CompleteProfileOutput struct {
	UserID      string `json:"user_id"`
	CurrentStep string `json:"current_step"`
	NextStep    string `json:"next_step"`
}
