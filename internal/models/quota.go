package models

// QuotaKey identifies one usage counter: an identity on a calendar day.
type QuotaKey struct {
	Identity string // "user:<id>" or "guest:<address>"
	Day      string // YYYY-MM-DD in the service clock
}

func (k QuotaKey) String() string {
	return k.Identity + ":" + k.Day
}

// UsageStatus is returned by the usage endpoint.
type UsageStatus struct {
	Identity  string `json:"identity"`
	Day       string `json:"day"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}
