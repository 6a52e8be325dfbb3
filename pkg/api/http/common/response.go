package common

// CancelResponse is the response from a cancel operation, specific to HTTP.
type CancelResponse struct {
	// Canceled reports that the job reached CANCELED.
	Canceled bool `json:"canceled"`
}
