package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// CountResponse reports how many contexts a sync call wrote
type CountResponse struct {
	Count int `json:"count"`
}
