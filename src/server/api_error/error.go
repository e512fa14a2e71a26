package api_error

// JSONAPIError is the wire shape of every error response from the
// extraction API.
type JSONAPIError struct {
	Code         string `json:"code"`
	Msg          string `json:"msg"`
	ErrorDetails string `json:"error_details"`
}
