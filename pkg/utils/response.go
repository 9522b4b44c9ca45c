package utils

// ResponseData is the standard REST response envelope.
type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded panics on a non-nil error so the recovery middleware can turn
// typed errors into their proper HTTP responses.
func PanicIfNeeded(err any) {
	if err != nil {
		panic(err)
	}
}
