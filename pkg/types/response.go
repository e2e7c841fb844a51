package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// PageMeta mirrors the limit/offset pagination shape of the upstream catalog.
type PageMeta struct {
	Count  int64 `json:"count"`
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

type PagedEnvelope struct {
	Data any      `json:"data"`
	Page PageMeta `json:"page"`
}
