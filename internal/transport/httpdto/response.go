package httpdto

// Response is the envelope of every JSON body under /api. Exactly one of
// Data or Error is meaningful, selected by Success.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitzero"`
	Count   *int   `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: data}
}

// NewListResponse always encodes items as an array, never null, and reports
// its length.
func NewListResponse[T any](items []T) Response[[]T] {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	return Response[[]T]{Success: true, Data: items, Count: &n}
}

func NewErrorResponse(msg, code string) Response[struct{}] {
	return Response[struct{}]{Error: msg, Code: code}
}
