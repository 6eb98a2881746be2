// Package objects holds wire types shared by the api handlers and
// middleware. To avoid circular dependencies, we put them here.
package objects

type ErrorResponse struct {
	Error Error `json:"error"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Result is the admin API envelope.
type Result struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    any    `json:"data,omitempty"`
}

func OK(data any) Result {
	return Result{Code: 200, Message: "ok", Data: data}
}
