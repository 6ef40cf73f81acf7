package router

import (
	"encoding/json"

	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

// WriteJSON encodes data as the response body.
func WriteJSON(ctx *fasthttp.RequestCtx, data any) error {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)
	if err := json.NewEncoder(bb).Encode(data); err != nil {
		WriteJSONError(ctx, fasthttp.StatusInternalServerError, "encode response")
		return err
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetBody(bb.B)
	return nil
}

// WriteJSONStatus is WriteJSON with an explicit status code.
func WriteJSONStatus(ctx *fasthttp.RequestCtx, status int, data any) error {
	ctx.SetStatusCode(status)
	return WriteJSON(ctx, data)
}

// WriteJSONError writes {"error": message} with status.
func WriteJSONError(ctx *fasthttp.RequestCtx, status int, message string) {
	ctx.SetStatusCode(status)
	ctx.Response.Header.SetContentType("application/json")
	_ = json.NewEncoder(ctx).Encode(map[string]string{"error": message})
}

// PathParam returns the decoded {name} segment of the matched route.
func PathParam(ctx *fasthttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}
