package api

import (
	"fmt"
	"strconv"

	"github.com/valyala/fasthttp"
)

// queryUint parses the named query argument, returning def when absent.
func queryUint(ctx *fasthttp.RequestCtx, name string, def uint64) (uint64, error) {
	raw := ctx.QueryArgs().Peek(name)
	if len(raw) == 0 {
		return def, nil
	}
	v, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

func queryInt(ctx *fasthttp.RequestCtx, name string, def int64) (int64, error) {
	raw := ctx.QueryArgs().Peek(name)
	if len(raw) == 0 {
		return def, nil
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

// queryLimit reads ?limit=, bounded to [1, max].
func queryLimit(ctx *fasthttp.RequestCtx, def, max int) (int, error) {
	v, err := queryInt(ctx, "limit", int64(def))
	if err != nil {
		return 0, err
	}
	if v < 1 || v > int64(max) {
		return 0, fmt.Errorf("limit must be between 1 and %d", max)
	}
	return int(v), nil
}
