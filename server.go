package main

import (
	"bytes"

	"github.com/valyala/fasthttp"
)

var (
	pathTrace = []byte("/trace")
	pathStats = []byte("/stats")
)

func handler(report *Report) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !ctx.IsGet() {
			ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
			return
		}
		path := ctx.Path()
		switch {
		case bytes.Equal(path, pathTrace):
			writeJSON(ctx, report)
		case bytes.Equal(path, pathStats):
			writeJSON(ctx, report.Stats)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, val interface{}) {
	stream := config.BorrowStream(nil)
	defer config.ReturnStream(stream)
	stream.WriteVal(val)
	if stream.Error != nil {
		ctx.Error(stream.Error.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(stream.Buffer())
}
