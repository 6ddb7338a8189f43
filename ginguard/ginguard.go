// Package ginguard reports failures of gin handlers through a pipeline.
package ginguard

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"faultline/internal/diag"
	"faultline/internal/frame"
	"faultline/internal/pipeline"
	"faultline/internal/trace"
)

// Recovery replaces gin.Recovery: a panicking handler is reported through p
// and the request is answered with 500. http.ErrAbortHandler and other
// sentinels keep panicking, as net/http expects.
func Recovery(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		boundary := frame.CallerFunction(0)
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err := diag.AsError(r)
			perr := p.Process(err, frame.Recovered(0, boundary), frame.PanicCallee)
			if errors.Is(perr, pipeline.ErrPassThrough) {
				panic(r)
			}
			if perr != nil {
				trace.Log(p.Sink(), trace.LevelWarning, "gin", perr.Error(),
					"method", c.Request.Method, "path", c.Request.URL.Path)
			}
			c.Error(err).SetMeta(recovered{})
			c.AbortWithStatus(http.StatusInternalServerError)
		}()
		c.Next()
	}
}

// recovered marks errors attached by Recovery; they were already reported.
type recovered struct{}

// Errors captures the errors handlers attached with c.Error once the chain
// has run. Only errors carrying a stack are reported; the response is left
// alone.
func Errors(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		for _, e := range c.Errors {
			if _, ok := e.Meta.(recovered); ok {
				continue
			}
			if perr := p.CaptureSkip(e.Err, 0); perr != nil && perr != e.Err {
				trace.Log(p.Sink(), trace.LevelWarning, "gin", perr.Error(),
					"method", c.Request.Method, "path", c.Request.URL.Path)
			}
		}
	}
}
