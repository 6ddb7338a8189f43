package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"faultline/ginguard"
	"faultline/internal/pipeline"
	"faultline/internal/trace"
)

var (
	serveAddr       string
	serveConfigPath string
	serveFormat     string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "configuration file (default: faultline.toml or faultline.yaml in the current directory or above)")
	serveCmd.Flags().StringVar(&serveFormat, "format", "", "traceback format (terse|extended)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sample shop over HTTP, reporting handler failures",
	Long: `serve mounts the sample failures behind a gin router guarded by the pipeline:
  GET /checkout/:order  panics inside the handler and answers 500
  GET /orders/:id       attaches a parse error to the request and answers 400`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pc, sink, err := demoPipelineConfig(serveConfigPath, serveFormat)
		if err != nil {
			return err
		}
		defer sink.Close()

		p := pipeline.New()
		if err := p.Setup(pc); err != nil {
			return err
		}

		gin.SetMode(gin.ReleaseMode)
		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           shopRouter(p),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() { errc <- srv.ListenAndServe() }()
		trace.Log(sink, trace.LevelInfo, "serve", "listening on "+serveAddr)
		fmt.Fprintf(cmd.ErrOrStderr(), "listening on http://%s\n", serveAddr)

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// shopRouter routes the sample failures through p.
func shopRouter(p *pipeline.Pipeline) *gin.Engine {
	r := gin.New()
	r.Use(ginguard.Recovery(p), ginguard.Errors(p))

	r.GET("/checkout/:order", func(c *gin.Context) {
		c.JSON(http.StatusOK, checkout(c.Param("order"), c.QueryArray("item")...))
	})
	r.GET("/orders/:id", func(c *gin.Context) {
		o, err := loadOrder(c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, o)
	})
	return r
}
