package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"faultline/internal/config"
	"faultline/internal/diag"
	"faultline/internal/diagfmt"
	"faultline/internal/fingerprint"
	"faultline/internal/pipeline"
	"faultline/internal/source"
	"faultline/internal/trace"
)

//go:embed sample.go
var sampleSource string

var (
	demoConfigPath string
	demoFormat     string
	demoMode       string
	demoJSON       bool
	demoMsgpack    string
	demoDedup      bool
	demoRepeat     int
)

func init() {
	demoCmd.Flags().StringVar(&demoConfigPath, "config", "", "configuration file (default: faultline.toml or faultline.yaml in the current directory or above)")
	demoCmd.Flags().StringVar(&demoFormat, "format", "", "traceback format (terse|extended)")
	demoCmd.Flags().StringVar(&demoMode, "mode", "run", "failure entry point (run|capture|guard)")
	demoCmd.Flags().BoolVar(&demoJSON, "json", false, "also write the report as JSON to stdout")
	demoCmd.Flags().StringVar(&demoMsgpack, "msgpack", "", "append MessagePack-encoded reports to this file")
	demoCmd.Flags().BoolVar(&demoDedup, "dedup", false, "report each fingerprint once and count repeats")
	demoCmd.Flags().IntVar(&demoRepeat, "repeat", 1, "raise the failure this many times (run and capture modes)")
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a sample failure through a pipeline built from configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := strings.ToLower(demoMode)
		switch mode {
		case "run", "capture", "guard":
		default:
			return fmt.Errorf("unsupported mode %q (must be run, capture or guard)", demoMode)
		}
		if demoRepeat < 1 {
			return fmt.Errorf("invalid --repeat value %d (must be at least 1)", demoRepeat)
		}

		pc, sink, err := demoPipelineConfig(demoConfigPath, demoFormat)
		if err != nil {
			return err
		}
		defer sink.Close()
		pc.CatchAll = pc.CatchAll || mode == "guard"

		tb, err := pc.Traceback(sink)
		if err != nil {
			return err
		}
		chain := []pipeline.Responder{tb}
		if demoJSON {
			chain = append(chain, diagfmt.NewJSON(cmd.OutOrStdout(), diagfmt.JSONOpts{
				IncludeSource: true,
				IncludeLocals: true,
				Indent:        true,
			}))
		}
		if demoMsgpack != "" {
			// #nosec G304 -- путь задан пользователем
			f, err := os.OpenFile(demoMsgpack, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return err
			}
			defer f.Close()
			chain = append(chain, diagfmt.NewMsgpack(f, diagfmt.JSONOpts{IncludeLocals: true}))
		}

		var (
			dedup *diag.DedupResponder
			last  fingerprint.ID
		)
		if demoDedup {
			dedup = diag.NewDedupResponder(fanout(chain...))
			chain = []pipeline.Responder{dedup, diag.ResponderFunc(func(info diag.ErrorInfo) error {
				last = info.Fingerprint
				return nil
			})}
		}
		pc.Response = chain

		p := pipeline.New()
		if err := p.Setup(pc); err != nil {
			return err
		}

		if mode == "guard" {
			defer pipeline.Guard()
			checkout("#17", "keyboard", "mouse")
			return nil
		}
		for range demoRepeat {
			if mode == "capture" {
				_, err := loadOrder("#A-17")
				if err := p.Capture(err); err != nil {
					return err
				}
				continue
			}
			if err := p.Run(func() { checkout("#17", "keyboard", "mouse") }); err != nil {
				trace.Log(sink, trace.LevelInfo, "demo", "reported: "+err.Error())
			}
		}
		if dedup != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s seen %d times\n", last, dedup.Count(last))
		}
		return nil
	},
}

// fanout hands each report to every responder in rs and joins their errors.
func fanout(rs ...pipeline.Responder) pipeline.Responder {
	return diag.ResponderFunc(func(info diag.ErrorInfo) error {
		var errs []error
		for _, r := range rs {
			errs = append(errs, r.Respond(info))
		}
		return errors.Join(errs...)
	})
}

// demoPipelineConfig builds the pipeline configuration shared by demo and
// serve: settings from the configuration file, the configured log sink and
// a loader serving the embedded sample source. The caller closes the sink.
func demoPipelineConfig(path, format string) (pipeline.Config, trace.Tracer, error) {
	cfg, err := loadDemoConfig(path)
	if err != nil {
		return pipeline.Config{}, nil, err
	}
	if format != "" {
		cfg.Traceback.Format = format
	}

	tc, err := cfg.Trace()
	if err != nil {
		return pipeline.Config{}, nil, err
	}
	sink, err := trace.New(tc)
	if err != nil {
		return pipeline.Config{}, nil, err
	}

	pc, err := cfg.Pipeline(sink)
	if err != nil {
		sink.Close()
		return pipeline.Config{}, nil, err
	}
	if pc.Name == "" {
		pc.Name = "faultline-demo"
	}
	pc.Loader = source.MapLoader{"main/sample.go": sampleSource}
	return pc, sink, nil
}

// loadDemoConfig reads path, or the nearest configuration file when path is
// empty, and applies environment overrides.
func loadDemoConfig(path string) (config.Config, error) {
	if path == "" {
		found, ok, err := config.Find(".")
		if err != nil {
			return config.Config{}, err
		}
		if ok {
			path = found
		}
	}
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.LoadEnv(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
