package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chazu/meshup/internal/config"
	"github.com/chazu/meshup/pkg/engine"
	"github.com/chazu/meshup/pkg/meshup"
	"github.com/chazu/meshup/pkg/scene"
)

// ErrScriptFailed is returned when evaluation reports errors.
var ErrScriptFailed = errors.New("script failed")

var (
	evalFormat string
	evalOutDir string
	evalUp     string

	evalCmd = &cobra.Command{
		Use:   "eval <script>",
		Short: "Evaluate a script and export its parts",
		Long: `Evaluate a script and export its parts.

Mesh formats (stl, stl-ascii, amf, gltf) write one file per mesh part.
3mf writes every mesh part into a single file named after the script.
Curve formats (svg, dxf) write one file per curve part; gltf also
writes curve parts as line strips.`,
		Args: cobra.ExactArgs(1),
		RunE: runEval,
	}

	checkCmd = &cobra.Command{
		Use:   "check <script>",
		Short: "Evaluate and validate a script without exporting",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
)

func init() {
	evalCmd.Flags().StringVarP(&evalFormat, "format", "f", "", "export format: "+strings.Join(config.Formats, ", "))
	evalCmd.Flags().StringVarP(&evalOutDir, "out", "o", "", "output directory")
	evalCmd.Flags().StringVar(&evalUp, "up", "", "up axis for gltf output (x, y or z)")
}

// evaluation is a finished script run.
type evaluation struct {
	cfg    *config.Config
	logger *log.Logger
	result engine.EvalResult
	script string
}

func evaluateScript(ctx context.Context, stderr io.Writer, script string) (*evaluation, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(stderr, cfg)

	src, err := os.ReadFile(script)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	timeout, err := cfg.EngineTimeout()
	if err != nil {
		return nil, err
	}

	k, err := meshup.DefaultLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load kernel: %w", err)
	}
	opts := append(cfg.Options(), meshup.WithLogger(logger))
	sess := meshup.NewSession(k, opts...)

	eng := engine.NewEngine(sess, engine.WithTimeout(timeout))
	res, err := eng.Run(ctx, string(src))
	if err != nil {
		return nil, err
	}
	ev := &evaluation{cfg: cfg, logger: logger, result: res, script: script}
	if !res.OK() {
		for _, e := range res.Errors {
			fmt.Fprintf(stderr, "%s: %s\n", script, e.Error())
		}
		return ev, fmt.Errorf("%w: %d error(s)", ErrScriptFailed, len(res.Errors))
	}
	return ev, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	ev, err := evaluateScript(cmd.Context(), cmd.ErrOrStderr(), args[0])
	if err != nil {
		return err
	}
	sc := ev.result.Scene
	defer sc.Dispose()

	out := cmd.OutOrStdout()
	for _, p := range sc.Parts {
		fmt.Fprintf(out, "%-20s %-6s %s\n", p.Name, p.Kind, partSummary(p))
	}
	fmt.Fprintf(out, "%d part(s), %d warning(s)\n", sc.Len(), len(ev.result.Warnings))
	return nil
}

func partSummary(p *scene.Part) string {
	switch p.Kind {
	case scene.PartMesh:
		n, err := p.Mesh.TriangleCount()
		if err != nil {
			return err.Error()
		}
		return fmt.Sprintf("%d triangles", n)
	case scene.PartCurve:
		l, err := p.Curve.Length()
		if err != nil {
			return err.Error()
		}
		return fmt.Sprintf("length %.4g", l)
	}
	return ""
}

func runEval(cmd *cobra.Command, args []string) error {
	ev, err := evaluateScript(cmd.Context(), cmd.ErrOrStderr(), args[0])
	if err != nil {
		return err
	}
	sc := ev.result.Scene
	defer sc.Dispose()

	format := ev.cfg.Export.Format
	if evalFormat != "" {
		format = strings.ToLower(evalFormat)
	}
	if !config.IsFormat(format) {
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(config.Formats, ", "))
	}
	dir := ev.cfg.Export.OutputDir
	if evalOutDir != "" {
		dir = evalOutDir
	}
	up := ev.cfg.UpAxis()
	if evalUp != "" {
		if up, err = meshup.ParseAxis(evalUp); err != nil {
			return err
		}
	}

	base := strings.TrimSuffix(filepath.Base(ev.script), filepath.Ext(ev.script))
	written, err := exportScene(sc, format, dir, base, up)
	if err != nil {
		return err
	}
	for _, path := range written {
		ev.logger.Info("wrote", "path", path)
	}
	return nil
}
