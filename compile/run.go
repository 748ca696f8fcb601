// Package compile implements the compile subcommand: conditional stylesheets
// in, host-language expressions out.
package compile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"gssc/css"
	"gssc/state"
)

// stylesheet extensions recognized when walking directories
var sourceExtensions = []string{".gss", ".css"}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compile")

	if cmd.Args().Len() == 0 {
		return errors.New("no input source has been specified")
	}
	env.Out, env.Overwrite = cmd.String("out"), cmd.Bool("overwrite")
	if len(env.Out) > 0 && cmd.Args().Len() > 1 {
		return errors.New("--out can only be used with a single source")
	}

	log.Info("Processing starting", zap.Strings("sources", cmd.Args().Slice()))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	// Sources are independent, a bad one does not stop the rest.
	for _, src := range cmd.Args().Slice() {
		if er := ctx.Err(); er != nil {
			return multierr.Append(err, er)
		}
		if er := process(ctx, src, env, log); er != nil {
			log.Error("Unable to process source", zap.String("source", src), zap.Error(er))
			err = multierr.Append(err, fmt.Errorf("unable to process %s: %w", src, er))
		}
	}
	return
}

// process compiles a single command line source: a stylesheet file or a
// directory searched recursively for stylesheet files.
func process(ctx context.Context, src string, env *state.LocalEnv, log *zap.Logger) error {
	src, err := filepath.Abs(src)
	if err != nil {
		return err
	}

	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input source was not found: %w", err)
	}

	if fi.Mode().IsRegular() {
		return compileFile(src, env, log)
	}
	if !fi.Mode().IsDir() {
		return fmt.Errorf("unexpected path mode for (%s)", src)
	}
	if len(env.Out) > 0 {
		return errors.New("--out cannot be used with a directory source")
	}
	return compileDir(ctx, src, env, log)
}

// compileDir walks directory tree finding stylesheet files and compiles them.
func compileDir(ctx context.Context, dir string, env *state.LocalEnv, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() || !isStylesheetFile(path) {
			return nil
		}

		count++
		if err := compileFile(path, env, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
}

// compileFile parses one stylesheet and writes its compiled expression.
func compileFile(src string, env *state.LocalEnv, log *zap.Logger) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read stylesheet: %w", err)
	}
	if env.Rpt != nil {
		if err := env.Rpt.StoreCopy("input/"+filepath.Base(src), src); err != nil {
			log.Warn("Unable to store input in debug report", zap.String("file", src), zap.Error(err))
		}
	}

	sheet, err := css.NewParser(log).Parse(data, src)
	if err != nil {
		return err
	}
	for _, w := range sheet.Warnings {
		log.Warn("Stylesheet parsed with warning", zap.String("file", src), zap.String("warning", w))
	}

	printer := css.NewExprPrinter(nil, log)
	printer.SetConcatLimit(env.Cfg.Compiler.ConcatLimit)
	expr := printer.Print(sheet)

	dst := env.Out
	if len(dst) == 0 {
		dst = strings.TrimSuffix(src, filepath.Ext(src)) + env.Cfg.Compiler.OutputExtension
	}
	if !env.Overwrite {
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("destination already exists (%s), use --overwrite to replace it", dst)
		}
	}
	if err := os.WriteFile(dst, []byte(expr+"\n"), 0644); err != nil {
		return fmt.Errorf("unable to write expression: %w", err)
	}
	if err := env.Rpt.StoreCopy("output/"+filepath.Base(dst), dst); err != nil {
		log.Warn("Unable to store output in debug report", zap.String("file", dst), zap.Error(err))
	}

	log.Info("Compiled stylesheet",
		zap.String("source", src),
		zap.String("destination", dst),
		zap.Int("conditions", len(sheet.Conditions())),
		zap.Int("size", len(expr)))
	return nil
}

func isStylesheetFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range sourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
