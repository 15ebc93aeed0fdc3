// Package extract runs one speedtest-log-to-CSV extraction: load the log,
// keep keyword lines, classify them, fold them into rows and write the
// rows to a timestamped CSV file.
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kindaran/pia-stats/internal/config"
	"github.com/kindaran/pia-stats/internal/errs"
	"github.com/kindaran/pia-stats/internal/grouper"
	"github.com/kindaran/pia-stats/internal/model"
	"github.com/kindaran/pia-stats/internal/output"
	"github.com/kindaran/pia-stats/internal/parser"
	"github.com/kindaran/pia-stats/internal/source"
)

// Result describes one processed input.
type Result struct {
	Input   string        `json:"input"`
	Output  string        `json:"output,omitempty"` // path of the written CSV
	Written bool          `json:"written"`
	Lines   int           `json:"lines"`
	Kept    int           `json:"kept"`
	Rows    []model.Row   `json:"-"`
	Stats   grouper.Stats `json:"stats"`
}

// Runner holds everything a run needs. Zero fields fall back to defaults.
type Runner struct {
	Keywords  []string
	OutputDir string
	Extension string
	Write     *output.WriteOptions // nil means output.DefaultWriteOptions
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewRunner builds a Runner from cfg.
func NewRunner(cfg config.Config, logger *zap.Logger) *Runner {
	return &Runner{
		Keywords:  cfg.Keywords,
		OutputDir: cfg.Output.Dir,
		Extension: cfg.Output.Extension,
		Write:     &output.WriteOptions{UseCRLF: cfg.Output.CRLF, Perm: output.DefaultWriteOptions.Perm},
		Logger:    logger,
		Now:       time.Now,
	}
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Runner) keywords() []string {
	if len(r.Keywords) == 0 {
		return parser.DefaultKeywords
	}
	return r.Keywords
}

// Rows loads path and folds it into rows without writing anything.
func (r *Runner) Rows(ctx context.Context, path string) (*Result, error) {
	log := r.logger().With(zap.String("input", path))
	res := &Result{Input: path}

	log.Info("reading file")
	text, err := source.Load(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := parser.SplitLines(text, path)
	kept := parser.Filter(lines, r.keywords())
	res.Lines, res.Kept = len(lines), len(kept)
	log.Info("found lines with keywords", zap.Int("kept", len(kept)), zap.Int("lines", len(lines)))

	entries, err := parser.ClassifyAll(kept)
	if err != nil {
		return nil, err
	}

	folded := grouper.Group(entries, grouper.WithLogger(log))
	res.Rows, res.Stats = folded.Rows, folded.Stats
	log.Debug("grouped entries",
		zap.Int("rows", folded.Stats.Rows),
		zap.Int("repairs", folded.Stats.Repairs),
		zap.Int("misaligned", folded.Stats.Misaligned),
		zap.Int("dropped", folded.Stats.Dropped))
	return res, nil
}

// Run processes path and writes its rows to a new CSV file in the output
// directory. An input without complete rows writes nothing and is not an
// error: the returned Result has Written == false.
func (r *Runner) Run(ctx context.Context, path string) (*Result, error) {
	return r.run(ctx, path, nil)
}

// run is Run with the names already used by earlier inputs of the same
// batch. A clashing name gets a numeric suffix and is recorded in taken.
func (r *Runner) run(ctx context.Context, path string, taken map[string]bool) (*Result, error) {
	res, err := r.Rows(ctx, path)
	if err != nil {
		return nil, err
	}
	log := r.logger().With(zap.String("input", path))

	name, err := output.Filename(path, r.extension(), r.Now)
	if err != nil {
		return nil, err
	}
	if taken != nil && len(res.Rows) > 0 {
		base := name
		for n := 2; taken[name]; n++ {
			name = output.WithSuffix(base, n)
		}
		if name != base {
			log.Warn("output name already used in this run, renaming",
				zap.String("name", base), zap.String("renamed", name))
		}
		taken[name] = true
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Info("writing output", zap.Int("rows", len(res.Rows)))
	out, err := output.WriteFile(r.outputDir(), name, res.Rows, r.writeOptions())
	switch {
	case errors.Is(err, output.ErrNothingToWrite):
		log.Warn("no data to write")
		return res, nil
	case err != nil:
		return nil, err
	}

	res.Output, res.Written = out, true
	log.Info("done writing", zap.String("output", out))
	return res, nil
}

// RunAll expands patterns and runs each input in order, stopping at the
// first failure. Results of the inputs processed so far are returned with
// the error. Inputs sharing a base name, like a/speedtest.log and
// b/speedtest.log, get distinct output files.
func (r *Runner) RunAll(ctx context.Context, patterns []string) ([]*Result, error) {
	paths, err := source.Expand(patterns)
	if err != nil {
		return nil, errs.New(errs.ErrRead, "expand", err)
	}
	if len(paths) == 0 {
		return nil, errs.New(errs.ErrRead, "expand", fmt.Errorf("no files matched %q", patterns))
	}

	results := make([]*Result, 0, len(paths))
	taken := make(map[string]bool, len(paths))
	for _, p := range paths {
		res, err := r.run(ctx, p, taken)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) extension() string {
	if r.Extension == "" {
		return "csv"
	}
	return r.Extension
}

func (r *Runner) writeOptions() output.WriteOptions {
	if r.Write == nil {
		return output.DefaultWriteOptions
	}
	return *r.Write
}

func (r *Runner) outputDir() string {
	if r.OutputDir == "" {
		return "."
	}
	return r.OutputDir
}
