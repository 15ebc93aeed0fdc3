// Package grouper folds classified speedtest entries into rows of
// (date, download, upload).
//
// The fold is a three-state machine naming the row slot the next entry
// fills:
//
//	ExpectDate -> ExpectDownload -> ExpectUpload -> (emit) -> ExpectDate
//
// Slots are positional: an entry fills the current slot whatever its key.
// The one exception is a date that directly follows another date. That
// pattern is left behind by an aborted test, so the in-progress row is
// discarded and a new row is started holding only the later date.
// An incomplete row at the end of the stream is dropped.
package grouper

import (
	"go.uber.org/zap"

	"github.com/kindaran/pia-stats/internal/model"
)

// State names the slot the next entry fills.
type State int

const (
	ExpectDate State = iota
	ExpectDownload
	ExpectUpload
)

func (s State) String() string {
	switch s {
	case ExpectDate:
		return "expect-date"
	case ExpectDownload:
		return "expect-download"
	case ExpectUpload:
		return "expect-upload"
	default:
		return "unknown"
	}
}

// Stats counts what happened during a fold.
type Stats struct {
	Entries    int `json:"entries"`
	Rows       int `json:"rows"`
	Repairs    int `json:"repairs"`
	Misaligned int `json:"misaligned"` // emitted rows whose keys are out of order
	Dropped    int `json:"dropped"`    // entries in the trailing partial row
}

// Result is the outcome of folding a complete entry stream.
type Result struct {
	Rows  []model.Row
	Stats Stats
}

// Option configures a Grouper.
type Option func(*Grouper)

// WithLogger reports repairs, misaligned rows and dropped entries to l.
func WithLogger(l *zap.Logger) Option {
	return func(g *Grouper) {
		if l != nil {
			g.logger = l
		}
	}
}

// Grouper is the fold state. It is not safe for concurrent use.
type Grouper struct {
	logger *zap.Logger
	state  State
	row    model.Row
	prev   model.Entry
	seen   bool // whether prev holds an entry
	rows   []model.Row
	stats  Stats
}

// New returns a Grouper in the ExpectDate state.
func New(opts ...Option) *Grouper {
	g := &Grouper{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the slot the next entry fills.
func (g *Grouper) State() State {
	return g.state
}

// Add feeds one entry through the state machine.
func (g *Grouper) Add(e model.Entry) {
	g.stats.Entries++
	defer func() {
		g.prev = e
		g.seen = true
	}()

	if e.IsDate() && g.previousKey() == model.KeyDate {
		g.repair(e)
		return
	}

	g.row[g.state] = e
	if g.state == ExpectUpload {
		g.emit()
		return
	}
	g.state++
}

// Finish ends the stream, dropping any incomplete row, and returns the
// accumulated rows. The Grouper is reset afterwards.
func (g *Grouper) Finish() Result {
	if g.state != ExpectDate {
		g.stats.Dropped = int(g.state)
		g.logger.Debug("dropping incomplete trailing row",
			zap.Int("entries", int(g.state)),
			zap.Stringer("state", g.state))
	}

	res := Result{Rows: g.rows, Stats: g.stats}
	*g = Grouper{logger: g.logger}
	return res
}

// Group folds entries in one call.
func Group(entries []model.Entry, opts ...Option) Result {
	g := New(opts...)
	for _, e := range entries {
		g.Add(e)
	}
	return g.Finish()
}

func (g *Grouper) previousKey() string {
	if !g.seen {
		return ""
	}
	return g.prev.Key
}

// repair starts a new row from e, discarding the row in progress.
func (g *Grouper) repair(e model.Entry) {
	g.stats.Repairs++
	g.logger.Warn("repeated date, discarding aborted run",
		zap.String("discarded", g.prev.Value),
		zap.Int("discarded_line", g.prev.Line),
		zap.String("date", e.Value),
		zap.Int("line", e.Line))

	g.row = model.Row{e}
	g.state = ExpectDownload
}

func (g *Grouper) emit() {
	row := g.row
	if !row.Ordered() {
		g.stats.Misaligned++
		g.logger.Warn("emitting misaligned row",
			zap.Strings("keys", []string{row[0].Key, row[1].Key, row[2].Key}),
			zap.Strings("fields", row.Fields()),
			zap.Int("line", row[2].Line))
	}

	g.rows = append(g.rows, row)
	g.stats.Rows++
	g.row = model.Row{}
	g.state = ExpectDate
}
