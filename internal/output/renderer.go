package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/kindaran/pia-stats/internal/model"
)

// Renderer writes rows to an output stream.
type Renderer interface {
	Render(row model.Row) error
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleDate     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // cyan
	styleDownload = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	styleUpload   = lipgloss.NewStyle().Foreground(lipgloss.Color("220")) // yellow
	styleHeader   = lipgloss.NewStyle().Bold(true).Underline(true)
	styleBroken   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("196")).
			Bold(true) // white on red
)

// TextRenderer prints rows as aligned, colorized columns.
type TextRenderer struct {
	w          io.Writer
	wroteTitle bool
}

// NewTextRenderer returns a Renderer that writes colorized text to w,
// or to stdout when w is nil.
func NewTextRenderer(w io.Writer) *TextRenderer {
	if w == nil {
		w = os.Stdout
	}
	return &TextRenderer{w: w}
}

func (r *TextRenderer) Render(row model.Row) error {
	if !r.wroteTitle {
		r.wroteTitle = true
		title := fmt.Sprintf("%-32s %14s %14s", model.Header[0], model.Header[1], model.Header[2])
		if _, err := fmt.Fprintln(r.w, styleHeader.Render(title)); err != nil {
			return err
		}
	}

	f := row.Fields()
	line := fmt.Sprintf("%s %s %s",
		styleDate.Render(fmt.Sprintf("%-32s", f[0])),
		styleDownload.Render(fmt.Sprintf("%14s", f[1])),
		styleUpload.Render(fmt.Sprintf("%14s", f[2])))
	if !row.Ordered() {
		line += " " + styleBroken.Render("MISALIGNED")
	}
	_, err := fmt.Fprintln(r.w, line)
	return err
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// jsonRow is the wire shape of a row.
type jsonRow struct {
	Date          string  `json:"date"`
	DownloadSpeed float64 `json:"download_speed"`
	UploadSpeed   float64 `json:"upload_speed"`
	Ordered       bool    `json:"ordered"`
	Line          int     `json:"line"` // line of the date entry
}

// JSONRenderer prints each row as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w,
// or to stdout when w is nil.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	if w == nil {
		w = os.Stdout
	}
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(row model.Row) error {
	return r.enc.Encode(jsonRow{
		Date:          row.Date().Value,
		DownloadSpeed: row.Download().Number,
		UploadSpeed:   row.Upload().Number,
		Ordered:       row.Ordered(),
		Line:          row.Date().Line,
	})
}
