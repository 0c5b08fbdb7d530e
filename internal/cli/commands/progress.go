package commands

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ccollicutt/sqlshift/pkg/rewriter"
)

// progressObserver drives a terminal progress bar from rewriter events.
type progressObserver struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newProgressObserver(w io.Writer) *progressObserver {
	return &progressObserver{w: w}
}

func (p *progressObserver) Start(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("rewriting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressObserver) Line(rewriter.LineResult) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progressObserver) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
