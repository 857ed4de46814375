package progress

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/ports"
)

// Reporter prints one styled line per progress report.
type Reporter struct {
	out    io.Writer
	opts   RenderOptions
	styles styles
}

var _ ports.ProgressReporter = (*Reporter)(nil)

func NewReporter(out io.Writer, opts RenderOptions) *Reporter {
	return &Reporter{out: out, opts: opts, styles: newStyles()}
}

func (r *Reporter) ReportProgress(_ context.Context, p domain.TaskProgress) {
	_, _ = fmt.Fprintln(r.out, renderProgress(p, r.opts, r.styles))
}
