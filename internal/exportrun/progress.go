package exportrun

import (
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"

	"rekogexport/internal/logging"
)

// progressReporter renders per-record progress either as a terminal bar or
// as sampled log lines.
type progressReporter struct {
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	sampler *logging.ProgressSampler
	logger  *slog.Logger
	split   string
	total   int
}

func newProgressReporter(out io.Writer, split string, total int, logger *slog.Logger) *progressReporter {
	p := &progressReporter{split: split, total: total, logger: logger}
	if out != nil && total > 0 {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription(split),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)
		return p
	}
	p.sampler = logging.NewProgressSampler(10)
	return p
}

// Update matches materialize.ProgressFunc.
func (p *progressReporter) Update(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Add(1)
		return
	}
	percent := logging.Percent(done, total)
	if !p.sampler.ShouldLog(percent, p.split) {
		return
	}
	p.logger.Info("materialize progress",
		logging.Int("done", done),
		logging.Int("total", total),
		logging.Float64("percent", percent),
	)
}

// Finish completes the bar, if any.
func (p *progressReporter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
