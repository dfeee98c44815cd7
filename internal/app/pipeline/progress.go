package pipeline

import (
	"os"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// progress is a thin wrapper so the batch loop never branches on
// whether a bar is rendered.
type progress struct {
	container *mpb.Progress
	bar       *mpb.Bar
}

func newProgress(enabled bool, total int) *progress {
	if !enabled || total == 0 {
		return &progress{}
	}

	container := mpb.New(mpb.WithOutput(os.Stderr))
	bar := container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("Processing "),
			decor.CountersNoUnit("(%d/%d)", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.NewPercentage("%.1f", decor.WCSyncSpace),
		),
	)
	return &progress{container: container, bar: bar}
}

func (p *progress) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *progress) Wait() {
	if p.container != nil {
		p.container.Wait()
	}
}
