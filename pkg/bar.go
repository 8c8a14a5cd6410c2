package pkg

import (
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

func NewBar(u string, total int, progress *mpb.Progress) *Bar {
	if progress == nil {
		return &Bar{url: u}
	}
	bar := progress.AddBar(int64(total),
		mpb.BarFillerClearOnComplete(),
		mpb.PrependDecorators(
			decor.Name(u, decor.WC{W: len(u) + 1, C: decor.DindentRight}),
			decor.OnComplete(
				decor.Counters(0, "% d/% d"), " done!",
			),
		),
		mpb.AppendDecorators(
			decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 4}),
		),
	)

	return &Bar{
		url: u,
		bar: bar,
	}
}

type Bar struct {
	url string
	bar *mpb.Bar
}

func (bar *Bar) Done() {
	if bar.bar != nil {
		bar.bar.Increment()
	}
}

func (bar *Bar) Close() {
	if bar.bar != nil {
		// drains the remainder so Progress.Wait does not block
		bar.bar.Abort(true)
	}
}
