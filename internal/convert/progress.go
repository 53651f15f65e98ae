package convert

// Progress bands, in percent of the whole conversion.
const (
	extractionEnd = 20
	ocrEnd        = 60
	complete      = 100
)

// ProgressFunc receives the overall completion percentage.
type ProgressFunc func(percent int)

// progress forwards percentages clamped to 0..100 and never decreasing.
// Repeated values are not forwarded.
type progress struct {
	fn      ProgressFunc
	last    int
	started bool
}

func newProgress(fn ProgressFunc) *progress {
	return &progress{fn: fn}
}

func (p *progress) report(percent int) {
	percent = min(max(percent, 0), complete)
	if p.started && percent <= p.last {
		return
	}
	p.started = true
	p.last = percent
	if p.fn != nil {
		p.fn(percent)
	}
}

// band reports done/total of the range lo..hi.
func (p *progress) band(lo, hi, done, total int) {
	if total <= 0 {
		p.report(hi)
		return
	}
	p.report(lo + (hi-lo)*done/total)
}
