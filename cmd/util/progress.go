package util

import (
	"time"

	"github.com/BurntSushi/reach/reach"
)

// Progress logs the windows of a run as they complete.
type Progress struct {
	windows chan reach.WindowReport
	done    chan struct{}
}

func NewProgress() Progress {
	p := Progress{make(chan reach.WindowReport), make(chan struct{})}
	go func() {
		start := time.Now()
		frames := 0
		for w := range p.windows {
			frames += w.Frames
			rate := float64(frames) / time.Since(start).Seconds()
			Verbosef("window %d complete: %d frames, RMSD %0.3f "+
				"(%d frames total, %0.1f frames/s)",
				w.Index, w.Frames, w.Deviation, frames, rate)
		}
		Verbosef("read %d frames in %s", frames, time.Since(start))
		p.done <- struct{}{}
	}()
	return p
}

func (p Progress) WindowDone(w reach.WindowReport) {
	p.windows <- w
}

func (p Progress) Close() {
	close(p.windows)
	<-p.done
}
