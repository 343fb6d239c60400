package resource

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

const minIOBurst = 64 << 10

// LimitWriter caps writes to w at bytesPerSec. A non-positive rate returns w
// unchanged.
func LimitWriter(ctx context.Context, w io.Writer, bytesPerSec int64) io.Writer {
	if bytesPerSec <= 0 {
		return w
	}
	burst := int(bytesPerSec)
	if burst < minIOBurst {
		burst = minIOBurst
	}
	return &limitedWriter{
		ctx: ctx,
		w:   w,
		lim: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
	}
}

type limitedWriter struct {
	ctx context.Context
	w   io.Writer
	lim *rate.Limiter
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		n := len(p)
		if n > l.lim.Burst() {
			n = l.lim.Burst()
		}
		if err := l.lim.WaitN(l.ctx, n); err != nil {
			return written, err
		}
		m, err := l.w.Write(p[:n])
		written += m
		if err != nil {
			return written, err
		}
		p = p[n:]
	}
	return written, nil
}
