package spill

import (
	"errors"
	"io"

	"github.com/cognicore/cooc/pkg/cooc/counts"
	"github.com/cognicore/cooc/pkg/cooc/record"
)

type mergeStats struct {
	merged int64
	added  int64
}

// merge folds snap into the records of prev (nil on the first flush) and
// writes the result to w.
//
// Every prior record is written once, with the snapshot weight for the same
// key added and that key taken out of the snapshot. Whatever the snapshot
// still holds afterwards is new and is appended with both of its indices.
// snap is consumed.
func merge(prev *record.Reader, snap *counts.Map, w *record.Writer) (mergeStats, error) {
	var st mergeStats

	if prev != nil {
		for {
			rec, err := prev.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return st, err
			}
			if mw, ok := snap.Take(counts.Key(rec.A, rec.B)); ok {
				rec.Weight += mw
				st.merged++
			}
			if err := w.Write(rec); err != nil {
				return st, err
			}
		}
	}

	for k, weight := range snap.All() {
		rec := record.Record{A: int(k.A), B: int(k.B), Weight: weight}
		if err := w.Write(rec); err != nil {
			return st, err
		}
		st.added++
	}
	return st, nil
}
