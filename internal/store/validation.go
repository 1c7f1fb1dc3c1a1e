package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ErrInvalidRun is returned when a run record is inconsistent.
var ErrInvalidRun = errors.New("invalid run record")

// Validate checks that every trace was sampled on the run's clock and points
// at an existing section.
func (r RunRecord) Validate() error {
	if math.IsNaN(r.Duration) || r.Duration < 0 {
		return fmt.Errorf("%w: duration %v", ErrInvalidRun, r.Duration)
	}
	for i, tr := range r.Traces {
		if tr.Key == "" {
			return fmt.Errorf("%w: trace %d has no key", ErrInvalidRun, i)
		}
		if len(tr.Values) != len(r.Time) {
			return fmt.Errorf("%w: trace %q has %d samples, time has %d",
				ErrInvalidRun, tr.Key, len(tr.Values), len(r.Time))
		}
		if tr.Section < 0 || tr.Section >= len(r.Sections) {
			return fmt.Errorf("%w: trace %q references section %d of %d",
				ErrInvalidRun, tr.Key, tr.Section, len(r.Sections))
		}
		if tr.Pos < 0 || tr.Pos > 1 {
			return fmt.Errorf("%w: trace %q position %v outside [0, 1]", ErrInvalidRun, tr.Key, tr.Pos)
		}
	}
	return nil
}

// computeRunID derives a short id from the run's identity fields.
func computeRunID(r RunRecord) string {
	h := sha256.New()
	h.Write([]byte(r.Source))
	h.Write([]byte(strconv.FormatInt(r.CreatedAt.UnixNano(), 10)))
	h.Write([]byte(strconv.Itoa(r.Nodes)))
	h.Write([]byte(strconv.Itoa(len(r.Traces))))
	sum := h.Sum(nil)
	return "run-" + hex.EncodeToString(sum[:8])
}

// prepare fills the id and timestamp of a run about to be saved.
func prepare(r *RunRecord, now func() time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now().UTC()
	}
	if r.ID == "" {
		r.ID = computeRunID(*r)
	}
	return nil
}
