package proximity

import (
	"errors"

	"dispatch-sim/internal/model"
)

type multiSink []Sink

// MultiSink fans one notification out to several sinks. Every sink is
// attempted even when an earlier one fails.
func MultiSink(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Emit(n model.Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
