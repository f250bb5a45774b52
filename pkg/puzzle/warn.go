package puzzle

import (
	"github.com/sirupsen/logrus"
)

// WarnFunc receives recoverable problems. The operation that reports a
// warning still completes with a best-effort result.
type WarnFunc func(error)

// IgnoreWarnings discards every warning.
func IgnoreWarnings(error) {}

// CollectWarnings returns a WarnFunc that appends to *dst.
func CollectWarnings(dst *[]error) WarnFunc {
	return func(err error) {
		*dst = append(*dst, err)
	}
}

// LogWarnings returns a WarnFunc that logs each warning at warn level, tagged
// with the reporting component.
func LogWarnings(logger logrus.FieldLogger, component string) WarnFunc {
	entry := logger.WithField("component", component)
	return func(err error) {
		entry.Warn(err.Error())
	}
}

// Tee returns a WarnFunc that forwards to every non-nil fn.
func Tee(fns ...WarnFunc) WarnFunc {
	return func(err error) {
		for _, fn := range fns {
			if fn != nil {
				fn(err)
			}
		}
	}
}
