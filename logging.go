package xdom

import "go.uber.org/zap"

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// violate logs a structural violation and panics with it.
func violate(l *zap.Logger, v *StructuralViolation) {
	loggerOrNop(l).Error("structural violation",
		zap.String("op", v.Op),
		zap.String("path", v.Path),
		zap.Stringer("state", v.State),
		zap.String("reason", v.Reason),
	)
	panic(v)
}
