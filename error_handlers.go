package barsched

import (
	lg "github.com/Andrej220/go-utils/zlog"
)

// reportInternalError reports a statistics invariant violation.
//
// Such errors mean the server's bookkeeping went wrong, never that an
// order failed. They are logged, passed to the registered handler and,
// in debug builds, abort the program.
func (s *Server) reportInternalError(err error) {
	lg.FromContext(s.ctx).Error("internal error", lg.Any("error", err))
	if s.opts.OnInternalError != nil {
		s.opts.OnInternalError(err)
	}
	invariantFailed(err)
}
