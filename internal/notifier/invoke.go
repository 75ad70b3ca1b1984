package notifier

import (
	"fmt"
	"runtime/debug"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/rs/zerolog"
)

// safeInvoke runs one handler callback and turns an error or a panic into a
// *common.ChannelError. The error is logged here so callers only count it.
func safeInvoke(logger zerolog.Logger, h Handler, op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = common.NewChannelError(h.Name(), op, fmt.Errorf("panic: %v", r))
			logger.Error().
				Err(err).
				Str("handler", h.Name()).
				Str("op", op).
				Str("stack", string(debug.Stack())).
				Msg("Channel handler panicked")
		}
	}()

	if callErr := fn(); callErr != nil {
		err = common.NewChannelError(h.Name(), op, callErr)
		logger.Error().Err(err).Str("handler", h.Name()).Str("op", op).Msg("Channel handler failed")
	}
	return err
}
