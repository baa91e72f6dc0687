package surfaceloop

import (
	"fmt"
	"time"

	catrate "github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// Log categories, attached to every record as the "category" field.
const (
	categoryChannel   = "channel"
	categoryHandshake = "handshake"
	categoryRunner    = "runner"
	categorySurface   = "surface"
)

// eventLogger wraps the (optional) structured logger. All methods are safe on
// a nil logger, in which case nothing is logged.
type eventLogger struct {
	logger *logiface.Logger[logiface.Event]
	runID  string
}

func (x eventLogger) build(b *logiface.Builder[logiface.Event], category string) *logiface.Builder[logiface.Event] {
	b = b.Str("category", category)
	if x.runID != "" {
		b = b.Str("run", x.runID)
	}
	return b
}

func (x eventLogger) debug(category string) *logiface.Builder[logiface.Event] {
	return x.build(x.logger.Debug(), category)
}

func (x eventLogger) info(category string) *logiface.Builder[logiface.Event] {
	return x.build(x.logger.Info(), category)
}

func (x eventLogger) warning(category string) *logiface.Builder[logiface.Event] {
	return x.build(x.logger.Warning(), category)
}

func (x eventLogger) err(category string) *logiface.Builder[logiface.Event] {
	return x.build(x.logger.Err(), category)
}

func (x eventLogger) crit(category string) *logiface.Builder[logiface.Event] {
	return x.build(x.logger.Crit(), category)
}

// newWarnLimiter builds the per-kind limiter for discard warnings.
// catrate panics on rates it considers irrelevant, which is converted to an
// error here.
func newWarnLimiter(rates map[time.Duration]int) (limiter *catrate.Limiter, err error) {
	if len(rates) == 0 {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			limiter = nil
			err = fmt.Errorf("surfaceloop: invalid warn rates: %v", r)
		}
	}()
	return catrate.NewLimiter(rates), nil
}
