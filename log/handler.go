package log

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Handler defines where and how log records are written.
// A Logger prints its log records by writing to a Handler.
// Handlers are composable, providing flexibility to decide
// how/when/where to log.
type Handler interface {
	Log(r *Record) error
}

// FuncHandler returns a Handler that logs records with the given function.
type FuncHandler func(r *Record) error

func (h FuncHandler) Log(r *Record) error {
	return h(r)
}

// swapHandler wraps another handler that may swapped out dynamically at runtime
// in a thread-safe fashion.
type swapHandler struct {
	handler atomic.Value
}

func (h *swapHandler) Log(r *Record) error {
	val := h.handler.Load()
	if val == nil {
		return nil
	}
	return val.(Handler).Log(r)
}

func (h *swapHandler) Swap(newHandler Handler) {
	h.handler.Store(newHandler)
}

func (h *swapHandler) Get() Handler {
	val := h.handler.Load()
	if val == nil {
		return nil
	}
	return val.(Handler)
}

// StreamHandler writes log records to an io.Writer using the given format,
// serializing each write with a mutex.
func StreamHandler(wr io.Writer, fmtr Format) Handler {
	h := FuncHandler(func(r *Record) error {
		_, err := wr.Write(fmtr.Format(r))
		return err
	})
	return &syncHandler{wr: wr, h: h}
}

// syncHandler serializes access to an underlying writer so concurrent
// loggers don't interleave output.
type syncHandler struct {
	mu sync.Mutex
	wr io.Writer
	h  Handler
}

func (s *syncHandler) Log(r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Log(r)
}

// DiscardHandler reports success for all writes but does nothing.
func DiscardHandler() Handler {
	return FuncHandler(func(r *Record) error { return nil })
}

// LvlFilterHandler returns a Handler that only writes records which are at or
// below the given verbosity level to the wrapped Handler. For example, to only
// log Error/Crit records:
//
//	h := LvlFilterHandler(LvlError, parentHandler)
func LvlFilterHandler(maxLvl Lvl, h Handler) Handler {
	return FuncHandler(func(r *Record) error {
		if r.Lvl > maxLvl {
			return nil
		}
		return h.Log(r)
	})
}

// MultiHandler dispatches any write to each of its child handlers.
func MultiHandler(hs ...Handler) Handler {
	return FuncHandler(func(r *Record) error {
		for _, h := range hs {
			_ = h.Log(r)
		}
		return nil
	})
}

// locationEnabled controls whether the terminal formatter appends the log
// location (file:line) to every record. locationLength tracks the widest
// location string seen so far, so later lines align under it.
var (
	locationEnabled uint32
	locationLength  uint32
)

// PrintOrigins enables or disables log location (file:line) printing.
func PrintOrigins(print bool) {
	if print {
		atomic.StoreUint32(&locationEnabled, 1)
	} else {
		atomic.StoreUint32(&locationEnabled, 0)
	}
}

var root = &logger{ctx: nil, h: new(swapHandler)}

func init() {
	root.SetHandler(LvlFilterHandler(LvlInfo, StreamHandler(os.Stderr, TerminalFormat())))
}
