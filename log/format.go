package log

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const floatFormat = 'f'
const termTimeFormat = "2006-01-02T15:04:05-0700"

// Format formats a Record for output.
type Format interface {
	Format(r *Record) []byte
}

// FormatFunc returns a new Format object which uses the given function to
// perform the formatting of a Record.
type FormatFunc func(*Record) []byte

func (f FormatFunc) Format(r *Record) []byte {
	return f(r)
}

// TerminalFormat formats log records optimized for human readability on a
// terminal: the fixed-width level and the timestamp lead the line, followed
// by the unpadded message, the call site when PrintOrigins is enabled, and
// the key/value context pairs in logfmt.
func TerminalFormat() Format {
	return FormatFunc(func(r *Record) []byte {
		b := &bytes.Buffer{}
		lvl := r.Lvl.AlignedString()
		location := fmt.Sprintf("%+v", r.Call)
		align := int(atomic.LoadUint32(&locationLength))
		if align < len(location) {
			align = len(location)
			atomic.StoreUint32(&locationLength, uint32(align))
		}
		fmt.Fprintf(b, "%s[%s] %s", lvl, r.Time.Format(termTimeFormat), r.Msg)
		if atomic.LoadUint32(&locationEnabled) != 0 {
			padding := strings.Repeat(" ", align-len(location))
			fmt.Fprintf(b, " %s%s", location, padding)
		}
		logfmt(b, r.Ctx, len(lvl)+len(r.Msg), true)
		return b.Bytes()
	})
}

// LogfmtFormat formats log records in logfmt, key=value style, suitable for
// machine parsing.
func LogfmtFormat() Format {
	return FormatFunc(func(r *Record) []byte {
		common := []interface{}{r.KeyNames.Time, r.Time, r.KeyNames.Lvl, r.Lvl.String(), r.KeyNames.Msg, r.Msg}
		buf := &bytes.Buffer{}
		logfmt(buf, append(common, r.Ctx...), 0, false)
		return buf.Bytes()
	})
}

func logfmt(buf *bytes.Buffer, ctx []interface{}, color int, term bool) {
	for i := 0; i < len(ctx); i += 2 {
		if i != 0 {
			buf.WriteByte(' ')
		}

		k, ok := ctx[i].(string)
		v := formatLogfmtValue(ctx[i+1], term)
		if !ok {
			k, v = errorKey, formatLogfmtValue(k, term)
		}

		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)

		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(v)
	}
	buf.WriteByte('\n')
}

func formatShared(value interface{}) (result interface{}) {
	defer func() {
		if err := recover(); err != nil {
			if v := reflect.ValueOf(value); v.Kind() == reflect.Ptr && v.IsNil() {
				result = "nil"
			} else {
				panic(err)
			}
		}
	}()

	switch v := value.(type) {
	case time.Time:
		return v.Format(termTimeFormat)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return v
	}
}

func formatLogfmtValue(value interface{}, term bool) string {
	if value == nil {
		return "nil"
	}

	if t, ok := value.(time.Time); ok {
		return t.Format(termTimeFormat)
	}
	value = formatShared(value)
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case float32:
		return strconv.FormatFloat(float64(v), floatFormat, 3, 64)
	case float64:
		return strconv.FormatFloat(v, floatFormat, 3, 64)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case string:
		return escapeString(v, term)
	default:
		return escapeString(fmt.Sprintf("%+v", v), term)
	}
}

func escapeString(s string, term bool) string {
	needsQuotes := false
	needsEscape := false
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			needsQuotes = true
		}
		if r == '\\' || r == '"' || r == '\n' || r == '\r' || r == '\t' {
			needsEscape = true
		}
	}
	if !needsEscape && !needsQuotes {
		return s
	}
	e := strconv.Quote(s)
	if !term && !needsQuotes && len(e) == len(s)+2 {
		return s
	}
	return e
}
