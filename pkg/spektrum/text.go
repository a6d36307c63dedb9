package spektrum

import (
	"strconv"
	"strings"
)

// DefaultDelimiter separates the fields of a text line.
const DefaultDelimiter = ','

// TextCodec converts channel values to and from delimited text lines,
// one field per channel.
type TextCodec struct {
	Delimiter byte
}

func (c TextCodec) delim() byte {
	if c.Delimiter == 0 {
		return DefaultDelimiter
	}
	return c.Delimiter
}

// Format writes the values with two decimals, newline terminated.
func (c TextCodec) Format(vals []float64) string {
	var sb strings.Builder
	for n, v := range vals {
		if n > 0 {
			sb.WriteByte(c.delim())
		}
		sb.WriteString(strconv.FormatFloat(v, 'f', 2, 64))
	}
	sb.WriteByte('\n')
	return sb.String()
}

// Parse reads up to MaxChannels fields. Short lines are accepted, parsing
// stops at the first field which isn't a number. ok reports whether
// at least one field was read.
func (c TextCodec) Parse(line string) (vals []float64, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	d := c.delim()
	for start := 0; start <= len(line) && len(vals) < MaxChannels; {
		end := strings.IndexByte(line[start:], d)
		if end < 0 {
			end = len(line)
		} else {
			end += start
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(line[start:end]), 64)
		if err != nil {
			break
		}
		vals = append(vals, v)
		start = end + 1
	}
	return vals, len(vals) > 0
}
