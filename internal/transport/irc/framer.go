package irc

import "bytes"

// framer accumulates inbound bytes and cuts them into LF-terminated lines.
// A CR before the LF is stripped. Lines longer than max are discarded whole.
type framer struct {
	buf        []byte
	max        int
	discarding bool
}

func newFramer(max int) *framer {
	return &framer{max: max}
}

// Feed appends data and returns the complete lines it produced, plus the
// number of overlong lines that were dropped.
func (f *framer) Feed(data []byte) (lines []string, dropped int) {
	for len(data) > 0 {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			if !f.discarding {
				f.buf = append(f.buf, data...)
				// One spare byte for a CR that may still arrive.
				if f.max > 0 && len(f.buf) > f.max+1 {
					f.buf = f.buf[:0]
					f.discarding = true
					dropped++
				}
			}
			return lines, dropped
		}

		segment := data[:idx]
		data = data[idx+1:]
		if f.discarding {
			f.discarding = false
			continue
		}

		line := append(f.buf, segment...)
		f.buf = f.buf[:0]
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if f.max > 0 && len(line) > f.max {
			dropped++
			continue
		}
		lines = append(lines, string(line))
	}
	return lines, dropped
}

// Pending returns the number of buffered bytes not yet terminated by LF.
func (f *framer) Pending() int {
	return len(f.buf)
}
