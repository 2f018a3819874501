package robotble

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const frameDelimiter = 0x00

// FrameError is returned when a completed frame is not valid JSON.
type FrameError struct {
	Frame []byte
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("invalid frame %q: %s", e.Frame, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Framer reassembles messages from the chunks delivered by a characteristic.
// Frames are terminated by a NUL byte. A Framer is not safe for concurrent
// use.
type Framer struct {
	buf []byte
}

// Feed appends chunk to the frame being assembled. If chunk completes a frame,
// the frame is parsed and returned. Otherwise Feed returns nil, nil.
//
// Only the first delimiter of a chunk is honored: everything after it is kept
// verbatim as the start of the next frame.
func (f *Framer) Feed(chunk []byte) (*Message, error) {
	i := bytes.IndexByte(chunk, frameDelimiter)
	if i < 0 {
		f.buf = append(f.buf, chunk...)
		return nil, nil
	}

	frame := append(f.buf, chunk[:i]...)
	f.buf = append([]byte(nil), chunk[i+1:]...)

	return parseFrame(frame)
}

func parseFrame(frame []byte) (*Message, error) {
	raw := bytes.ReplaceAll(frame, []byte("\n"), []byte(`\n`))

	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &FrameError{Frame: raw, Err: err}
	}
	m.Raw = raw
	return &m, nil
}
