package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

const Delimiter = '\n'

// LineReader reads newline-framed messages. A trailing "\r" is dropped.
type LineReader struct {
	r   *bufio.Reader
	max int
}

// NewLineReader reads lines of at most max bytes, delimiter excluded.
func NewLineReader(r io.Reader, max int) *LineReader {
	// Room for the delimiter and an optional "\r"; ReadLine enforces max.
	return &LineReader{r: bufio.NewReaderSize(r, max+2), max: max}
}

// ReadLine returns the next line without its delimiter. io.EOF and read
// failures come back wrapped in a DisconnectError; an overlong line comes
// back as a DecodeError wrapping ErrLineTooLong.
func (lr *LineReader) ReadLine() ([]byte, error) {
	line, err := lr.r.ReadSlice(Delimiter)
	switch {
	case err == nil:
	case errors.Is(err, bufio.ErrBufferFull):
		return nil, &DecodeError{What: "line", Payload: truncate(line), Err: ErrLineTooLong}
	default:
		// A final unterminated line is discarded: framing requires the
		// delimiter.
		return nil, &DisconnectError{Op: "read", Err: err}
	}

	line = bytes.TrimSuffix(line[:len(line)-1], []byte{'\r'})
	if len(line) > lr.max {
		return nil, &DecodeError{What: "line", Payload: truncate(line), Err: ErrLineTooLong}
	}

	out := make([]byte, len(line))
	copy(out, line)
	return out, nil
}

// Frame appends the delimiter to s.
func Frame(s string) []byte {
	b := make([]byte, 0, len(s)+1)
	b = append(b, s...)
	return append(b, Delimiter)
}

// DecodeName validates a handshake name line.
func DecodeName(line []byte) (string, error) {
	name := strings.TrimSpace(string(line))
	switch {
	case !utf8.ValidString(name):
		return "", &DecodeError{What: "name", Payload: truncate(line), Err: errors.New("not valid UTF-8")}
	case name == "":
		return "", &DecodeError{What: "name", Payload: "", Err: errors.New("empty name")}
	}
	return name, nil
}

// DecodeCommand parses a movement command: the text of -1, 0 or 1.
func DecodeCommand(line []byte) (int, error) {
	s := strings.TrimSpace(string(line))
	dir, err := strconv.Atoi(s)
	if err != nil {
		return 0, &DecodeError{What: "command", Payload: truncate(line), Err: err}
	}
	if dir < -1 || dir > 1 {
		return 0, &DecodeError{What: "command", Payload: s, Err: errors.New("direction out of range")}
	}
	return dir, nil
}

// EncodeCommand is the client-side inverse of DecodeCommand.
func EncodeCommand(direction int) []byte {
	return Frame(strconv.Itoa(direction))
}

func truncate(b []byte) string {
	const max = 64
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
