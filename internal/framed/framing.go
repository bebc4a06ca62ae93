package framed

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxFrameBytes bounds a single message body.
const maxFrameBytes = 16 << 20

var errMissingLength = errors.New("missing Content-Length header")

// writeMessage encodes v as one Content-Length framed message and flushes.
func writeMessage(w *bufio.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Flush()
}

// readFrame returns the body of the next message. Headers end at the first
// blank line; CRLF and bare LF are both accepted.
func readFrame(r *bufio.Reader) ([]byte, error) {
	headers := map[string]string{}
	sawHeader := false
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && !sawHeader && strings.TrimSpace(line) == "" {
				return nil, io.EOF
			}
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		s := strings.TrimRight(line, "\r\n")
		if s == "" {
			if !sawHeader {
				continue
			}
			break
		}
		sawHeader = true
		if i := strings.IndexByte(s, ':'); i >= 0 {
			key := strings.ToLower(strings.TrimSpace(s[:i]))
			headers[key] = strings.TrimSpace(s[i+1:])
		}
	}

	raw, ok := headers["content-length"]
	if !ok {
		return nil, errMissingLength
	}
	length, err := strconv.Atoi(raw)
	if err != nil || length < 0 {
		return nil, fmt.Errorf("invalid Content-Length %q", raw)
	}
	if length > maxFrameBytes {
		return nil, fmt.Errorf("Content-Length %d exceeds %d bytes", length, maxFrameBytes)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
