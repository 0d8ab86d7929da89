package sim

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/segmentio/encoding/json"
)

// FrameLog writes one JSON document per line. Paths ending in .zst are
// zstd-compressed.
type FrameLog struct {
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// CreateFrameLog creates (or truncates) the log at path.
func CreateFrameLog(path string) (*FrameLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating frame log dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating frame log: %w", err)
	}

	l := &FrameLog{f: f}
	var out io.Writer = f
	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		l.enc = enc
		out = enc
	}
	l.w = bufio.NewWriterSize(out, 64*1024)
	return l, nil
}

// Write appends v as one line.
func (l *FrameLog) Write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding frame record: %w", err)
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	return l.w.WriteByte('\n')
}

// Close flushes and closes the log.
func (l *FrameLog) Close() error {
	err := l.w.Flush()
	if l.enc != nil {
		if cerr := l.enc.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadFrameLog decodes every line of a log written by FrameLog, calling fn
// with the raw JSON of each.
func ReadFrameLog(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var in io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()
		in = dec
	}

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if err := fn(sc.Bytes()); err != nil {
			return err
		}
	}
	return sc.Err()
}

// WriteJSON writes v to path as indented JSON.
func WriteJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
