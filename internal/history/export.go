package history

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Export writes the raw history file, zstd-compressed, to w. A missing
// history file exports as an empty archive.
func (s *Store) Export(w io.Writer) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	f, err := os.Open(s.path)
	if err != nil && !os.IsNotExist(err) {
		enc.Close()
		return fmt.Errorf("opening history file: %w", err)
	}
	if f != nil {
		defer f.Close()
		if _, err := io.Copy(enc, f); err != nil {
			enc.Close()
			return fmt.Errorf("compressing history: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing zstd stream: %w", err)
	}
	return nil
}

// ExportFile writes a compressed copy of the history to path, typically
// history.jsonl.zst next to the original.
func (s *Store) ExportFile(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := s.Export(out); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}
