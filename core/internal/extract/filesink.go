package extract

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644

	writeBufferSize = 64 << 10
)

// FileSink writes members below a destination directory.
//
// By default output files are created or truncated in place. With atomic
// writes enabled, content goes to a temporary file in the same directory
// and is renamed over the final path on Commit.
//
// Member names are slash separated and resolved inside the destination; a
// leading slash is ignored and names that would escape the destination are
// rejected with fs.ErrInvalid.
type FileSink struct {
	destDir string
	atomic  bool
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithAtomicWrites enables temp-file-and-rename writes.
func WithAtomicWrites(enabled bool) FileSinkOption {
	return func(s *FileSink) {
		s.atomic = enabled
	}
}

// NewFileSink creates a FileSink that writes to destDir.
func NewFileSink(destDir string, opts ...FileSinkOption) *FileSink {
	s := &FileSink{destDir: destDir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the destination directory.
func (s *FileSink) Dir() string {
	return s.destDir
}

// RelPath maps a member name to its slash-separated path below the destination.
func RelPath(name string) (string, error) {
	rel := path.Clean(strings.TrimLeft(name, "/"))
	if rel == "." || !fs.ValidPath(rel) {
		return "", &fs.PathError{Op: "extract", Path: name, Err: fs.ErrInvalid}
	}
	return rel, nil
}

// Writer implements Sink. destDir is created if it does not exist.
func (s *FileSink) Writer(name string) (Committer, error) {
	rel, err := RelPath(name)
	if err != nil {
		return nil, err
	}
	destRel := filepath.FromSlash(rel)
	destPath := filepath.Join(s.destDir, destRel)

	if err := os.MkdirAll(s.destDir, dirPerm); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", s.destDir, err)
	}
	root, err := os.OpenRoot(s.destDir)
	if err != nil {
		return nil, fmt.Errorf("open destination root %s: %w", s.destDir, err)
	}
	if dir := filepath.Dir(destRel); dir != "." {
		if err := root.MkdirAll(dir, dirPerm); err != nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("create directory %s: %w", filepath.Join(s.destDir, dir), err)
		}
	}

	if !s.atomic {
		f, err := root.OpenFile(destRel, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
		if err != nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("create file %s: %w", destPath, err)
		}
		return newCommitter(root, f, destRel, destRel, destPath), nil
	}

	f, tempRel, err := createTempFile(root, filepath.Dir(destRel), ".arh-")
	if err != nil {
		_ = root.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return newCommitter(root, f, tempRel, destRel, destPath), nil
}

// fileCommitter writes through a buffer to writeRel and, when that differs
// from destRel, renames it into place on Commit.
type fileCommitter struct {
	root     *os.Root
	file     *os.File
	buf      *bufio.Writer
	writeRel string
	destRel  string
	destPath string
}

func newCommitter(root *os.Root, f *os.File, writeRel, destRel, destPath string) *fileCommitter {
	return &fileCommitter{
		root:     root,
		file:     f,
		buf:      bufio.NewWriterSize(f, writeBufferSize),
		writeRel: writeRel,
		destRel:  destRel,
		destPath: destPath,
	}
}

// Write implements io.Writer.
func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

// Path returns the final output path.
func (c *fileCommitter) Path() string {
	return c.destPath
}

// Commit flushes and closes the file and moves it into place.
func (c *fileCommitter) Commit() error {
	if err := c.buf.Flush(); err != nil {
		return c.fail(fmt.Errorf("flush %s: %w", c.destPath, err))
	}
	if err := c.file.Close(); err != nil {
		return c.fail(fmt.Errorf("close %s: %w", c.destPath, err))
	}
	if c.writeRel != c.destRel {
		if err := c.root.Rename(c.writeRel, c.destRel); err != nil {
			return c.fail(fmt.Errorf("rename to %s: %w", c.destPath, err))
		}
	}
	return c.root.Close()
}

// Discard closes and removes the partially written file.
func (c *fileCommitter) Discard() error {
	_ = c.file.Close() //nolint:errcheck // best-effort cleanup
	err := c.root.Remove(c.writeRel)
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	return errors.Join(err, c.root.Close())
}

func (c *fileCommitter) fail(err error) error {
	_ = c.file.Close()            //nolint:errcheck // may already be closed
	_ = c.root.Remove(c.writeRel) //nolint:errcheck // best-effort cleanup
	_ = c.root.Close()            //nolint:errcheck // best-effort cleanup
	return err
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
