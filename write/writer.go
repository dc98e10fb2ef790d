// Package write executes materialized plans against a filesystem.
package write

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
)

var ErrExists = errors.New("file already exists and overwrite is false")

type Writer interface {
	Write(path string, content []byte, options WriteOptions) error
	CanWrite(path string) bool
	NeedsWrite(path string, content []byte) (bool, error)
}

type WriteOptions struct {
	CreateDirs bool
	Backup     bool
	BackupDir  string
	Overwrite  bool
	Atomic     bool
	// Perm is the mode a new file is created with; the executor applies the
	// template mode separately once every entry exists.
	Perm fs.FileMode
}

// DefaultWriteOptions overwrites in place, like re-running a build over an
// existing tree.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		CreateDirs: true,
		Overwrite:  true,
		Perm:       0o666,
	}
}

// BaseWriter writes files through a billy filesystem.
type BaseWriter struct {
	fs billy.Filesystem
}

func NewBaseWriter(fsys billy.Filesystem) *BaseWriter {
	return &BaseWriter{fs: fsys}
}

func (bw *BaseWriter) Write(path string, content []byte, options WriteOptions) error {
	if options.Perm == 0 {
		options.Perm = 0o666
	}

	if options.CreateDirs {
		if dir := filepath.Dir(path); dir != "." {
			if err := bw.fs.MkdirAll(dir, 0o777); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
		}
	}

	if !options.Overwrite {
		if _, err := bw.fs.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	if options.Backup {
		if err := bw.createBackup(path, options.BackupDir); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	if options.Atomic {
		return bw.atomicWrite(path, content, options.Perm)
	}

	return bw.directWrite(path, content, options.Perm)
}

func (bw *BaseWriter) CanWrite(path string) bool {
	info, err := bw.fs.Stat(path)
	if err != nil {
		return errors.Is(err, os.ErrNotExist)
	}
	return !info.IsDir()
}

func (bw *BaseWriter) NeedsWrite(path string, content []byte) (bool, error) {
	existing, err := readFile(bw.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, err
	}

	return !bytes.Equal(existing, content), nil
}

func (bw *BaseWriter) createBackup(path, backupDir string) error {
	if _, err := bw.fs.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if backupDir == "" {
		backupDir = filepath.Dir(path)
	}

	backupPath := filepath.Join(backupDir, filepath.Base(path)+".bak")

	input, err := bw.fs.Open(path)
	if err != nil {
		return err
	}
	defer input.Close()

	if err := bw.fs.MkdirAll(backupDir, 0o755); err != nil {
		return err
	}

	output, err := bw.fs.Create(backupPath)
	if err != nil {
		return err
	}
	defer output.Close()

	_, err = io.Copy(output, input)
	return err
}

func (bw *BaseWriter) atomicWrite(path string, content []byte, perm fs.FileMode) error {
	tempPath := path + ".tmp"

	if err := bw.directWrite(tempPath, content, perm); err != nil {
		_ = bw.fs.Remove(tempPath)
		return err
	}

	if err := bw.fs.Rename(tempPath, path); err != nil {
		_ = bw.fs.Remove(tempPath)
		return err
	}
	return nil
}

func (bw *BaseWriter) directWrite(path string, content []byte, perm fs.FileMode) (err error) {
	file, err := bw.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
	}()

	_, err = file.Write(content)
	return err
}

// SkipIfExistsWriter never touches a file that is already there.
type SkipIfExistsWriter struct {
	base Writer
	fs   billy.Filesystem
}

func NewSkipIfExistsWriter(fsys billy.Filesystem, base Writer) *SkipIfExistsWriter {
	return &SkipIfExistsWriter{base: base, fs: fsys}
}

func (siw *SkipIfExistsWriter) Write(path string, content []byte, options WriteOptions) error {
	if siw.exists(path) {
		return nil
	}
	return siw.base.Write(path, content, options)
}

func (siw *SkipIfExistsWriter) CanWrite(path string) bool {
	return !siw.exists(path) && siw.base.CanWrite(path)
}

func (siw *SkipIfExistsWriter) NeedsWrite(path string, content []byte) (bool, error) {
	if siw.exists(path) {
		return false, nil
	}
	return siw.base.NeedsWrite(path, content)
}

func (siw *SkipIfExistsWriter) exists(path string) bool {
	_, err := siw.fs.Stat(path)
	return err == nil
}

func readFile(fsys billy.Basic, path string) ([]byte, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}
