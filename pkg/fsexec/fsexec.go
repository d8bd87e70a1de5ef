// Package fsexec implements the Filesystem Executor: it performs
// filesystem mutations that are journaled and reversible where possible,
// backing up pre-existing state before any destructive change.
package fsexec

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/alantheprice/angela/pkg/classifier"
	"github.com/alantheprice/angela/pkg/errs"
	"github.com/alantheprice/angela/pkg/utils"
)

// OperationType names the forward operation an Inverse undoes.
type OperationType string

const (
	OpCreateFile      OperationType = "create_file"
	OpWriteFile       OperationType = "write_file"
	OpDeleteFile      OperationType = "delete_file"
	OpCreateDirectory OperationType = "create_dir"
	OpDeleteDirectory OperationType = "delete_dir"
	OpCopyFile        OperationType = "copy_file"
	OpMoveFile        OperationType = "move_file"
)

// Inverse describes how to undo one forward operation. It is journaled
// alongside the forward parameters (§4.4 "Backups") and later replayed by
// the Rollback Manager via Apply.
type Inverse struct {
	Type       OperationType
	Path       string // the path the forward operation mutated
	SecondPath string // for move_file: the original source path
	BackupPath string // "" if no backup was taken
}

// Executor performs filesystem mutations. BackupDir is created on the
// first backup if it does not exist; it is process-owned and not shared
// across processes.
type Executor struct {
	BackupDir  string
	Classifier *classifier.Classifier
}

// New creates an Executor backing up under backupDir.
func New(backupDir string) *Executor {
	return &Executor{BackupDir: backupDir, Classifier: classifier.New()}
}

func (e *Executor) classifierOrDefault() *classifier.Classifier {
	if e.Classifier != nil {
		return e.Classifier
	}
	return classifier.New()
}

// checkSafety runs the safety validator against a synthesized command
// shape representative of the filesystem operation, per §4.4's
// "Preconditions enforced": refusal aborts before any mutation.
func (e *Executor) checkSafety(syntheticCommand string) error {
	verdict := e.classifierOrDefault().Classify(syntheticCommand, classifier.Environment{})
	if verdict.Refused {
		return errs.NewRefusalError(syntheticCommand, verdict.Reason)
	}
	return nil
}

func (e *Executor) checkParentWritable(path string) error {
	parent := filepath.Dir(path)
	info, err := os.Stat(parent)
	if err != nil {
		return errs.NewFileSystemError("check_parent", parent, err)
	}
	if !info.IsDir() {
		return errs.NewFileSystemError("check_parent", parent, fmt.Errorf("not a directory"))
	}
	return nil
}

// backupFile copies path's current content into the backup directory,
// named by its content-addressed revision hash, and returns the backup
// path.
func (e *Executor) backupFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", errs.NewFileSystemError("backup_file", path, err)
	}
	return e.writeBackup(path, content)
}

func (e *Executor) writeBackup(path string, content []byte) (string, error) {
	if err := os.MkdirAll(e.BackupDir, 0o755); err != nil {
		return "", errs.NewFileSystemError("backup_mkdir", e.BackupDir, err)
	}
	hash := utils.GenerateFileRevisionHash(path, string(content))
	backupPath := filepath.Join(e.BackupDir, hash)
	if err := os.WriteFile(backupPath, content, 0o644); err != nil {
		return "", errs.NewFileSystemError("backup_write", backupPath, err)
	}
	return backupPath, nil
}

// CreateFile implements §4.4's create_file. If overwrite is false and the
// file already exists, the call fails rather than silently clobbering.
func (e *Executor) CreateFile(path, content string, overwrite bool) (Inverse, error) {
	if err := e.checkSafety(fmt.Sprintf("touch %s", path)); err != nil {
		return Inverse{}, err
	}
	if err := e.checkParentWritable(path); err != nil {
		return Inverse{}, err
	}

	exists := fileExists(path)
	if exists && !overwrite {
		return Inverse{}, errs.NewFileSystemError("create_file", path, fmt.Errorf("file already exists"))
	}

	var backupPath string
	if exists {
		bp, err := e.backupFile(path)
		if err != nil {
			return Inverse{}, err
		}
		backupPath = bp
	}

	if err := writeAtomic(path, []byte(content)); err != nil {
		return Inverse{}, errs.NewFileSystemError("create_file", path, err)
	}

	return Inverse{Type: OpCreateFile, Path: path, BackupPath: backupPath}, nil
}

// WriteFile implements §4.4's write_file: overwrite existing content,
// backing up what was there beforehand.
func (e *Executor) WriteFile(path, content string) (Inverse, error) {
	if err := e.checkSafety(fmt.Sprintf("echo > %s", path)); err != nil {
		return Inverse{}, err
	}
	if err := e.checkParentWritable(path); err != nil {
		return Inverse{}, err
	}

	var backupPath string
	if fileExists(path) {
		bp, err := e.backupFile(path)
		if err != nil {
			return Inverse{}, err
		}
		backupPath = bp
	}

	if err := writeAtomic(path, []byte(content)); err != nil {
		return Inverse{}, errs.NewFileSystemError("write_file", path, err)
	}

	return Inverse{Type: OpWriteFile, Path: path, BackupPath: backupPath}, nil
}

// DeleteFile implements §4.4's delete_file, backing up the content first.
func (e *Executor) DeleteFile(path string) (Inverse, error) {
	if err := e.checkSafety(fmt.Sprintf("rm %s", path)); err != nil {
		return Inverse{}, err
	}

	backupPath, err := e.backupFile(path)
	if err != nil {
		return Inverse{}, err
	}

	if err := os.Remove(path); err != nil {
		return Inverse{}, errs.NewFileSystemError("delete_file", path, err)
	}

	return Inverse{Type: OpDeleteFile, Path: path, BackupPath: backupPath}, nil
}

// CreateDirectory implements §4.4's create_directory. There is no
// pre-state to capture; the inverse simply rmdir's the directory if it
// ends up empty.
func (e *Executor) CreateDirectory(path string, parents bool) (Inverse, error) {
	if err := e.checkSafety(fmt.Sprintf("mkdir %s", path)); err != nil {
		return Inverse{}, err
	}

	var err error
	if parents {
		err = os.MkdirAll(path, 0o755)
	} else {
		err = os.Mkdir(path, 0o755)
	}
	if err != nil {
		return Inverse{}, errs.NewFileSystemError("create_directory", path, err)
	}

	return Inverse{Type: OpCreateDirectory, Path: path}, nil
}

// DeleteDirectory implements §4.4's delete_directory, recursively backing
// up the tree before removal.
func (e *Executor) DeleteDirectory(path string) (Inverse, error) {
	if err := e.checkSafety(fmt.Sprintf("rm -r %s", path)); err != nil {
		return Inverse{}, err
	}

	backupPath, err := e.backupTree(path)
	if err != nil {
		return Inverse{}, err
	}

	if err := os.RemoveAll(path); err != nil {
		return Inverse{}, errs.NewFileSystemError("delete_directory", path, err)
	}

	return Inverse{Type: OpDeleteDirectory, Path: path, BackupPath: backupPath}, nil
}

// CopyFile implements §4.4's copy_file.
func (e *Executor) CopyFile(src, dst string, overwrite bool) (Inverse, error) {
	if err := e.checkSafety(fmt.Sprintf("cp %s %s", src, dst)); err != nil {
		return Inverse{}, err
	}
	if err := e.checkParentWritable(dst); err != nil {
		return Inverse{}, err
	}

	exists := fileExists(dst)
	if exists && !overwrite {
		return Inverse{}, errs.NewFileSystemError("copy_file", dst, fmt.Errorf("destination already exists"))
	}

	var backupPath string
	if exists {
		bp, err := e.backupFile(dst)
		if err != nil {
			return Inverse{}, err
		}
		backupPath = bp
	}

	content, err := os.ReadFile(src)
	if err != nil {
		return Inverse{}, errs.NewFileSystemError("copy_file", src, err)
	}
	if err := writeAtomic(dst, content); err != nil {
		return Inverse{}, errs.NewFileSystemError("copy_file", dst, err)
	}

	return Inverse{Type: OpCopyFile, Path: dst, BackupPath: backupPath}, nil
}

// MoveFile implements §4.4's move_file.
func (e *Executor) MoveFile(src, dst string, overwrite bool) (Inverse, error) {
	if err := e.checkSafety(fmt.Sprintf("mv %s %s", src, dst)); err != nil {
		return Inverse{}, err
	}
	if err := e.checkParentWritable(dst); err != nil {
		return Inverse{}, err
	}

	exists := fileExists(dst)
	if exists && !overwrite {
		return Inverse{}, errs.NewFileSystemError("move_file", dst, fmt.Errorf("destination already exists"))
	}

	var backupPath string
	if exists {
		bp, err := e.backupFile(dst)
		if err != nil {
			return Inverse{}, err
		}
		backupPath = bp
	}

	if err := os.Rename(src, dst); err != nil {
		return Inverse{}, errs.NewFileSystemError("move_file", src, err)
	}

	return Inverse{Type: OpMoveFile, Path: dst, SecondPath: src, BackupPath: backupPath}, nil
}

// Apply replays an Inverse to undo its forward operation. It is the
// primitive the Rollback Manager composes into operation- and
// transaction-level rollback.
func (e *Executor) Apply(inv Inverse) error {
	if inv.Path == "" {
		return errs.NewRollbackError(0, fmt.Errorf("inverse of %q has no target path", inv.Type))
	}
	switch inv.Type {
	case OpCreateFile:
		if err := os.Remove(inv.Path); err != nil && !os.IsNotExist(err) {
			return errs.NewRollbackError(0, err)
		}
		if inv.BackupPath != "" {
			return e.restoreFile(inv.BackupPath, inv.Path)
		}
		return nil

	case OpWriteFile, OpDeleteFile:
		if inv.BackupPath == "" {
			return nil
		}
		return e.restoreFile(inv.BackupPath, inv.Path)

	case OpCreateDirectory:
		entries, err := os.ReadDir(inv.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return errs.NewRollbackError(0, err)
		}
		if len(entries) > 0 {
			return errs.NewRollbackError(0, fmt.Errorf("directory %s is not empty, cannot undo creation", inv.Path))
		}
		if err := os.Remove(inv.Path); err != nil {
			return errs.NewRollbackError(0, err)
		}
		return nil

	case OpDeleteDirectory:
		return e.restoreTree(inv.BackupPath, inv.Path)

	case OpCopyFile:
		if err := os.Remove(inv.Path); err != nil && !os.IsNotExist(err) {
			return errs.NewRollbackError(0, err)
		}
		if inv.BackupPath != "" {
			return e.restoreFile(inv.BackupPath, inv.Path)
		}
		return nil

	case OpMoveFile:
		if err := os.Rename(inv.Path, inv.SecondPath); err != nil {
			return errs.NewRollbackError(0, err)
		}
		if inv.BackupPath != "" {
			if err := e.restoreFile(inv.BackupPath, inv.Path); err != nil {
				return err
			}
		}
		return nil

	default:
		return errs.NewRollbackError(0, fmt.Errorf("unknown inverse type %q", inv.Type))
	}
}

func (e *Executor) restoreFile(backupPath, dst string) error {
	content, err := os.ReadFile(backupPath)
	if err != nil {
		return errs.NewRollbackError(0, err)
	}
	if err := writeAtomic(dst, content); err != nil {
		return errs.NewRollbackError(0, err)
	}
	return nil
}

// backupTree recursively copies dir into a per-operation subdirectory of
// BackupDir, named by the hash of the directory's own path.
func (e *Executor) backupTree(dir string) (string, error) {
	backupRoot := filepath.Join(e.BackupDir, utils.GenerateFileRevisionHash(dir, "tree"))
	if err := os.MkdirAll(backupRoot, 0o755); err != nil {
		return "", errs.NewFileSystemError("backup_tree", backupRoot, err)
	}

	err := filepath.Walk(dir, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		target := filepath.Join(backupRoot, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		return copyFileContents(p, target)
	})
	if err != nil {
		return "", errs.NewFileSystemError("backup_tree", dir, err)
	}

	return backupRoot, nil
}

func (e *Executor) restoreTree(backupRoot, dst string) error {
	if backupRoot == "" {
		return nil
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return errs.NewRollbackError(0, err)
	}

	var paths []string
	err := filepath.Walk(backupRoot, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return errs.NewRollbackError(0, err)
	}
	sort.Strings(paths)

	for _, p := range paths {
		rel, err := filepath.Rel(backupRoot, p)
		if err != nil {
			return errs.NewRollbackError(0, err)
		}
		target := filepath.Join(dst, rel)
		info, err := os.Stat(p)
		if err != nil {
			return errs.NewRollbackError(0, err)
		}
		if info.IsDir() {
			if err := os.MkdirAll(target, info.Mode()); err != nil {
				return errs.NewRollbackError(0, err)
			}
			continue
		}
		if err := copyFileContents(p, target); err != nil {
			return errs.NewRollbackError(0, err)
		}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeAtomic writes content to a temp file in the same directory and
// renames it into place, so a crash mid-write never leaves path truncated.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".angela-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func copyFileContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
