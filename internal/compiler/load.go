package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/pgshape/internal/ir"
)

// Sentinel errors returned (wrapped) by BuildDir and LoadDir.
var (
	ErrDirNotFound = errors.New("schema directory not found")
	ErrNoCUEFiles  = errors.New("no CUE files found")
	ErrCUELoad     = errors.New("loading CUE files")
	ErrCUEBuild    = errors.New("building CUE value")
)

// BuildDir loads every CUE file of the package in dir and returns the
// unified value.
func BuildDir(dir string) (cue.Value, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return cue.Value{}, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
	}
	if !info.IsDir() {
		return cue.Value{}, fmt.Errorf("%w: not a directory: %s", ErrDirNotFound, dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return cue.Value{}, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return cue.Value{}, fmt.Errorf("%w in %s", ErrNoCUEFiles, dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("%w: no instances", ErrCUELoad)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, fmt.Errorf("%w: %v", ErrCUELoad, inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Validate(); err != nil {
		return cue.Value{}, fmt.Errorf("%w: %w", ErrCUEBuild, formatCUEError(err))
	}
	return value, nil
}

// LoadDir builds the CUE package in dir and compiles it into a schema.
func LoadDir(dir string) (*ir.Schema, error) {
	value, err := BuildDir(dir)
	if err != nil {
		return nil, err
	}
	return CompileSchema(value)
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
