package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/acme/bookkeeper/internal/compiler"
	"github.com/acme/bookkeeper/internal/entity"
)

// LoadError represents an error during entity definition loading.
type LoadError struct {
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// LoadEntities loads every entity definition from a directory of CUE
// files, in declaration order.
func LoadEntities(dir string) ([]*entity.Descriptor, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Message: fmt.Sprintf("entity definitions directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("error accessing entity definitions directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	// Definition files carry no package clause, so they are loaded as
	// explicit file arguments rather than as a directory package. Absolute
	// paths keep them independent of the loader's working directory.
	for i, p := range cueFiles {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, &LoadError{Message: fmt.Sprintf("resolving %s: %v", p, err)}
		}
		cueFiles[i] = abs
	}
	ctx := cuecontext.New()
	instances := load.Instances(cueFiles, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	descriptors, err := compiler.CompileEntities(value)
	if err != nil {
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) {
			return nil, &LoadError{Message: compileErr.Field + ": " + compileErr.Message, Pos: compileErr.Pos}
		}
		return nil, err
	}
	return descriptors, nil
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
