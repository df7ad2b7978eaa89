//Package npyz reads and writes NumPy .npy files, optionally compressed.
package npyz

import (
	"fmt"
	"os"

	"github.com/rmera/gomsm/internal/zio"
	"github.com/sbinet/npyio"
)

//Write writes v (a *mat.Dense, a slice or a scalar) to the file name, compressing it
//according to the extension of name (see zio.FromExt).
func Write(name string, v any) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("npyz.Write: %w", err)
	}
	defer f.Close()
	w, err := zio.NewWriter(f, zio.FromExt(name))
	if err != nil {
		return fmt.Errorf("npyz.Write: %w", err)
	}
	if err = npyio.Write(w, v); err != nil {
		w.Close()
		return fmt.Errorf("npyz.Write: can't write %s: %w", name, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("npyz.Write: can't write %s: %w", name, err)
	}
	return f.Close()
}

// Read reads the file name into ptr, which must point to a type compatible with its content.
func Read(name string, ptr any) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("npyz.Read: %w", err)
	}
	defer f.Close()
	r, err := zio.NewReader(f, zio.FromExt(name))
	if err != nil {
		return fmt.Errorf("npyz.Read: %w", err)
	}
	defer r.Close()
	if err = npyio.Read(r, ptr); err != nil {
		return fmt.Errorf("npyz.Read: can't read %s: %w", name, err)
	}
	return nil
}
