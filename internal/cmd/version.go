package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/Alia5/fswgen/internal/codegen/common"
)

type Version struct {
	stdout io.Writer `kong:"-"`
}

// Run prints the build version.
func (v *Version) Run() error {
	version, err := common.GetVersion()
	if err != nil {
		return err
	}
	w := v.stdout
	if w == nil {
		w = os.Stdout
	}
	_, err = fmt.Fprintf(w, "fswgen %s (%s/%s, %s)\n", version, runtime.GOOS, runtime.GOARCH, runtime.Version())
	return err
}
