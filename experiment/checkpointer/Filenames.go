package checkpointer

import (
	"fmt"
	"time"
)

// FilenameEnumerator returns a function which returns a new filename
// each call, suffixed by a counter one higher than on the previous
// call, starting at start+1. For example, with filename "path/ckpt" and
// extension ".bin", the first call returns "path/ckpt1.bin".
func FilenameEnumerator(start int, filename, extension string) func() string {
	i := start
	return func() string {
		i++
		return fmt.Sprintf("%s%d%s", filename, i, extension)
	}
}

// FileTimer returns a function which returns filename suffixed with the
// number of nanoseconds since the Unix epoch at the time of the call
func FileTimer(filename, extension string) func() string {
	return func() string {
		return fmt.Sprintf("%s-%d%s", filename, time.Now().UnixNano(),
			extension)
	}
}
