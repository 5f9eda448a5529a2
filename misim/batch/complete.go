package batch

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/misim/misim/client"
)

// DefaultCompleteMinLines is the transcript length past which a run counts
// as finished.
const DefaultCompleteMinLines = 40

// IsComplete reports whether the transcript at path is a finished run: longer
// than minLines, or ending on the motivation or a termination. The motivation
// is matched in its annotated form. A missing file is not complete.
func IsComplete(path, motivation string, minLines int) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	var (
		n    int
		last string
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxRecordBytes)
	for sc.Scan() {
		n++
		last = sc.Text()
	}
	if err := sc.Err(); err != nil {
		return false, fmt.Errorf("read transcript: %w", err)
	}

	if n > minLines {
		return true, nil
	}
	if m := client.SanitizeAnnotation(motivation); m != "" && strings.Contains(last, m) {
		return true, nil
	}
	return strings.Contains(last, client.TerminateMarker), nil
}
