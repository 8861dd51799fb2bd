package comparison

import (
	"os"
	"path/filepath"
)

// DefaultPayload is fed on stdin when a case has no payload of its own. The
// bundled benchmark programs all read a line of integers.
const DefaultPayload = "12 34\n"

// InputProvider resolves the stdin payload for a case.
type InputProvider interface {
	Input(caseName string) string
}

type defaultInput struct{}

// DefaultInput supplies DefaultPayload for every case.
func DefaultInput() InputProvider {
	return defaultInput{}
}

func (defaultInput) Input(string) string {
	return DefaultPayload
}

type dirInput struct {
	dir string
}

// DirInput reads the payload for case <name> from <dir>/<name>.txt, falling
// back to DefaultPayload when no such file exists.
func DirInput(dir string) InputProvider {
	return dirInput{dir: dir}
}

func (d dirInput) Input(caseName string) string {
	data, err := os.ReadFile(filepath.Join(d.dir, caseName+".txt"))
	if err != nil {
		return DefaultPayload
	}
	return string(data)
}
