package capture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"projector-match/internal/frame"
)

// Sequence replays numbered image files from a directory in numeric order
// (frame_2.png before frame_10.png). NextFrame returns io.EOF after the
// last file.
type Sequence struct {
	Paths []string
	next  int
}

// OpenSequence lists the image files in dir.
func OpenSequence(dir string) (*Sequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, deviceError("sequence", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !frame.IsImageFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, deviceError("sequence", fmt.Errorf("no images in %s", dir))
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return lessNumbered(filepath.Base(paths[i]), filepath.Base(paths[j]))
	})
	return &Sequence{Paths: paths}, nil
}

// NextFrame implements FrameSource.
func (s *Sequence) NextFrame() (*frame.Image, error) {
	if s.next >= len(s.Paths) {
		return nil, io.EOF
	}
	path := s.Paths[s.next]
	s.next++
	img, err := frame.Load(path)
	if err != nil {
		return nil, deviceError("sequence", err)
	}
	return img, nil
}

// Current returns the path of the frame last returned by NextFrame.
func (s *Sequence) Current() string {
	if s.next == 0 {
		return ""
	}
	return s.Paths[s.next-1]
}

// Len returns the number of frames in the sequence.
func (s *Sequence) Len() int { return len(s.Paths) }

// Rewind restarts the sequence from the first file.
func (s *Sequence) Rewind() { s.next = 0 }

// lessNumbered orders names by their last run of digits, then by name.
func lessNumbered(a, b string) bool {
	na, oka := trailingNumber(a)
	nb, okb := trailingNumber(b)
	if oka && okb && na != nb {
		return na < nb
	}
	if oka != okb {
		return oka
	}
	return a < b
}

func trailingNumber(name string) (int, bool) {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	end := len(name)
	for end > 0 && (name[end-1] < '0' || name[end-1] > '9') {
		end--
	}
	start := end
	for start > 0 && name[start-1] >= '0' && name[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.Atoi(name[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
