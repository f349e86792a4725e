package exhibition

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Caption is the text shown below a photo.
type Caption struct {
	// When is relative to the time the caption was made, for example "3 minutes ago".
	When string
	// Exposure is "<exposure>, f<aperture>, <iso>", or empty unless all three are known.
	Exposure string
	Path     string
}

// String renders the non-empty lines of the caption.
func (c Caption) String() string {
	lines := []string{}
	for _, l := range []string{c.When, c.Exposure, c.Path} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

// NewCaption describes p as of now, with prefix removed from its path.
func NewCaption(p Photo, prefix string, now time.Time) Caption {
	c := Caption{Path: TrimDir(p.FilePath, prefix)}
	if t, ok := p.Taken(); ok {
		c.When = humanize.RelTime(t, now, "ago", "from now")
	}
	if p.Exposure != nil && p.Aperture != nil && p.ISO != nil {
		c.Exposure = fmt.Sprintf("%s, f%s, %s", formatFloat(*p.Exposure), *p.Aperture, strconv.Itoa(*p.ISO))
	}
	return c
}

// CommonDir returns the longest directory prefix shared by every path, in slash form.
func CommonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	common := strings.Split(filepath.ToSlash(filepath.Dir(paths[0])), "/")
	for _, p := range paths[1:] {
		parts := strings.Split(filepath.ToSlash(filepath.Dir(p)), "/")
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
		if n == 0 {
			break
		}
	}
	return strings.Join(common, "/")
}

// TrimDir removes the directory prefix dir from path.
func TrimDir(path string, dir string) string {
	if dir == "" {
		return path
	}
	s := filepath.ToSlash(path)
	if rest, ok := strings.CutPrefix(s, strings.TrimSuffix(dir, "/")+"/"); ok {
		return rest
	}
	return path
}
