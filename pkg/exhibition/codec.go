package exhibition

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// absent marks a missing optional field in the index file.
const absent = "null"

// fieldsPerPhoto is the number of lines each photo occupies in the index file.
const fieldsPerPhoto = 6

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// EncodeIndex writes photos as newline-separated fields, six per photo:
// locator, exposure, aperture, iso, path, date taken.
func EncodeIndex(w io.Writer, photos []Photo) error {
	bw := bufio.NewWriter(w)
	for i, p := range photos {
		fields := [fieldsPerPhoto]string{p.Locator, absent, absent, absent, p.FilePath, absent}
		if p.Exposure != nil {
			fields[1] = formatFloat(*p.Exposure)
		}
		if p.Aperture != nil {
			fields[2] = *p.Aperture
		}
		if p.ISO != nil {
			fields[3] = strconv.Itoa(*p.ISO)
		}
		if p.DateTaken != nil {
			fields[5] = strconv.FormatInt(*p.DateTaken, 10)
		}

		for _, f := range fields {
			if strings.ContainsAny(f, "\r\n") {
				return fmt.Errorf("photo %d: field %q contains a line break", i, f)
			}
			if _, err := bw.WriteString(f + "\n"); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// DecodeIndex parses the output of EncodeIndex.
func DecodeIndex(r io.Reader) ([]Photo, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	photos := []Photo{}
	if len(bs) == 0 {
		return photos, nil
	}

	s := string(bs)
	if !strings.HasSuffix(s, "\n") {
		return nil, fmt.Errorf("truncated index: missing final newline")
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	if len(lines)%fieldsPerPhoto != 0 {
		return nil, fmt.Errorf("truncated index: %d lines is not a multiple of %d", len(lines), fieldsPerPhoto)
	}

	for i := 0; i < len(lines); i += fieldsPerPhoto {
		p, err := decodePhoto(lines[i : i+fieldsPerPhoto])
		if err != nil {
			return nil, fmt.Errorf("photo %d: %w", i/fieldsPerPhoto, err)
		}
		photos = append(photos, p)
	}
	return photos, nil
}

func decodePhoto(f []string) (Photo, error) {
	p := Photo{Locator: f[0], FilePath: f[4]}

	if f[1] != absent {
		v, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return p, fmt.Errorf("exposure: %w", err)
		}
		p.Exposure = Float64(v)
	}

	if f[2] != absent {
		p.Aperture = String(f[2])
	}

	if f[3] != absent {
		v, err := strconv.Atoi(f[3])
		if err != nil {
			return p, fmt.Errorf("iso: %w", err)
		}
		p.ISO = Int(v)
	}

	if f[5] != absent {
		v, err := strconv.ParseInt(f[5], 10, 64)
		if err != nil {
			return p, fmt.Errorf("date taken: %w", err)
		}
		p.DateTaken = Int64(v)
	}
	return p, nil
}
