package fetch

import (
	"mime"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Loose fallbacks for headers mime.ParseMediaType rejects, such as an
// unquoted name containing spaces or a missing disposition type.
var (
	extendedFilenameRe = regexp.MustCompile(`filename\*\s*=\s*(?i:UTF-8)''([^;"\s]+)`)
	plainFilenameRe    = regexp.MustCompile(`filename\s*=\s*"?([^;"]+)"?`)
)

// Filename picks the cache name of a download: the Content-Disposition file
// name when there is one, else the last segment of the URL path, else the
// host.
func Filename(contentDisposition string, u *url.URL) string {
	if name := dispositionFilename(contentDisposition); name != "" {
		return name
	}
	if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
		if unescaped, err := url.PathUnescape(base); err == nil {
			return unescaped
		}
		return base
	}
	return u.Hostname()
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := strings.TrimSpace(params["filename"]); name != "" {
			return name
		}
	}

	for _, re := range []*regexp.Regexp{extendedFilenameRe, plainFilenameRe} {
		m := re.FindStringSubmatch(header)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if decoded, err := url.PathUnescape(name); err == nil {
			name = decoded
		}
		if name != "" {
			return name
		}
	}
	return ""
}
