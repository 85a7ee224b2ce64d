// Package classify maps media locations to declared media types by extension.
package classify

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

// DirectProbeType is the one media type probed against its location
// instead of sampled byte windows. AVI indexes sit at the end of the file
// and its headers reference them, so neither head nor tail alone probes.
const DirectProbeType = "video/x-msvideo"

// mediaTypes mirrors the mime-db entries for common audio/video containers
// so the result does not depend on the host's mime.types files.
var mediaTypes = map[string]string{
	".3g2":  "video/3gpp2",
	".3gp":  "video/3gpp",
	".aac":  "audio/aac",
	".asf":  "video/x-ms-asf",
	".avi":  "video/x-msvideo",
	".f4v":  "video/mp4",
	".flac": "audio/x-flac",
	".flv":  "video/x-flv",
	".h264": "video/h264",
	".m1v":  "video/mpeg",
	".m2v":  "video/mpeg",
	".m3u8": "application/vnd.apple.mpegurl",
	".m4a":  "audio/mp4",
	".m4v":  "video/x-m4v",
	".mj2":  "video/mj2",
	".mk3d": "video/x-matroska",
	".mka":  "audio/x-matroska",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".mp4v": "video/mp4",
	".mpd":  "application/dash+xml",
	".mpe":  "video/mpeg",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".mpg4": "video/mp4",
	".mts":  "model/vnd.mts",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
	".ogv":  "video/ogg",
	".opus": "audio/ogg",
	".qt":   "video/quicktime",
	".ts":   "video/mp2t",
	".wav":  "audio/wav",
	".weba": "audio/webm",
	".webm": "video/webm",
	".wma":  "audio/x-ms-wma",
	".wmv":  "video/x-ms-wmv",
}

// Classify returns the declared media type of location, judged by the
// extension of its path. Query strings and fragments are ignored. ok is
// false when the extension is missing or unknown.
func Classify(location string) (mediaType string, ok bool) {
	ext := strings.ToLower(path.Ext(locationPath(location)))
	if ext == "" || ext == "." {
		return "", false
	}

	if t, found := mediaTypes[ext]; found {
		return t, true
	}

	if t := mime.TypeByExtension(ext); t != "" {
		// Strip parameters such as "; charset=utf-8"
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt, true
		}
		return t, true
	}

	return "", false
}

// RequiresDirectProbe reports whether mediaType must be probed by location.
func RequiresDirectProbe(mediaType string) bool {
	return mediaType == DirectProbeType
}

func locationPath(location string) string {
	if u, err := url.Parse(location); err == nil {
		return u.Path
	}
	// Fall back to trimming query and fragment by hand for unparsable input
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		return location[:i]
	}
	return location
}
