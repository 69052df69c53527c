package playback

import (
	"strings"

	"github.com/ManuGH/embyplay/internal/emby"
)

// NormalizePath turns a server-side path into one this host can open:
// disc structures get their entry point and UNC paths become smb:// URIs.
func NormalizePath(rawPath, videoType string) string {
	path := rawPath
	switch videoType {
	case emby.VideoTypeDvd:
		path += "/VIDEO_TS/VIDEO_TS.IFO"
	case emby.VideoTypeBluRay:
		path += "/BDMV/index.bdmv"
	}

	if strings.HasPrefix(path, `\\`) {
		path = "smb://" + strings.ReplaceAll(path[2:], `\`, "/")
	}
	return path
}
