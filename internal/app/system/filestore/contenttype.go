package filestore

import (
	"path/filepath"
	"strings"
)

// GenericExt is the extension given to uploads whose declared name has no
// allow-listed extension.
const GenericExt = "bin"

// allowedExt is the upload extension allow-list. The declared filename is
// only ever used to pick one of these.
var allowedExt = map[string]struct{}{
	"pdf": {}, "png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "webp": {},
	"tif": {}, "tiff": {}, "doc": {}, "docx": {}, "txt": {},
}

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"txt":  "text/plain; charset=utf-8",
}

// SafeExt returns the lowercased extension of name if it is allow-listed,
// otherwise GenericExt.
func SafeExt(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSpace(name)), "."))
	if _, ok := allowedExt[ext]; ok {
		return ext
	}
	return GenericExt
}

// ContentType returns the download content type for a file name, derived
// purely from its extension.
func ContentType(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
