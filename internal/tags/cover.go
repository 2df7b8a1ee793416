package tags

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"
)

// Common cover art filenames to look for in album folders.
var coverArtFilenames = []string{
	"cover.jpg", "cover.jpeg", "cover.png",
	"folder.jpg", "folder.jpeg", "folder.png",
	"album.jpg", "album.jpeg", "album.png",
	"front.jpg", "front.jpeg", "front.png",
	"artwork.jpg", "artwork.jpeg", "artwork.png",
}

// ExtractCoverArt reads cover art for an audio file.
// It first tries to extract embedded art from the file metadata.
// If no embedded art is found, it looks for common cover image files
// in the same directory (cover.jpg, folder.jpg, album.png, etc.).
// Returns the image data and MIME type, or nil if no art is found.
func ExtractCoverArt(path string) (data []byte, mimeType string, err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, "", err
	}

	data, mimeType = extractEmbeddedArt(path)
	if data != nil {
		return data, mimeType, nil
	}

	return findFolderArt(filepath.Dir(path))
}

// extractEmbeddedArt reads embedded cover art, trying dhowden/tag first and
// then the format-specific readers.
func extractEmbeddedArt(path string) (data []byte, mimeType string) {
	if f, err := os.Open(path); err == nil {
		m, err := tag.ReadFrom(f)
		f.Close()
		if err == nil {
			if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
				return pic.Data, pictureMIME(pic.Data, pic.MIMEType)
			}
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ExtMP3:
		data, mimeType = embeddedMP3Picture(path)
	case ExtFLAC:
		data, mimeType = embeddedFLACPicture(path)
	}
	if data != nil {
		return data, pictureMIME(data, mimeType)
	}

	data, err := taglib.ReadImage(path)
	if err != nil || len(data) == 0 {
		return nil, ""
	}
	return data, pictureMIME(data, "")
}

// pictureMIME returns declared when set, otherwise sniffs the image bytes.
func pictureMIME(data []byte, declared string) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		return declared
	}
	return http.DetectContentType(data)
}

// FolderArtPath returns the path of the first cover image found in dir, or
// "" when there is none.
func FolderArtPath(dir string) string {
	for _, filename := range coverArtFilenames {
		for _, name := range []string{filename, strings.ToUpper(filename)} {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p
			}
		}
	}
	return ""
}

// findFolderArt reads the cover image FolderArtPath finds in dir.
func findFolderArt(dir string) (data []byte, mimeType string, err error) {
	p := FolderArtPath(dir)
	if p == "" {
		return nil, "", nil
	}
	data, err = os.ReadFile(p)
	if err != nil {
		return nil, "", err
	}

	switch strings.ToLower(filepath.Ext(p)) {
	case ".jpg", ".jpeg":
		mimeType = mimeJPEG
	case ".png":
		mimeType = mimePNG
	default:
		mimeType = "application/octet-stream"
	}
	return data, mimeType, nil
}
