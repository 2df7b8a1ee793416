package tags

import (
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
)

// readFLACDate reads the full DATE (or YEAR) Vorbis comment from a FLAC file.
func readFLACDate(path string, t *Tag) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return
	}

	for _, meta := range f.Meta {
		if meta.Type != goflac.VorbisComment {
			continue
		}
		cmts, err := flacvorbis.ParseFromMetaDataBlock(*meta)
		if err != nil {
			return
		}
		for _, key := range []string{flacvorbis.FIELD_DATE, "YEAR"} {
			if values, err := cmts.Get(key); err == nil && len(values) > 0 && values[0] != "" {
				t.Date = values[0]
				return
			}
		}
		return
	}
}

// embeddedFLACPicture returns the front cover, or else the first picture
// block, of a FLAC file.
func embeddedFLACPicture(path string) (data []byte, mimeType string) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return nil, ""
	}

	for _, meta := range f.Meta {
		if meta.Type != goflac.Picture {
			continue
		}
		pic, err := flacpicture.ParseFromMetaDataBlock(*meta)
		if err != nil || len(pic.ImageData) == 0 {
			continue
		}
		if data == nil || pic.PictureType == flacpicture.PictureTypeFrontCover {
			data, mimeType = pic.ImageData, pic.MIME
		}
		if pic.PictureType == flacpicture.PictureTypeFrontCover {
			break
		}
	}
	return data, mimeType
}
