package tags

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	goflac "github.com/go-flac/go-flac"
	"github.com/gopxl/beep/v2/flac"
	"github.com/llehouerou/go-m4a"
	"github.com/llehouerou/go-mp3"
	"go.senan.xyz/taglib"
)

var errNoDuration = errors.New("duration unavailable")

// Duration reads the playing time of a music file without decoding the
// whole stream where the container allows it.
func Duration(path string) (time.Duration, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtMP3:
		return mp3Duration(path)
	case ExtFLAC:
		return flacDuration(path)
	case ExtM4A, ExtMP4:
		return m4aDuration(path)
	case ExtWAV, ExtOGG, ExtOGA, ExtOPUS:
		return taglibDuration(path)
	}
	return 0, fmt.Errorf("unsupported format: %s", filepath.Ext(path))
}

func mp3Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, err
	}

	sampleRate := decoder.SampleRate()
	if sampleRate == 0 {
		return 0, errors.New("mp3: invalid sample rate")
	}
	sampleCount := decoder.SampleCount()
	if sampleCount <= 0 {
		return 0, errNoDuration
	}
	return time.Duration(float64(sampleCount) / float64(sampleRate) * float64(time.Second)), nil
}

// flacDuration reads the total sample count from the STREAMINFO block.
func flacDuration(path string) (time.Duration, error) {
	flacFile, err := goflac.ParseFile(path)
	if err != nil {
		// Prepended ID3v2 tags confuse go-flac
		return flacDurationWithBeep(path)
	}

	for _, meta := range flacFile.Meta {
		if meta.Type != goflac.StreamInfo || len(meta.Data) < 18 {
			continue
		}
		data := meta.Data
		// 20-bit sample rate, then 3 bits channels, 5 bits depth, 36 bits total samples
		sampleRate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
		totalSamples := int64(data[13]&0x0F)<<32 | int64(data[14])<<24 | int64(data[15])<<16 | int64(data[16])<<8 | int64(data[17])
		if sampleRate == 0 || totalSamples == 0 {
			return 0, errNoDuration
		}
		return time.Duration(float64(totalSamples) / float64(sampleRate) * float64(time.Second)), nil
	}

	return flacDurationWithBeep(path)
}

func flacDurationWithBeep(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := skipID3v2(f); err != nil {
		return 0, err
	}

	streamer, format, err := flac.Decode(f)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	if streamer.Len() <= 0 {
		return 0, errNoDuration
	}
	return format.SampleRate.D(streamer.Len()), nil
}

func m4aDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	container, err := m4a.Open(f)
	if err != nil {
		return 0, err
	}
	if d := container.Duration(); d > 0 {
		return d, nil
	}
	return 0, errNoDuration
}

func taglibDuration(path string) (time.Duration, error) {
	props, err := taglib.ReadProperties(path)
	if err != nil {
		return 0, err
	}
	if props.Length <= 0 {
		return 0, errNoDuration
	}
	return props.Length, nil
}

// skipID3v2 skips an ID3v2 tag if present at the beginning of the file.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if n < 10 || string(header[0:3]) != id3Magic {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// ID3v2 size is stored as a syncsafe integer in bytes 6-9
	size := int64(header[6]&0x7f)<<21 | int64(header[7]&0x7f)<<14 | int64(header[8]&0x7f)<<7 | int64(header[9]&0x7f)
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
