package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-audio/wav"
	"github.com/tcolgate/mp3"
	_ "golang.org/x/image/webp" // register decoder
)

var imageTypes = []string{"image/jpeg", "image/png", "image/webp"}

var (
	wavTypes   = []string{"audio/wav"}
	mp3Types   = []string{"audio/mpeg"}
	otherAudio = []string{"audio/ogg", "application/ogg", "audio/mp4", "audio/x-m4a", "video/mp4"}
)

// detect returns the sniffed type of data if it, or one of its parents in
// the mimetype tree, is in allowed.
func detect(data []byte, allowed []string) (*mimetype.MIME, bool) {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if isAny(m, allowed) {
			return mt, true
		}
	}
	return mt, false
}

func isAny(m *mimetype.MIME, types []string) bool {
	for _, t := range types {
		if m.Is(t) {
			return true
		}
	}
	return false
}

// checkImage verifies data is a jpeg, png or webp whose header decodes.
func checkImage(data []byte) (*mimetype.MIME, error) {
	mt, ok := detect(data, imageTypes)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %s does not decode: %v", ErrUnsupportedType, mt.String(), err)
	}
	return mt, nil
}

// audioDuration sniffs data and returns its playing time. wav and mp3 are
// measured; ogg and mp4 fall back to declared, which must then be positive.
func audioDuration(data []byte, declared time.Duration) (*mimetype.MIME, time.Duration, error) {
	if mt, ok := detect(data, wavTypes); ok {
		d, err := wavDuration(data)
		return mt, d, err
	}
	if mt, ok := detect(data, mp3Types); ok {
		d, err := mp3Duration(data)
		return mt, d, err
	}
	mt, ok := detect(data, otherAudio)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}
	if declared <= 0 {
		return nil, 0, fmt.Errorf("%w for %s", ErrDurationRequired, mt.String())
	}
	return mt, declared, nil
}

func wavDuration(data []byte) (time.Duration, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("%w: malformed wav", ErrUnsupportedType)
	}
	if err := dec.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("%w: wav data chunk: %v", ErrUnsupportedType, err)
	}
	if dec.AvgBytesPerSec == 0 {
		return 0, fmt.Errorf("%w: wav byte rate is zero", ErrUnsupportedType)
	}
	return time.Duration(float64(dec.PCMSize) / float64(dec.AvgBytesPerSec) * float64(time.Second)), nil
}

func mp3Duration(data []byte) (time.Duration, error) {
	dec := mp3.NewDecoder(bytes.NewReader(data))

	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
		frames  int
	)
	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return 0, fmt.Errorf("%w: mp3 frame: %v", ErrUnsupportedType, err)
		}
		total += frame.Duration()
		frames++
	}
	if frames == 0 {
		return 0, fmt.Errorf("%w: no mp3 frames", ErrUnsupportedType)
	}
	return total, nil
}
