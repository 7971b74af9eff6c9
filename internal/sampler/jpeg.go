package sampler

import (
	"bytes"
	"io"
)

var (
	jpegSOI = []byte{0xFF, 0xD8, 0xFF}
	jpegEOI = []byte{0xFF, 0xD9}
)

// scanJPEGs reads an mjpeg byte stream and calls emit for each complete JPEG
// image. emit returns false to stop early. Entropy-coded JPEG data byte-stuffs
// 0xFF, so a bare EOI marker reliably terminates an image.
func scanJPEGs(r io.Reader, emit func(frame []byte) bool) error {
	var buf []byte
	chunk := make([]byte, 64*1024)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				frame, rest, ok := cutJPEG(buf)
				if !ok {
					break
				}
				buf = rest
				if !emit(frame) {
					return nil
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// cutJPEG slices one complete SOI..EOI image off the front of buf.
func cutJPEG(buf []byte) (frame, rest []byte, ok bool) {
	start := bytes.Index(buf, jpegSOI)
	if start < 0 {
		return nil, buf, false
	}
	endRel := bytes.Index(buf[start:], jpegEOI)
	if endRel < 0 {
		return nil, buf, false
	}
	end := start + endRel + len(jpegEOI)
	frame = append([]byte(nil), buf[start:end]...)
	return frame, buf[end:], true
}
