package video

import (
	"bytes"
	"io"
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomp4 "github.com/abema/go-mp4"

	"go-vizmix/errkind"
)

// Container identifies a supported video container.
type Container string

const (
	ContainerMP4  Container = "mp4"
	ContainerMOV  Container = "mov"
	ContainerWebM Container = "webm"
)

// Metadata is what the probe can read without decoding any frames.
// WebM files report only the container; their metadata comes from the
// decode collaborator once the clip opens.
type Metadata struct {
	Container       Container
	DurationSeconds float64
	Width           int
	Height          int
}

var ebmlMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}

// Probe validates that path is one of the supported containers (MP4, MOV,
// WebM) and extracts what metadata the container carries. Unsupported
// containers reject with UnsupportedFormat; corrupt files with
// MetadataLoadFailure.
func Probe(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fault.Wrap(err,
			fmsg.With("open video file"),
			ftag.With(errkind.MetadataLoadFailure))
	}
	defer f.Close()

	head := make([]byte, 4096)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return Metadata{}, fault.Wrap(err,
			fmsg.With("read video header"),
			ftag.With(errkind.MetadataLoadFailure))
	}
	head = head[:n]

	switch {
	case len(head) >= 12 && bytes.Equal(head[4:8], []byte("ftyp")):
		container := ContainerMP4
		if bytes.Equal(head[8:12], []byte("qt  ")) {
			container = ContainerMOV
		}
		return probeBMFF(f, container)

	case len(head) >= 4 && bytes.Equal(head[:4], ebmlMagic):
		// Matroska family; only the webm doctype is supported.
		if !bytes.Contains(head, []byte("webm")) {
			return Metadata{}, fault.New("matroska file is not webm",
				ftag.With(errkind.UnsupportedFormat))
		}
		return Metadata{Container: ContainerWebM}, nil
	}

	return Metadata{}, fault.New("unsupported video container",
		fmsg.WithDesc("unsupported format",
			"Supported containers are MP4 (H.264), MOV, and WebM."),
		ftag.With(errkind.UnsupportedFormat))
}

// probeBMFF walks the moov boxes for duration and track dimensions.
func probeBMFF(f io.ReadSeeker, container Container) (Metadata, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Metadata{}, fault.Wrap(err,
			ftag.With(errkind.MetadataLoadFailure))
	}

	meta := Metadata{Container: container}

	mvhds, err := gomp4.ExtractBoxWithPayload(f, nil, gomp4.BoxPath{
		gomp4.BoxTypeMoov(), gomp4.BoxTypeMvhd(),
	})
	if err != nil || len(mvhds) == 0 {
		return Metadata{}, fault.New("no movie header found",
			fmsg.With("probe "+string(container)),
			ftag.With(errkind.MetadataLoadFailure))
	}
	if mvhd, ok := mvhds[0].Payload.(*gomp4.Mvhd); ok && mvhd.Timescale > 0 {
		meta.DurationSeconds = float64(mvhd.GetDuration()) / float64(mvhd.Timescale)
	}

	tkhds, err := gomp4.ExtractBoxWithPayload(f, nil, gomp4.BoxPath{
		gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeTkhd(),
	})
	if err != nil {
		return Metadata{}, fault.Wrap(err,
			fmsg.With("probe track headers"),
			ftag.With(errkind.MetadataLoadFailure))
	}
	for _, box := range tkhds {
		tkhd, ok := box.Payload.(*gomp4.Tkhd)
		if !ok {
			continue
		}
		// Width/height are 16.16 fixed point; audio tracks carry zero.
		w := int(tkhd.Width >> 16)
		h := int(tkhd.Height >> 16)
		if w > 0 && h > 0 {
			meta.Width = w
			meta.Height = h
			break
		}
	}

	return meta, nil
}
