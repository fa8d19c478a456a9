package videoprobe

import (
	"fmt"
	"io"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
)

func probeMP4(r io.ReadSeeker) (Info, error) {
	f, err := mp4.DecodeFile(r)
	if err != nil {
		return Info{}, fmt.Errorf("decode mp4: %w", err)
	}

	moov := f.Moov
	if f.IsFragmented() && f.Init != nil {
		moov = f.Init.Moov
	}
	if moov == nil {
		return Info{}, fmt.Errorf("no moov box")
	}

	trak := videoTrack(moov)
	if trak == nil {
		return Info{}, fmt.Errorf("no video track found")
	}

	info := Info{
		Container: ContainerMP4,
		Codec:     sampleEntry(trak),
		Width:     int(trak.Tkhd.Width >> 16),
		Height:    int(trak.Tkhd.Height >> 16),
	}

	var timescale uint32
	if trak.Mdia.Mdhd != nil {
		timescale = trak.Mdia.Mdhd.Timescale
	}

	if f.IsFragmented() {
		frames, ticks, err := countFragmentSamples(f, moov, trak.Tkhd.TrackID)
		if err != nil {
			return Info{}, err
		}
		info.Frames = frames
		info.Duration = ticksToDuration(ticks, timescale)
		return info, nil
	}

	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz != nil {
		info.Frames = int(stbl.Stsz.SampleNumber)
	}
	if trak.Mdia.Mdhd != nil {
		info.Duration = ticksToDuration(trak.Mdia.Mdhd.Duration, timescale)
	}
	return info, nil
}

func videoTrack(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Tkhd == nil {
			continue
		}
		if trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
			continue
		}
		return trak
	}
	return nil
}

func sampleEntry(trak *mp4.TrakBox) string {
	stsd := trak.Mdia.Minf.Stbl.Stsd
	if stsd == nil {
		return ""
	}
	for _, child := range stsd.Children {
		switch child.Type() {
		case "avc1", "avc3", "av01", "hvc1", "hev1", "vp09", "mp4v":
			return child.Type()
		}
	}
	return ""
}

func countFragmentSamples(f *mp4.File, moov *mp4.MoovBox, trackID uint32) (int, uint64, error) {
	var trex *mp4.TrexBox
	if moov.Mvex != nil {
		for _, t := range moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	frames := 0
	var ticks uint64
	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return 0, 0, fmt.Errorf("get samples: %w", err)
			}
			for _, s := range samples {
				frames++
				ticks += uint64(s.Dur)
			}
		}
	}
	return frames, ticks, nil
}

func ticksToDuration(ticks uint64, timescale uint32) time.Duration {
	if timescale == 0 {
		return 0
	}
	return time.Duration(ticks) * time.Second / time.Duration(timescale)
}
