package videoprobe

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// AVI headers live in the hdrl list at the start of the file.
const aviHeaderWindow = 64 << 10

func probeAVI(r io.Reader) (Info, error) {
	buf := make([]byte, aviHeaderWindow)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return Info{}, fmt.Errorf("read avi header: %w", err)
	}
	buf = buf[:n]

	info := Info{Container: ContainerAVI}
	var usPerFrame uint32
	var sawAvih bool

	var walk func(data []byte)
	walk = func(data []byte) {
		for len(data) >= 8 {
			id := string(data[0:4])
			size := int(binary.LittleEndian.Uint32(data[4:8]))
			end := 8 + size
			if end > len(data) {
				end = len(data)
			}
			body := data[8:end]

			switch id {
			case "LIST":
				if len(body) >= 4 {
					switch string(body[0:4]) {
					case "hdrl", "strl":
						walk(body[4:])
					case "movi":
						return
					}
				}
			case "avih":
				if len(body) >= 40 {
					sawAvih = true
					usPerFrame = binary.LittleEndian.Uint32(body[0:4])
					info.Frames = int(binary.LittleEndian.Uint32(body[16:20]))
					info.Width = int(binary.LittleEndian.Uint32(body[32:36]))
					info.Height = int(binary.LittleEndian.Uint32(body[36:40]))
				}
			case "strh":
				if len(body) >= 8 && string(body[0:4]) == "vids" && info.Codec == "" {
					info.Codec = string(body[4:8])
				}
			}

			// Chunks are word aligned.
			next := 8 + size + size%2
			if next > len(data) {
				return
			}
			data = data[next:]
		}
	}
	walk(buf[12:])

	if !sawAvih {
		return Info{}, fmt.Errorf("no avih header found")
	}
	info.Duration = time.Duration(info.Frames) * time.Duration(usPerFrame) * time.Microsecond
	return info, nil
}
