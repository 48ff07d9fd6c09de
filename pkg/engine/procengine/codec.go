// SPDX-License-Identifier: MIT

package procengine

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mhartig/filterkit/pkg/engine"
)

// Wire protocol between the host and an engine binary. Everything is
// little-endian and length-prefixed; pixel data travels as raw float32
// samples. The request and response frames share the same primitives
// so an engine binary can be written against this package alone.

const (
	requestMagic  = "FKQ1"
	responseMagic = "FKS1"

	// maxChunk bounds any single length prefix; larger values are a
	// protocol error, not an allocation request.
	maxChunk = 1 << 30
)

// VarEntry is one session variable on the wire.
type VarEntry struct {
	Name string
	Kind engine.VarKind
	Data []byte
}

// Request is the frame the host sends on the engine's stdin.
type Request struct {
	Environment string
	Command     string
	Stdlib      []byte
	Vars        []VarEntry
	Images      []engine.Image
	Names       []string
}

// Response is the frame the engine returns on stdout.
type Response struct {
	Status string
	Vars   []VarEntry
	Images []engine.Image
	Names  []string
}

// WriteRequest frames req onto w.
func WriteRequest(w io.Writer, req *Request) error {
	if _, err := io.WriteString(w, requestMagic); err != nil {
		return err
	}
	if err := writeString(w, req.Environment); err != nil {
		return err
	}
	if err := writeString(w, req.Command); err != nil {
		return err
	}
	if err := writeBytes(w, req.Stdlib); err != nil {
		return err
	}
	if err := writeVars(w, req.Vars); err != nil {
		return err
	}
	if err := writeNames(w, req.Names); err != nil {
		return err
	}
	return writeImages(w, req.Images)
}

// ReadRequest parses a request frame; the engine side of WriteRequest.
func ReadRequest(r io.Reader) (*Request, error) {
	if err := expectMagic(r, requestMagic); err != nil {
		return nil, err
	}
	var req Request
	var err error
	if req.Environment, err = readString(r); err != nil {
		return nil, err
	}
	if req.Command, err = readString(r); err != nil {
		return nil, err
	}
	if req.Stdlib, err = readBytes(r); err != nil {
		return nil, err
	}
	if req.Vars, err = readVars(r); err != nil {
		return nil, err
	}
	if req.Names, err = readNames(r); err != nil {
		return nil, err
	}
	if req.Images, err = readImages(r); err != nil {
		return nil, err
	}
	return &req, nil
}

// WriteResponse frames resp onto w.
func WriteResponse(w io.Writer, resp *Response) error {
	if _, err := io.WriteString(w, responseMagic); err != nil {
		return err
	}
	if err := writeString(w, resp.Status); err != nil {
		return err
	}
	if err := writeVars(w, resp.Vars); err != nil {
		return err
	}
	if err := writeNames(w, resp.Names); err != nil {
		return err
	}
	return writeImages(w, resp.Images)
}

// ReadResponse parses a response frame.
func ReadResponse(r io.Reader) (*Response, error) {
	if err := expectMagic(r, responseMagic); err != nil {
		return nil, err
	}
	var resp Response
	var err error
	if resp.Status, err = readString(r); err != nil {
		return nil, err
	}
	if resp.Vars, err = readVars(r); err != nil {
		return nil, err
	}
	if resp.Names, err = readNames(r); err != nil {
		return nil, err
	}
	if resp.Images, err = readImages(r); err != nil {
		return nil, err
	}
	return &resp, nil
}

func expectMagic(r io.Reader, magic string) error {
	buf := make([]byte, len(magic))
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("read magic: %w", err)
	}
	if string(buf) != magic {
		return fmt.Errorf("bad magic %q", buf)
	}
	return nil
}

func writeUint32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readUint32(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func readCount(r io.Reader) (int, error) {
	v, err := readUint32(r)
	if err != nil {
		return 0, err
	}
	if v > maxChunk {
		return 0, fmt.Errorf("length %d exceeds protocol limit", v)
	}
	return int(v), nil
}

func writeBytes(w io.Writer, b []byte) error {
	if err := writeUint32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r io.Reader) ([]byte, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeString(w io.Writer, s string) error {
	return writeBytes(w, []byte(s))
}

func readString(r io.Reader) (string, error) {
	b, err := readBytes(r)
	return string(b), err
}

func writeVars(w io.Writer, vars []VarEntry) error {
	if err := writeUint32(w, uint32(len(vars))); err != nil {
		return err
	}
	for _, v := range vars {
		if err := writeString(w, v.Name); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(v.Kind)); err != nil {
			return err
		}
		if err := writeBytes(w, v.Data); err != nil {
			return err
		}
	}
	return nil
}

func readVars(r io.Reader) ([]VarEntry, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	var vars []VarEntry
	for i := 0; i < n; i++ {
		var v VarEntry
		if v.Name, err = readString(r); err != nil {
			return nil, err
		}
		kind, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		v.Kind = engine.VarKind(kind)
		if v.Data, err = readBytes(r); err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}

func writeNames(w io.Writer, names []string) error {
	if err := writeUint32(w, uint32(len(names))); err != nil {
		return err
	}
	for _, n := range names {
		if err := writeString(w, n); err != nil {
			return err
		}
	}
	return nil
}

func readNames(r io.Reader) ([]string, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	var names []string
	for i := 0; i < n; i++ {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		names = append(names, s)
	}
	return names, nil
}

func writeImages(w io.Writer, images []engine.Image) error {
	if err := writeUint32(w, uint32(len(images))); err != nil {
		return err
	}
	for _, img := range images {
		for _, dim := range []int{img.Width, img.Height, img.Depth, img.Spectrum} {
			if err := writeUint32(w, uint32(dim)); err != nil {
				return err
			}
		}
		if err := writeUint32(w, uint32(len(img.Pix))); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, img.Pix); err != nil {
			return err
		}
	}
	return nil
}

func readImages(r io.Reader) ([]engine.Image, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	var images []engine.Image
	for i := 0; i < n; i++ {
		var img engine.Image
		dims := [4]*int{&img.Width, &img.Height, &img.Depth, &img.Spectrum}
		for _, d := range dims {
			v, err := readCount(r)
			if err != nil {
				return nil, err
			}
			*d = v
		}
		samples, err := readCount(r)
		if err != nil {
			return nil, err
		}
		if samples > 0 {
			img.Pix = make([]float32, samples)
			if err := binary.Read(r, binary.LittleEndian, img.Pix); err != nil {
				return nil, err
			}
		}
		images = append(images, img)
	}
	return images, nil
}
