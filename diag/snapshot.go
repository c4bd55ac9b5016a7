// Package diag writes simulation diagnostics: compressed field snapshots
// for offline inspection and live lineout plots of field components.
package diag

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/DataDog/zstd"

	"github.com/jcarlsson-aed/WarpX/mesh"
)

const (
	// MagicNumber is an arbitrary number at the start of every snapshot
	// file so that reading something else by accident fails loudly.
	MagicNumber = 0x57784653
	Version     = 1
)

// snapshotHeader is the fixed-width portion of a snapshot file, written
// packed in little-endian order right after the magic number and version.
type snapshotHeader struct {
	NDim   int32
	Lo, Hi [3]int32 // cell-space box the field was created on
	Stag   [3]bool
	Nghost int32
	NComp  int32
}

// WriteSnapshot writes one field to w: magic number, version, fixed-width
// header, then every component as an int64 payload length followed by the
// zstd-compressed little-endian float64 data, halo included.
func WriteSnapshot(w io.Writer, f *mesh.Field) error {
	var (
		magic   = uint32(MagicNumber)
		version = uint32(Version)
	)
	if err := binary.Write(w, binary.LittleEndian, magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, version); err != nil {
		return err
	}

	hd := snapshotHeader{
		NDim:   int32(f.CellBox.NDim),
		Stag:   f.Stag,
		Nghost: int32(f.Nghost),
		NComp:  int32(f.NComp),
	}
	for a := 0; a < 3; a++ {
		hd.Lo[a] = int32(f.CellBox.Lo[a])
		hd.Hi[a] = int32(f.CellBox.Hi[a])
	}
	if err := binary.Write(w, binary.LittleEndian, &hd); err != nil {
		return err
	}

	var (
		raw bytes.Buffer
		buf []byte
		err error
	)
	for n := 0; n < f.NComp; n++ {
		raw.Reset()
		if err = binary.Write(&raw, binary.LittleEndian, f.Comp(n)); err != nil {
			return err
		}
		buf, err = zstd.CompressLevel(buf, raw.Bytes(), 1)
		if err != nil {
			return err
		}
		if err = binary.Write(w, binary.LittleEndian, int64(len(buf))); err != nil {
			return err
		}
		if _, err = w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// ReadSnapshot reads one field written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*mesh.Field, error) {
	var magic, version uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, err
	}
	if magic != MagicNumber {
		return nil, fmt.Errorf("not a field snapshot: begins with %#08x, want %#08x",
			magic, uint32(MagicNumber))
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version > Version {
		return nil, fmt.Errorf("snapshot written by version %d, this build reads up to %d",
			version, Version)
	}

	var hd snapshotHeader
	if err := binary.Read(r, binary.LittleEndian, &hd); err != nil {
		return nil, err
	}
	if hd.NDim < 1 || hd.NDim > 3 || hd.NComp < 1 || hd.Nghost < 0 {
		return nil, fmt.Errorf("corrupt snapshot header: ndim %d, ncomp %d, nghost %d",
			hd.NDim, hd.NComp, hd.Nghost)
	}
	var lo, hi mesh.IntVect
	for a := 0; a < 3; a++ {
		lo[a], hi[a] = int(hd.Lo[a]), int(hd.Hi[a])
		if a < int(hd.NDim) && hi[a] < lo[a] {
			return nil, fmt.Errorf("corrupt snapshot header: axis %d box [%d,%d]",
				a, lo[a], hi[a])
		}
	}
	f := mesh.NewField(mesh.NewBox(lo, hi, int(hd.NDim)),
		mesh.Staggering(hd.Stag), int(hd.Nghost), int(hd.NComp))

	var (
		buf, b []byte
		err    error
		want   = 8 * f.FullBox().NumPts()
	)
	for n := 0; n < f.NComp; n++ {
		var nBuf int64
		if err = binary.Read(r, binary.LittleEndian, &nBuf); err != nil {
			return nil, err
		}
		if nBuf <= 0 {
			return nil, fmt.Errorf("corrupt snapshot: component %d payload length %d",
				n, nBuf)
		}
		buf = resizeBytes(buf, int(nBuf))
		if _, err = io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		b, err = zstd.Decompress(b, buf)
		if err != nil {
			return nil, err
		}
		if len(b) != want {
			return nil, fmt.Errorf("corrupt snapshot: component %d decompressed to %d bytes, want %d",
				n, len(b), want)
		}
		if err = binary.Read(bytes.NewReader(b), binary.LittleEndian, f.Comp(n)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// WriteSnapshotFile writes f to the named file, creating or truncating it.
func WriteSnapshotFile(fname string, f *mesh.Field) error {
	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer fp.Close()
	return WriteSnapshot(fp, f)
}

// ReadSnapshotFile reads a snapshot from the named file.
func ReadSnapshotFile(fname string) (*mesh.Field, error) {
	fp, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return ReadSnapshot(fp)
}

func resizeBytes(b []byte, n int) []byte {
	if cap(b) >= n {
		b = b[:n]
	} else {
		b = b[:cap(b)]
		b = append(b, make([]byte, n-len(b))...)
	}
	return b
}
