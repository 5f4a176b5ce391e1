package stream

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Magic identifies a tilevault save stream.
var Magic = [4]byte{'T', 'V', 'S', 'V'}

// Reader walks a save stream of any supported past version. All body reads
// are bounded by the current chunk's length envelope, so a truncated or
// overrunning chunk surfaces as ErrCorrupt instead of a misparse of the
// following chunk.
type Reader struct {
	src *bufio.Reader

	Version  Version
	Purpose  Purpose
	Features FeatureTable

	inChunk   bool
	remaining uint32
	lastIndex int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{src: bufio.NewReaderSize(r, 64*1024)}
}

func (r *Reader) ReadHeader() error {
	var magic [4]byte
	if _, err := io.ReadFull(r.src, magic[:]); err != nil {
		return corruptf("short header: %v", err)
	}
	if magic != Magic {
		return corruptf("bad magic %q", magic[:])
	}
	var hdr [3]byte
	if _, err := io.ReadFull(r.src, hdr[:]); err != nil {
		return corruptf("short header: %v", err)
	}
	r.Version = Version(binary.BigEndian.Uint16(hdr[:2]))
	r.Purpose = Purpose(hdr[2])

	var nfeat uint16
	if err := binary.Read(r.src, binary.BigEndian, &nfeat); err != nil {
		return corruptf("short feature table: %v", err)
	}
	r.Features = make(FeatureTable, nfeat)
	for i := 0; i < int(nfeat); i++ {
		n, err := binary.ReadUvarint(r.src)
		if err != nil {
			return corruptf("short feature table: %v", err)
		}
		id := make([]byte, n)
		if _, err := io.ReadFull(r.src, id); err != nil {
			return corruptf("short feature table: %v", err)
		}
		var v uint32
		if err := binary.Read(r.src, binary.BigEndian, &v); err != nil {
			return corruptf("short feature table: %v", err)
		}
		r.Features[string(id)] = v
	}
	return nil
}

// NextChunk reads the next chunk envelope. done is true at the end-of-stream
// marker. The previous chunk must be fully consumed or skipped first.
func (r *Reader) NextChunk() (id ChunkID, length uint32, done bool, err error) {
	if r.inChunk {
		panic("stream: NextChunk with chunk body pending")
	}
	if _, err = io.ReadFull(r.src, id[:]); err != nil {
		return id, 0, false, corruptf("missing end-of-stream marker: %v", err)
	}
	if id == (ChunkID{}) {
		return id, 0, true, nil
	}
	if err = binary.Read(r.src, binary.BigEndian, &length); err != nil {
		return id, 0, false, corruptf("chunk %s: short length: %v", id, err)
	}
	r.inChunk = true
	r.remaining = length
	r.lastIndex = -1
	return id, length, false, nil
}

// Remaining is the unread byte count of the current chunk body.
func (r *Reader) Remaining() uint32 { return r.remaining }

// EndChunk closes the current body; leftover bytes are a corruption error.
func (r *Reader) EndChunk(id ChunkID) error {
	if !r.inChunk {
		panic("stream: EndChunk without chunk")
	}
	r.inChunk = false
	if r.remaining != 0 {
		return corruptf("chunk %s: %d trailing bytes", id, r.remaining)
	}
	return nil
}

// Skip discards the rest of the current chunk body.
func (r *Reader) Skip() error {
	if !r.inChunk {
		panic("stream: Skip without chunk")
	}
	n := int64(r.remaining)
	r.remaining = 0
	r.inChunk = false
	if _, err := io.CopyN(io.Discard, r.src, n); err != nil {
		return corruptf("skipping %d bytes: %v", n, err)
	}
	return nil
}

func (r *Reader) readFull(p []byte) error {
	if uint32(len(p)) > r.remaining {
		return corruptf("read of %d bytes overruns chunk body (%d left)", len(p), r.remaining)
	}
	if _, err := io.ReadFull(r.src, p); err != nil {
		return corruptf("truncated chunk body: %v", err)
	}
	r.remaining -= uint32(len(p))
	return nil
}

func (r *Reader) readByte() (byte, error) {
	var b [1]byte
	err := r.readFull(b[:])
	return b[0], err
}

func (r *Reader) ReadU8() (uint8, error) { return r.readByte() }

// ReadRaw fills p from the current chunk body.
func (r *Reader) ReadRaw(p []byte) error { return r.readFull(p) }

func (r *Reader) ReadU16() (uint16, error) {
	var b [2]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	var b [4]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func (r *Reader) readUvarint() (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		if shift >= 64 {
			return 0, corruptf("uvarint overflow")
		}
		v |= uint64(b&0x7F) << shift
		if b < 0x80 {
			return v, nil
		}
		shift += 7
	}
}

// maxArrayIndex bounds the record index a chunk may declare. Pools fabricate
// slots up to the highest index seen, so an unchecked index is an allocation
// of attacker-controlled size.
const maxArrayIndex = 1 << 20

// NextIndex yields the next record index of an array-type body, -1 at the
// terminator. Indices must ascend; anything else is corruption.
func (r *Reader) NextIndex() (int, error) {
	v, err := r.readUvarint()
	if err != nil {
		return -1, corruptf("unterminated array: %v", err)
	}
	if v == 0 {
		return -1, nil
	}
	if v-1 > maxArrayIndex {
		return -1, corruptf("implausible array index %d", v-1)
	}
	i := int(v - 1)
	if i <= r.lastIndex {
		return -1, corruptf("array index %d after %d", i, r.lastIndex)
	}
	r.lastIndex = i
	return i, nil
}

// LoadRecord transcodes one record through its descriptor table, resolved at
// the stream's version and feature set.
func LoadRecord[T any](r *Reader, rec *T, descs []Desc[T]) error {
	for _, d := range Resolve(descs, r.Version, r.Features) {
		if d.SetStr != nil {
			s, err := r.loadString(d.FixedLen)
			if err != nil {
				return err
			}
			d.SetStr(rec, s)
			continue
		}
		v, err := r.readVar(d.File)
		if err != nil {
			return err
		}
		d.Poke(rec, v)
	}
	return nil
}

func (r *Reader) loadString(fixedLen int) (string, error) {
	if fixedLen > 0 {
		buf := make([]byte, fixedLen)
		if err := r.readFull(buf); err != nil {
			return "", err
		}
		for i, c := range buf {
			if c == 0 {
				return string(buf[:i]), nil
			}
		}
		return string(buf), nil
	}
	n, err := r.readUvarint()
	if err != nil {
		return "", err
	}
	if n > uint64(r.remaining) {
		return "", corruptf("string of %d bytes overruns chunk body", n)
	}
	buf := make([]byte, n)
	if err := r.readFull(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// readVar decodes a value at on-disk width w, sign-extending signed widths
// into the int64 the in-memory accessor converts from.
func (r *Reader) readVar(w Width) (int64, error) {
	var raw uint64
	switch w.Bytes() {
	case 1:
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		raw = uint64(b)
	case 2:
		v, err := r.ReadU16()
		if err != nil {
			return 0, err
		}
		raw = uint64(v)
	case 4:
		v, err := r.ReadU32()
		if err != nil {
			return 0, err
		}
		raw = uint64(v)
	}
	if w.Signed() {
		bits := uint(w.Bytes() * 8)
		return int64(raw<<(64-bits)) >> (64 - bits), nil
	}
	return int64(raw), nil
}
