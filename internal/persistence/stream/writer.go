package stream

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// Writer emits a save stream at one fixed version. Chunk bodies are staged in
// memory so every chunk carries the length envelope the reader needs to skip
// ids it does not know.
type Writer struct {
	dst      *bufio.Writer
	version  Version
	features FeatureTable

	id   ChunkID
	body *bytes.Buffer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{dst: bufio.NewWriterSize(w, 64*1024)}
}

func (w *Writer) Version() Version       { return w.version }
func (w *Writer) Features() FeatureTable { return w.features }

// WriteHeader starts the stream: magic, version, purpose, feature table.
func (w *Writer) WriteHeader(v Version, p Purpose, ft FeatureTable) error {
	w.version = v
	w.features = ft
	if _, err := w.dst.Write(Magic[:]); err != nil {
		return err
	}
	var hdr [3]byte
	binary.BigEndian.PutUint16(hdr[:2], uint16(v))
	hdr[2] = byte(p)
	if _, err := w.dst.Write(hdr[:]); err != nil {
		return err
	}
	if err := binary.Write(w.dst, binary.BigEndian, uint16(len(ft))); err != nil {
		return err
	}
	for _, id := range ft.sortedIDs() {
		writeUvarint(w.dst, uint64(len(id)))
		if _, err := w.dst.WriteString(id); err != nil {
			return err
		}
		if err := binary.Write(w.dst, binary.BigEndian, ft[id]); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) BeginChunk(id ChunkID) {
	if w.body != nil {
		panic(fmt.Sprintf("stream: chunk %s begun inside %s", id, w.id))
	}
	w.id = id
	w.body = &bytes.Buffer{}
}

// EndChunk flushes the staged body behind its id and length prefix.
func (w *Writer) EndChunk() error {
	if w.body == nil {
		panic("stream: EndChunk without BeginChunk")
	}
	body := w.body
	w.body = nil
	if _, err := w.dst.Write(w.id[:]); err != nil {
		return err
	}
	if err := binary.Write(w.dst, binary.BigEndian, uint32(body.Len())); err != nil {
		return err
	}
	_, err := w.dst.Write(body.Bytes())
	return err
}

// Finish writes the end-of-stream marker and flushes.
func (w *Writer) Finish() error {
	if w.body != nil {
		panic(fmt.Sprintf("stream: Finish with chunk %s open", w.id))
	}
	var end ChunkID
	if _, err := w.dst.Write(end[:]); err != nil {
		return err
	}
	return w.dst.Flush()
}

// ArrayIndex introduces the record at slot i within an array-type body.
// Indices are written as uvarint(i+1); zero is reserved for EndArray.
func (w *Writer) ArrayIndex(i int) {
	if i < 0 {
		panic(fmt.Sprintf("stream: array index %d", i))
	}
	writeUvarint(w.chunk(), uint64(i)+1)
}

// EndArray terminates an array-type body.
func (w *Writer) EndArray() {
	w.chunk().WriteByte(0)
}

func (w *Writer) WriteU8(v uint8)   { w.chunk().WriteByte(v) }
func (w *Writer) WriteRaw(p []byte) { w.chunk().Write(p) }
func (w *Writer) WriteU16(v uint16) { binary.Write(w.chunk(), binary.BigEndian, v) }
func (w *Writer) WriteU32(v uint32) { binary.Write(w.chunk(), binary.BigEndian, v) }

func (w *Writer) chunk() *bytes.Buffer {
	if w.body == nil {
		panic("stream: body write outside a chunk")
	}
	return w.body
}

// SaveRecord transcodes one record through its descriptor table, resolved at
// the writer's version and feature set.
func SaveRecord[T any](w *Writer, rec *T, descs []Desc[T]) error {
	for _, d := range Resolve(descs, w.version, w.features) {
		if d.Str != nil {
			saveString(w.chunk(), d.Str(rec), d.FixedLen)
			continue
		}
		v := d.Peek(rec)
		if !d.File.Fits(v) && !d.Lossy {
			return fmt.Errorf("stream: field %q: value %d does not fit %d-byte encoding", d.Name, v, d.File.Bytes())
		}
		putVar(w.chunk(), d.File, v)
	}
	return nil
}

func saveString(b *bytes.Buffer, s string, fixedLen int) {
	if fixedLen > 0 {
		buf := make([]byte, fixedLen)
		copy(buf, s)
		// Guarantee termination even for overlong text.
		buf[fixedLen-1] = 0
		b.Write(buf)
		return
	}
	writeUvarint(b, uint64(len(s)))
	b.WriteString(s)
}

// putVar encodes the low bytes of v big-endian at width w. Truncation is the
// caller's decision (lossy descriptors).
func putVar(b *bytes.Buffer, w Width, v int64) {
	switch w.Bytes() {
	case 1:
		b.WriteByte(byte(v))
	case 2:
		binary.Write(b, binary.BigEndian, uint16(v))
	case 4:
		binary.Write(b, binary.BigEndian, uint32(v))
	}
}

func writeUvarint(w io.ByteWriter, v uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	for _, c := range buf[:n] {
		w.WriteByte(c)
	}
}

func (ft FeatureTable) sortedIDs() []string {
	ids := make([]string, 0, len(ft))
	for id := range ft {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
