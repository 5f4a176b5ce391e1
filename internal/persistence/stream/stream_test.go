package stream

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestHeader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	ft := FeatureTable{"sign_style": 1, "ext": 7}
	if err := w.WriteHeader(42, PurposeScenario, ft); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	r := NewReader(&buf)
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("read header: %v", err)
	}
	if r.Version != 42 {
		t.Fatalf("version=%d", r.Version)
	}
	if r.Purpose != PurposeScenario {
		t.Fatalf("purpose=%d", r.Purpose)
	}
	if len(r.Features) != 2 || r.Features["sign_style"] != 1 || r.Features["ext"] != 7 {
		t.Fatalf("features=%v", r.Features)
	}
}

func TestHeader_BadMagic(t *testing.T) {
	r := NewReader(strings.NewReader("NOPE\x00\x00\x00\x00\x00"))
	err := r.ReadHeader()
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err=%v want ErrCorrupt", err)
	}
}

type thing struct {
	n    int64
	name string
}

var thingDescs = []Desc[thing]{
	{
		Name: "n", File: I16, Mem: I32, From: 0, To: Forever,
		Peek: func(x *thing) int64 { return x.n },
		Poke: func(x *thing, v int64) { x.n = v },
	},
	{
		Name: "name", From: 0, To: Forever,
		Str:    func(x *thing) string { return x.name },
		SetStr: func(x *thing, v string) { x.name = v },
	},
}

func writeStream(t *testing.T, build func(w *Writer)) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteHeader(100, PurposeGame, nil); err != nil {
		t.Fatalf("header: %v", err)
	}
	build(w)
	if err := w.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	return &buf
}

func TestRegistry_ArrayRoundTrip(t *testing.T) {
	src := []thing{{n: -7, name: "alpha"}, {n: 3000, name: ""}, {n: 0, name: "Ω utf8"}}

	buf := writeStream(t, func(w *Writer) {
		w.BeginChunk(ID("THNG"))
		for i := range src {
			w.ArrayIndex(i * 2) // holes between records
			if err := SaveRecord(w, &src[i], thingDescs); err != nil {
				t.Fatalf("save record: %v", err)
			}
		}
		w.EndArray()
		if err := w.EndChunk(); err != nil {
			t.Fatalf("end chunk: %v", err)
		}
	})

	got := map[int]thing{}
	reg := NewRegistry()
	reg.Register(Handlers{
		ID: ID("THNG"),
		Load: func(r *Reader) error {
			for {
				i, err := r.NextIndex()
				if err != nil {
					return err
				}
				if i < 0 {
					return nil
				}
				var x thing
				if err := LoadRecord(r, &x, thingDescs); err != nil {
					return err
				}
				got[i] = x
			}
		},
	})

	r := NewReader(buf)
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("header: %v", err)
	}
	res, err := reg.LoadAll(r)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Skipped) != 0 {
		t.Fatalf("skipped=%v", res.Skipped)
	}
	for i, want := range src {
		if got[i*2] != want {
			t.Fatalf("slot %d: got %+v want %+v", i*2, got[i*2], want)
		}
	}
}

func TestRegistry_SkipsUnknownChunkByLength(t *testing.T) {
	buf := writeStream(t, func(w *Writer) {
		w.BeginChunk(ID("WHAT"))
		w.WriteRaw([]byte{1, 2, 3, 4, 5, 6, 7})
		if err := w.EndChunk(); err != nil {
			t.Fatalf("end chunk: %v", err)
		}
		w.BeginChunk(ID("GOOD"))
		w.WriteU32(0xCAFEBABE)
		if err := w.EndChunk(); err != nil {
			t.Fatalf("end chunk: %v", err)
		}
	})

	var got uint32
	reg := NewRegistry()
	reg.Register(Handlers{
		ID: ID("GOOD"),
		Load: func(r *Reader) error {
			var err error
			got, err = r.ReadU32()
			return err
		},
	})

	r := NewReader(buf)
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("header: %v", err)
	}
	res, err := reg.LoadAll(r)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// The unknown chunk must not shift the read position of the next one.
	if got != 0xCAFEBABE {
		t.Fatalf("good chunk misread: %#x", got)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].ID != ID("WHAT") || res.Skipped[0].Length != 7 {
		t.Fatalf("skipped=%v", res.Skipped)
	}
}

func TestReader_TruncatedChunkIsCorrupt(t *testing.T) {
	buf := writeStream(t, func(w *Writer) {
		w.BeginChunk(ID("DATA"))
		w.WriteRaw(bytes.Repeat([]byte{9}, 32))
		if err := w.EndChunk(); err != nil {
			t.Fatalf("end chunk: %v", err)
		}
	})
	raw := buf.Bytes()

	reg := NewRegistry()
	reg.Register(Handlers{
		ID: ID("DATA"),
		Load: func(r *Reader) error {
			p := make([]byte, 32)
			return r.ReadRaw(p)
		},
	})

	r := NewReader(bytes.NewReader(raw[:len(raw)-20]))
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("header: %v", err)
	}
	if _, err := reg.LoadAll(r); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err=%v want ErrCorrupt", err)
	}
}

func TestReader_TrailingBytesAreCorrupt(t *testing.T) {
	buf := writeStream(t, func(w *Writer) {
		w.BeginChunk(ID("DATA"))
		w.WriteU32(1)
		w.WriteU32(2)
		if err := w.EndChunk(); err != nil {
			t.Fatalf("end chunk: %v", err)
		}
	})

	reg := NewRegistry()
	reg.Register(Handlers{
		ID: ID("DATA"),
		Load: func(r *Reader) error {
			_, err := r.ReadU32() // leaves 4 bytes unread
			return err
		},
	})

	r := NewReader(buf)
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("header: %v", err)
	}
	if _, err := reg.LoadAll(r); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err=%v want ErrCorrupt", err)
	}
}

func TestReader_NonAscendingIndexIsCorrupt(t *testing.T) {
	buf := writeStream(t, func(w *Writer) {
		w.BeginChunk(ID("ARRY"))
		w.ArrayIndex(4)
		w.ArrayIndex(2)
		w.EndArray()
		if err := w.EndChunk(); err != nil {
			t.Fatalf("end chunk: %v", err)
		}
	})

	r := NewReader(buf)
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("header: %v", err)
	}
	if _, _, _, err := r.NextChunk(); err != nil {
		t.Fatalf("next chunk: %v", err)
	}
	if i, err := r.NextIndex(); err != nil || i != 4 {
		t.Fatalf("first index=%d err=%v", i, err)
	}
	if _, err := r.NextIndex(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err=%v want ErrCorrupt", err)
	}
}

func TestReader_ImplausibleIndexIsCorrupt(t *testing.T) {
	// A hostile chunk can declare any uvarint as its next record index; the
	// loader fabricates slots up to that index, so the reader must reject it
	// before the allocation happens.
	buf := writeStream(t, func(w *Writer) {
		w.BeginChunk(ID("ARRY"))
		w.ArrayIndex(1 << 40)
		w.EndArray()
		if err := w.EndChunk(); err != nil {
			t.Fatalf("end chunk: %v", err)
		}
	})

	r := NewReader(buf)
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("header: %v", err)
	}
	if _, _, _, err := r.NextChunk(); err != nil {
		t.Fatalf("next chunk: %v", err)
	}
	if _, err := r.NextIndex(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err=%v want ErrCorrupt", err)
	}
}

func TestMissingEndMarkerIsCorrupt(t *testing.T) {
	buf := writeStream(t, func(w *Writer) {})
	raw := buf.Bytes()

	r := NewReader(bytes.NewReader(raw[:len(raw)-4]))
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("header: %v", err)
	}
	if _, err := NewRegistry().LoadAll(r); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err=%v want ErrCorrupt", err)
	}
}

func TestSaveRecord_NarrowingErrors(t *testing.T) {
	strict := []Desc[thing]{{
		Name: "n", File: I8, Mem: I32, From: 0, To: Forever,
		Peek: func(x *thing) int64 { return x.n },
		Poke: func(x *thing, v int64) { x.n = v },
	}}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteHeader(100, PurposeGame, nil); err != nil {
		t.Fatalf("header: %v", err)
	}
	w.BeginChunk(ID("STRC"))
	x := thing{n: 1000}
	if err := SaveRecord(w, &x, strict); err == nil {
		t.Fatalf("narrowing without Lossy did not error")
	}
}

func TestSaveRecord_DeclaredLossyTruncatesSilently(t *testing.T) {
	lossy := []Desc[thing]{{
		Name: "n", File: I8, Mem: I32, From: 0, To: Forever, Lossy: true,
		Peek: func(x *thing) int64 { return x.n },
		Poke: func(x *thing, v int64) { x.n = v },
	}}

	buf := writeStream(t, func(w *Writer) {
		w.BeginChunk(ID("LOSY"))
		x := thing{n: 0x1234} // truncates to 0x34
		if err := SaveRecord(w, &x, lossy); err != nil {
			t.Fatalf("lossy save: %v", err)
		}
		if err := w.EndChunk(); err != nil {
			t.Fatalf("end chunk: %v", err)
		}
	})

	r := NewReader(buf)
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("header: %v", err)
	}
	if _, _, _, err := r.NextChunk(); err != nil {
		t.Fatalf("next chunk: %v", err)
	}
	var got thing
	if err := LoadRecord(r, &got, lossy); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.n != 0x34 {
		t.Fatalf("n=%#x want 0x34", got.n)
	}
}

func TestStrings_FixedBufferEncoding(t *testing.T) {
	fixed := []Desc[thing]{{
		Name: "name", From: 0, To: Forever, FixedLen: 8,
		Str:    func(x *thing) string { return x.name },
		SetStr: func(x *thing, v string) { x.name = v },
	}}

	for _, tc := range []struct {
		in, want string
	}{
		{"abc", "abc"},
		{"", ""},
		{"exactly7", "exactly"},          // final byte forced to NUL
		{"way too long text", "way too"}, // truncated at buffer size
	} {
		buf := writeStream(t, func(w *Writer) {
			w.BeginChunk(ID("FIXD"))
			x := thing{name: tc.in}
			if err := SaveRecord(w, &x, fixed); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := w.EndChunk(); err != nil {
				t.Fatalf("end chunk: %v", err)
			}
		})

		r := NewReader(buf)
		if err := r.ReadHeader(); err != nil {
			t.Fatalf("header: %v", err)
		}
		_, length, _, err := r.NextChunk()
		if err != nil {
			t.Fatalf("next chunk: %v", err)
		}
		if length != 8 {
			t.Fatalf("fixed record length=%d want 8", length)
		}
		var got thing
		if err := LoadRecord(r, &got, fixed); err != nil {
			t.Fatalf("load: %v", err)
		}
		if got.name != tc.want {
			t.Fatalf("name=%q want %q", got.name, tc.want)
		}
	}
}

func TestSignExtension(t *testing.T) {
	buf := writeStream(t, func(w *Writer) {
		w.BeginChunk(ID("NEGS"))
		x := thing{n: -2, name: "x"}
		if err := SaveRecord(w, &x, thingDescs); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := w.EndChunk(); err != nil {
			t.Fatalf("end chunk: %v", err)
		}
	})

	r := NewReader(buf)
	if err := r.ReadHeader(); err != nil {
		t.Fatalf("header: %v", err)
	}
	if _, _, _, err := r.NextChunk(); err != nil {
		t.Fatalf("next chunk: %v", err)
	}
	var got thing
	if err := LoadRecord(r, &got, thingDescs); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.n != -2 {
		t.Fatalf("n=%d want -2 (i16 sign extension)", got.n)
	}
}
