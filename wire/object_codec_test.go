package wire

import (
	"bytes"
	"testing"
)

func TestDatagramObjectRoundTrip(t *testing.T) {
	t.Parallel()

	ext := Extensions{}
	ext.SetNumeric(2, 12345)
	ext.SetBytes(3, []byte("meta"))

	in := DatagramObject{TrackAlias: 1, GroupID: 5, ObjectID: 0, Priority: 10,
		Extensions: ext, Payload: []byte("payload-bytes")}
	enc := AppendDatagramObject(nil, in)
	got, err := ParseDatagramObject(enc)
	if err != nil {
		t.Fatalf("ParseDatagramObject: %v", err)
	}
	if got.TrackAlias != 1 || got.GroupID != 5 || got.Priority != 10 {
		t.Fatalf("got %+v", got)
	}
	if !bytes.Equal(got.Payload, in.Payload) {
		t.Fatalf("Payload = %q, want %q", got.Payload, in.Payload)
	}
	if !got.Extensions.Equal(ext) {
		t.Fatal("extension map did not round-trip equal (P9)")
	}
}

func TestSubgroupHeaderAndObjects(t *testing.T) {
	t.Parallel()

	h := SubgroupHeader{TrackAlias: 1, GroupID: 2, SubgroupID: 0, PublisherPriority: 5}
	buf := AppendSubgroupHeader(nil, h)

	gotH, n, err := ParseSubgroupHeader(buf)
	if err != nil {
		t.Fatalf("ParseSubgroupHeader: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d, want %d", n, len(buf))
	}
	if gotH != h {
		t.Fatalf("got %+v, want %+v", gotH, h)
	}

	obj := SubgroupObject{ObjectID: 3, Status: StatusAvailable, Extensions: Extensions{}, Payload: []byte("abc")}
	objBuf := AppendSubgroupObject(nil, obj)
	gotObj, n2, err := ParseSubgroupObject(objBuf)
	if err != nil {
		t.Fatalf("ParseSubgroupObject: %v", err)
	}
	if n2 != len(objBuf) {
		t.Fatalf("consumed %d, want %d", n2, len(objBuf))
	}
	if gotObj.ObjectID != 3 || gotObj.Status != StatusAvailable || !bytes.Equal(gotObj.Payload, []byte("abc")) {
		t.Fatalf("got %+v", gotObj)
	}
}

func TestSubgroupHeaderRejectsWrongStreamType(t *testing.T) {
	t.Parallel()

	buf := appendVarint(nil, StreamTypeFetch) // wrong tag for a subgroup header
	_, _, err := ParseSubgroupHeader(buf)
	if err == nil {
		t.Fatal("expected an error for a mismatched stream type tag")
	}
}

func TestFetchHeaderAndObjects(t *testing.T) {
	t.Parallel()

	h := FetchHeader{RequestID: 9}
	buf := AppendFetchHeader(nil, h)
	gotH, n, err := ParseFetchHeader(buf)
	if err != nil {
		t.Fatalf("ParseFetchHeader: %v", err)
	}
	if n != len(buf) || gotH != h {
		t.Fatalf("got %+v", gotH)
	}

	obj := FetchObject{
		GroupID: 1, SubgroupID: 0, ObjectID: 4, PublisherPriority: 2,
		Status: StatusEndOfGroup, Extensions: Extensions{}, ImmutableExtensions: Extensions{},
		Payload: []byte("fetch-payload"),
	}
	objBuf := AppendFetchObject(nil, obj)
	got, n2, err := ParseFetchObject(objBuf)
	if err != nil {
		t.Fatalf("ParseFetchObject: %v", err)
	}
	if n2 != len(objBuf) {
		t.Fatalf("consumed %d, want %d", n2, len(objBuf))
	}
	if got.GroupID != 1 || got.ObjectID != 4 || got.Status != StatusEndOfGroup {
		t.Fatalf("got %+v", got)
	}
	if !bytes.Equal(got.Payload, obj.Payload) {
		t.Fatalf("Payload = %q", got.Payload)
	}
}

func TestExtensionEqualityIgnoresOrderAndZeroExtension(t *testing.T) {
	t.Parallel()

	a := Extensions{}
	a.SetNumeric(0, 7)
	a[2] = []byte{7} // same value as a numeric 8-byte zero-extension of 7

	b := Extensions{}
	b[2] = []byte{0, 0, 0, 0, 0, 0, 0, 7}
	b.SetNumeric(0, 7)

	if !a.Equal(b) {
		t.Fatal("expected zero-extended numeric values to compare equal regardless of encoded width")
	}
}

func TestExtensionInequalityOnOddKeyByteMismatch(t *testing.T) {
	t.Parallel()

	a := Extensions{}
	a.SetBytes(1, []byte("x"))
	b := Extensions{}
	b.SetBytes(1, []byte("y"))

	if a.Equal(b) {
		t.Fatal("expected differing odd-key byte values to compare unequal")
	}
}
