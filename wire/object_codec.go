package wire

import "fmt"

// Stream type IDs identifying the first varint of a unidirectional
// object stream.
const (
	StreamTypeSubgroup uint64 = 0x04
	StreamTypeFetch    uint64 = 0x05
)

// DatagramObject is the wire shape of a MoQT datagram-carried object:
// self-contained, since lost datagrams are never retransmitted.
type DatagramObject struct {
	TrackAlias uint64
	GroupID    uint64
	ObjectID   uint64
	Priority   byte
	Extensions Extensions
	Payload    []byte
}

// AppendDatagramObject encodes o as a complete datagram payload.
func AppendDatagramObject(buf []byte, o DatagramObject) []byte {
	buf = appendVarint(buf, o.TrackAlias)
	buf = appendVarint(buf, o.GroupID)
	buf = appendVarint(buf, o.ObjectID)
	buf = append(buf, o.Priority)
	buf = appendExtensions(buf, o.Extensions)
	buf = append(buf, o.Payload...)
	return buf
}

// ParseDatagramObject decodes a datagram payload. The payload occupies
// the remainder of the datagram, so unlike the stream framings there is
// no length prefix or truncation-retry: data must hold the whole thing.
func ParseDatagramObject(data []byte) (DatagramObject, error) {
	r := newReader(data)
	var o DatagramObject
	var err error
	if o.TrackAlias, err = r.varint(); err != nil {
		return o, fmt.Errorf("track_alias: %w", err)
	}
	if o.GroupID, err = r.varint(); err != nil {
		return o, fmt.Errorf("group_id: %w", err)
	}
	if o.ObjectID, err = r.varint(); err != nil {
		return o, fmt.Errorf("object_id: %w", err)
	}
	if o.Priority, err = r.byte(); err != nil {
		return o, fmt.Errorf("priority: %w", err)
	}
	if o.Extensions, err = r.extensions(); err != nil {
		return o, fmt.Errorf("extensions: %w", err)
	}
	o.Payload = r.remaining()
	return o, nil
}

// SubgroupHeader is the header emitted once at the start of a
// subgroup-stream (one stream per (group, subgroup)).
type SubgroupHeader struct {
	TrackAlias        uint64
	GroupID           uint64
	SubgroupID        uint64
	PublisherPriority byte
}

// AppendSubgroupHeader encodes the stream-type tag followed by h.
func AppendSubgroupHeader(buf []byte, h SubgroupHeader) []byte {
	buf = appendVarint(buf, StreamTypeSubgroup)
	buf = appendVarint(buf, h.TrackAlias)
	buf = appendVarint(buf, h.GroupID)
	buf = appendVarint(buf, h.SubgroupID)
	buf = append(buf, h.PublisherPriority)
	return buf
}

// ParseSubgroupHeader decodes a subgroup stream header, including its
// leading stream-type tag, from the front of b. It returns ErrTruncated
// if b doesn't yet hold a complete header, so callers can retry via
// streambuf.TryParse.
func ParseSubgroupHeader(b []byte) (SubgroupHeader, int, error) {
	r := newReader(b)
	streamType, err := r.varint()
	if err != nil {
		return SubgroupHeader{}, 0, err
	}
	if streamType != StreamTypeSubgroup {
		return SubgroupHeader{}, 0, fmt.Errorf("%w: stream type %d", ErrOutOfRange, streamType)
	}
	var h SubgroupHeader
	if h.TrackAlias, err = r.varint(); err != nil {
		return SubgroupHeader{}, 0, err
	}
	if h.GroupID, err = r.varint(); err != nil {
		return SubgroupHeader{}, 0, err
	}
	if h.SubgroupID, err = r.varint(); err != nil {
		return SubgroupHeader{}, 0, err
	}
	if h.PublisherPriority, err = r.byte(); err != nil {
		return SubgroupHeader{}, 0, err
	}
	return h, r.pos, nil
}

// SubgroupObject is one object within an already-headered subgroup
// stream.
type SubgroupObject struct {
	ObjectID   uint64
	Status     ObjectStatus
	Extensions Extensions
	Payload    []byte
}

// AppendSubgroupObject encodes an object record within a subgroup
// stream: object_id || payload_length || status || extensions || payload.
func AppendSubgroupObject(buf []byte, o SubgroupObject) []byte {
	buf = appendVarint(buf, o.ObjectID)
	buf = appendVarint(buf, uint64(len(o.Payload)))
	buf = appendVarint(buf, uint64(o.Status))
	buf = appendExtensions(buf, o.Extensions)
	buf = append(buf, o.Payload...)
	return buf
}

// ParseSubgroupObject decodes one object record from the front of b,
// returning the object and bytes consumed. Returns ErrTruncated if b
// doesn't yet hold a complete record.
func ParseSubgroupObject(b []byte) (SubgroupObject, int, error) {
	r := newReader(b)
	var o SubgroupObject
	var err error
	if o.ObjectID, err = r.varint(); err != nil {
		return o, 0, err
	}
	length, err := r.varint()
	if err != nil {
		return o, 0, err
	}
	status, err := r.varint()
	if err != nil {
		return o, 0, err
	}
	o.Status = ObjectStatus(status)
	if o.Extensions, err = r.extensions(); err != nil {
		return o, 0, err
	}
	if o.Payload, err = r.bytesN(int(length)); err != nil {
		return o, 0, err
	}
	return o, r.pos, nil
}

// FetchHeader opens a fetch stream (one stream per fetch request).
type FetchHeader struct {
	RequestID uint64
}

func AppendFetchHeader(buf []byte, h FetchHeader) []byte {
	buf = appendVarint(buf, StreamTypeFetch)
	buf = appendVarint(buf, h.RequestID)
	return buf
}

func ParseFetchHeader(b []byte) (FetchHeader, int, error) {
	r := newReader(b)
	streamType, err := r.varint()
	if err != nil {
		return FetchHeader{}, 0, err
	}
	if streamType != StreamTypeFetch {
		return FetchHeader{}, 0, fmt.Errorf("%w: stream type %d", ErrOutOfRange, streamType)
	}
	var h FetchHeader
	if h.RequestID, err = r.varint(); err != nil {
		return FetchHeader{}, 0, err
	}
	return h, r.pos, nil
}

// FetchObject is one object record on an already-headered fetch stream.
// Unlike a subgroup object it carries its own group/subgroup/object
// coordinates (a fetch stream interleaves objects from across groups)
// and both mutable and immutable extension maps.
type FetchObject struct {
	GroupID             uint64
	SubgroupID          uint64
	ObjectID            uint64
	PublisherPriority   byte
	Status              ObjectStatus
	Extensions          Extensions
	ImmutableExtensions Extensions
	Payload             []byte
}

func AppendFetchObject(buf []byte, o FetchObject) []byte {
	buf = appendVarint(buf, o.GroupID)
	buf = appendVarint(buf, o.SubgroupID)
	buf = appendVarint(buf, o.ObjectID)
	buf = append(buf, o.PublisherPriority)
	buf = appendVarint(buf, uint64(len(o.Payload)))
	buf = appendVarint(buf, uint64(o.Status))
	buf = appendExtensions(buf, o.Extensions)
	buf = appendExtensions(buf, o.ImmutableExtensions)
	buf = append(buf, o.Payload...)
	return buf
}

func ParseFetchObject(b []byte) (FetchObject, int, error) {
	r := newReader(b)
	var o FetchObject
	var err error
	if o.GroupID, err = r.varint(); err != nil {
		return o, 0, err
	}
	if o.SubgroupID, err = r.varint(); err != nil {
		return o, 0, err
	}
	if o.ObjectID, err = r.varint(); err != nil {
		return o, 0, err
	}
	if o.PublisherPriority, err = r.byte(); err != nil {
		return o, 0, err
	}
	length, err := r.varint()
	if err != nil {
		return o, 0, err
	}
	status, err := r.varint()
	if err != nil {
		return o, 0, err
	}
	o.Status = ObjectStatus(status)
	if o.Extensions, err = r.extensions(); err != nil {
		return o, 0, err
	}
	if o.ImmutableExtensions, err = r.extensions(); err != nil {
		return o, 0, err
	}
	if o.Payload, err = r.bytesN(int(length)); err != nil {
		return o, 0, err
	}
	return o, r.pos, nil
}
