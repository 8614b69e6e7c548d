package wire

import (
	"errors"
	"fmt"
)

// ErrProtocolViolation is returned by a message's Validate method (and
// wraps any error from message framing the session engine treats as
// fatal): it terminates the session per spec.md §4.6.
var ErrProtocolViolation = errors.New("wire: protocol violation")

// ParseError records which field of a control message failed to parse.
type ParseError struct {
	Message string
	Field   string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("wire: parse %s.%s: %v", e.Message, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Frame is a decoded control message envelope: a message type and its
// still-encoded payload. ReadFrame/AppendFrame implement the
// type(varint) || length(varint) || payload framing of spec.md §4.6 —
// a varint length, generalized from the teacher's fixed uint16 length
// so payloads aren't artificially capped at 64KiB.
type Frame struct {
	Type    uint64
	Payload []byte
}

// AppendFrame appends msgType || varint(len(payload)) || payload to buf.
func AppendFrame(buf []byte, msgType uint64, payload []byte) []byte {
	buf = appendVarint(buf, msgType)
	buf = appendVarint(buf, uint64(len(payload)))
	buf = append(buf, payload...)
	return buf
}

// ReadFrame reads one control message envelope from the front of b,
// returning the frame and the number of bytes consumed. It returns
// ErrTruncated if b does not yet hold type + length + a full payload.
func ReadFrame(b []byte) (Frame, int, error) {
	r := newReader(b)
	msgType, err := r.varint()
	if err != nil {
		return Frame{}, 0, err
	}
	length, err := r.varint()
	if err != nil {
		return Frame{}, 0, err
	}
	payload, err := r.bytesN(int(length))
	if err != nil {
		return Frame{}, 0, err
	}
	return Frame{Type: msgType, Payload: payload}, r.pos, nil
}

// --- ClientSetup ---

func ParseClientSetup(data []byte) (ClientSetup, error) {
	r := newReader(data)
	var cs ClientSetup

	numVersions, err := r.varint()
	if err != nil {
		return cs, &ParseError{"ClientSetup", "num_versions", err}
	}
	cs.Versions = make([]uint64, numVersions)
	for i := range cs.Versions {
		v, err := r.varint()
		if err != nil {
			return cs, &ParseError{"ClientSetup", "version", err}
		}
		cs.Versions[i] = v
	}

	numParams, err := r.varint()
	if err != nil {
		return cs, &ParseError{"ClientSetup", "num_params", err}
	}
	for i := uint64(0); i < numParams; i++ {
		key, err := r.varint()
		if err != nil {
			return cs, &ParseError{"ClientSetup", "param_key", err}
		}
		if key%2 == 1 {
			val, err := r.varintBytes()
			if err != nil {
				return cs, &ParseError{"ClientSetup", "param_value", err}
			}
			if key == ParamPath {
				cs.Path = string(val)
				cs.HasPath = true
			}
		} else {
			val, err := r.varint()
			if err != nil {
				return cs, &ParseError{"ClientSetup", "param_value", err}
			}
			if key == ParamMaxRequestID {
				cs.MaxRequestID = val
			}
		}
	}
	return cs, nil
}

func AppendClientSetup(buf []byte, cs ClientSetup) []byte {
	buf = appendVarint(buf, uint64(len(cs.Versions)))
	for _, v := range cs.Versions {
		buf = appendVarint(buf, v)
	}
	numParams := 0
	if cs.HasPath {
		numParams++
	}
	if cs.MaxRequestID != 0 {
		numParams++
	}
	buf = appendVarint(buf, uint64(numParams))
	if cs.HasPath {
		buf = appendVarint(buf, ParamPath)
		buf = appendVarintBytes(buf, []byte(cs.Path))
	}
	if cs.MaxRequestID != 0 {
		buf = appendVarint(buf, ParamMaxRequestID)
		buf = appendVarint(buf, cs.MaxRequestID)
	}
	return buf
}

// --- ServerSetup ---

func ParseServerSetup(data []byte) (ServerSetup, error) {
	r := newReader(data)
	var ss ServerSetup
	var err error
	ss.SelectedVersion, err = r.varint()
	if err != nil {
		return ss, &ParseError{"ServerSetup", "selected_version", err}
	}
	numParams, err := r.varint()
	if err != nil {
		return ss, &ParseError{"ServerSetup", "num_params", err}
	}
	for i := uint64(0); i < numParams; i++ {
		key, err := r.varint()
		if err != nil {
			return ss, &ParseError{"ServerSetup", "param_key", err}
		}
		if key%2 == 1 {
			if _, err := r.varintBytes(); err != nil {
				return ss, &ParseError{"ServerSetup", "param_value", err}
			}
			continue
		}
		val, err := r.varint()
		if err != nil {
			return ss, &ParseError{"ServerSetup", "param_value", err}
		}
		if key == ParamMaxRequestID {
			ss.MaxRequestID = val
		}
	}
	return ss, nil
}

func AppendServerSetup(buf []byte, ss ServerSetup) []byte {
	buf = appendVarint(buf, ss.SelectedVersion)
	buf = appendVarint(buf, 1)
	buf = appendVarint(buf, ParamMaxRequestID)
	buf = appendVarint(buf, ss.MaxRequestID)
	return buf
}

// --- Subscribe / SubscribeUpdate / SubscribeOK / SubscribeError / SubscribeDone / Unsubscribe ---

func ParseSubscribe(data []byte) (Subscribe, error) {
	r := newReader(data)
	var s Subscribe
	var err error

	if s.RequestID, err = r.varint(); err != nil {
		return s, &ParseError{"Subscribe", "request_id", err}
	}
	if s.TrackAlias, err = r.varint(); err != nil {
		return s, &ParseError{"Subscribe", "track_alias", err}
	}
	if s.Namespace, err = r.namespace(); err != nil {
		return s, &ParseError{"Subscribe", "namespace", err}
	}
	if s.TrackName, err = r.varintBytes(); err != nil {
		return s, &ParseError{"Subscribe", "track_name", err}
	}
	if s.Priority, err = r.byte(); err != nil {
		return s, &ParseError{"Subscribe", "priority", err}
	}
	if s.GroupOrder, err = r.byte(); err != nil {
		return s, &ParseError{"Subscribe", "group_order", err}
	}
	if s.Forward, err = r.byte(); err != nil {
		return s, &ParseError{"Subscribe", "forward", err}
	}
	if s.FilterType, err = r.varint(); err != nil {
		return s, &ParseError{"Subscribe", "filter_type", err}
	}

	switch s.FilterType {
	case FilterAbsoluteStart:
		if s.StartGroup, err = r.varint(); err != nil {
			return s, &ParseError{"Subscribe", "start_group", err}
		}
		if s.StartObj, err = r.varint(); err != nil {
			return s, &ParseError{"Subscribe", "start_object", err}
		}
	case FilterAbsoluteRange:
		if s.StartGroup, err = r.varint(); err != nil {
			return s, &ParseError{"Subscribe", "start_group", err}
		}
		if s.StartObj, err = r.varint(); err != nil {
			return s, &ParseError{"Subscribe", "start_object", err}
		}
		if s.EndGroup, err = r.varint(); err != nil {
			return s, &ParseError{"Subscribe", "end_group", err}
		}
		hasEnd, err := r.byte()
		if err != nil {
			return s, &ParseError{"Subscribe", "has_end_object", err}
		}
		if hasEnd != 0 {
			s.HasEndObj = true
			if s.EndObj, err = r.varint(); err != nil {
				return s, &ParseError{"Subscribe", "end_object", err}
			}
		}
	}

	numParams, err := r.varint()
	if err != nil {
		return s, &ParseError{"Subscribe", "num_params", err}
	}
	for i := uint64(0); i < numParams; i++ {
		if _, err := r.varint(); err != nil {
			return s, &ParseError{"Subscribe", "param_key", err}
		}
		if _, err := r.varintBytes(); err != nil {
			return s, &ParseError{"Subscribe", "param_value", err}
		}
	}
	return s, nil
}

func AppendSubscribe(buf []byte, s Subscribe) []byte {
	buf = appendVarint(buf, s.RequestID)
	buf = appendVarint(buf, s.TrackAlias)
	buf = appendNamespace(buf, s.Namespace)
	buf = appendVarintBytes(buf, s.TrackName)
	buf = append(buf, s.Priority, s.GroupOrder, s.Forward)
	buf = appendVarint(buf, s.FilterType)
	switch s.FilterType {
	case FilterAbsoluteStart:
		buf = appendVarint(buf, s.StartGroup)
		buf = appendVarint(buf, s.StartObj)
	case FilterAbsoluteRange:
		buf = appendVarint(buf, s.StartGroup)
		buf = appendVarint(buf, s.StartObj)
		buf = appendVarint(buf, s.EndGroup)
		if s.HasEndObj {
			buf = append(buf, 1)
			buf = appendVarint(buf, s.EndObj)
		} else {
			buf = append(buf, 0)
		}
	}
	buf = appendVarint(buf, 0) // num_params
	return buf
}

func ParseSubscribeUpdate(data []byte) (SubscribeUpdate, error) {
	r := newReader(data)
	var u SubscribeUpdate
	var err error
	if u.RequestID, err = r.varint(); err != nil {
		return u, &ParseError{"SubscribeUpdate", "request_id", err}
	}
	if u.StartGroup, err = r.varint(); err != nil {
		return u, &ParseError{"SubscribeUpdate", "start_group", err}
	}
	if u.StartObj, err = r.varint(); err != nil {
		return u, &ParseError{"SubscribeUpdate", "start_object", err}
	}
	if u.EndGroup, err = r.varint(); err != nil {
		return u, &ParseError{"SubscribeUpdate", "end_group", err}
	}
	if u.Priority, err = r.byte(); err != nil {
		return u, &ParseError{"SubscribeUpdate", "priority", err}
	}
	return u, nil
}

func AppendSubscribeUpdate(buf []byte, u SubscribeUpdate) []byte {
	buf = appendVarint(buf, u.RequestID)
	buf = appendVarint(buf, u.StartGroup)
	buf = appendVarint(buf, u.StartObj)
	buf = appendVarint(buf, u.EndGroup)
	buf = append(buf, u.Priority)
	return buf
}

func ParseSubscribeOK(data []byte) (SubscribeOK, error) {
	r := newReader(data)
	var ok SubscribeOK
	var err error
	if ok.RequestID, err = r.varint(); err != nil {
		return ok, &ParseError{"SubscribeOK", "request_id", err}
	}
	if ok.Expires, err = r.varint(); err != nil {
		return ok, &ParseError{"SubscribeOK", "expires", err}
	}
	if ok.GroupOrder, err = r.byte(); err != nil {
		return ok, &ParseError{"SubscribeOK", "group_order", err}
	}
	exists, err := r.byte()
	if err != nil {
		return ok, &ParseError{"SubscribeOK", "content_exists", err}
	}
	ok.ContentExists = exists != 0
	if ok.ContentExists {
		if ok.LargestGroup, err = r.varint(); err != nil {
			return ok, &ParseError{"SubscribeOK", "largest_group", err}
		}
		if ok.LargestObj, err = r.varint(); err != nil {
			return ok, &ParseError{"SubscribeOK", "largest_object", err}
		}
	}
	if _, err := r.varint(); err != nil {
		return ok, &ParseError{"SubscribeOK", "num_params", err}
	}
	return ok, nil
}

func AppendSubscribeOK(buf []byte, ok SubscribeOK) []byte {
	buf = appendVarint(buf, ok.RequestID)
	buf = appendVarint(buf, ok.Expires)
	buf = append(buf, ok.GroupOrder)
	if ok.ContentExists {
		buf = append(buf, 1)
		buf = appendVarint(buf, ok.LargestGroup)
		buf = appendVarint(buf, ok.LargestObj)
	} else {
		buf = append(buf, 0)
	}
	buf = appendVarint(buf, 0)
	return buf
}

func ParseSubscribeError(data []byte) (SubscribeError, error) {
	r := newReader(data)
	var se SubscribeError
	var err error
	if se.RequestID, err = r.varint(); err != nil {
		return se, &ParseError{"SubscribeError", "request_id", err}
	}
	if se.ErrorCode, err = r.varint(); err != nil {
		return se, &ParseError{"SubscribeError", "error_code", err}
	}
	reason, err := r.varintBytes()
	if err != nil {
		return se, &ParseError{"SubscribeError", "reason_phrase", err}
	}
	se.ReasonPhrase = string(reason)
	return se, nil
}

func AppendSubscribeError(buf []byte, se SubscribeError) []byte {
	buf = appendVarint(buf, se.RequestID)
	buf = appendVarint(buf, se.ErrorCode)
	buf = appendVarintBytes(buf, []byte(se.ReasonPhrase))
	return buf
}

func ParseSubscribeDone(data []byte) (SubscribeDone, error) {
	r := newReader(data)
	var d SubscribeDone
	var err error
	if d.RequestID, err = r.varint(); err != nil {
		return d, &ParseError{"SubscribeDone", "request_id", err}
	}
	if d.StatusCode, err = r.varint(); err != nil {
		return d, &ParseError{"SubscribeDone", "status_code", err}
	}
	reason, err := r.varintBytes()
	if err != nil {
		return d, &ParseError{"SubscribeDone", "reason_phrase", err}
	}
	d.ReasonPhrase = string(reason)
	return d, nil
}

func AppendSubscribeDone(buf []byte, d SubscribeDone) []byte {
	buf = appendVarint(buf, d.RequestID)
	buf = appendVarint(buf, d.StatusCode)
	buf = appendVarintBytes(buf, []byte(d.ReasonPhrase))
	return buf
}

func ParseUnsubscribe(data []byte) (Unsubscribe, error) {
	r := newReader(data)
	reqID, err := r.varint()
	if err != nil {
		return Unsubscribe{}, &ParseError{"Unsubscribe", "request_id", err}
	}
	return Unsubscribe{RequestID: reqID}, nil
}

func AppendUnsubscribe(buf []byte, u Unsubscribe) []byte {
	return appendVarint(buf, u.RequestID)
}

// --- Announce family ---

func ParseAnnounce(data []byte) (Announce, error) {
	r := newReader(data)
	var a Announce
	var err error
	if a.RequestID, err = r.varint(); err != nil {
		return a, &ParseError{"Announce", "request_id", err}
	}
	if a.Namespace, err = r.namespace(); err != nil {
		return a, &ParseError{"Announce", "namespace", err}
	}
	if _, err := r.varint(); err != nil { // num_params
		return a, &ParseError{"Announce", "num_params", err}
	}
	return a, nil
}

func AppendAnnounce(buf []byte, a Announce) []byte {
	buf = appendVarint(buf, a.RequestID)
	buf = appendNamespace(buf, a.Namespace)
	buf = appendVarint(buf, 0)
	return buf
}

func ParseAnnounceOK(data []byte) (AnnounceOK, error) {
	r := newReader(data)
	reqID, err := r.varint()
	if err != nil {
		return AnnounceOK{}, &ParseError{"AnnounceOK", "request_id", err}
	}
	return AnnounceOK{RequestID: reqID}, nil
}

func AppendAnnounceOK(buf []byte, ok AnnounceOK) []byte {
	return appendVarint(buf, ok.RequestID)
}

func ParseAnnounceError(data []byte) (AnnounceError, error) {
	r := newReader(data)
	var e AnnounceError
	var err error
	if e.RequestID, err = r.varint(); err != nil {
		return e, &ParseError{"AnnounceError", "request_id", err}
	}
	if e.ErrorCode, err = r.varint(); err != nil {
		return e, &ParseError{"AnnounceError", "error_code", err}
	}
	reason, err := r.varintBytes()
	if err != nil {
		return e, &ParseError{"AnnounceError", "reason_phrase", err}
	}
	e.ReasonPhrase = string(reason)
	return e, nil
}

func AppendAnnounceError(buf []byte, e AnnounceError) []byte {
	buf = appendVarint(buf, e.RequestID)
	buf = appendVarint(buf, e.ErrorCode)
	buf = appendVarintBytes(buf, []byte(e.ReasonPhrase))
	return buf
}

func ParseAnnounceCancel(data []byte) (AnnounceCancel, error) {
	r := newReader(data)
	var c AnnounceCancel
	var err error
	if c.Namespace, err = r.namespace(); err != nil {
		return c, &ParseError{"AnnounceCancel", "namespace", err}
	}
	if c.ErrorCode, err = r.varint(); err != nil {
		return c, &ParseError{"AnnounceCancel", "error_code", err}
	}
	reason, err := r.varintBytes()
	if err != nil {
		return c, &ParseError{"AnnounceCancel", "reason_phrase", err}
	}
	c.ReasonPhrase = string(reason)
	return c, nil
}

func AppendAnnounceCancel(buf []byte, c AnnounceCancel) []byte {
	buf = appendNamespace(buf, c.Namespace)
	buf = appendVarint(buf, c.ErrorCode)
	buf = appendVarintBytes(buf, []byte(c.ReasonPhrase))
	return buf
}

func ParseUnannounce(data []byte) (Unannounce, error) {
	r := newReader(data)
	ns, err := r.namespace()
	if err != nil {
		return Unannounce{}, &ParseError{"Unannounce", "namespace", err}
	}
	return Unannounce{Namespace: ns}, nil
}

func AppendUnannounce(buf []byte, u Unannounce) []byte {
	return appendNamespace(buf, u.Namespace)
}

// --- SubscribeAnnounces family ---

func ParseSubscribeAnnounces(data []byte) (SubscribeAnnounces, error) {
	r := newReader(data)
	var s SubscribeAnnounces
	var err error
	if s.RequestID, err = r.varint(); err != nil {
		return s, &ParseError{"SubscribeAnnounces", "request_id", err}
	}
	if s.NamespacePrefix, err = r.namespace(); err != nil {
		return s, &ParseError{"SubscribeAnnounces", "namespace_prefix", err}
	}
	if _, err := r.varint(); err != nil {
		return s, &ParseError{"SubscribeAnnounces", "num_params", err}
	}
	return s, nil
}

func AppendSubscribeAnnounces(buf []byte, s SubscribeAnnounces) []byte {
	buf = appendVarint(buf, s.RequestID)
	buf = appendNamespace(buf, s.NamespacePrefix)
	buf = appendVarint(buf, 0)
	return buf
}

func ParseSubscribeAnnouncesOK(data []byte) (SubscribeAnnouncesOK, error) {
	r := newReader(data)
	reqID, err := r.varint()
	if err != nil {
		return SubscribeAnnouncesOK{}, &ParseError{"SubscribeAnnouncesOK", "request_id", err}
	}
	return SubscribeAnnouncesOK{RequestID: reqID}, nil
}

func AppendSubscribeAnnouncesOK(buf []byte, ok SubscribeAnnouncesOK) []byte {
	return appendVarint(buf, ok.RequestID)
}

func ParseSubscribeAnnouncesError(data []byte) (SubscribeAnnouncesError, error) {
	r := newReader(data)
	var e SubscribeAnnouncesError
	var err error
	if e.RequestID, err = r.varint(); err != nil {
		return e, &ParseError{"SubscribeAnnouncesError", "request_id", err}
	}
	if e.ErrorCode, err = r.varint(); err != nil {
		return e, &ParseError{"SubscribeAnnouncesError", "error_code", err}
	}
	reason, err := r.varintBytes()
	if err != nil {
		return e, &ParseError{"SubscribeAnnouncesError", "reason_phrase", err}
	}
	e.ReasonPhrase = string(reason)
	return e, nil
}

func AppendSubscribeAnnouncesError(buf []byte, e SubscribeAnnouncesError) []byte {
	buf = appendVarint(buf, e.RequestID)
	buf = appendVarint(buf, e.ErrorCode)
	buf = appendVarintBytes(buf, []byte(e.ReasonPhrase))
	return buf
}

func ParseUnsubscribeAnnounces(data []byte) (UnsubscribeAnnounces, error) {
	r := newReader(data)
	ns, err := r.namespace()
	if err != nil {
		return UnsubscribeAnnounces{}, &ParseError{"UnsubscribeAnnounces", "namespace_prefix", err}
	}
	return UnsubscribeAnnounces{NamespacePrefix: ns}, nil
}

func AppendUnsubscribeAnnounces(buf []byte, u UnsubscribeAnnounces) []byte {
	return appendNamespace(buf, u.NamespacePrefix)
}

// --- Fetch family ---

func ParseFetch(data []byte) (Fetch, error) {
	r := newReader(data)
	var f Fetch
	var err error
	if f.RequestID, err = r.varint(); err != nil {
		return f, &ParseError{"Fetch", "request_id", err}
	}
	if f.Priority, err = r.byte(); err != nil {
		return f, &ParseError{"Fetch", "priority", err}
	}
	if f.GroupOrder, err = r.byte(); err != nil {
		return f, &ParseError{"Fetch", "group_order", err}
	}
	fetchType, err := r.byte()
	if err != nil {
		return f, &ParseError{"Fetch", "fetch_type", err}
	}
	f.Joining = fetchType != 0
	if f.Joining {
		if f.JoiningReqID, err = r.varint(); err != nil {
			return f, &ParseError{"Fetch", "joining_request_id", err}
		}
		if f.PrecedingN, err = r.varint(); err != nil {
			return f, &ParseError{"Fetch", "preceding_group_count", err}
		}
		return f, nil
	}
	if f.Namespace, err = r.namespace(); err != nil {
		return f, &ParseError{"Fetch", "namespace", err}
	}
	if f.TrackName, err = r.varintBytes(); err != nil {
		return f, &ParseError{"Fetch", "track_name", err}
	}
	if f.StartGroup, err = r.varint(); err != nil {
		return f, &ParseError{"Fetch", "start_group", err}
	}
	if f.StartObj, err = r.varint(); err != nil {
		return f, &ParseError{"Fetch", "start_object", err}
	}
	if f.EndGroup, err = r.varint(); err != nil {
		return f, &ParseError{"Fetch", "end_group", err}
	}
	hasEnd, err := r.byte()
	if err != nil {
		return f, &ParseError{"Fetch", "has_end_object", err}
	}
	if hasEnd != 0 {
		f.HasEndObj = true
		if f.EndObj, err = r.varint(); err != nil {
			return f, &ParseError{"Fetch", "end_object", err}
		}
	}
	return f, nil
}

func AppendFetch(buf []byte, f Fetch) []byte {
	buf = appendVarint(buf, f.RequestID)
	buf = append(buf, f.Priority, f.GroupOrder)
	if f.Joining {
		buf = append(buf, 1)
		buf = appendVarint(buf, f.JoiningReqID)
		buf = appendVarint(buf, f.PrecedingN)
		return buf
	}
	buf = append(buf, 0)
	buf = appendNamespace(buf, f.Namespace)
	buf = appendVarintBytes(buf, f.TrackName)
	buf = appendVarint(buf, f.StartGroup)
	buf = appendVarint(buf, f.StartObj)
	buf = appendVarint(buf, f.EndGroup)
	if f.HasEndObj {
		buf = append(buf, 1)
		buf = appendVarint(buf, f.EndObj)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

func ParseFetchCancel(data []byte) (FetchCancel, error) {
	r := newReader(data)
	reqID, err := r.varint()
	if err != nil {
		return FetchCancel{}, &ParseError{"FetchCancel", "request_id", err}
	}
	return FetchCancel{RequestID: reqID}, nil
}

func AppendFetchCancel(buf []byte, c FetchCancel) []byte {
	return appendVarint(buf, c.RequestID)
}

func ParseFetchOK(data []byte) (FetchOK, error) {
	r := newReader(data)
	var f FetchOK
	var err error
	if f.RequestID, err = r.varint(); err != nil {
		return f, &ParseError{"FetchOK", "request_id", err}
	}
	if f.GroupOrder, err = r.byte(); err != nil {
		return f, &ParseError{"FetchOK", "group_order", err}
	}
	eot, err := r.byte()
	if err != nil {
		return f, &ParseError{"FetchOK", "end_of_track", err}
	}
	f.EndOfTrack = eot != 0
	if f.LargestGroup, err = r.varint(); err != nil {
		return f, &ParseError{"FetchOK", "largest_group", err}
	}
	if f.LargestObj, err = r.varint(); err != nil {
		return f, &ParseError{"FetchOK", "largest_object", err}
	}
	return f, nil
}

func AppendFetchOK(buf []byte, f FetchOK) []byte {
	buf = appendVarint(buf, f.RequestID)
	buf = append(buf, f.GroupOrder)
	if f.EndOfTrack {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = appendVarint(buf, f.LargestGroup)
	buf = appendVarint(buf, f.LargestObj)
	return buf
}

func ParseFetchError(data []byte) (FetchError, error) {
	r := newReader(data)
	var e FetchError
	var err error
	if e.RequestID, err = r.varint(); err != nil {
		return e, &ParseError{"FetchError", "request_id", err}
	}
	if e.ErrorCode, err = r.varint(); err != nil {
		return e, &ParseError{"FetchError", "error_code", err}
	}
	reason, err := r.varintBytes()
	if err != nil {
		return e, &ParseError{"FetchError", "reason_phrase", err}
	}
	e.ReasonPhrase = string(reason)
	return e, nil
}

func AppendFetchError(buf []byte, e FetchError) []byte {
	buf = appendVarint(buf, e.RequestID)
	buf = appendVarint(buf, e.ErrorCode)
	buf = appendVarintBytes(buf, []byte(e.ReasonPhrase))
	return buf
}

// --- TrackStatus family ---

func ParseTrackStatusRequest(data []byte) (TrackStatusRequest, error) {
	r := newReader(data)
	var t TrackStatusRequest
	var err error
	if t.Namespace, err = r.namespace(); err != nil {
		return t, &ParseError{"TrackStatusRequest", "namespace", err}
	}
	if t.TrackName, err = r.varintBytes(); err != nil {
		return t, &ParseError{"TrackStatusRequest", "track_name", err}
	}
	return t, nil
}

func AppendTrackStatusRequest(buf []byte, t TrackStatusRequest) []byte {
	buf = appendNamespace(buf, t.Namespace)
	buf = appendVarintBytes(buf, t.TrackName)
	return buf
}

func ParseTrackStatus(data []byte) (TrackStatus, error) {
	r := newReader(data)
	var t TrackStatus
	var err error
	if t.Namespace, err = r.namespace(); err != nil {
		return t, &ParseError{"TrackStatus", "namespace", err}
	}
	if t.TrackName, err = r.varintBytes(); err != nil {
		return t, &ParseError{"TrackStatus", "track_name", err}
	}
	if t.StatusCode, err = r.varint(); err != nil {
		return t, &ParseError{"TrackStatus", "status_code", err}
	}
	if t.LargestGroup, err = r.varint(); err != nil {
		return t, &ParseError{"TrackStatus", "largest_group", err}
	}
	if t.LargestObj, err = r.varint(); err != nil {
		return t, &ParseError{"TrackStatus", "largest_object", err}
	}
	return t, nil
}

func AppendTrackStatus(buf []byte, t TrackStatus) []byte {
	buf = appendNamespace(buf, t.Namespace)
	buf = appendVarintBytes(buf, t.TrackName)
	buf = appendVarint(buf, t.StatusCode)
	buf = appendVarint(buf, t.LargestGroup)
	buf = appendVarint(buf, t.LargestObj)
	return buf
}

// --- Session control: GoAway, MaxRequestID, RequestsBlocked, NewGroupRequest ---

func ParseGoAway(data []byte) (GoAway, error) {
	r := newReader(data)
	uri, err := r.varintBytes()
	if err != nil {
		return GoAway{}, &ParseError{"GoAway", "new_session_uri", err}
	}
	return GoAway{NewSessionURI: string(uri)}, nil
}

func AppendGoAway(buf []byte, g GoAway) []byte {
	return appendVarintBytes(buf, []byte(g.NewSessionURI))
}

func ParseMaxRequestID(data []byte) (MaxRequestID, error) {
	r := newReader(data)
	reqID, err := r.varint()
	if err != nil {
		return MaxRequestID{}, &ParseError{"MaxRequestID", "request_id", err}
	}
	return MaxRequestID{RequestID: reqID}, nil
}

func AppendMaxRequestID(buf []byte, m MaxRequestID) []byte {
	return appendVarint(buf, m.RequestID)
}

func ParseRequestsBlocked(data []byte) (RequestsBlocked, error) {
	r := newReader(data)
	max, err := r.varint()
	if err != nil {
		return RequestsBlocked{}, &ParseError{"RequestsBlocked", "maximum_request_id", err}
	}
	return RequestsBlocked{MaximumRequestID: max}, nil
}

func AppendRequestsBlocked(buf []byte, b RequestsBlocked) []byte {
	return appendVarint(buf, b.MaximumRequestID)
}

func ParseNewGroupRequest(data []byte) (NewGroupRequest, error) {
	r := newReader(data)
	reqID, err := r.varint()
	if err != nil {
		return NewGroupRequest{}, &ParseError{"NewGroupRequest", "request_id", err}
	}
	return NewGroupRequest{RequestID: reqID}, nil
}

func AppendNewGroupRequest(buf []byte, n NewGroupRequest) []byte {
	return appendVarint(buf, n.RequestID)
}

// --- Publish family ---

func ParsePublish(data []byte) (Publish, error) {
	r := newReader(data)
	var p Publish
	var err error
	if p.RequestID, err = r.varint(); err != nil {
		return p, &ParseError{"Publish", "request_id", err}
	}
	if p.Namespace, err = r.namespace(); err != nil {
		return p, &ParseError{"Publish", "namespace", err}
	}
	if p.TrackName, err = r.varintBytes(); err != nil {
		return p, &ParseError{"Publish", "track_name", err}
	}
	if p.TrackAlias, err = r.varint(); err != nil {
		return p, &ParseError{"Publish", "track_alias", err}
	}
	if p.GroupOrder, err = r.byte(); err != nil {
		return p, &ParseError{"Publish", "group_order", err}
	}
	exists, err := r.byte()
	if err != nil {
		return p, &ParseError{"Publish", "content_exists", err}
	}
	p.ContentExists = exists != 0
	if p.ContentExists {
		if p.LargestGroup, err = r.varint(); err != nil {
			return p, &ParseError{"Publish", "largest_group", err}
		}
		if p.LargestObj, err = r.varint(); err != nil {
			return p, &ParseError{"Publish", "largest_object", err}
		}
	}
	if p.Forward, err = r.byte(); err != nil {
		return p, &ParseError{"Publish", "forward", err}
	}
	return p, nil
}

func AppendPublish(buf []byte, p Publish) []byte {
	buf = appendVarint(buf, p.RequestID)
	buf = appendNamespace(buf, p.Namespace)
	buf = appendVarintBytes(buf, p.TrackName)
	buf = appendVarint(buf, p.TrackAlias)
	buf = append(buf, p.GroupOrder)
	if p.ContentExists {
		buf = append(buf, 1)
		buf = appendVarint(buf, p.LargestGroup)
		buf = appendVarint(buf, p.LargestObj)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, p.Forward)
	return buf
}

func ParsePublishOK(data []byte) (PublishOK, error) {
	r := newReader(data)
	var p PublishOK
	var err error
	if p.RequestID, err = r.varint(); err != nil {
		return p, &ParseError{"PublishOK", "request_id", err}
	}
	if p.Forward, err = r.byte(); err != nil {
		return p, &ParseError{"PublishOK", "forward", err}
	}
	if p.Priority, err = r.byte(); err != nil {
		return p, &ParseError{"PublishOK", "priority", err}
	}
	if p.GroupOrder, err = r.byte(); err != nil {
		return p, &ParseError{"PublishOK", "group_order", err}
	}
	if p.FilterType, err = r.varint(); err != nil {
		return p, &ParseError{"PublishOK", "filter_type", err}
	}
	switch p.FilterType {
	case FilterAbsoluteStart:
		if p.StartGroup, err = r.varint(); err != nil {
			return p, &ParseError{"PublishOK", "start_group", err}
		}
		if p.StartObj, err = r.varint(); err != nil {
			return p, &ParseError{"PublishOK", "start_object", err}
		}
	case FilterAbsoluteRange:
		if p.StartGroup, err = r.varint(); err != nil {
			return p, &ParseError{"PublishOK", "start_group", err}
		}
		if p.StartObj, err = r.varint(); err != nil {
			return p, &ParseError{"PublishOK", "start_object", err}
		}
		if p.EndGroup, err = r.varint(); err != nil {
			return p, &ParseError{"PublishOK", "end_group", err}
		}
		hasEnd, err := r.byte()
		if err != nil {
			return p, &ParseError{"PublishOK", "has_end_object", err}
		}
		if hasEnd != 0 {
			p.HasEndObj = true
			if p.EndObj, err = r.varint(); err != nil {
				return p, &ParseError{"PublishOK", "end_object", err}
			}
		}
	}
	return p, nil
}

func AppendPublishOK(buf []byte, p PublishOK) []byte {
	buf = appendVarint(buf, p.RequestID)
	buf = append(buf, p.Forward, p.Priority, p.GroupOrder)
	buf = appendVarint(buf, p.FilterType)
	switch p.FilterType {
	case FilterAbsoluteStart:
		buf = appendVarint(buf, p.StartGroup)
		buf = appendVarint(buf, p.StartObj)
	case FilterAbsoluteRange:
		buf = appendVarint(buf, p.StartGroup)
		buf = appendVarint(buf, p.StartObj)
		buf = appendVarint(buf, p.EndGroup)
		if p.HasEndObj {
			buf = append(buf, 1)
			buf = appendVarint(buf, p.EndObj)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

func ParsePublishError(data []byte) (PublishError, error) {
	r := newReader(data)
	var e PublishError
	var err error
	if e.RequestID, err = r.varint(); err != nil {
		return e, &ParseError{"PublishError", "request_id", err}
	}
	if e.ErrorCode, err = r.varint(); err != nil {
		return e, &ParseError{"PublishError", "error_code", err}
	}
	reason, err := r.varintBytes()
	if err != nil {
		return e, &ParseError{"PublishError", "reason_phrase", err}
	}
	e.ReasonPhrase = string(reason)
	return e, nil
}

func AppendPublishError(buf []byte, e PublishError) []byte {
	buf = appendVarint(buf, e.RequestID)
	buf = appendVarint(buf, e.ErrorCode)
	buf = appendVarintBytes(buf, []byte(e.ReasonPhrase))
	return buf
}
