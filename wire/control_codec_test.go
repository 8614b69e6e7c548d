package wire

import (
	"bytes"
	"testing"
)

func TestClientSetupRoundTrip(t *testing.T) {
	t.Parallel()

	in := ClientSetup{
		Versions:     []uint64{Version},
		Path:         "/moq",
		HasPath:      true,
		MaxRequestID: 100,
	}
	enc := AppendClientSetup(nil, in)
	got, err := ParseClientSetup(enc)
	if err != nil {
		t.Fatalf("ParseClientSetup: %v", err)
	}
	if len(got.Versions) != 1 || got.Versions[0] != Version {
		t.Fatalf("Versions = %v", got.Versions)
	}
	if !got.HasPath || got.Path != "/moq" {
		t.Fatalf("Path = %q HasPath=%v", got.Path, got.HasPath)
	}
	if got.MaxRequestID != 100 {
		t.Fatalf("MaxRequestID = %d, want 100", got.MaxRequestID)
	}
}

func TestServerSetupRoundTrip(t *testing.T) {
	t.Parallel()

	in := ServerSetup{SelectedVersion: Version, MaxRequestID: 50}
	enc := AppendServerSetup(nil, in)
	got, err := ParseServerSetup(enc)
	if err != nil {
		t.Fatalf("ParseServerSetup: %v", err)
	}
	if got != in {
		t.Fatalf("got %+v, want %+v", got, in)
	}
}

func TestSubscribeAbsoluteRangeRoundTrip(t *testing.T) {
	t.Parallel()

	in := Subscribe{
		RequestID:  7,
		TrackAlias: 1,
		Namespace:  Namespace{[]byte("live"), []byte("cam1")},
		TrackName:  []byte("video"),
		Priority:   10,
		GroupOrder: GroupOrderAscending,
		Forward:    ForwardDatagram,
		FilterType: FilterAbsoluteRange,
		StartGroup: 5,
		StartObj:   0,
		EndGroup:   6,
		HasEndObj:  true,
		EndObj:     3,
	}
	enc := AppendSubscribe(nil, in)
	got, err := ParseSubscribe(enc)
	if err != nil {
		t.Fatalf("ParseSubscribe: %v", err)
	}
	if got.RequestID != in.RequestID || got.StartGroup != in.StartGroup ||
		got.EndGroup != in.EndGroup || !got.HasEndObj || got.EndObj != in.EndObj {
		t.Fatalf("got %+v, want %+v", got, in)
	}
	if len(got.Namespace) != 2 || string(got.Namespace[0]) != "live" || string(got.Namespace[1]) != "cam1" {
		t.Fatalf("Namespace = %v", got.Namespace)
	}
	if string(got.TrackName) != "video" {
		t.Fatalf("TrackName = %q", got.TrackName)
	}
}

func TestSubscribeOKContentExists(t *testing.T) {
	t.Parallel()

	in := SubscribeOK{RequestID: 1, Expires: 0, GroupOrder: GroupOrderOriginal,
		ContentExists: true, LargestGroup: 9, LargestObj: 2}
	enc := AppendSubscribeOK(nil, in)
	got, err := ParseSubscribeOK(enc)
	if err != nil {
		t.Fatalf("ParseSubscribeOK: %v", err)
	}
	if got != in {
		t.Fatalf("got %+v, want %+v", got, in)
	}
}

func TestAnnounceRoundTrip(t *testing.T) {
	t.Parallel()

	in := Announce{RequestID: 3, Namespace: Namespace{[]byte("a"), []byte("b")}}
	enc := AppendAnnounce(nil, in)
	got, err := ParseAnnounce(enc)
	if err != nil {
		t.Fatalf("ParseAnnounce: %v", err)
	}
	if got.RequestID != in.RequestID {
		t.Fatalf("RequestID = %d, want %d", got.RequestID, in.RequestID)
	}
	if len(got.Namespace) != 2 {
		t.Fatalf("Namespace = %v", got.Namespace)
	}
}

func TestFetchJoiningRoundTrip(t *testing.T) {
	t.Parallel()

	in := Fetch{RequestID: 8, Priority: 1, GroupOrder: GroupOrderOriginal,
		Joining: true, JoiningReqID: 4, PrecedingN: 2}
	enc := AppendFetch(nil, in)
	got, err := ParseFetch(enc)
	if err != nil {
		t.Fatalf("ParseFetch: %v", err)
	}
	if !got.Joining || got.JoiningReqID != 4 || got.PrecedingN != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestFetchStandaloneRoundTrip(t *testing.T) {
	t.Parallel()

	in := Fetch{RequestID: 9, Priority: 2, GroupOrder: GroupOrderDescending,
		Namespace: Namespace{[]byte("ns")}, TrackName: []byte("tn"),
		StartGroup: 0, StartObj: 0, EndGroup: 5, HasEndObj: false}
	enc := AppendFetch(nil, in)
	got, err := ParseFetch(enc)
	if err != nil {
		t.Fatalf("ParseFetch: %v", err)
	}
	if got.Joining {
		t.Fatal("expected non-joining fetch")
	}
	if got.EndGroup != 5 || got.HasEndObj {
		t.Fatalf("got %+v", got)
	}
}

func TestPublishRoundTrip(t *testing.T) {
	t.Parallel()

	in := Publish{RequestID: 1, Namespace: Namespace{[]byte("ns")}, TrackName: []byte("tn"),
		TrackAlias: 42, GroupOrder: GroupOrderAscending, ContentExists: true,
		LargestGroup: 3, LargestObj: 1, Forward: ForwardDatagram}
	enc := AppendPublish(nil, in)
	got, err := ParsePublish(enc)
	if err != nil {
		t.Fatalf("ParsePublish: %v", err)
	}
	if got.TrackAlias != 42 || !got.ContentExists || got.LargestGroup != 3 {
		t.Fatalf("got %+v", got)
	}
}

func TestGoAwayRoundTrip(t *testing.T) {
	t.Parallel()

	in := GoAway{NewSessionURI: "moq://example.test:4433"}
	enc := AppendGoAway(nil, in)
	got, err := ParseGoAway(enc)
	if err != nil {
		t.Fatalf("ParseGoAway: %v", err)
	}
	if got.NewSessionURI != in.NewSessionURI {
		t.Fatalf("got %q, want %q", got.NewSessionURI, in.NewSessionURI)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	t.Parallel()

	payload := AppendMaxRequestID(nil, MaxRequestID{RequestID: 77})
	enc := AppendFrame(nil, MsgMaxRequestID, payload)

	f, n, err := ReadFrame(enc)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d, want %d", n, len(enc))
	}
	if f.Type != MsgMaxRequestID || !bytes.Equal(f.Payload, payload) {
		t.Fatalf("got %+v", f)
	}

	got, err := ParseMaxRequestID(f.Payload)
	if err != nil {
		t.Fatalf("ParseMaxRequestID: %v", err)
	}
	if got.RequestID != 77 {
		t.Fatalf("RequestID = %d, want 77", got.RequestID)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	t.Parallel()

	full := AppendFrame(nil, MsgGoAway, []byte("hello"))
	_, _, err := ReadFrame(full[:len(full)-2])
	if err == nil {
		t.Fatal("expected truncation error on short frame")
	}
}
