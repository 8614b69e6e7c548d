package track

import (
	"github.com/zsiec/moqt/streambuf"
	"github.com/zsiec/moqt/wire"
)

// fetchParseState mirrors subgroupParseState but for fetch-stream framing,
// which carries full group/subgroup/object coordinates per object since a
// single fetch stream interleaves across groups (§4.6).
type fetchParseState struct {
	streambuf.Embeddable
	haveHeader bool
	header     wire.FetchHeader
}

// JoiningFetchHandler parses an incoming stream using fetch-stream framing
// but forwards each reassembled object up to an underlying subscribe
// handler's delivery callback, rather than its own (§4.7): a joining
// fetch backfills a live subscription with the objects the subscriber
// missed before it attached. HandleStreamData backfills from a remote
// publisher's fetch-stream bytes; Replay backfills from a local
// ReplayCache instead, for a relay holding recent history in-process.
type JoiningFetchHandler struct {
	Common

	buf      streambuf.Buffer
	received ObjectReceivedFunc
	replay   *ReplayCache
}

// NewJoiningFetchHandler returns a JoiningFetchHandler forwarding
// reassembled objects to the same callback the underlying subscribe
// handler already uses.
func NewJoiningFetchHandler(trackAlias uint64, received ObjectReceivedFunc) *JoiningFetchHandler {
	return &JoiningFetchHandler{
		Common:   Common{TrackAlias: trackAlias, Announced: true, Connected: true},
		received: received,
	}
}

// HandleStreamData feeds newly-arrived fetch-stream bytes to the handler.
func (j *JoiningFetchHandler) HandleStreamData(isStart bool, data []byte) error {
	if isStart {
		j.buf = streambuf.Buffer{}
		j.buf.InitAnyB(&fetchParseState{})
	}
	j.buf.Push(data)

	for {
		state, ok := j.buf.AnyBState().(*fetchParseState)
		if !ok || state == nil {
			return ErrInternal
		}

		if !state.haveHeader {
			h, ok, err := streambuf.TryParse(&j.buf, adaptTruncated(wire.ParseFetchHeader))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			state.haveHeader = true
			state.header = h
			continue
		}

		obj, ok, err := streambuf.TryParse(&j.buf, adaptTruncated(wire.ParseFetchObject))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if j.received != nil {
			j.received(Headers{
				GroupID:           obj.GroupID,
				SubgroupID:        obj.SubgroupID,
				ObjectID:          obj.ObjectID,
				PublisherPriority: obj.PublisherPriority,
				Status:            obj.Status,
				Extensions:        obj.Extensions,
			}, obj.Payload)
		}
	}
}
