package session

import (
	"errors"

	"github.com/zsiec/moqt/track"
	"github.com/zsiec/moqt/wire"
)

// ErrInvalidRange is returned by EvaluateFilter when a subscribe's
// absolute range has already passed (§4.8).
var ErrInvalidRange = errors.New("session: invalid range")

// Start is the resolved (group, object) delivery-start point for a
// subscribe, plus an optional end bound for AbsoluteRange.
type Start struct {
	Group, Object uint64
	HasEnd        bool
	EndGroup      uint64
	HasEndObject  bool
	EndObject     uint64
}

// Bound converts a resolved Start into the track.DeliveryBound its
// Subscriber must enforce once live (§4.8 AbsoluteRange, P8): objects
// before (Group, Object) or after (EndGroup, EndObject) must not reach
// the application even if the publisher keeps emitting them.
func (st Start) Bound() track.DeliveryBound {
	return track.DeliveryBound{
		HasStart: true, StartGroup: st.Group, StartObj: st.Object,
		HasEnd: st.HasEnd, EndGroup: st.EndGroup,
		HasEndObject: st.HasEndObject, EndObj: st.EndObject,
	}
}

// EvaluateFilter resolves a subscribe's filter against the track's
// currently-highest produced (group, object) coordinate, per §4.8:
//
//   - LatestGroup starts at the first object whose group id is >= the
//     highest group currently being produced.
//   - LatestObject is the same but at object granularity.
//   - AbsoluteStart starts at a caller-specified (group, object).
//   - AbsoluteRange starts at (startGroup, startObject) and stops after
//     (endGroup, optional endObject); an absent endObject means the
//     range includes the entire endGroup.
//
// A range that has already fully passed highestGroup/highestObject fails
// with ErrInvalidRange.
func EvaluateFilter(sub wire.Subscribe, highestGroup, highestObject uint64) (Start, error) {
	switch sub.FilterType {
	case wire.FilterLatestGroup:
		return Start{Group: highestGroup, Object: 0}, nil

	case wire.FilterLatestObject:
		return Start{Group: highestGroup, Object: highestObject}, nil

	case wire.FilterAbsoluteStart:
		return Start{Group: sub.StartGroup, Object: sub.StartObj}, nil

	case wire.FilterAbsoluteRange:
		if sub.EndGroup < sub.StartGroup {
			return Start{}, ErrInvalidRange
		}
		if sub.EndGroup == sub.StartGroup && sub.HasEndObj && sub.EndObj < sub.StartObj {
			return Start{}, ErrInvalidRange
		}
		if sub.EndGroup < highestGroup ||
			(sub.EndGroup == highestGroup && sub.HasEndObj && sub.EndObj < highestObject) {
			return Start{}, ErrInvalidRange
		}
		return Start{
			Group: sub.StartGroup, Object: sub.StartObj,
			HasEnd: true, EndGroup: sub.EndGroup,
			HasEndObject: sub.HasEndObj, EndObject: sub.EndObj,
		}, nil

	default:
		return Start{}, ErrInvalidRange
	}
}
