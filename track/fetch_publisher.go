package track

// PublishFetchHandler is a publisher variant that emits one fetch-stream
// header on its first object and subgroups every subsequent object onto
// that same stream regardless of group changes (§4.7).
type PublishFetchHandler struct {
	Common

	started bool
	emit    EmitFunc
}

// NewPublishFetchHandler returns a PublishFetchHandler for a single fetch
// response on trackAlias.
func NewPublishFetchHandler(trackAlias uint64, emit EmitFunc) *PublishFetchHandler {
	return &PublishFetchHandler{
		Common: Common{TrackAlias: trackAlias, Announced: true, Connected: true},
		emit:   emit,
	}
}

// PublishObject emits obj, cutting the fetch-stream header only once.
func (f *PublishFetchHandler) PublishObject(h Headers, payload []byte) error {
	if err := f.checkReady(); err != nil {
		return err
	}
	if f.emit == nil {
		return ErrInternal
	}

	needsHeader := !f.started
	f.started = true

	return f.emit(int(h.Priority), h.TTLMillis, needsHeader, h.GroupID, h.ObjectID, payload)
}
