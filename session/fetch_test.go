package session

import "testing"

func TestRequestTableSetStatusSuppressesSendingCallback(t *testing.T) {
	tbl := newRequestTable()
	var got []RequestStatus
	tbl.Insert(1, &requestEntry{kind: "subscribe", status: StatusPending, onStatusChanged: func(s RequestStatus) {
		got = append(got, s)
	}})

	tbl.SetStatus(1, StatusSending)
	tbl.SetStatus(1, StatusDone)

	if len(got) != 1 || got[0] != StatusDone {
		t.Fatalf("observed statuses = %v, want only [Done]", got)
	}
}

func TestRequestTableRemoveIffPresent(t *testing.T) {
	tbl := newRequestTable()
	if _, ok := tbl.Remove(1); ok {
		t.Fatal("Remove on an absent id returned ok=true")
	}
	tbl.Insert(1, &requestEntry{kind: "fetch", status: StatusPending})
	if tbl.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tbl.Len())
	}
	e, ok := tbl.Remove(1)
	if !ok || e.kind != "fetch" {
		t.Fatalf("Remove = %+v, %v", e, ok)
	}
	if tbl.Len() != 0 {
		t.Fatalf("Len after remove = %d, want 0", tbl.Len())
	}
}
