package iso8583

import "testing"

func TestMessageEchoFrom(t *testing.T) {
	spec := testSpec()
	seg, err := spec.GetSegmentFor("1100")
	if err != nil {
		t.Fatal(err)
	}

	req := spec.NewMessageForSegment(seg)
	if err := req.SetOn(3, "000000"); err != nil {
		t.Fatal(err)
	}
	if err := req.SetOn(4, "000000012345"); err != nil {
		t.Fatal(err)
	}

	resp := spec.NewMessageForSegment(seg)
	if err := resp.EchoFrom(req, []int{3, 4}); err != nil {
		t.Fatalf("EchoFrom: %v", err)
	}
	if !resp.HasPosition(3) || !resp.HasPosition(4) {
		t.Fatal("echoed positions should be set on the destination message")
	}
	v, err := resp.BmpChildValue(4)
	if err != nil {
		t.Fatal(err)
	}
	if v != "000000012345" {
		t.Fatalf("echoed amount = %q", v)
	}
}

func TestMessageEchoFromMissingFieldFailsFast(t *testing.T) {
	spec := testSpec()
	seg, err := spec.GetSegmentFor("1100")
	if err != nil {
		t.Fatal(err)
	}
	req := spec.NewMessageForSegment(seg)
	resp := spec.NewMessageForSegment(seg)

	if err := resp.EchoFrom(req, []int{4}); err == nil {
		t.Fatal("expected an error echoing a field the source never set")
	}
}

func TestMessageUnknownFieldName(t *testing.T) {
	spec := testSpec()
	seg, _ := spec.GetSegmentFor("1100")
	msg := spec.NewMessageForSegment(seg)
	if err := msg.Set("does_not_exist", "x"); err == nil {
		t.Fatal("expected UnknownFieldError for an unregistered field name")
	}
}
