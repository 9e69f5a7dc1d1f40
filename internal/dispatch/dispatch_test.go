package dispatch

import (
	"encoding/json"
	"testing"

	"github.com/rrelay/bgpd/internal/message"
	"github.com/rrelay/bgpd/internal/policy"
	"github.com/rrelay/bgpd/internal/prefix"
	"github.com/rrelay/bgpd/internal/rib"
)

type fakeSender struct {
	sent map[rib.NeighborID][][]byte
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(map[rib.NeighborID][][]byte)}
}

func (f *fakeSender) Send(id rib.NeighborID, frame []byte) error {
	f.sent[id] = append(f.sent[id], append([]byte(nil), frame...))
	return nil
}

func updateFrom(src rib.NeighborID, network, netmask string, localPref int, asPath []int, origin string, selfOrigin bool) message.UpdateMessage {
	return message.UpdateMessage{
		Body: message.UpdateBody{
			Network:    network,
			Netmask:    netmask,
			LocalPref:  localPref,
			ASPath:     asPath,
			Origin:     origin,
			SelfOrigin: selfOrigin,
		},
	}
}

// withSource wraps a message with a source neighbor, since the base struct's
// fields are unexported outside the message package.
func withSource(id rib.NeighborID, m message.UpdateMessage) message.UpdateMessage {
	raw, _ := message.Encode(string(id), "192.168.0.1", m)
	decoded, _ := message.Decode(raw)
	return decoded.(message.UpdateMessage)
}

func TestSingleUpdatePropagation(t *testing.T) {
	table := rib.New()
	sender := newFakeSender()
	b := rib.NeighborID("192.168.0.2")
	relations := policy.Table{"A": policy.Customer, b: policy.Peer}
	d := New(1, "1.0.0.1", []rib.NeighborID{"A", b}, relations, table, sender)

	upd := withSource("A", updateFrom("A", "192.168.0.0", "255.255.255.0", 100, []int{1}, "IGP", false))
	if err := d.Handle(upd); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(table.Snapshot()) != 1 {
		t.Fatalf("expected 1 RIB entry, got %d", len(table.Snapshot()))
	}

	frames := sender.sent[b]
	if len(frames) != 1 {
		t.Fatalf("expected B to receive exactly one frame, got %d", len(frames))
	}
	var decoded struct {
		Src string
		Msg message.UpdateBody
	}
	if err := json.Unmarshal(frames[0], &decoded); err != nil {
		t.Fatalf("unmarshal sent frame: %v", err)
	}
	if len(decoded.Msg.ASPath) != 2 || decoded.Msg.ASPath[0] != 1 {
		t.Errorf("expected local ASN prepended, got %v", decoded.Msg.ASPath)
	}
	if decoded.Src != "192.168.0.1" {
		t.Errorf("expected local-facing src 192.168.0.1, got %s", decoded.Src)
	}
}

func TestPeerToPeerSuppression(t *testing.T) {
	table := rib.New()
	sender := newFakeSender()
	relations := policy.Table{"A": policy.Peer, "B": policy.Peer}
	d := New(1, "1.0.0.1", []rib.NeighborID{"A", "B"}, relations, table, sender)

	upd := withSource("A", updateFrom("A", "192.168.0.0", "255.255.255.0", 100, []int{1}, "IGP", false))
	if err := d.Handle(upd); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(sender.sent["B"]) != 0 {
		t.Errorf("B must not receive a peer-to-peer update, got %d frames", len(sender.sent["B"]))
	}
	if len(table.Snapshot()) != 1 {
		t.Errorf("RIB should still store the route even though it is not exported")
	}
}

func TestNoRouteReply(t *testing.T) {
	table := rib.New()
	sender := newFakeSender()
	relations := policy.Table{"C": policy.Customer}
	d := New(1, "1.0.0.1", []rib.NeighborID{"C"}, relations, table, sender)

	dataMsg := withSourceData("C", "8.8.8.8", message.DataMessage{Payload: json.RawMessage(`{"msg":"hi"}`)})

	if err := d.Handle(dataMsg); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	frames := sender.sent["C"]
	if len(frames) != 1 {
		t.Fatalf("expected exactly one no-route reply, got %d", len(frames))
	}
	var env struct {
		Src  string
		Type string
	}
	if err := json.Unmarshal(frames[0], &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != "no route" {
		t.Errorf("expected type 'no route', got %q", env.Type)
	}
}

func withSourceData(id rib.NeighborID, dest string, m message.DataMessage) message.DataMessage {
	raw, _ := message.Encode(string(id), dest, m)
	decoded, _ := message.Decode(raw)
	return decoded.(message.DataMessage)
}

func TestDataForwardingLongestPrefix(t *testing.T) {
	table := rib.New()
	sender := newFakeSender()
	relations := policy.Table{"C": policy.Customer, "X": policy.Customer, "Y": policy.Customer}
	d := New(1, "1.0.0.1", []rib.NeighborID{"C", "X", "Y"}, relations, table, sender)

	table.Insert(rib.Entry{Prefix: mustPfx("10.0.0.0", 8), NextHop: "X", OriginType: rib.OriginIGP})
	table.Insert(rib.Entry{Prefix: mustPfx("10.1.0.0", 16), NextHop: "Y", OriginType: rib.OriginIGP})

	dataRaw, _ := message.Encode("C", "10.1.2.3", message.DataMessage{Payload: json.RawMessage(`{}`)})
	dm, _ := message.Decode(dataRaw)
	if err := d.Handle(dm); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(sender.sent["Y"]) != 1 {
		t.Fatalf("expected data forwarded to Y via longest prefix, got %d frames to Y", len(sender.sent["Y"]))
	}
	if len(sender.sent["X"]) != 0 {
		t.Errorf("data must not also go to X")
	}
}

func TestDumpReply(t *testing.T) {
	table := rib.New()
	sender := newFakeSender()
	relations := policy.Table{"C": policy.Customer}
	d := New(1, "1.0.0.1", []rib.NeighborID{"C"}, relations, table, sender)
	table.Insert(rib.Entry{Prefix: mustPfx("10.0.0.0", 8), NextHop: "C", OriginType: rib.OriginIGP})

	raw, _ := message.Encode("C", "1.0.0.1", message.DumpMessage{})
	dm, _ := message.Decode(raw)
	if err := d.Handle(dm); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	frames := sender.sent["C"]
	if len(frames) != 1 {
		t.Fatalf("expected one table reply, got %d", len(frames))
	}
	var env struct {
		Type string
		Msg  []message.TableRow
	}
	if err := json.Unmarshal(frames[0], &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != "table" || len(env.Msg) != 1 {
		t.Errorf("unexpected table reply: %+v", env)
	}
}

func mustPfx(s string, length uint8) prefix.Prefix {
	a, err := prefix.ParseDotted(s)
	if err != nil {
		panic(err)
	}
	return prefix.New(a, length)
}
