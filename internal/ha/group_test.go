package ha

import "testing"

func TestSoloGroupIsAlwaysLeader(t *testing.T) {
	fired := false
	g, err := New(Config{
		LocalID: "r1",
		Peers:   map[string]string{"r1": "127.0.0.1:0"},
		OnLeader: func() {
			fired = true
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !g.IsLeader() {
		t.Fatal("solo group must report leadership")
	}
	g.Start()
	if !fired {
		t.Fatal("solo group must invoke OnLeader synchronously from Start")
	}
	if err := g.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestSoloGroupWithNoPeersConfigured(t *testing.T) {
	g, err := New(Config{LocalID: "solo"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !g.IsLeader() {
		t.Fatal("a group with zero configured peers must still be solo-leader")
	}
}

func TestParsePort(t *testing.T) {
	if p := ParsePort("10.0.0.1:7300"); p != 7300 {
		t.Errorf("ParsePort: got %d, want 7300", p)
	}
	if p := ParsePort("not-an-addr"); p != 0 {
		t.Errorf("ParsePort on malformed input: got %d, want 0", p)
	}
}
