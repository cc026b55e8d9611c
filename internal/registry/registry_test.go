package registry

import (
	"reflect"
	"sync"
	"testing"

	"github.com/pairsphere/paird/internal/protocol"
)

// fakeHandle is a minimal Handle for registry tests.
type fakeHandle struct {
	socketID string
	userID   string

	mu         sync.Mutex
	sent       []protocol.Frame
	terminated bool
	closeCode  int
}

func (f *fakeHandle) SocketID() string { return f.socketID }
func (f *fakeHandle) UserID() string   { return f.userID }

func (f *fakeHandle) SendFrame(frame protocol.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, frame)
	return nil
}

func (f *fakeHandle) Terminate(code int, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated = true
	f.closeCode = code
}

func (f *fakeHandle) IsAlive() bool { return true }

func (f *fakeHandle) wasTerminated() (bool, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.terminated, f.closeCode
}

func profile(name string) protocol.PeerProfile {
	return protocol.PeerProfile{DisplayName: name, Role: protocol.RoleGuest, IDE: protocol.DefaultIDE}
}

// addUser installs a socket binding and registers a peer, mirroring the
// AUTH + PEER_REGISTER sequence.
func addUser(r *Registry, userID, socketID, ipHash, networkID string) *fakeHandle {
	h := &fakeHandle{socketID: socketID, userID: userID}
	r.InstallSocket(h)
	r.Register(userID, profile(userID), socketID, ipHash, networkID)
	return h
}

// ---------------------------------------------------------------------------
// Peer registry
// ---------------------------------------------------------------------------

func TestRegister_Lookup(t *testing.T) {
	r := New(0)
	addUser(r, "user_1", "sock_1", "hashA", "net_x")

	peer, ok := r.PeerByUser("user_1")
	if !ok {
		t.Fatal("PeerByUser() not found after Register")
	}
	if peer.SocketID != "sock_1" || peer.NetworkID != "net_x" {
		t.Errorf("peer = %+v, want sock_1/net_x", peer)
	}
	if peer.Status != protocol.StatusOnline {
		t.Errorf("Status = %q, want online", peer.Status)
	}
	if peer.Mode != protocol.ModeRemote {
		t.Errorf("Mode = %q, want REMOTE", peer.Mode)
	}

	bySock, ok := r.PeerBySocket("sock_1")
	if !ok || bySock.UserID != "user_1" {
		t.Errorf("PeerBySocket() = %+v, %v; want user_1", bySock, ok)
	}
}

func TestRegister_UnregisterRoundTrip(t *testing.T) {
	r := New(0)
	addUser(r, "user_1", "sock_1", "", "")

	if _, ok := r.UnregisterByUser("user_1"); !ok {
		t.Fatal("UnregisterByUser() = false, want true")
	}

	if _, ok := r.PeerByUser("user_1"); ok {
		t.Error("peer still present after unregister")
	}
	if _, ok := r.PeerBySocket("sock_1"); ok {
		t.Error("socket index still present after unregister")
	}
	peers, _, _, _ := r.Counts()
	if peers != 0 {
		t.Errorf("peer count = %d, want 0", peers)
	}
}

func TestRegister_ReplacePreservesSessions(t *testing.T) {
	r := New(0)
	addUser(r, "user_1", "sock_1", "", "net_x")
	addUser(r, "user_2", "sock_2", "", "net_x")

	sess, err := r.CreateForPair("user_1", "user_2")
	if err != nil {
		t.Fatalf("CreateForPair() error = %v", err)
	}

	// Defensive fallback: re-register without prior eviction.
	r.Register("user_1", profile("user_1"), "sock_9", "", "net_x")

	peer, _ := r.PeerByUser("user_1")
	if peer.SocketID != "sock_9" {
		t.Errorf("SocketID = %q, want sock_9", peer.SocketID)
	}
	if !reflect.DeepEqual(peer.SessionIDs, []string{sess.ID}) {
		t.Errorf("SessionIDs = %v, want [%s]", peer.SessionIDs, sess.ID)
	}
	if _, ok := r.PeerBySocket("sock_1"); ok {
		t.Error("stale socket index survived re-register")
	}

	// At most one peer per user.
	peers, _, _, _ := r.Counts()
	if peers != 2 {
		t.Errorf("peer count = %d, want 2", peers)
	}
}

func TestUnregisterBySocket(t *testing.T) {
	r := New(0)
	addUser(r, "user_1", "sock_1", "", "")

	peer, ok := r.UnregisterBySocket("sock_1")
	if !ok || peer.UserID != "user_1" {
		t.Errorf("UnregisterBySocket() = %+v, %v", peer, ok)
	}
	if _, ok := r.UnregisterBySocket("sock_1"); ok {
		t.Error("second UnregisterBySocket() = true, want false")
	}
}

func TestAddSession_Idempotent(t *testing.T) {
	r := New(0)
	addUser(r, "user_1", "sock_1", "", "")

	if !r.AddSession("user_1", "ses_a") {
		t.Fatal("AddSession() = false")
	}
	r.AddSession("user_1", "ses_a")
	r.AddSession("user_1", "ses_a")

	peer, _ := r.PeerByUser("user_1")
	if len(peer.SessionIDs) != 1 {
		t.Errorf("SessionIDs = %v, want exactly one entry", peer.SessionIDs)
	}
}

func TestOnlineInNetwork(t *testing.T) {
	r := New(0)
	addUser(r, "user_a", "sock_a", "", "net_x")
	addUser(r, "user_b", "sock_b", "", "net_y")
	addUser(r, "user_c", "sock_c", "", "net_x")
	addUser(r, "user_d", "sock_d", "", "") // no network

	got := r.OnlineInNetwork("net_x")
	if len(got) != 2 || got[0].UserID != "user_a" || got[1].UserID != "user_c" {
		t.Errorf("OnlineInNetwork(net_x) = %v, want [user_a user_c] in insertion order", got)
	}

	// Null network never matches, even against other null-network peers.
	if got := r.OnlineInNetwork(""); len(got) != 0 {
		t.Errorf("OnlineInNetwork(\"\") = %v, want empty", got)
	}
}

func TestOnlineInNetwork_ExcludesNonOnline(t *testing.T) {
	r := New(0)
	addUser(r, "user_a", "sock_a", "", "net_x")
	addUser(r, "user_b", "sock_b", "", "net_x")
	r.UpdateStatus("user_b", protocol.StatusAway)

	got := r.OnlineInNetwork("net_x")
	if len(got) != 1 || got[0].UserID != "user_a" {
		t.Errorf("OnlineInNetwork() = %v, want [user_a]", got)
	}
}

func TestSameLAN(t *testing.T) {
	r := New(0)
	addUser(r, "user_a", "sock_a", "hash1", "net_x")
	addUser(r, "user_b", "sock_b", "hash1", "net_x")
	addUser(r, "user_c", "sock_c", "hash2", "net_x")
	addUser(r, "user_d", "sock_d", "", "net_x")
	addUser(r, "user_e", "sock_e", "", "net_x")

	if !r.SameLAN("user_a", "user_b") {
		t.Error("SameLAN(a, b) = false, want true for equal hashes")
	}
	if r.SameLAN("user_a", "user_c") {
		t.Error("SameLAN(a, c) = true, want false for different hashes")
	}
	if r.SameLAN("user_d", "user_e") {
		t.Error("SameLAN(d, e) = true, want false for empty hashes")
	}
	if r.SameLAN("user_a", "user_missing") {
		t.Error("SameLAN with missing peer = true, want false")
	}
}

func TestOnlinePeerHandles_OrderAndExclusion(t *testing.T) {
	r := New(0)
	addUser(r, "user_a", "sock_a", "", "net_x")
	addUser(r, "user_b", "sock_b", "", "net_y")
	addUser(r, "user_c", "sock_c", "", "net_x")

	got := r.OnlinePeerHandles("user_b")
	if len(got) != 2 || got[0].Peer.UserID != "user_a" || got[1].Peer.UserID != "user_c" {
		t.Fatalf("OnlinePeerHandles() order = %v, want [user_a user_c]", got)
	}
	if got[0].Handle.SocketID() != "sock_a" {
		t.Errorf("handle socket = %q, want sock_a", got[0].Handle.SocketID())
	}
}

// ---------------------------------------------------------------------------
// Socket registry
// ---------------------------------------------------------------------------

func TestInstallSocket_UserBinding(t *testing.T) {
	r := New(0)
	h := &fakeHandle{socketID: "sock_1", userID: "user_1"}
	r.InstallSocket(h)

	if got, ok := r.Socket("sock_1"); !ok || got != Handle(h) {
		t.Error("Socket() did not return installed handle")
	}
	if got, ok := r.UserSocket("user_1"); !ok || got.SocketID() != "sock_1" {
		t.Error("UserSocket() did not return bound handle")
	}
}

func TestInstallUserSocket_DisplacesPrior(t *testing.T) {
	r := New(0)
	addUser(r, "user_1", "sock_old", "", "net_x")

	hNew := &fakeHandle{socketID: "sock_new", userID: "user_1"}
	prior, had := r.InstallUserSocket(hNew)
	if !had || prior.SocketID() != "sock_old" {
		t.Fatalf("InstallUserSocket() = %v, %v; want displaced sock_old", prior, had)
	}

	if _, ok := r.PeerByUser("user_1"); ok {
		t.Error("displaced peer record survived")
	}
	if got, ok := r.UserSocket("user_1"); !ok || got.SocketID() != "sock_new" {
		t.Error("binding does not point at the new socket")
	}
	if _, ok := r.Socket("sock_old"); ok {
		t.Error("displaced socket still registered")
	}
}

func TestEvictUser(t *testing.T) {
	r := New(0)
	hA := addUser(r, "user_1", "sock_1", "", "net_x")
	addUser(r, "user_2", "sock_2", "", "net_x")
	sess, _ := r.CreateForPair("user_1", "user_2")
	r.CreateRequest("user_1", "user_2")

	prior, ok := r.EvictUser("user_1")
	if !ok || prior.SocketID() != hA.socketID {
		t.Fatalf("EvictUser() = %v, %v; want sock_1 handle", prior, ok)
	}

	if _, ok := r.PeerByUser("user_1"); ok {
		t.Error("evicted peer still present")
	}
	if _, ok := r.Socket("sock_1"); ok {
		t.Error("evicted socket still registered")
	}
	if _, ok := r.Session(sess.ID); ok {
		t.Error("session survived host eviction")
	}
	_, _, requests, _ := r.Counts()
	if requests != 0 {
		t.Errorf("pending requests = %d, want 0 after eviction", requests)
	}

	// Partner's session list must be clean (session↔peer consistency).
	partner, _ := r.PeerByUser("user_2")
	if len(partner.SessionIDs) != 0 {
		t.Errorf("partner SessionIDs = %v, want empty", partner.SessionIDs)
	}
}

func TestEvictUser_NoBinding(t *testing.T) {
	r := New(0)
	if _, ok := r.EvictUser("user_missing"); ok {
		t.Error("EvictUser() = true for unknown user")
	}
}

func TestDisconnect_StaleSocketDoesNotTouchSuccessor(t *testing.T) {
	r := New(0)
	addUser(r, "user_1", "sock_old", "", "net_x")

	// Supersession: evict, then install the successor.
	r.EvictUser("user_1")
	hNew := &fakeHandle{socketID: "sock_new", userID: "user_1"}
	r.InstallSocket(hNew)
	r.Register("user_1", profile("user_1"), "sock_new", "", "net_x")

	// Late disconnect of the old socket must be a no-op for the user.
	if _, hadPeer := r.Disconnect("user_1", "sock_old"); hadPeer {
		t.Error("stale Disconnect() removed the successor's peer")
	}
	if _, ok := r.PeerByUser("user_1"); !ok {
		t.Error("successor peer gone after stale disconnect")
	}
	if _, ok := r.UserSocket("user_1"); !ok {
		t.Error("successor binding gone after stale disconnect")
	}
}

func TestDisconnect_Full(t *testing.T) {
	r := New(0)
	addUser(r, "user_1", "sock_1", "", "net_x")
	addUser(r, "user_2", "sock_2", "", "net_x")
	sess, _ := r.CreateForPair("user_1", "user_2")

	peer, hadPeer := r.Disconnect("user_2", "sock_2")
	if !hadPeer || peer.UserID != "user_2" {
		t.Fatalf("Disconnect() = %+v, %v", peer, hadPeer)
	}
	if _, ok := r.Session(sess.ID); ok {
		t.Error("two-party session survived guest disconnect")
	}
	peers, sessions, _, sockets := r.Counts()
	if peers != 1 || sessions != 0 || sockets != 1 {
		t.Errorf("counts = %d/%d/%d, want 1 peer, 0 sessions, 1 socket", peers, sessions, sockets)
	}
}
