package tcpserver

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/mo-shahab/quadpong/bot"
	"github.com/mo-shahab/quadpong/config"
	"github.com/mo-shahab/quadpong/game"
	"github.com/mo-shahab/quadpong/paddle"
	"github.com/mo-shahab/quadpong/position"
	"github.com/mo-shahab/quadpong/protocol"
)

const waitFor = 3 * time.Second

type testServer struct {
	*Server
	addr   string
	cancel context.CancelFunc
	errc   chan error
}

func startServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.TickRate = 200
	cfg.SendQueueSize = 256
	if mutate != nil {
		mutate(cfg)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ts := &testServer{
		Server: New(cfg),
		addr:   ln.Addr().String(),
		cancel: cancel,
		errc:   make(chan error, 1),
	}
	go func() { ts.errc <- ts.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-ts.errc:
		case <-time.After(waitFor):
			t.Error("server did not stop")
		}
	})
	return ts
}

func (ts *testServer) join(t *testing.T, name string) *bot.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()

	c, err := bot.Dial(ctx, ts.addr, name)
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func (ts *testServer) tryJoin(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()

	c, err := bot.Dial(ctx, ts.addr, name)
	if err == nil {
		c.Close()
	}
	return err
}

func next(t *testing.T, c *bot.Client) game.Snapshot {
	t.Helper()
	c.SetReadDeadline(time.Now().Add(waitFor))
	snap, err := c.Next()
	if err != nil {
		t.Fatalf("%s: next state: %v", c.Name(), err)
	}
	return snap
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitFor)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func isRejection(err error) bool {
	var ce *protocol.ConnectError
	return errors.Is(err, bot.ErrRejected) || errors.As(err, &ce)
}

func TestJoinAndReceiveState(t *testing.T) {
	ts := startServer(t, nil)

	if ts.Loop().Started() {
		t.Fatal("broadcast loop running before anyone joined")
	}

	alice := ts.join(t, "alice")
	if alice.Position() != position.Top {
		t.Fatalf("alice got %v, want TOP", alice.Position())
	}

	first := next(t, alice)
	if _, ok := first.Paddles[position.Top]; !ok {
		t.Errorf("state has no top paddle: %+v", first.Paddles)
	}
	if len(first.Paddles) != 1 {
		t.Errorf("state has %d paddles, want 1", len(first.Paddles))
	}

	later := next(t, alice)
	if later.Ball.Center == [2]int{game.ScreenWidth / 2, game.ScreenHeight / 2} {
		t.Errorf("ball did not move: %v", later.Ball.Center)
	}
	if !ts.Loop().Started() {
		t.Error("broadcast loop not started after join")
	}
}

func TestFifthPlayerRejectedAndSlotsNotRecycled(t *testing.T) {
	ts := startServer(t, nil)

	var players []*bot.Client
	var got []position.Position
	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		c := ts.join(t, name)
		players = append(players, c)
		got = append(got, c.Position())
	}
	if diff := cmp.Diff(position.All[:], got); diff != "" {
		t.Fatalf("positions (-want +got):\n%s", diff)
	}

	if err := ts.tryJoin("eve"); !isRejection(err) {
		t.Fatalf("fifth join err = %v, want rejection", err)
	}

	for _, c := range players {
		c.Close()
	}
	eventually(t, "all players to leave", func() bool { return ts.Room().Len() == 0 })

	if err := ts.tryJoin("frank"); !isRejection(err) {
		t.Fatalf("join after everyone left err = %v, want rejection", err)
	}
	if ts.Pool().Available() != 0 {
		t.Errorf("pool has %d free positions in one-shot mode", ts.Pool().Available())
	}
}

func TestRecycleSlots(t *testing.T) {
	ts := startServer(t, func(c *config.Config) { c.RecycleSlots = true })

	var top *bot.Client
	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		c := ts.join(t, name)
		if c.Position() == position.Top {
			top = c
		}
	}

	if err := ts.tryJoin("eve"); !errors.Is(err, bot.ErrRejected) {
		t.Fatalf("fifth join err = %v, want ErrRejected", err)
	}

	top.Close()
	eventually(t, "TOP to be released", func() bool { return ts.Pool().Available() == 1 })

	again := ts.join(t, "frank")
	if again.Position() != position.Top {
		t.Errorf("rejoin got %v, want TOP", again.Position())
	}
}

func TestSameTickSameSnapshot(t *testing.T) {
	ts := startServer(t, nil)

	alice := ts.join(t, "alice")
	bob := ts.join(t, "bob")

	// Every frame bob reads was also sent to alice, who joined first.
	var fromAlice []game.Snapshot
	for len(fromAlice) < 80 {
		snap := next(t, alice)
		if len(snap.Paddles) == 2 {
			fromAlice = append(fromAlice, snap)
		}
	}

	var fromBob []game.Snapshot
	for len(fromBob) < 40 {
		fromBob = append(fromBob, next(t, bob))
	}

	start := -1
	for i, snap := range fromAlice {
		if cmp.Equal(snap, fromBob[0]) {
			start = i
			break
		}
	}
	if start < 0 {
		t.Fatalf("bob's first frame was never sent to alice")
	}

	for i := 0; start+i < len(fromAlice) && i < len(fromBob); i++ {
		if diff := cmp.Diff(fromAlice[start+i], fromBob[i]); diff != "" {
			t.Fatalf("frame %d differs (-alice +bob):\n%s", i, diff)
		}
	}
}

func TestMoveCommandMovesOwnPaddleOnly(t *testing.T) {
	ts := startServer(t, nil)

	top := ts.join(t, "alice")
	bottom := ts.join(t, "bob")
	startTop := ts.Simulation().Paddle(position.Top)
	startBottom := ts.Simulation().Paddle(position.Bottom)

	if err := top.Move(1); err != nil {
		t.Fatal(err)
	}
	eventually(t, "top paddle to move", func() bool {
		return ts.Simulation().Paddle(position.Top).X == startTop.X+paddle.Speed
	})

	if diff := cmp.Diff(startBottom, ts.Simulation().Paddle(position.Bottom)); diff != "" {
		t.Errorf("bottom paddle moved (-want +got):\n%s", diff)
	}

	wantLeft := startTop.Rect().Left + paddle.Speed
	for {
		snap := next(t, bottom)
		if snap.Paddles[position.Top].Rect.Left == wantLeft {
			break
		}
	}
}

func TestDisconnectDoesNotStopBroadcast(t *testing.T) {
	ts := startServer(t, nil)

	alice := ts.join(t, "alice")
	bob := ts.join(t, "bob")
	next(t, bob)

	alice.Close()
	eventually(t, "alice to leave", func() bool { return ts.Room().Len() == 1 })

	for {
		snap := next(t, bob)
		if _, ok := snap.Paddles[position.Top]; !ok {
			break
		}
	}
	for i := 0; i < 5; i++ {
		next(t, bob)
	}
}

func TestBadCommandEndsOnlyThatSession(t *testing.T) {
	ts := startServer(t, nil)

	alice := ts.join(t, "alice")
	bob := ts.join(t, "bob")

	if err := alice.SendRaw([]byte("sideways\n")); err != nil {
		t.Fatal(err)
	}

	alice.SetReadDeadline(time.Now().Add(waitFor))
	for {
		_, err := alice.Next()
		if err == nil {
			continue
		}
		if !protocol.IsDisconnect(err) {
			t.Fatalf("alice read err = %v, want disconnect", err)
		}
		break
	}

	eventually(t, "alice to be removed", func() bool { return ts.Room().Len() == 1 })
	next(t, bob)
	next(t, bob)
}

func TestLongNameJoins(t *testing.T) {
	ts := startServer(t, nil)

	for _, name := range []string{
		strings.Repeat("n", 40),
		"Jean-Baptiste Emmanuel Zorg the Third, Esquire",
	} {
		c := ts.join(t, name)
		if !c.Position().Valid() {
			t.Errorf("%q got position %v", name, c.Position())
		}
	}
	eventually(t, "both players in the room", func() bool { return ts.Room().Len() == 2 })
}

// failedAck runs a handshake whose player hangs up before the
// acknowledgment can be written.
func failedAck(t *testing.T, s *Server) {
	t.Helper()
	server, player := net.Pipe()

	s.wg.Add(1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleConn(context.Background(), server)
	}()

	if _, err := player.Write([]byte("mallory\n")); err != nil {
		t.Fatal(err)
	}
	player.Close()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("handler did not return")
	}
}

func TestFailedAckDoesNotFreeOneShotSlot(t *testing.T) {
	s := New(config.Default())
	for i := 0; i < position.MaxPlayers-1; i++ {
		s.Pool().Acquire()
	}

	failedAck(t, s)

	if got := s.Stats().FreeSlots; got != 0 {
		t.Errorf("FreeSlots = %d after failed join, want 0", got)
	}
	if s.Room().Len() != 0 {
		t.Errorf("room has %d players, want 0", s.Room().Len())
	}
	if s.Loop().Started() {
		t.Error("broadcast loop started without a joined player")
	}
}

func TestFailedAckFreesRecycledSlot(t *testing.T) {
	cfg := config.Default()
	cfg.RecycleSlots = true
	s := New(cfg)
	for i := 0; i < position.MaxPlayers-1; i++ {
		s.Pool().Acquire()
	}

	failedAck(t, s)

	if got := s.Stats().FreeSlots; got != 1 {
		t.Errorf("FreeSlots = %d after failed join, want 1", got)
	}
}

func TestHandshakeTimeout(t *testing.T) {
	ts := startServer(t, func(c *config.Config) { c.HandshakeTimeout = 50 * time.Millisecond })

	conn, err := net.Dial("tcp", ts.addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(waitFor))
	buf := make([]byte, 16)
	if n, err := conn.Read(buf); err == nil {
		t.Fatalf("read %q from a silent connection, want close", buf[:n])
	}
	if ts.Pool().Available() != position.MaxPlayers {
		t.Errorf("silent connection consumed a position")
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	ts := startServer(t, nil)
	alice := ts.join(t, "alice")
	next(t, alice)

	ts.cancel()
	select {
	case err := <-ts.errc:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
		ts.errc <- nil
	case <-time.After(waitFor):
		t.Fatal("Serve did not return")
	}

	alice.SetReadDeadline(time.Now().Add(waitFor))
	for {
		if _, err := alice.Next(); err != nil {
			if !protocol.IsDisconnect(err) {
				t.Fatalf("err = %v, want disconnect", err)
			}
			break
		}
	}
}

func TestListenAndServeBindError(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer taken.Close()

	cfg := config.Default()
	cfg.ListenAddr = taken.Addr().String()

	err = New(cfg).ListenAndServe(context.Background())
	var ce *protocol.ConnectError
	if !errors.As(err, &ce) || ce.Op != "listen" {
		t.Fatalf("err = %v, want listen ConnectError", err)
	}
}

func TestSpectatorSeesPlayers(t *testing.T) {
	ts := startServer(t, nil)

	web := httptest.NewServer(ts.Spectators().Handler())
	defer web.Close()

	url := "ws" + strings.TrimPrefix(web.URL, "http") + "/spectate?format=json"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()
	eventually(t, "spectator to register", func() bool { return ts.Spectators().Count() == 1 })

	ts.join(t, "alice")

	ws.SetReadDeadline(time.Now().Add(waitFor))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	snap, err := game.DecodeState(msg)
	if err != nil {
		t.Fatalf("spectator frame: %v", err)
	}
	if _, ok := snap.Paddles[position.Top]; !ok {
		t.Errorf("spectator frame missing top paddle: %s", msg)
	}

	st := ts.Stats()
	if st.Players != 1 || st.FreeSlots != 3 || st.Tick == 0 {
		t.Errorf("stats = %+v", st)
	}
}
