package discovery

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sort"
	"sync"
	"time"
)

const (
	// DefaultPort is the UDP port spectator feeds are advertised on.
	DefaultPort = 9998
	// BroadcastInterval is how often a host advertises its feed.
	BroadcastInterval = 1 * time.Second
	// FeedExpiry is how long a feed stays visible after its last broadcast.
	FeedExpiry = 4 * time.Second
)

// FeedInfo describes a spectator feed on the network.
type FeedInfo struct {
	Host string `json:"host"`
	// Board is the board size, e.g. "10x20".
	Board    string `json:"board"`
	Watchers int    `json:"watchers"`
	// Addr is the TCP host:port of the feed.
	Addr string `json:"addr"`
}

// --- Broadcaster ---

// Broadcaster periodically sends UDP broadcast packets describing a feed.
type Broadcaster struct {
	info     FeedInfo
	port     int
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
}

// NewBroadcaster creates a feed advertiser sending to the given UDP port.
func NewBroadcaster(info FeedInfo, port int) *Broadcaster {
	return &Broadcaster{
		info: info,
		port: port,
		done: make(chan struct{}),
	}
}

// UpdateWatchers updates the advertised watcher count.
func (b *Broadcaster) UpdateWatchers(count int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.info.Watchers = count
}

// Start begins broadcasting feed info via UDP.
func (b *Broadcaster) Start() error {
	// Use ListenPacket (not DialUDP) so broadcast works on Linux.
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return fmt.Errorf("create broadcast socket: %w", err)
	}
	go b.broadcastLoop(conn)
	return nil
}

// Stop stops the broadcaster.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() { close(b.done) })
}

func (b *Broadcaster) broadcastLoop(conn net.PacketConn) {
	defer conn.Close()

	ticker := time.NewTicker(BroadcastInterval)
	defer ticker.Stop()

	// Send immediately on start, then on tick
	b.sendBroadcast(conn)

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.sendBroadcast(conn)
		}
	}
}

func (b *Broadcaster) sendBroadcast(conn net.PacketConn) {
	b.mu.Lock()
	data, err := json.Marshal(b.info)
	b.mu.Unlock()
	if err != nil {
		log.Printf("[DISCOVERY] Failed to encode feed info: %v", err)
		return
	}

	// Loopback first: 255.255.255.255 is often dropped by the local firewall.
	conn.WriteTo(data, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: b.port})
	conn.WriteTo(data, &net.UDPAddr{IP: net.IPv4bcast, Port: b.port})
	b.broadcastOnInterfaces(conn, data)
}

// broadcastOnInterfaces sends to each interface's broadcast address as a fallback.
func (b *Broadcaster) broadcastOnInterfaces(conn net.PacketConn, data []byte) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagBroadcast == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil || len(ipnet.Mask) != net.IPv4len {
				continue
			}
			conn.WriteTo(data, &net.UDPAddr{IP: broadcastAddr(ipnet), Port: b.port})
		}
	}
}

// broadcastAddr returns IP | ^Mask for an IPv4 network.
func broadcastAddr(ipnet *net.IPNet) net.IP {
	ip4 := ipnet.IP.To4()
	broadcast := make(net.IP, net.IPv4len)
	for i := range broadcast {
		broadcast[i] = ip4[i] | ^ipnet.Mask[i]
	}
	return broadcast
}

// --- Listener ---

type seenFeed struct {
	info     FeedInfo
	lastSeen time.Time
}

// Listener collects spectator feed advertisements.
type Listener struct {
	port  int
	feeds map[string]*seenFeed // keyed by Addr
	mu    sync.RWMutex
	conn  *net.UDPConn
	done  chan struct{}
}

// NewListener creates a listener for the given UDP port. Port 0 picks a free one.
func NewListener(port int) *Listener {
	return &Listener{
		port:  port,
		feeds: make(map[string]*seenFeed),
		done:  make(chan struct{}),
	}
}

// Start begins listening for feed broadcasts.
func (l *Listener) Start() error {
	var err error
	l.conn, err = net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: l.port})
	if err != nil {
		return fmt.Errorf("listen UDP on port %d: %w (is another watcher browsing?)", l.port, err)
	}

	go l.listenLoop()
	go l.cleanupLoop()

	return nil
}

// Addr returns the UDP address being listened on. It is nil before Start.
func (l *Listener) Addr() net.Addr {
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Stop stops the listener.
func (l *Listener) Stop() {
	select {
	case <-l.done:
	default:
		close(l.done)
	}
	if l.conn != nil {
		l.conn.Close()
	}
}

// Feeds returns the currently visible feeds ordered by host name.
func (l *Listener) Feeds() []FeedInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()

	feeds := make([]FeedInfo, 0, len(l.feeds))
	for _, f := range l.feeds {
		feeds = append(feeds, f.info)
	}
	sort.Slice(feeds, func(i, j int) bool {
		if feeds[i].Host != feeds[j].Host {
			return feeds[i].Host < feeds[j].Host
		}
		return feeds[i].Addr < feeds[j].Addr
	})
	return feeds
}

func (l *Listener) listenLoop() {
	buf := make([]byte, 4096)
	for {
		select {
		case <-l.done:
			return
		default:
		}

		l.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, src, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}

		var info FeedInfo
		if err := json.Unmarshal(buf[:n], &info); err != nil {
			continue
		}
		l.record(resolveAddr(info, src), time.Now())
	}
}

func (l *Listener) record(info FeedInfo, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.feeds[info.Addr] = &seenFeed{info: info, lastSeen: now}
}

func (l *Listener) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case now := <-ticker.C:
			l.expire(now)
		}
	}
}

// expire drops feeds not heard from within FeedExpiry of now.
func (l *Listener) expire(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for addr, f := range l.feeds {
		if now.Sub(f.lastSeen) > FeedExpiry {
			delete(l.feeds, addr)
		}
	}
}

// resolveAddr replaces an empty or wildcard feed host with the address
// the advertisement came from. A feed listening on ":9999" only knows its port.
func resolveAddr(info FeedInfo, src *net.UDPAddr) FeedInfo {
	host, port, err := net.SplitHostPort(info.Addr)
	if err != nil || src == nil {
		return info
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		info.Addr = net.JoinHostPort(src.IP.String(), port)
	}
	return info
}
