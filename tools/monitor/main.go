package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/tendermint/tendermint/libs/log"
	jsonrpc "github.com/tendermint/tendermint/rpc/jsonrpc/types"
)

const (
	sendTimeout = 10 * time.Second
	// see https://github.com/tendermint/tendermint/blob/master/rpc/lib/server/handlers.go
	pingPeriod = (30 * 9 / 10) * time.Second
)

type resultStatus struct {
	NodeStatus    string `json:"node_status"`
	Round         uint64 `json:"current_round"`
	Height        uint32 `json:"block_height"`
	CommitteeSize int    `json:"committee_size"`
	BatchRounds   int    `json:"batch_rounds"`
}

// monitor polls a node's status endpoint over websocket and keeps rolling
// statistics on response latency and round progress.
type monitor struct {
	Target   string
	Interval time.Duration

	conn *websocket.Conn

	latency metrics.Histogram
	rounds  metrics.Meter

	lastRound uint64
	stopped   bool

	logger log.Logger
}

func newMonitor(target string, interval time.Duration) *monitor {
	return &monitor{
		Target:   target,
		Interval: interval,
		latency:  metrics.NewHistogram(metrics.NewUniformSample(1000)),
		rounds:   metrics.NewMeter(),
		logger:   log.NewNopLogger(),
	}
}

func (m *monitor) SetLogger(l log.Logger) {
	m.logger = l
}

func connect(host string) (*websocket.Conn, *http.Response, error) {
	u := url.URL{Scheme: "ws", Host: host, Path: "/websocket"}
	return websocket.DefaultDialer.Dial(u.String(), nil)
}

func (m *monitor) Start() error {
	c, _, err := connect(m.Target)
	if err != nil {
		return err
	}
	m.conn = c
	return nil
}

func (m *monitor) Stop() {
	m.stopped = true
	if m.conn != nil {
		m.conn.Close()
	}
}

// poll sends one status request and folds the response into the stats.
func (m *monitor) poll(id int) error {
	req := jsonrpc.RPCRequest{
		JSONRPC: "2.0",
		ID:      jsonrpc.JSONRPCIntID(id),
		Method:  "status",
	}

	m.conn.SetWriteDeadline(time.Now().Add(sendTimeout))
	start := time.Now()
	if err := m.conn.WriteJSON(req); err != nil {
		return err
	}

	var resp jsonrpc.RPCResponse
	m.conn.SetReadDeadline(time.Now().Add(sendTimeout))
	if err := m.conn.ReadJSON(&resp); err != nil {
		return err
	}
	m.latency.Update(time.Since(start).Microseconds())

	if resp.Error != nil {
		return fmt.Errorf("rpc error: %v", resp.Error)
	}

	var status resultStatus
	if err := json.Unmarshal(resp.Result, &status); err != nil {
		return err
	}

	if status.Round > m.lastRound {
		m.rounds.Mark(int64(status.Round - m.lastRound))
		m.lastRound = status.Round
	}

	m.logger.Info("status",
		"node", status.NodeStatus,
		"round", status.Round,
		"height", status.Height,
		"committee", status.CommitteeSize,
		"batch_rounds", status.BatchRounds,
	)
	return nil
}

func (m *monitor) printSummary() {
	fmt.Printf("polls:            %d\n", m.latency.Count())
	fmt.Printf("latency mean:     %.0fus\n", m.latency.Mean())
	fmt.Printf("latency p95:      %.0fus\n", m.latency.Percentile(0.95))
	fmt.Printf("rounds observed:  %d\n", m.rounds.Count())
	fmt.Printf("rounds/sec (1m):  %.2f\n", m.rounds.Rate1())
}

func main() {
	var (
		target   = flag.String("target", "127.0.0.1:26657", "node RPC address")
		interval = flag.Duration("interval", time.Second, "poll interval")
		duration = flag.Duration("duration", 30*time.Second, "how long to poll before printing a summary")
		verbose  = flag.Bool("v", false, "log every status response")
	)
	flag.Parse()

	m := newMonitor(*target, *interval)
	if *verbose {
		m.SetLogger(log.NewTMLogger(log.NewSyncWriter(os.Stdout)))
	}

	if err := m.Start(); err != nil {
		fmt.Printf("failed to connect to %v: %v\n", *target, err)
		os.Exit(1)
	}
	defer m.Stop()

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	deadline := time.After(*duration)

	for id := 0; ; id++ {
		select {
		case <-deadline:
			m.printSummary()
			return
		case <-ticker.C:
			if err := m.poll(id); err != nil {
				fmt.Printf("poll failed: %v\n", err)
				os.Exit(1)
			}
		}
	}
}
