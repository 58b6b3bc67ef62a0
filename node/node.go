package node

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	cfg "github.com/tendermint/tendermint/config"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/service"
	rpcserver "github.com/tendermint/tendermint/rpc/jsonrpc/server"

	"dagbft_demo/consensus"
	"dagbft_demo/libs/metric"
	"dagbft_demo/libs/tasks"
	"dagbft_demo/rpc"
	"dagbft_demo/store"
	"dagbft_demo/types"
)

// Status is the node's lifecycle state. It gates whether background work may
// run; every protocol task can read it, only the node writes it.
type Status uint32

const (
	StatusIdle Status = iota
	StatusMining
	StatusSyncing
	StatusShuttingDown
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusMining:
		return "Mining"
	case StatusSyncing:
		return "Syncing"
	case StatusShuttingDown:
		return "ShuttingDown"
	default:
		return "Unknown"
	}
}

const (
	// defaultRetainRounds is how many recent rounds of sealed batches stay
	// in memory; older rounds are archived and pruned.
	defaultRetainRounds = 64

	defaultPruneInterval = 30 * time.Second
)

type Provider func(*cfg.Config, log.Logger) (*Node, error)

// DefaultNewNode loads the genesis committee and wires a node with a
// disk-backed batch archive.
func DefaultNewNode(config *cfg.Config, logger log.Logger) (*Node, error) {
	genDoc, err := types.GenesisDocFromFile(config.GenesisFile())
	if err != nil {
		return nil, err
	}

	shared := consensus.NewSharedState(genDoc.InitialRound, genDoc.InitialHeight)
	for _, val := range genDoc.Validators {
		if err := shared.AddValidator(val.Address, val.Stake); err != nil {
			return nil, err
		}
	}

	archive, err := store.NewBatchStore("batch_archive", config.DBDir(), logger.With("module", "store"))
	if err != nil {
		return nil, err
	}

	node := NewNode(config, shared, archive)
	node.SetLogger(logger.With("module", "node"))
	return node, nil
}

// Node is the lifecycle controller for the consensus process: a status state
// machine plus the registry of background tasks it drains on shutdown. It
// owns the shared consensus state for the duration of the process but never
// inspects its internals beyond the pruning hook.
type Node struct {
	service.BaseService

	config *cfg.Config

	shared  *consensus.SharedState
	archive *store.BatchStore

	status uint32
	tasks  *tasks.Tasks

	quitCh   chan struct{}
	quitOnce sync.Once

	retainRounds  uint64
	pruneInterval time.Duration

	metricSet    *metric.MetricSet
	rpcListeners []net.Listener
}

type NodeOption func(*Node)

// RetainRounds overrides how many recent sealed-batch rounds stay in memory.
func RetainRounds(n uint64) NodeOption {
	return func(node *Node) {
		node.retainRounds = n
	}
}

// PruneInterval overrides how often the retention loop runs.
func PruneInterval(d time.Duration) NodeOption {
	return func(node *Node) {
		node.pruneInterval = d
	}
}

// NewNode wires a lifecycle controller around the given shared state. The
// archive may be nil, in which case pruned rounds are dropped instead of
// archived.
func NewNode(config *cfg.Config, shared *consensus.SharedState, archive *store.BatchStore, options ...NodeOption) *Node {
	node := &Node{
		config:        config,
		shared:        shared,
		archive:       archive,
		status:        uint32(StatusIdle),
		tasks:         tasks.NewTasks(),
		quitCh:        make(chan struct{}),
		retainRounds:  defaultRetainRounds,
		pruneInterval: defaultPruneInterval,
		metricSet:     metric.NewMetricSet(),
	}
	node.BaseService = *service.NewBaseService(nil, "Node", node)

	if err := node.metricSet.Register("consensus", consensus.NewSharedMetric(shared)); err != nil {
		panic(err)
	}

	for _, option := range options {
		option(node)
	}
	return node
}

// Shared returns the consensus state this node manages.
func (n *Node) Shared() *consensus.SharedState {
	return n.shared
}

// MetricSet returns the node's metric registry.
func (n *Node) MetricSet() *metric.MetricSet {
	return n.metricSet
}

// Status returns the current status of the node.
func (n *Node) Status() Status {
	return Status(atomic.LoadUint32(&n.status))
}

// SetStatus updates the node to the given status. Setting
// StatusShuttingDown additionally blocks until every registered background
// task has finished; once entered, that status is terminal.
func (n *Node) SetStatus(status Status) {
	atomic.StoreUint32(&n.status, uint32(status))
	if status == StatusShuttingDown {
		n.quitOnce.Do(func() { close(n.quitCh) })
		n.tasks.Wait()
	}
}

// Quitting is closed once shutdown has been signaled. Background tasks
// spawned via SpawnTask should select on it.
func (n *Node) Quitting() <-chan struct{} {
	return n.quitCh
}

// SpawnTask runs fn as a registered background task. Shutdown blocks until
// fn returns, so fn must watch Quitting.
func (n *Node) SpawnTask(name string, fn func()) {
	n.tasks.Spawn(name, fn)
}

// ShutDown disconnects the node's peers and proceeds to shut it down.
func (n *Node) ShutDown() {
	n.Logger.Info("shutting down", "tasks", n.tasks.Running())
	n.SetStatus(StatusShuttingDown)
	n.shared.RemoveAllPeers()
	n.Logger.Info("shutdown complete")
}

func (n *Node) OnStart() error {
	n.tasks.SetLogger(n.Logger)

	if n.config.RPC.ListenAddress != "" {
		listeners, err := n.startRPC()
		if err != nil {
			return err
		}
		n.rpcListeners = listeners
	}

	n.tasks.Spawn("retention", n.retentionRoutine)
	return nil
}

func (n *Node) OnStop() {
	n.ShutDown()
	if n.archive != nil {
		if err := n.archive.Close(); err != nil {
			n.Logger.Error("failed to close batch archive", "err", err)
		}
	}
}

// startRPC exposes the query surface over tendermint's JSON-RPC server
// (HTTP and websocket). The listener is closed when shutdown is signaled,
// which unblocks the serving task.
func (n *Node) startRPC() ([]net.Listener, error) {
	rpc.SetEnvironment(&rpc.Environment{
		Shared:    n.shared,
		Status:    func() string { return n.Status().String() },
		MetricSet: n.metricSet,
	})

	rpcLogger := n.Logger.With("module", "rpc-server")
	serverCfg := rpcserver.DefaultConfig()

	mux := http.NewServeMux()
	wm := rpcserver.NewWebsocketManager(rpc.Routes)
	wm.SetLogger(rpcLogger)
	mux.HandleFunc("/websocket", wm.WebsocketHandler)
	rpcserver.RegisterRPCFuncs(mux, rpc.Routes, rpcLogger)

	listener, err := rpcserver.Listen(n.config.RPC.ListenAddress, serverCfg)
	if err != nil {
		return nil, err
	}

	go func() {
		<-n.quitCh
		listener.Close()
	}()
	n.tasks.Spawn("rpc-server", func() {
		if err := rpcserver.Serve(listener, mux, rpcLogger, serverCfg); err != nil {
			rpcLogger.Debug("rpc server stopped", "err", err)
		}
	})

	return []net.Listener{listener}, nil
}

// retentionRoutine periodically evicts sealed-batch rounds that fell out of
// the in-memory window, archiving them first.
func (n *Node) retentionRoutine() {
	ticker := time.NewTicker(n.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.quitCh:
			return
		case <-ticker.C:
			n.pruneBatches()
		}
	}
}

func (n *Node) pruneBatches() {
	round := n.shared.Round()
	if round <= n.retainRounds {
		return
	}
	cutoff := round - n.retainRounds

	pruned := n.shared.PruneRounds(cutoff)
	if pruned == nil {
		return
	}

	for prunedRound, batches := range pruned {
		if n.archive == nil {
			continue
		}
		if err := n.archive.SaveRound(prunedRound, batches); err != nil {
			n.Logger.Error("failed to archive pruned round", "round", prunedRound, "err", err)
		}
	}
	n.Logger.Info("pruned sealed batches", "cutoff", cutoff, "rounds", len(pruned))
}
