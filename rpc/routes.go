package rpc

import rpc "github.com/tendermint/tendermint/rpc/jsonrpc/server"

var Routes = map[string]*rpc.RPCFunc{
	"status":                rpc.NewRPCFunc(Status, ""),
	"committee":             rpc.NewRPCFunc(Committee, ""),
	"thresholds":            rpc.NewRPCFunc(Thresholds, ""),
	"sealed_batches":        rpc.NewRPCFunc(SealedBatches, "round"),
	"previous_certificates": rpc.NewRPCFunc(PreviousCertificates, "round"),
	"metrics":               rpc.NewRPCFunc(JSONMetrics, "label"),
}
