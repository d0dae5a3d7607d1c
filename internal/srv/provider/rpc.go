package provider

import (
	"context"
	"errors"
	"fmt"
	"github.com/btcsuite/btcd/btcjson"
	"github.com/jypelle/btclcd/internal/srv/config"
	"github.com/jypelle/btclcd/internal/srv/snapshot"
	"net/http"
	"sync/atomic"
	"time"
)

// Fee estimation targets, in blocks
const (
	HighPriorityTarget   = 1
	MediumPriorityTarget = 6
)

// RpcInWarmup is the bitcoind error code while the node is starting
const RpcInWarmup btcjson.RPCErrorCode = -28

// InWarmup reports whether err is the node still loading its block index
func InWarmup(err error) bool {
	var rpcErr *btcjson.RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == RpcInWarmup
}

// RpcClient talks JSON-RPC 1.0 to bitcoind, every call is bounded by ctx
type RpcClient struct {
	url    string
	auth   *basicAuth
	client *http.Client
	nextId uint64
}

func NewRpcClient(param config.RpcParam, timeout time.Duration) *RpcClient {
	return &RpcClient{
		url:    param.GetUrl(),
		auth:   &basicAuth{username: param.GetUsername(), password: param.GetPassword()},
		client: newHttpClient(timeout),
	}
}

// Call sends a btcjson command and decodes its result into out
func (c *RpcClient) Call(ctx context.Context, cmd interface{}, out interface{}) error {
	method, err := btcjson.CmdMethod(cmd)
	if err != nil {
		return err
	}
	request, err := btcjson.MarshalCmd(btcjson.RpcVersion1, atomic.AddUint64(&c.nextId, 1), cmd)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	var response btcjson.Response
	if err := do(ctx, c.client, http.MethodPost, c.url, c.auth, request, &response); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if response.Error != nil {
		return fmt.Errorf("%s: %w", method, response.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(response.Result, out); err != nil {
		return fmt.Errorf("%s: unable to decode result: %w", method, err)
	}
	return nil
}

func (c *RpcClient) BlockCount(ctx context.Context) (int64, error) {
	var count int64
	err := c.Call(ctx, btcjson.NewGetBlockCountCmd(), &count)
	return count, err
}

func (c *RpcClient) ConnectionCount(ctx context.Context) (int64, error) {
	var count int64
	err := c.Call(ctx, btcjson.NewGetConnectionCountCmd(), &count)
	return count, err
}

func (c *RpcClient) MempoolInfo(ctx context.Context) (*btcjson.GetMempoolInfoResult, error) {
	var info btcjson.GetMempoolInfoResult
	if err := c.Call(ctx, btcjson.NewGetMempoolInfoCmd(), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *RpcClient) BlockchainInfo(ctx context.Context) (*btcjson.GetBlockChainInfoResult, error) {
	var info btcjson.GetBlockChainInfoResult
	if err := c.Call(ctx, btcjson.NewGetBlockChainInfoCmd(), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *RpcClient) EstimateSmartFee(ctx context.Context, target int64) (*btcjson.EstimateSmartFeeResult, error) {
	var fee btcjson.EstimateSmartFeeResult
	if err := c.Call(ctx, btcjson.NewEstimateSmartFeeCmd(target, nil), &fee); err != nil {
		return nil, err
	}
	return &fee, nil
}

// SatPerVByte converts an estimatesmartfee rate in BTC/kvB to sat/vB
func SatPerVByte(fee *btcjson.EstimateSmartFeeResult) (float64, bool) {
	if fee == nil || fee.FeeRate == nil || *fee.FeeRate <= 0 {
		return 0, false
	}
	return *fee.FeeRate * 1e8 / 1000, true
}

// ChainMetrics are the snapshot metrics read from the node
var ChainMetrics = []snapshot.Metric{
	snapshot.BlockHeight,
	snapshot.MempoolSize,
	snapshot.FeeHigh,
	snapshot.FeeMedium,
	snapshot.Peers,
	snapshot.ChainSize,
}

// FetchChainMetric reads a single chain metric from the node
func (c *RpcClient) FetchChainMetric(ctx context.Context, metric snapshot.Metric) (float64, error) {
	switch metric {
	case snapshot.BlockHeight:
		count, err := c.BlockCount(ctx)
		return float64(count), err
	case snapshot.MempoolSize:
		info, err := c.MempoolInfo(ctx)
		if err != nil {
			return 0, err
		}
		return float64(info.Size), nil
	case snapshot.FeeHigh, snapshot.FeeMedium:
		target := int64(HighPriorityTarget)
		if metric == snapshot.FeeMedium {
			target = MediumPriorityTarget
		}
		fee, err := c.EstimateSmartFee(ctx, target)
		if err != nil {
			return 0, err
		}
		rate, ok := SatPerVByte(fee)
		if !ok {
			return 0, fmt.Errorf("no fee estimate for %d blocks: %v", target, fee.Errors)
		}
		return rate, nil
	case snapshot.Peers:
		count, err := c.ConnectionCount(ctx)
		return float64(count), err
	case snapshot.ChainSize:
		info, err := c.BlockchainInfo(ctx)
		if err != nil {
			return 0, err
		}
		if info.SizeOnDisk <= 0 {
			return 0, fmt.Errorf("node reports no chain size")
		}
		return float64(info.SizeOnDisk), nil
	}
	return 0, fmt.Errorf("%s is not a chain metric", metric)
}
