package watch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Subject returns the NATS subject for a pool: <prefix>.<chainId>.<poolId>.
func Subject(prefix string, chainID uint64, poolID string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "pool"
	}
	return fmt.Sprintf("%s.%d.%s", prefix, chainID, strings.ToLower(poolID))
}

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	PublishMsg(msg *nats.Msg) error
}

// NATSPublisher publishes snapshots as JSON.
type NATSPublisher struct {
	conn   Conn
	nc     *nats.Conn
	prefix string
}

// DialNATS connects to url with reconnects enabled.
func DialNATS(url, prefix string) (*NATSPublisher, error) {
	nc, err := nats.Connect(
		url,
		nats.Name("prediction-scope-watch"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(250*time.Millisecond),
		nats.PingInterval(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{conn: nc, nc: nc, prefix: prefix}, nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Publish sends obs.Snapshot to its pool subject.
func (p *NATSPublisher) Publish(_ context.Context, obs Observation) error {
	if p == nil || p.conn == nil {
		return errors.New("nats publisher is not connected")
	}
	data, err := json.Marshal(obs.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	msg := &nats.Msg{
		Subject: Subject(p.prefix, obs.Snapshot.ChainID, obs.Snapshot.PoolID),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("scope-block", strconv.FormatUint(obs.Snapshot.BlockNumber, 10))
	return p.conn.PublishMsg(msg)
}

// Close drains the connection if the publisher dialed it.
func (p *NATSPublisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	_ = p.nc.Drain()
	p.nc.Close()
}
