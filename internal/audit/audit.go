// Package audit exports every RIB-mutating event (update, revoke,
// aggregation) as a JSON document into Elasticsearch, using the same
// elasticsearch.NewClient + esutil.NewBulkIndexer pattern as the teacher's
// cmd/exporter/main.go. It is entirely best-effort: a failure to index never
// affects route processing, since the RIB is authoritative and Elasticsearch
// is only a queryable side-channel per SPEC_FULL.md.
package audit

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"flag"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"github.com/rrelay/bgpd/internal/message"
	"github.com/rrelay/bgpd/internal/prefix"
	"github.com/rrelay/bgpd/internal/rib"
	"github.com/rrelay/bgpd/pkg/logging"
)

var (
	enabled = flag.Bool("audit.elastic", false, "export RIB events to Elasticsearch")
	host    = flag.String("audit.elastic.host", "localhost", "Elasticsearch host")
	esPort  = flag.Int("audit.elastic.port", 9200, "Elasticsearch port")
	user    = flag.String("audit.elastic.user", "elastic", "Elasticsearch username")
	pass    = flag.String("audit.elastic.pass", "", "Elasticsearch password")
	index   = flag.String("audit.elastic.index", "bgpd-events", "Elasticsearch index name")
)

// Sink exports events to Elasticsearch. A nil *Sink from NewSink (when
// -audit.elastic is unset) has every method as a safe no-op.
type Sink struct {
	indexer esutil.BulkIndexer
	name    string
	logger  *logging.Logger
}

// NewSink builds an Elasticsearch-backed Sink, or returns (nil, nil) when
// auditing is disabled — callers pass the nil Sink straight to
// dispatch.Dispatcher.SetAudit, which already tolerates a nil interface.
func NewSink(logger *logging.Logger) (*Sink, error) {
	if !*enabled {
		return nil, nil
	}

	cfg := elasticsearch.Config{
		Addresses: []string{fmtHostPort(*host, *esPort)},
		Username:  *user,
		Password:  *pass,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	indexer, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         *index,
		Client:        client,
		FlushInterval: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	return &Sink{indexer: indexer, name: *index, logger: logger}, nil
}

type event struct {
	Kind      string    `json:"kind"`
	Neighbor  string    `json:"neighbor,omitempty"`
	Prefix    string    `json:"prefix,omitempty"`
	Timestamp time.Time `json:"@timestamp"`
	Detail    any       `json:"detail,omitempty"`
}

func (s *Sink) send(e event) {
	if s == nil {
		return
	}
	body, err := json.Marshal(e)
	if err != nil {
		s.logger.Errorf("audit: marshaling event: %v", err)
		return
	}
	err = s.indexer.Add(context.Background(), esutil.BulkIndexerItem{
		Action: "index",
		Body:   bytes.NewReader(body),
		OnFailure: func(_ context.Context, _ esutil.BulkIndexerItem, resp esutil.BulkIndexerResponseItem, err error) {
			if err != nil {
				s.logger.Errorf("audit: indexing failed: %v", err)
			} else {
				s.logger.Errorf("audit: indexing failed: %s: %s", resp.Error.Type, resp.Error.Reason)
			}
		},
	})
	if err != nil {
		s.logger.Errorf("audit: enqueue: %v", err)
	}
}

// RecordUpdate implements dispatch.Audit.
func (s *Sink) RecordUpdate(src rib.NeighborID, body message.UpdateBody) {
	if s == nil {
		return
	}
	s.send(event{Kind: "update", Neighbor: string(src), Prefix: body.Network + "/" + body.Netmask, Timestamp: time.Now(), Detail: body})
}

// RecordRevoke implements dispatch.Audit.
func (s *Sink) RecordRevoke(src rib.NeighborID, entries []message.RevokeEntry) {
	if s == nil {
		return
	}
	s.send(event{Kind: "revoke", Neighbor: string(src), Timestamp: time.Now(), Detail: entries})
}

// RecordAggregation implements dispatch.Audit.
func (s *Sink) RecordAggregation(a, b rib.Entry, parent prefix.Prefix) {
	if s == nil {
		return
	}
	s.send(event{
		Kind:      "aggregate",
		Prefix:    parent.String(),
		Timestamp: time.Now(),
		Detail:    map[string]string{"a": a.Prefix.String(), "b": b.Prefix.String(), "next_hop": string(a.NextHop)},
	})
}

// Close flushes and closes the underlying bulk indexer.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	return s.indexer.Close(context.Background())
}

func fmtHostPort(host string, port int) string {
	return "https://" + host + ":" + strconv.Itoa(port)
}
