// Package adminpb defines the wire messages for the admin introspection
// service (internal/adminrpc). It follows the pre-protoc-gen-go-v2 pattern
// of hand-written structs carrying `protobuf:"..."` struct tags and the
// legacy Reset/String/ProtoMessage trio: google.golang.org/protobuf's legacy
// support (internal/impl's legacy message wrapper) marshals these via
// struct-tag reflection with no generated descriptor required, so this
// package needs no protoc step to be wire-compatible with any real gRPC
// peer speaking the same field numbers.
package adminpb

import (
	fmt "fmt"

	proto "github.com/golang/protobuf/proto"
)

// DumpRequest asks the leader for its current RIB.
type DumpRequest struct {
	// Neighbor restricts the dump to routes whose next hop is that
	// neighbor, or the empty string to dump the whole table.
	Neighbor string `protobuf:"bytes,1,opt,name=neighbor,proto3" json:"neighbor,omitempty"`
}

func (m *DumpRequest) Reset()         { *m = DumpRequest{} }
func (m *DumpRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*DumpRequest) ProtoMessage()    {}

// Route is one RIB row in a DumpResponse.
type Route struct {
	Network string `protobuf:"bytes,1,opt,name=network,proto3" json:"network,omitempty"`
	Netmask string `protobuf:"bytes,2,opt,name=netmask,proto3" json:"netmask,omitempty"`
	Peer    string `protobuf:"bytes,3,opt,name=peer,proto3" json:"peer,omitempty"`
}

func (m *Route) Reset()         { *m = Route{} }
func (m *Route) String() string { return fmt.Sprintf("%+v", *m) }
func (*Route) ProtoMessage()    {}

// DumpResponse carries every route the leader currently holds.
type DumpResponse struct {
	Routes []*Route `protobuf:"bytes,1,rep,name=routes,proto3" json:"routes,omitempty"`
}

func (m *DumpResponse) Reset()         { *m = DumpResponse{} }
func (m *DumpResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*DumpResponse) ProtoMessage()    {}

// StatsRequest has no fields; it asks for aggregate counters.
type StatsRequest struct{}

func (m *StatsRequest) Reset()         { *m = StatsRequest{} }
func (m *StatsRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*StatsRequest) ProtoMessage()    {}

// NeighborStats reports per-neighbor ledger depth, matching
// dispatch.Dispatcher's UpdateLedgerLen/RevokeLedgerLen introspection.
type NeighborStats struct {
	Neighbor    string `protobuf:"bytes,1,opt,name=neighbor,proto3" json:"neighbor,omitempty"`
	UpdateCount int64  `protobuf:"varint,2,opt,name=update_count,json=updateCount,proto3" json:"update_count,omitempty"`
	RevokeCount int64  `protobuf:"varint,3,opt,name=revoke_count,json=revokeCount,proto3" json:"revoke_count,omitempty"`
}

func (m *NeighborStats) Reset()         { *m = NeighborStats{} }
func (m *NeighborStats) String() string { return fmt.Sprintf("%+v", *m) }
func (*NeighborStats) ProtoMessage()    {}

// StatsResponse reports whole-router and per-neighbor counters.
type StatsResponse struct {
	RouteCount int64            `protobuf:"varint,1,opt,name=route_count,json=routeCount,proto3" json:"route_count,omitempty"`
	IsLeader   bool             `protobuf:"varint,2,opt,name=is_leader,json=isLeader,proto3" json:"is_leader,omitempty"`
	Neighbors  []*NeighborStats `protobuf:"bytes,3,rep,name=neighbors,proto3" json:"neighbors,omitempty"`
}

func (m *StatsResponse) Reset()         { *m = StatsResponse{} }
func (m *StatsResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*StatsResponse) ProtoMessage()    {}

var (
	_ proto.Message = (*DumpRequest)(nil)
	_ proto.Message = (*DumpResponse)(nil)
	_ proto.Message = (*Route)(nil)
	_ proto.Message = (*StatsRequest)(nil)
	_ proto.Message = (*StatsResponse)(nil)
	_ proto.Message = (*NeighborStats)(nil)
)
