// Package dispatch implements spec.md §4.5: classify an inbound message by
// type and route it to the update, revoke, data-forward, or dump handler,
// mutating the RIB and driving the export filter as needed.
package dispatch

import (
	"github.com/pkg/errors"

	"github.com/rrelay/bgpd/internal/message"
	"github.com/rrelay/bgpd/internal/policy"
	"github.com/rrelay/bgpd/internal/prefix"
	"github.com/rrelay/bgpd/internal/rib"
)

// Sender is the narrow slice of neighbor.IO the dispatcher needs: encode and
// hand a frame to a specific neighbor.
type Sender interface {
	Send(id rib.NeighborID, frame []byte) error
}

// Audit receives a record of every state-changing event, for optional
// external export (see internal/audit). A nil Audit is valid; Dispatcher
// checks before calling.
type Audit interface {
	RecordUpdate(src rib.NeighborID, body message.UpdateBody)
	RecordRevoke(src rib.NeighborID, entries []message.RevokeEntry)
	RecordAggregation(a, b rib.Entry, parent prefix.Prefix)
}

// Metrics receives counters for optional external export (see
// internal/telemetry). A nil Metrics is valid.
type Metrics interface {
	IncUpdates()
	IncRevokes()
	IncNoRoute()
	IncDataForwarded()
	SetRouteCount(n int)
}

// Dispatcher owns the RIB and ledgers for one router instance and drives the
// update/revoke/data/dump handlers. It is not safe for concurrent use by
// design (spec.md §5: single-threaded cooperative event loop owns all
// mutable state).
type Dispatcher struct {
	ASN       int
	Local     rib.NeighborID
	Neighbors []rib.NeighborID
	Relations policy.Table

	RIB *rib.RIB

	// updateLedger records every accepted "update" body verbatim, keyed by
	// the neighbor that sent it, per spec.md §4.5.
	updateLedger map[rib.NeighborID][]message.UpdateBody
	// revokeLedger records every accepted "revoke" body verbatim.
	revokeLedger map[rib.NeighborID][]message.RevokeEntry

	Sender  Sender
	Audit   Audit
	Metrics Metrics
}

// New builds a Dispatcher for one router instance.
func New(asn int, local rib.NeighborID, neighbors []rib.NeighborID, relations policy.Table, table *rib.RIB, sender Sender) *Dispatcher {
	return &Dispatcher{
		ASN:          asn,
		Local:        local,
		Neighbors:    neighbors,
		Relations:    relations,
		RIB:          table,
		updateLedger: make(map[rib.NeighborID][]message.UpdateBody),
		revokeLedger: make(map[rib.NeighborID][]message.RevokeEntry),
		Sender:       sender,
	}
}

// Handle classifies msg and runs the matching handler. Per spec.md §4.6,
// malformed frames never reach here (message.Decode already rejected them);
// Handle only sees a successfully decoded Message.
func (d *Dispatcher) Handle(msg message.Message) error {
	switch m := msg.(type) {
	case message.UpdateMessage:
		return d.handleUpdate(m)
	case message.RevokeMessage:
		return d.handleRevoke(m)
	case message.DataMessage:
		return d.handleData(m)
	case message.DumpMessage:
		return d.handleDump(m)
	case message.NoRouteMessage:
		return nil // consumed without action, per spec.md §4.5
	default:
		return nil // unknown kinds never reach Handle; ignored defensively
	}
}

func (d *Dispatcher) handleUpdate(m message.UpdateMessage) error {
	network, err := prefix.ParseDotted(m.Body.Network)
	if err != nil {
		return errors.Wrap(err, "dispatch: update network")
	}
	mask, err := prefix.ParseDotted(m.Body.Netmask)
	if err != nil {
		return errors.Wrap(err, "dispatch: update netmask")
	}
	length := prefix.MaskToLength(mask)

	entry := rib.Entry{
		Prefix:     prefix.New(network, length),
		NextHop:    m.Source(),
		LocalPref:  m.Body.LocalPref,
		SelfOrigin: m.Body.SelfOrigin,
		ASPath:     append([]int(nil), m.Body.ASPath...),
		OriginType: rib.ParseOrigin(m.Body.Origin),
	}
	d.RIB.Insert(entry)

	d.updateLedger[m.Source()] = append(d.updateLedger[m.Source()], m.Body)
	if d.Audit != nil {
		d.Audit.RecordUpdate(m.Source(), m.Body)
	}
	if d.Metrics != nil {
		d.Metrics.IncUpdates()
		d.Metrics.SetRouteCount(len(d.RIB.Snapshot()))
	}

	outBody := m.Body
	outBody.ASPath = policy.PrependASN(d.ASN, m.Body.ASPath)

	for _, target := range policy.ExportTargets(m.Source(), d.Neighbors, d.Relations) {
		frame, err := message.Encode(message.LocalFacing(string(target)), string(target), message.UpdateMessage{Body: outBody})
		if err != nil {
			return errors.Wrap(err, "dispatch: encoding update export")
		}
		if err := d.Sender.Send(target, frame); err != nil {
			return errors.Wrapf(err, "dispatch: sending update to %s", target)
		}
	}
	return nil
}

func (d *Dispatcher) handleRevoke(m message.RevokeMessage) error {
	for _, entry := range m.Body {
		network, err := prefix.ParseDotted(entry.Network)
		if err != nil {
			continue // malformed individual entry: skip it, do not abort the batch
		}
		mask, err := prefix.ParseDotted(entry.Netmask)
		if err != nil {
			continue
		}
		d.RIB.Withdraw(prefix.New(network, prefix.MaskToLength(mask)), m.Source())
	}

	d.revokeLedger[m.Source()] = append(d.revokeLedger[m.Source()], m.Body...)
	if d.Audit != nil {
		d.Audit.RecordRevoke(m.Source(), m.Body)
	}
	if d.Metrics != nil {
		d.Metrics.IncRevokes()
		d.Metrics.SetRouteCount(len(d.RIB.Snapshot()))
	}

	for _, target := range policy.ExportTargets(m.Source(), d.Neighbors, d.Relations) {
		frame, err := message.Encode(message.LocalFacing(string(target)), string(target), message.RevokeMessage{Body: m.Body})
		if err != nil {
			return errors.Wrap(err, "dispatch: encoding revoke export")
		}
		if err := d.Sender.Send(target, frame); err != nil {
			return errors.Wrapf(err, "dispatch: sending revoke to %s", target)
		}
	}
	return nil
}

func (d *Dispatcher) handleData(m message.DataMessage) error {
	dest, err := prefix.ParseDotted(m.Dest())
	if err != nil {
		return errors.Wrap(err, "dispatch: data destination")
	}

	nextHop, ok := policy.Select(d.RIB.Entries(), dest, m.Source(), d.Relations)
	if !ok {
		if d.Metrics != nil {
			d.Metrics.IncNoRoute()
		}
		frame, err := message.Encode(message.LocalFacing(string(m.Source())), string(m.Source()), message.NoRouteMessage{})
		if err != nil {
			return errors.Wrap(err, "dispatch: encoding no route reply")
		}
		return d.Sender.Send(m.Source(), frame)
	}

	if d.Metrics != nil {
		d.Metrics.IncDataForwarded()
	}
	frame, err := message.Encode(message.LocalFacing(string(nextHop)), string(nextHop), message.DataMessage{Payload: m.Payload})
	if err != nil {
		return errors.Wrap(err, "dispatch: encoding data forward")
	}
	return d.Sender.Send(nextHop, frame)
}

func (d *Dispatcher) handleDump(m message.DumpMessage) error {
	snap := d.RIB.Snapshot()
	rows := make([]message.TableRow, 0, len(snap))
	for _, s := range snap {
		rows = append(rows, message.TableRow{
			Network: prefix.FormatDotted(s.Prefix.Network),
			Netmask: prefix.FormatDotted(prefix.LengthToMask(s.Prefix.Length)),
			Peer:    string(s.NextHop),
		})
	}

	frame, err := message.Encode(message.LocalFacing(string(m.Source())), string(m.Source()), message.TableMessage{Rows: rows})
	if err != nil {
		return errors.Wrap(err, "dispatch: encoding table reply")
	}
	return d.Sender.Send(m.Source(), frame)
}

// SetAudit installs an audit sink and wires the RIB's aggregation hook to
// it, so every merge is reported without the RIB package knowing anything
// about auditing.
func (d *Dispatcher) SetAudit(a Audit) {
	d.Audit = a
	d.RIB.OnAggregate = func(x, y rib.Entry, parent prefix.Prefix) {
		if d.Audit != nil {
			d.Audit.RecordAggregation(x, y, parent)
		}
	}
}

// UpdateLedgerLen reports how many update bodies have been recorded for a
// neighbor, for stats/introspection.
func (d *Dispatcher) UpdateLedgerLen(id rib.NeighborID) int {
	return len(d.updateLedger[id])
}

// RevokeLedgerLen reports how many revoke entries have been recorded for a
// neighbor, for stats/introspection.
func (d *Dispatcher) RevokeLedgerLen(id rib.NeighborID) int {
	return len(d.revokeLedger[id])
}
