package phd

// The manager-side application interface: confirmed request primitives and
// the configuration verdict injections.

import (
	"net"
	"time"

	"github.com/giesekow/go-phd/apdu"
	"github.com/giesekow/go-phd/dim"
)

// ManagerParams configures a manager connection.
type ManagerParams struct {
	// SystemID is the manager's EUI-64 identifier. Required.
	SystemID []byte
	// Catalog holds the known configurations. A fresh catalog with the
	// standard ids is used when nil.
	Catalog *dim.ConfigCatalog
	// ConfigCheck, when set, decides agent-supplied configurations; the
	// implementation calls AcceptConfig, DeclineConfig or RejectConfig.
	// When nil, valid configurations are accepted and learned.
	ConfigCheck ConfigCheckFunc
	// OnObservation receives decoded measurement observations.
	OnObservation dim.ObservationListener

	MaxAPDUSize        int
	AssociationTimeout time.Duration
	ReleaseTimeout     time.Duration

	// OnStateChange observes association state transitions.
	OnStateChange StateListener

	// Label tags log lines; defaults to the remote address.
	Label string
}

// Manager is a connection running the manager state table.
type Manager struct {
	*Conn
}

// NewManager starts a manager connection over an established transport.
func NewManager(conn net.Conn, params ManagerParams) *Manager {
	label := params.Label
	if label == "" {
		label = conn.RemoteAddr().String()
	}
	c := newConn(conn, RoleManager, label, connParams{
		maxAPDUSize:        params.MaxAPDUSize,
		associationTimeout: params.AssociationTimeout,
		releaseTimeout:     params.ReleaseTimeout,
		onStateChange:      params.OnStateChange,
	})
	c.systemID = append([]byte(nil), params.SystemID...)
	c.catalog = params.Catalog
	if c.catalog == nil {
		c.catalog = dim.NewConfigCatalog()
	}
	c.configCheck = params.ConfigCheck
	c.observation = params.OnObservation
	c.start()
	return &Manager{Conn: c}
}

// Release requests an orderly association release.
func (m *Manager) Release() {
	m.queueEvent(evtReqAssocRel, nil)
}

// Abort aborts the association immediately.
func (m *Manager) Abort() {
	m.queueEvent(evtReqAssocAbort, nil)
}

// AcceptConfig accepts the configuration under check.
func (m *Manager) AcceptConfig() {
	m.queueEvent(evtReqAgentSuppliedKnownConfiguration, nil)
}

// DeclineConfig declines a valid but unsupported configuration; the agent
// may renegotiate.
func (m *Manager) DeclineConfig() {
	m.queueEvent(evtReqAgentSuppliedUnknownConfiguration, nil)
}

// RejectConfig rejects a malformed configuration report.
func (m *Manager) RejectConfig() {
	m.queueEvent(evtReqAgentSuppliedBadConfiguration, nil)
}

// sendOperatingRequest runs a confirmed request on the pump, failing fast
// when the association is not operating.
func (m *Manager) sendOperatingRequest(msg apdu.Message, timeout time.Duration, callback RequestCallback) {
	m.reqCh <- stateEvent{fn: func() {
		if m.state != StateOperating {
			if callback != nil {
				callback(nil, RequestResult{Outcome: OutcomeAborted})
			}
			return
		}
		m.service.sendRequest(msg, timeout, callback)
	}}
}

// Get requests attributes of the object at the given handle (0 for the
// MDS). An empty ids slice requests all attributes.
func (m *Manager) Get(handle apdu.Handle, ids []apdu.OIDType, timeout time.Duration, callback RequestCallback) {
	m.sendOperatingRequest(&apdu.RoivGet{GetArgument: apdu.GetArgument{
		ObjHandle:       handle,
		AttributeIDList: apdu.AttributeIDList{List: ids},
	}}, timeout, callback)
}

// SetScanner requests a change of a scanner's operational state through a
// ConfirmedSet.
func (m *Manager) SetScanner(handle apdu.Handle, state uint16, timeout time.Duration, callback RequestCallback) {
	m.sendOperatingRequest(&apdu.RoivConfirmedSet{SetArgument: apdu.SetArgument{
		ObjHandle: handle,
		Modifications: []apdu.AttributeModEntry{{
			ModifyOperator: apdu.ReplaceValue,
			Attribute: apdu.AVAType{
				AttributeID: dim.MdcAttrOpStat,
				Value:       []byte{byte(state >> 8), byte(state)},
			},
		}},
	}}, timeout, callback)
}

// SetTime requests the agent to adjust its clock.
func (m *Manager) SetTime(t *apdu.SetTimeInvoke, timeout time.Duration, callback RequestCallback) {
	encoded, err := apdu.EncodeSetTimeInvoke(t)
	if err != nil {
		if callback != nil {
			callback(nil, RequestResult{Outcome: OutcomeAborted})
		}
		return
	}
	m.sendOperatingRequest(&apdu.RoivConfirmedAction{ActionArgument: apdu.ActionArgument{
		ObjHandle:      dim.MDSHandle,
		ActionType:     dim.MdcActSetTime,
		ActionInfoArgs: encoded,
	}}, timeout, callback)
}

// SegmentClear asks the agent to clear the PM-store's segments.
func (m *Manager) SegmentClear(handle apdu.Handle, timeout time.Duration, callback RequestCallback) {
	m.sendOperatingRequest(&apdu.RoivConfirmedAction{ActionArgument: apdu.ActionArgument{
		ObjHandle:  handle,
		ActionType: dim.MdcActSegClr,
	}}, timeout, callback)
}

// SegmentGetInfo requests the PM-store's segment descriptors.
func (m *Manager) SegmentGetInfo(handle apdu.Handle, timeout time.Duration, callback RequestCallback) {
	m.sendOperatingRequest(&apdu.RoivConfirmedAction{ActionArgument: apdu.ActionArgument{
		ObjHandle:  handle,
		ActionType: dim.MdcActSegGetInfo,
	}}, timeout, callback)
}

// SegmentTrigXfer triggers the transfer of one PM-segment.
func (m *Manager) SegmentTrigXfer(handle apdu.Handle, segment uint16, timeout time.Duration, callback RequestCallback) {
	encoded, err := apdu.EncodeTrigSegmDataXferReq(&apdu.TrigSegmDataXferReq{SegInstNo: segment})
	if err != nil {
		if callback != nil {
			callback(nil, RequestResult{Outcome: OutcomeAborted})
		}
		return
	}
	m.sendOperatingRequest(&apdu.RoivConfirmedAction{ActionArgument: apdu.ActionArgument{
		ObjHandle:      handle,
		ActionType:     dim.MdcActSegTrigXfer,
		ActionInfoArgs: encoded,
	}}, timeout, callback)
}
