package phd

// The agent-side application interface.

import (
	"net"
	"time"

	"github.com/giesekow/go-phd/apdu"
	"github.com/giesekow/go-phd/dim"
	"github.com/grailbio/go-dicom/dicomlog"
)

// AgentParams configures an agent connection.
type AgentParams struct {
	// SystemID is the 8-byte EUI-64 device identifier. Required.
	SystemID []byte
	// DevConfigID is the configuration id reported in the AARQ. Required.
	DevConfigID uint16
	// Config overrides the built-in object list for DevConfigID. Required
	// for extended configuration ids.
	Config *apdu.ConfigObjectList
	// MDS, when set, replaces the MDS built at transport connection.
	MDS *dim.MDS

	MaxAPDUSize         int
	AssociationTimeout  time.Duration
	ConfigReportTimeout time.Duration
	ReleaseTimeout      time.Duration

	// OnStateChange observes association state transitions.
	OnStateChange StateListener

	// Label tags log lines; defaults to the remote address.
	Label string
}

// Agent is a connection running the agent state table.
type Agent struct {
	*Conn
}

// NewAgent starts an agent connection over an established transport. The
// returned Agent is already pumping events; call Associate to request an
// association.
func NewAgent(conn net.Conn, params AgentParams) *Agent {
	label := params.Label
	if label == "" {
		label = conn.RemoteAddr().String()
	}
	c := newConn(conn, RoleAgent, label, connParams{
		maxAPDUSize:        params.MaxAPDUSize,
		associationTimeout: params.AssociationTimeout,
		configTimeout:      params.ConfigReportTimeout,
		releaseTimeout:     params.ReleaseTimeout,
		onStateChange:      params.OnStateChange,
	})
	c.systemID = append([]byte(nil), params.SystemID...)
	c.devConfigID = params.DevConfigID
	c.agentConfig = params.Config
	c.mds = params.MDS
	c.start()
	return &Agent{Conn: c}
}

// Associate requests an association with the manager.
func (a *Agent) Associate() {
	a.queueEvent(evtReqAssoc, nil)
}

// Release requests an orderly association release.
func (a *Agent) Release() {
	a.queueEvent(evtReqAssocRel, nil)
}

// Abort aborts the association immediately.
func (a *Agent) Abort() {
	a.queueEvent(evtReqAssocAbort, nil)
}

// SendConfig transmits the configuration report. Valid while the manager is
// waiting for the configuration.
func (a *Agent) SendConfig() {
	a.queueEvent(evtReqSendConfig, nil)
}

// SendEvent transmits an unconfirmed event report while operating.
func (a *Agent) SendEvent(handle apdu.Handle, eventType apdu.OIDType, eventInfo []byte) {
	a.queueEvent(evtReqSendEvent, &eventData{report: &eventReportRequest{
		handle:    handle,
		eventType: eventType,
		eventInfo: eventInfo,
	}})
}

// SendConfirmedEvent transmits a confirmed event report while operating.
// callback observes the response, timeout or abort.
func (a *Agent) SendConfirmedEvent(handle apdu.Handle, eventType apdu.OIDType, eventInfo []byte,
	timeout time.Duration, callback RequestCallback) {
	a.queueEvent(evtReqSendEvent, &eventData{report: &eventReportRequest{
		handle:    handle,
		eventType: eventType,
		eventInfo: eventInfo,
		confirmed: true,
		timeout:   timeout,
		callback:  callback,
	}})
	dicomlog.Vprintf(2, "phd.Agent(%s): queued confirmed event report", a.label)
}
