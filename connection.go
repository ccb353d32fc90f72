package phd

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/giesekow/go-phd/apdu"
	"github.com/giesekow/go-phd/dim"
	"github.com/grailbio/go-dicom/dicomlog"
)

// DefaultMaxAPDUSize bounds inbound APDU payloads.
const DefaultMaxAPDUSize = 64 * 1024

// Default protocol timeouts. The association and release values are the
// named constants of the standard; the configuration report timeout guards
// the agent's confirmed NotiConfig event report.
const (
	DefaultAssociationTimeout  = 10 * time.Second
	DefaultConfigReportTimeout = 3 * time.Second
	DefaultReleaseTimeout      = 10 * time.Second
)

// StateListener observes association state transitions. It is invoked on
// the connection goroutine; implementations must not block.
type StateListener func(was, now State)

// ConfigCheckFunc lets the manager application decide the fate of an
// agent-supplied configuration while the connection is in CheckingConfig.
// The implementation calls one of the Manager's AcceptConfig, DeclineConfig
// or RejectConfig methods, possibly after returning.
type ConfigCheckFunc func(c *Conn, report *apdu.ConfigReport)

// eventReportRequest is the payload of a ReqSendEvent application request.
type eventReportRequest struct {
	handle    apdu.Handle
	eventType apdu.OIDType
	eventInfo []byte
	confirmed bool
	timeout   time.Duration
	callback  RequestCallback
}

// eventData is the optional payload accompanying an FSM event: a borrowed
// reference to the inbound APDU, a release or reject code, or an
// application request payload.
type eventData struct {
	apdu          apdu.APDU
	releaseReason uint16
	problem       uint16
	errorValue    uint16
	report        *eventReportRequest
	aareResult    uint16
}

// stateEvent is one unit of work for the connection pump. A zero event with
// a non-nil apdu means "inbound APDU arrived, dispatch it"; a non-nil fn is
// an application request running on the pump goroutine.
type stateEvent struct {
	event fsmEvent
	data  *eventData
	apdu  apdu.APDU
	fn    func()
	err   error
}

// invokeTimeout marks the expiry of one outstanding confirmed request.
type invokeTimeout struct {
	invokeID apdu.InvokeID
}

// connParams carries the tunables shared by both roles.
type connParams struct {
	maxAPDUSize        int
	associationTimeout time.Duration
	configTimeout      time.Duration
	releaseTimeout     time.Duration
	onStateChange      StateListener
}

func (p *connParams) applyDefaults() {
	if p.maxAPDUSize == 0 {
		p.maxAPDUSize = DefaultMaxAPDUSize
	}
	if p.associationTimeout == 0 {
		p.associationTimeout = DefaultAssociationTimeout
	}
	if p.configTimeout == 0 {
		p.configTimeout = DefaultConfigReportTimeout
	}
	if p.releaseTimeout == 0 {
		p.releaseTimeout = DefaultReleaseTimeout
	}
}

// Conn is the per-connection context: current FSM state, role, DIM
// reference, outstanding invoke map, transport handle and listeners. All
// mutable fields are owned by the pump goroutine.
type Conn struct {
	label string
	role  Role
	state State
	table []transitionRule

	conn    net.Conn
	mds     *dim.MDS
	catalog *dim.ConfigCatalog
	service *service
	params  connParams

	// Agent identity and configuration.
	systemID    []byte
	devConfigID uint16
	agentConfig *apdu.ConfigObjectList

	// Manager-side association and configuration checking.
	peerAssoc     *apdu.PhdAssociationInformation
	configCheck   ConfigCheckFunc
	pendingConfig *pendingConfig
	observation   dim.ObservationListener

	netCh   chan stateEvent
	reqCh   chan stateEvent
	errorCh chan stateEvent
	timerCh chan stateEvent
	svcCh   chan invokeTimeout

	// closedCh is closed once the pump exits with the context drained.
	closedCh chan struct{}
}

// pendingConfig remembers the confirmed event report whose configuration is
// being checked, so the verdict action can answer with the matching invoke
// id.
type pendingConfig struct {
	invokeID  apdu.InvokeID
	objHandle apdu.Handle
	eventTime apdu.RelativeTime
	eventType apdu.OIDType
	report    *apdu.ConfigReport
}

func newConn(conn net.Conn, role Role, label string, params connParams) *Conn {
	params.applyDefaults()
	c := &Conn{
		label:    label,
		role:     role,
		state:    StateDisconnected,
		conn:     conn,
		params:   params,
		netCh:    make(chan stateEvent, 128),
		reqCh:    make(chan stateEvent, 128),
		errorCh:  make(chan stateEvent, 128),
		timerCh:  make(chan stateEvent, 1),
		svcCh:    make(chan invokeTimeout, 128),
		closedCh: make(chan struct{}),
	}
	if role == RoleAgent {
		c.table = agentStateTable
	} else {
		c.table = managerStateTable
	}
	c.service = newService(c)
	return c
}

// State returns the current FSM state. It is safe to call from any
// goroutine but only consistent with in-flight events when read from a
// listener.
func (c *Conn) State() State { return c.state }

// Role returns the connection role.
func (c *Conn) Role() Role { return c.role }

// MDS returns the DIM store backing this connection.
func (c *Conn) MDS() *dim.MDS { return c.mds }

// Done returns a channel closed when the connection reaches Disconnected
// and is drained.
func (c *Conn) Done() <-chan struct{} { return c.closedCh }

// start launches the reader and pump goroutines and injects the transport
// connection indication.
func (c *Conn) start() {
	go networkReader(c.netCh, c.conn, c.params.maxAPDUSize, c.label)
	go c.run()
}

func (c *Conn) run() {
	c.processEvent(evtIndTransportConnection, nil)
	for c.state != StateDisconnected {
		c.runOneStep()
	}
	c.conn.Close()
	close(c.closedCh)
	dicomlog.Vprintf(1, "phd.Conn(%s): pump finished", c.label)
}

func (c *Conn) runOneStep() {
	ev := c.getNextEvent()
	switch {
	case ev.fn != nil:
		ev.fn()
	case ev.event == evtNone:
		if ev.apdu != nil {
			c.dispatchAPDU(ev.apdu)
		}
	default:
		c.processEvent(ev.event, ev.data)
	}
}

func (c *Conn) getNextEvent() stateEvent {
	var ev stateEvent
	var ok bool
	for ev.event == evtNone && ev.apdu == nil && ev.fn == nil {
		select {
		case ev, ok = <-c.netCh:
			if !ok {
				c.netCh = nil
				ev = stateEvent{event: evtIndTransportDisconnect}
			}
		case ev = <-c.errorCh:
			// never closed
		case ev = <-c.timerCh:
		case to := <-c.svcCh:
			// A request timer fired. Ignore it if the request was
			// already retired; the context generation is the
			// tracker entry itself.
			if c.service.timeoutFired(to.invokeID) {
				ev = stateEvent{event: evtIndTimeout}
			}
		case ev = <-c.reqCh:
		}
	}
	return ev
}

// queueEvent enqueues an event produced by an action or an application
// request. It never blocks the pump.
func (c *Conn) queueEvent(evt fsmEvent, data *eventData) {
	select {
	case c.reqCh <- stateEvent{event: evt, data: data}:
	default:
		dicomlog.Vprintf(0, "phd.Conn(%s): event queue full, dropping %s", c.label, evt)
	}
}

// stateTransitioned runs after every state-changing transition. Entering
// Unassociated or Disconnected invalidates every outstanding invoke and the
// pending timer.
func (c *Conn) stateTransitioned(was, now State) {
	if now == StateUnassociated || now == StateDisconnected {
		c.pendingConfig = nil
		c.service.drainAll(OutcomeAborted)
	}
	if c.params.onStateChange != nil {
		c.params.onStateChange(was, now)
	}
}

// startTimer arms the per-state guard timer. Restarting replaces the
// previous timer; a stale expiry lands on an abandoned channel.
func (c *Conn) startTimer(d time.Duration) {
	ch := make(chan stateEvent, 1)
	c.timerCh = ch
	time.AfterFunc(d, func() {
		ch <- stateEvent{event: evtIndTimeout}
	})
}

func (c *Conn) stopTimer() {
	c.timerCh = make(chan stateEvent, 1)
}

// sendAPDU encodes and transmits v. A failure synthesizes a transport
// disconnect.
func sendAPDU(c *Conn, v apdu.APDU) bool {
	data, err := apdu.EncodeAPDU(v)
	if err != nil {
		dicomlog.Vprintf(0, "phd.Conn(%s): failed to encode %v: %v", c.label, v, err)
		c.conn.Close()
		c.errorCh <- stateEvent{event: evtIndTransportDisconnect, err: err}
		return false
	}
	n, err := c.conn.Write(data)
	if n != len(data) || err != nil {
		dicomlog.Vprintf(0, "phd.Conn(%s): failed to write %d bytes: %v", c.label, len(data), err)
		c.conn.Close()
		c.errorCh <- stateEvent{event: evtIndTransportDisconnect, err: err}
		return false
	}
	dicomlog.Vprintf(2, "phd.Conn(%s): sent %s", c.label, v.String())
	return true
}

// networkReader decodes inbound APDUs and injects them into the pump. A
// clean close or read failure becomes a transport disconnect; a decode
// failure synthesizes an abort request per the decode-error policy.
func networkReader(ch chan stateEvent, conn net.Conn, maxAPDUSize int, label string) {
	dicomlog.Vprintf(2, "phd.Conn(%s): starting network reader", label)
	frames := apdu.NewFrameReader(conn, maxAPDUSize)
	for {
		v, err := frames.Next()
		if err != nil {
			if isDecodeError(err) {
				dicomlog.Vprintf(0, "phd.Conn(%s): failed to decode APDU: %v", label, err)
				ch <- stateEvent{event: evtReqAssocAbort, err: err}
				continue
			}
			dicomlog.Vprintf(1, "phd.Conn(%s): read failed: %v", label, err)
			ch <- stateEvent{event: evtIndTransportDisconnect, err: err}
			close(ch)
			return
		}
		dicomlog.Vprintf(2, "phd.Conn(%s): read %s", label, v.String())
		ch <- stateEvent{apdu: v}
	}
}

// isDecodeError distinguishes garbage on an open stream from a dead
// transport: transport failures surface as io errors or *net.OpError on the
// frame reads.
func isDecodeError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
		return false
	}
	var op *net.OpError
	return !errors.As(err, &op)
}
