package phd_test

import (
	"net"
	"testing"
	"time"

	"github.com/giesekow/go-phd"
	"github.com/giesekow/go-phd/apdu"
	"github.com/giesekow/go-phd/dim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const e2eTimeout = 5 * time.Second

func stateWatcher() (phd.StateListener, chan phd.State) {
	ch := make(chan phd.State, 64)
	return func(was, now phd.State) { ch <- now }, ch
}

func waitState(t *testing.T, ch chan phd.State, want phd.State) {
	t.Helper()
	deadline := time.After(e2eTimeout)
	for {
		select {
		case s := <-ch:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

// testConfig describes an extended configuration with one numeric metric,
// one episodic scanner and one PM-store.
func testConfig() *apdu.ConfigObjectList {
	return &apdu.ConfigObjectList{Objects: []apdu.ConfigObject{
		{ObjClass: dim.MdcMocVmoMetricNu, ObjHandle: 1},
		{ObjClass: dim.MdcMocScanCfgEpi, ObjHandle: 7},
		{ObjClass: dim.MdcMocVmsPmstoreSimple, ObjHandle: 9},
	}}
}

type e2ePair struct {
	agent        *phd.Agent
	manager      *phd.Manager
	agentStates  chan phd.State
	mgrStates    chan phd.State
	observations chan apdu.Handle
}

// startPair wires an agent and a manager over an in-memory transport. The
// agent sends its configuration automatically when it enters ConfigSending,
// like a real device would.
func startPair(t *testing.T, agentParams phd.AgentParams, managerParams phd.ManagerParams) *e2ePair {
	t.Helper()
	agentEnd, managerEnd := net.Pipe()
	p := &e2ePair{observations: make(chan apdu.Handle, 64)}

	var agentListener phd.StateListener
	agentListener, p.agentStates = stateWatcher()
	mgrListener, mgrStates := stateWatcher()
	p.mgrStates = mgrStates

	if managerParams.SystemID == nil {
		managerParams.SystemID = []byte{8, 7, 6, 5, 4, 3, 2, 1}
	}
	managerParams.OnStateChange = mgrListener
	if managerParams.OnObservation == nil {
		managerParams.OnObservation = func(personID uint16, handle apdu.Handle, attrs apdu.AttributeList, raw []byte) {
			p.observations <- handle
		}
	}
	managerParams.Label = "e2e-manager"
	p.manager = phd.NewManager(managerEnd, managerParams)

	if agentParams.SystemID == nil {
		agentParams.SystemID = []byte{1, 2, 3, 4, 5, 6, 7, 8}
	}
	agentParams.Label = "e2e-agent"
	agentParams.OnStateChange = func(was, now phd.State) {
		if now == phd.StateConfigSending {
			p.agent.SendConfig()
		}
		agentListener(was, now)
	}
	p.agent = phd.NewAgent(agentEnd, agentParams)
	return p
}

func TestE2EKnownConfigAssociation(t *testing.T) {
	p := startPair(t,
		phd.AgentParams{DevConfigID: dim.StdConfigPulseOximeter},
		phd.ManagerParams{})
	p.agent.Associate()
	waitState(t, p.agentStates, phd.StateOperating)
	waitState(t, p.mgrStates, phd.StateOperating)
}

func TestE2EUnknownConfigNegotiation(t *testing.T) {
	catalog := dim.NewConfigCatalog()
	p := startPair(t,
		phd.AgentParams{DevConfigID: 0x4001, Config: testConfig()},
		phd.ManagerParams{Catalog: catalog})
	p.agent.Associate()
	waitState(t, p.agentStates, phd.StateConfigSending)
	waitState(t, p.agentStates, phd.StateOperating)
	waitState(t, p.mgrStates, phd.StateOperating)
	assert.True(t, catalog.Known(0x4001))
}

func TestE2EEventReportReachesObservationListener(t *testing.T) {
	p := startPair(t,
		phd.AgentParams{DevConfigID: dim.StdConfigPulseOximeter},
		phd.ManagerParams{})
	p.agent.Associate()
	waitState(t, p.agentStates, phd.StateOperating)
	waitState(t, p.mgrStates, phd.StateOperating)

	info, err := apdu.EncodeScanReportInfoFixed(&apdu.ScanReportInfoFixed{
		DataReqID:    apdu.DataReqIDAgentInitiated,
		ScanReportNo: 1,
		ObsScanFixed: []apdu.ObservationScanFixed{
			{ObjHandle: 1, ObsValData: []byte{0x00, 0x62}},
		},
	})
	require.NoError(t, err)
	p.agent.SendEvent(dim.MDSHandle, dim.MdcNotiScanReportFixed, info)

	select {
	case handle := <-p.observations:
		assert.Equal(t, apdu.Handle(1), handle)
	case <-time.After(e2eTimeout):
		t.Fatal("no observation delivered")
	}
}

func TestE2ESetScannerOperationalState(t *testing.T) {
	agentMDS := dim.NewMDS([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 0x4001)
	agentMDS.AddScanner(&dim.Scanner{Handle: 7, OperationalState: dim.OpStateEnabled})

	p := startPair(t,
		phd.AgentParams{DevConfigID: 0x4001, Config: testConfig(), MDS: agentMDS},
		phd.ManagerParams{})
	p.agent.Associate()
	waitState(t, p.agentStates, phd.StateOperating)
	waitState(t, p.mgrStates, phd.StateOperating)

	done := make(chan phd.RequestResult, 1)
	p.manager.SetScanner(7, dim.OpStateDisabled, 10*time.Second, func(req *phd.Request, result phd.RequestResult) {
		done <- result
	})
	select {
	case result := <-done:
		assert.Equal(t, phd.OutcomeOK, result.Outcome)
	case <-time.After(e2eTimeout):
		t.Fatal("set-scanner request did not complete")
	}

	// Both sides observed the state change.
	agentScanner := agentMDS.GetObjectByHandle(7)
	require.NotNil(t, agentScanner)
	assert.Equal(t, dim.OpStateDisabled, agentScanner.Scanner.OperationalState)

	mgrObj := p.manager.MDS().GetObjectByHandle(7)
	require.NotNil(t, mgrObj)
	assert.Equal(t, dim.OpStateDisabled, mgrObj.Scanner.OperationalState)
}

func TestE2EGetMdsAttributes(t *testing.T) {
	p := startPair(t,
		phd.AgentParams{DevConfigID: dim.StdConfigPulseOximeter},
		phd.ManagerParams{})
	p.agent.Associate()
	waitState(t, p.agentStates, phd.StateOperating)
	waitState(t, p.mgrStates, phd.StateOperating)

	done := make(chan phd.RequestResult, 1)
	p.manager.Get(0, nil, 10*time.Second, func(req *phd.Request, result phd.RequestResult) {
		done <- result
	})
	select {
	case result := <-done:
		require.Equal(t, phd.OutcomeOK, result.Outcome)
	case <-time.After(e2eTimeout):
		t.Fatal("get request did not complete")
	}
	// The response merged the agent's system id into the manager MDS.
	attrs := p.manager.MDS().Attributes([]apdu.OIDType{dim.MdcAttrSysId})
	require.Len(t, attrs.List, 1)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, attrs.List[0].Value)
}

func TestE2EReleaseWhileOperating(t *testing.T) {
	p := startPair(t,
		phd.AgentParams{DevConfigID: dim.StdConfigPulseOximeter},
		phd.ManagerParams{})
	p.agent.Associate()
	waitState(t, p.agentStates, phd.StateOperating)
	waitState(t, p.mgrStates, phd.StateOperating)

	p.agent.Release()
	waitState(t, p.agentStates, phd.StateUnassociated)
	waitState(t, p.mgrStates, phd.StateUnassociated)
}

func TestE2ESegmentTransfer(t *testing.T) {
	agentMDS := dim.NewMDS([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 0x4001)
	store := dim.NewPMStore(9)
	store.AddSegment(&dim.Segment{InstNo: 1})
	agentMDS.AddPMStore(store)

	p := startPair(t,
		phd.AgentParams{DevConfigID: 0x4001, Config: testConfig(), MDS: agentMDS},
		phd.ManagerParams{})
	p.agent.Associate()
	waitState(t, p.agentStates, phd.StateOperating)
	waitState(t, p.mgrStates, phd.StateOperating)

	done := make(chan phd.RequestResult, 1)
	p.manager.SegmentGetInfo(9, 10*time.Second, func(req *phd.Request, result phd.RequestResult) {
		done <- result
	})
	select {
	case result := <-done:
		require.Equal(t, phd.OutcomeOK, result.Outcome)
		rors, ok := result.Response.Message.(*apdu.RorsConfirmedAction)
		require.True(t, ok)
		list, err := apdu.DecodeSegmentInfoList(rors.ActionInfoArgs)
		require.NoError(t, err)
		require.Len(t, list.Segments, 1)
		assert.Equal(t, uint16(1), list.Segments[0].SegInstNo)
	case <-time.After(e2eTimeout):
		t.Fatal("segment info request did not complete")
	}

	trig := make(chan phd.RequestResult, 1)
	p.manager.SegmentTrigXfer(9, 1, 10*time.Second, func(req *phd.Request, result phd.RequestResult) {
		trig <- result
	})
	select {
	case result := <-trig:
		require.Equal(t, phd.OutcomeOK, result.Outcome)
		rors, ok := result.Response.Message.(*apdu.RorsConfirmedAction)
		require.True(t, ok)
		rsp, err := apdu.DecodeTrigSegmDataXferRsp(rors.ActionInfoArgs)
		require.NoError(t, err)
		assert.Equal(t, apdu.TsxrSuccessful, rsp.TrigSegmXferRsp)
	case <-time.After(e2eTimeout):
		t.Fatal("trigger transfer request did not complete")
	}
}

func TestE2EAssociationTimeout(t *testing.T) {
	agentEnd, rawEnd := net.Pipe()
	listener, states := stateWatcher()
	agent := phd.NewAgent(agentEnd, phd.AgentParams{
		SystemID:           []byte{1, 2, 3, 4, 5, 6, 7, 8},
		DevConfigID:        dim.StdConfigPulseOximeter,
		AssociationTimeout: 100 * time.Millisecond,
		OnStateChange:      listener,
		Label:              "timeout-agent",
	})
	agent.Associate()

	// Swallow the AARQ and never answer.
	v, err := apdu.ReadAPDU(rawEnd, phd.DefaultMaxAPDUSize)
	require.NoError(t, err)
	_, ok := v.(*apdu.Aarq)
	require.True(t, ok)

	waitState(t, states, phd.StateAssociating)

	// The timeout produces an abort on the wire; read it first, the pipe
	// write blocks the pump until it is consumed.
	v, err = apdu.ReadAPDU(rawEnd, phd.DefaultMaxAPDUSize)
	require.NoError(t, err)
	_, ok = v.(*apdu.Abrt)
	assert.True(t, ok)
	waitState(t, states, phd.StateUnassociated)
}

func TestE2EConfirmedEventTimeoutRetiresRequest(t *testing.T) {
	agentEnd, rawEnd := net.Pipe()
	listener, states := stateWatcher()
	agent := phd.NewAgent(agentEnd, phd.AgentParams{
		SystemID:      []byte{1, 2, 3, 4, 5, 6, 7, 8},
		DevConfigID:   dim.StdConfigPulseOximeter,
		OnStateChange: listener,
		Label:         "evt-timeout-agent",
	})
	agent.Associate()

	// Hand-drive the manager side: accept the association.
	v, err := apdu.ReadAPDU(rawEnd, phd.DefaultMaxAPDUSize)
	require.NoError(t, err)
	aarq, ok := v.(*apdu.Aarq)
	require.True(t, ok)
	info, err := apdu.DecodePhdAssociationInformation(aarq.Proto20601().Info)
	require.NoError(t, err)
	require.Equal(t, dim.StdConfigPulseOximeter, info.DevConfigID)

	encoded, err := apdu.EncodePhdAssociationInformation(&apdu.PhdAssociationInformation{
		ProtocolVersion:     apdu.AssocVersion1,
		EncodingRules:       apdu.MDER,
		NomenclatureVersion: apdu.NomVersion1,
		SystemType:          apdu.SysTypeManager,
		SystemID:            []byte{8, 7, 6, 5, 4, 3, 2, 1},
		DevConfigID:         apdu.ManagerConfigResponse,
	})
	require.NoError(t, err)
	raw, err := apdu.EncodeAPDU(&apdu.Aare{
		Result:   apdu.Accepted,
		Selected: apdu.DataProto{ID: apdu.DataProtoID20601, Info: encoded},
	})
	require.NoError(t, err)
	_, err = rawEnd.Write(raw)
	require.NoError(t, err)
	waitState(t, states, phd.StateOperating)

	// A confirmed event report that is never answered times out and the
	// association aborts.
	done := make(chan phd.RequestResult, 1)
	agent.SendConfirmedEvent(dim.MDSHandle, dim.MdcNotiScanReportFixed, nil,
		100*time.Millisecond, func(req *phd.Request, result phd.RequestResult) {
			done <- result
		})
	v, err = apdu.ReadAPDU(rawEnd, phd.DefaultMaxAPDUSize)
	require.NoError(t, err)
	_, ok = v.(*apdu.Prst)
	require.True(t, ok)

	select {
	case result := <-done:
		assert.Equal(t, phd.OutcomeTimeout, result.Outcome)
	case <-time.After(e2eTimeout):
		t.Fatal("request did not time out")
	}
	// The timeout also aborts the association; drain the ABRT so the pump
	// can move on.
	v, err = apdu.ReadAPDU(rawEnd, phd.DefaultMaxAPDUSize)
	require.NoError(t, err)
	_, ok = v.(*apdu.Abrt)
	assert.True(t, ok)
	waitState(t, states, phd.StateUnassociated)
}
