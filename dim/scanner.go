package dim

import (
	"fmt"

	"github.com/giesekow/go-phd/apdu"
	"github.com/grailbio/go-dicom/dicomlog"
)

// Scanner is a configurable scanner object (episodic or periodic). Periodic
// scanners emit buffered scan reports; episodic scanners emit unbuffered
// ones.
type Scanner struct {
	Handle           apdu.Handle
	Periodic         bool
	OperationalState uint16
}

// SetOperationalStateResponse applies the state confirmed by the agent in a
// ConfirmedSet response.
func (s *Scanner) SetOperationalStateResponse(state uint16) {
	dicomlog.Vprintf(1, "dim.Scanner(%d): operational state -> %d", s.Handle, state)
	s.OperationalState = state
}

// SetOperationalState applies a Set received by the agent and returns the
// attribute echoed in the response.
func (s *Scanner) SetOperationalState(state uint16) apdu.AVAType {
	s.OperationalState = state
	return apdu.AVAType{
		AttributeID: MdcAttrOpStat,
		Value:       []byte{byte(state >> 8), byte(state)},
	}
}

func (s *Scanner) acceptsEventType(eventType apdu.OIDType) bool {
	if s.Periodic {
		return eventType >= MdcNotiBufScanReportFixed && eventType <= MdcNotiBufScanReportMPGrouped
	}
	return eventType >= MdcNotiUnbufScanReportFixed && eventType <= MdcNotiUnbufScanReportMPGrouped
}

// DecodeScanEvent decodes a scanner event report and feeds the MDS
// observation listener. Unknown shapes and undecodable payloads are dropped,
// matching the tolerance of the original event path.
func (s *Scanner) DecodeScanEvent(mds *MDS, eventType apdu.OIDType, eventInfo []byte) {
	if !s.acceptsEventType(eventType) {
		dicomlog.Vprintf(0, "dim.Scanner(%d): unexpected event type %d", s.Handle, eventType)
		return
	}
	// Buffered and unbuffered variants share payload shapes.
	var shape apdu.OIDType
	if s.Periodic {
		shape = eventType - MdcNotiBufScanReportFixed
	} else {
		shape = eventType - MdcNotiUnbufScanReportFixed
	}
	switch shape {
	case 0: // fixed
		info, err := apdu.DecodeScanReportInfoFixed(eventInfo)
		if err != nil {
			break
		}
		for i := range info.ObsScanFixed {
			obs := &info.ObsScanFixed[i]
			mds.observe(0, obs.ObjHandle, apdu.AttributeList{}, obs.ObsValData)
		}
	case 1: // var
		info, err := apdu.DecodeScanReportInfoVar(eventInfo)
		if err != nil {
			break
		}
		for i := range info.ObsScanVar {
			obs := &info.ObsScanVar[i]
			mds.observe(0, obs.ObjHandle, obs.Attributes, nil)
		}
	case 2: // grouped
		info, err := apdu.DecodeScanReportInfoGrouped(eventInfo)
		if err != nil {
			break
		}
		for _, obs := range info.ObsScanGrouped {
			mds.observe(0, s.Handle, apdu.AttributeList{}, obs)
		}
	case 3: // mp-fixed
		info, err := apdu.DecodeScanReportInfoMPFixed(eventInfo)
		if err != nil {
			break
		}
		for i := range info.ScanPerFixed {
			per := &info.ScanPerFixed[i]
			for j := range per.ObsScanFixed {
				obs := &per.ObsScanFixed[j]
				mds.observe(per.PersonID, obs.ObjHandle, apdu.AttributeList{}, obs.ObsValData)
			}
		}
	case 4: // mp-var
		info, err := apdu.DecodeScanReportInfoMPVar(eventInfo)
		if err != nil {
			break
		}
		for i := range info.ScanPerVar {
			per := &info.ScanPerVar[i]
			for j := range per.ObsScanVar {
				obs := &per.ObsScanVar[j]
				mds.observe(per.PersonID, obs.ObjHandle, obs.Attributes, nil)
			}
		}
	case 5: // mp-grouped
		info, err := apdu.DecodeScanReportInfoMPGrouped(eventInfo)
		if err != nil {
			break
		}
		for i := range info.ScanPerGrouped {
			per := &info.ScanPerGrouped[i]
			for _, obs := range per.ObsScanGrouped {
				mds.observe(per.PersonID, s.Handle, apdu.AttributeList{}, obs)
			}
		}
	}
}

func (s *Scanner) String() string {
	kind := "epi"
	if s.Periodic {
		kind = "peri"
	}
	return fmt.Sprintf("scanner{%s handle:%d op:%d}", kind, s.Handle, s.OperationalState)
}
