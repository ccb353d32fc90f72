package dim

import (
	"fmt"
	"sync"

	"github.com/giesekow/go-phd/apdu"
	"github.com/grailbio/go-dicom/dicomlog"
)

// MDSHandle is the reserved handle of the MDS object itself.
const MDSHandle apdu.Handle = 0

// ObservationListener receives decoded measurement observations. personID is
// zero for single-person reports. Exactly one of attrs/raw is meaningful:
// attrs for var-format observations, raw for fixed and grouped formats.
type ObservationListener func(personID uint16, handle apdu.Handle, attrs apdu.AttributeList, raw []byte)

// MDS is the top-level object of the Domain Information Model, holding the
// device attributes and the objects instantiated by the active
// configuration.
type MDS struct {
	mu sync.Mutex

	systemID    []byte
	devConfigID uint16
	attributes  []apdu.AVAType
	objects     map[apdu.Handle]*Object

	// OnObservation, if set, receives every decoded observation.
	OnObservation ObservationListener
}

// Object is one MDS child object: a scanner or a PM-store.
type Object struct {
	Handle  apdu.Handle
	Class   uint16
	Scanner *Scanner
	PMStore *PMStore
}

// NewMDS builds an empty MDS with the given system identity.
func NewMDS(systemID []byte, devConfigID uint16) *MDS {
	m := &MDS{
		systemID:    append([]byte(nil), systemID...),
		devConfigID: devConfigID,
		objects:     make(map[apdu.Handle]*Object),
	}
	m.attributes = []apdu.AVAType{
		{AttributeID: MdcAttrSysId, Value: append([]byte(nil), systemID...)},
		{AttributeID: MdcAttrDevConfigId, Value: []byte{byte(devConfigID >> 8), byte(devConfigID)}},
	}
	return m
}

// SystemID returns the device system identifier.
func (m *MDS) SystemID() []byte { return m.systemID }

// DevConfigID returns the device configuration id.
func (m *MDS) DevConfigID() uint16 { return m.devConfigID }

// GetObjectByHandle returns the object with the given handle, or nil. Handle
// 0 denotes the MDS itself and also returns nil; callers check for
// MDSHandle before resolving child objects.
func (m *MDS) GetObjectByHandle(h apdu.Handle) *Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[h]
}

// AddScanner registers a configurable scanner object.
func (m *MDS) AddScanner(s *Scanner) *Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	class := MdcMocScanCfgEpi
	if s.Periodic {
		class = MdcMocScanCfgPeri
	}
	obj := &Object{Handle: s.Handle, Class: class, Scanner: s}
	m.objects[s.Handle] = obj
	return obj
}

// AddPMStore registers a PM-store object.
func (m *MDS) AddPMStore(p *PMStore) *Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj := &Object{Handle: p.Handle, Class: MdcMocVmsPmstoreSimple, PMStore: p}
	m.objects[p.Handle] = obj
	return obj
}

// ConfigureFrom instantiates objects described by an agent configuration.
// Metric object classes carry no communication behavior and are skipped.
func (m *MDS) ConfigureFrom(cfg *apdu.ConfigObjectList) {
	for i := range cfg.Objects {
		obj := &cfg.Objects[i]
		switch obj.ObjClass {
		case MdcMocScanCfgEpi:
			m.AddScanner(&Scanner{Handle: obj.ObjHandle, OperationalState: OpStateDisabled})
		case MdcMocScanCfgPeri:
			m.AddScanner(&Scanner{Handle: obj.ObjHandle, Periodic: true, OperationalState: OpStateDisabled})
		case MdcMocVmsPmstoreSimple:
			m.AddPMStore(NewPMStore(obj.ObjHandle))
		}
	}
}

// SetAttribute stores or replaces one MDS attribute, e.g. from a Get
// response.
func (m *MDS) SetAttribute(ava apdu.AVAType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.attributes {
		if m.attributes[i].AttributeID == ava.AttributeID {
			m.attributes[i].Value = ava.Value
			return
		}
	}
	m.attributes = append(m.attributes, ava)
}

// Attributes returns the MDS attributes named by ids, or all attributes when
// ids is empty.
func (m *MDS) Attributes(ids []apdu.OIDType) apdu.AttributeList {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := apdu.AttributeList{}
	if len(ids) == 0 {
		out.List = append(out.List, m.attributes...)
		return out
	}
	for _, id := range ids {
		for i := range m.attributes {
			if m.attributes[i].AttributeID == id {
				out.List = append(out.List, m.attributes[i])
			}
		}
	}
	return out
}

func (m *MDS) observe(personID uint16, handle apdu.Handle, attrs apdu.AttributeList, raw []byte) {
	if m.OnObservation != nil {
		m.OnObservation(personID, handle, attrs, raw)
	}
}

// DynamicDataUpdateFixed handles an MDS-level fixed-format scan report.
func (m *MDS) DynamicDataUpdateFixed(info *apdu.ScanReportInfoFixed) {
	for i := range info.ObsScanFixed {
		obs := &info.ObsScanFixed[i]
		m.observe(0, obs.ObjHandle, apdu.AttributeList{}, obs.ObsValData)
	}
}

// DynamicDataUpdateVar handles an MDS-level variable-format scan report.
func (m *MDS) DynamicDataUpdateVar(info *apdu.ScanReportInfoVar) {
	for i := range info.ObsScanVar {
		obs := &info.ObsScanVar[i]
		m.observe(0, obs.ObjHandle, obs.Attributes, nil)
	}
}

// DynamicDataUpdateMPFixed handles a multi-person fixed-format scan report.
func (m *MDS) DynamicDataUpdateMPFixed(info *apdu.ScanReportInfoMPFixed) {
	for i := range info.ScanPerFixed {
		per := &info.ScanPerFixed[i]
		for j := range per.ObsScanFixed {
			obs := &per.ObsScanFixed[j]
			m.observe(per.PersonID, obs.ObjHandle, apdu.AttributeList{}, obs.ObsValData)
		}
	}
}

// DynamicDataUpdateMPVar handles a multi-person variable-format scan report.
func (m *MDS) DynamicDataUpdateMPVar(info *apdu.ScanReportInfoMPVar) {
	for i := range info.ScanPerVar {
		per := &info.ScanPerVar[i]
		for j := range per.ObsScanVar {
			obs := &per.ObsScanVar[j]
			m.observe(per.PersonID, obs.ObjHandle, obs.Attributes, nil)
		}
	}
}

// DecodeMDSEvent decodes an MDS-level event report (handle 0) and feeds the
// observation listener. It returns false if the event type is not one of the
// four MDS scan report shapes or the payload cannot be parsed.
func (m *MDS) DecodeMDSEvent(eventType apdu.OIDType, eventInfo []byte) bool {
	switch eventType {
	case MdcNotiScanReportFixed:
		info, err := apdu.DecodeScanReportInfoFixed(eventInfo)
		if err != nil {
			dicomlog.Vprintf(0, "dim.MDS: bad fixed scan report: %v", err)
			return false
		}
		m.DynamicDataUpdateFixed(info)
	case MdcNotiScanReportVar:
		info, err := apdu.DecodeScanReportInfoVar(eventInfo)
		if err != nil {
			dicomlog.Vprintf(0, "dim.MDS: bad var scan report: %v", err)
			return false
		}
		m.DynamicDataUpdateVar(info)
	case MdcNotiScanReportMPFixed:
		info, err := apdu.DecodeScanReportInfoMPFixed(eventInfo)
		if err != nil {
			dicomlog.Vprintf(0, "dim.MDS: bad mp-fixed scan report: %v", err)
			return false
		}
		m.DynamicDataUpdateMPFixed(info)
	case MdcNotiScanReportMPVar:
		info, err := apdu.DecodeScanReportInfoMPVar(eventInfo)
		if err != nil {
			dicomlog.Vprintf(0, "dim.MDS: bad mp-var scan report: %v", err)
			return false
		}
		m.DynamicDataUpdateMPVar(info)
	default:
		return false
	}
	return true
}

func (o *Object) String() string {
	switch {
	case o.Scanner != nil:
		return fmt.Sprintf("scanner{handle:%d}", o.Handle)
	case o.PMStore != nil:
		return fmt.Sprintf("pmstore{handle:%d}", o.Handle)
	}
	return fmt.Sprintf("object{handle:%d class:%d}", o.Handle, o.Class)
}
