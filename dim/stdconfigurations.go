package dim

import (
	"sync"

	"github.com/giesekow/go-phd/apdu"
)

// Standard dev-config-ids from the 11073-104xx device specializations.
const (
	StdConfigPulseOximeter  uint16 = 0x0190
	StdConfigPulseOximeter2 uint16 = 0x0191
	StdConfigBloodPressure  uint16 = 0x02BC
	StdConfigThermometer    uint16 = 0x0320
	StdConfigWeighingScale  uint16 = 0x05DC
	StdConfigGlucoseMeter   uint16 = 0x06A4
)

// ConfigCatalog is the manager's knowledge of agent configurations: the
// standard ids it recognizes a priori, plus extended configurations learned
// from agents during configuration exchange.
type ConfigCatalog struct {
	mu      sync.Mutex
	known   map[uint16]*apdu.ConfigObjectList
	stdOnly map[uint16]bool
}

// NewConfigCatalog returns a catalog seeded with the standard config ids.
func NewConfigCatalog() *ConfigCatalog {
	c := &ConfigCatalog{
		known:   make(map[uint16]*apdu.ConfigObjectList),
		stdOnly: make(map[uint16]bool),
	}
	for _, id := range []uint16{
		StdConfigPulseOximeter, StdConfigPulseOximeter2,
		StdConfigBloodPressure, StdConfigThermometer,
		StdConfigWeighingScale, StdConfigGlucoseMeter,
	} {
		c.stdOnly[id] = true
	}
	return c
}

// Known reports whether the catalog can instantiate the configuration
// without asking the agent for its object list.
func (c *ConfigCatalog) Known(id uint16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.known[id]; ok {
		return true
	}
	return c.stdOnly[id]
}

// Learn caches an agent-supplied extended configuration; a later
// re-association with the same id takes the known-config path.
func (c *ConfigCatalog) Learn(id uint16, cfg *apdu.ConfigObjectList) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.known[id] = cfg
}

// Lookup returns the cached object list for id, or nil for ids that are only
// known structurally (standard configurations).
func (c *ConfigCatalog) Lookup(id uint16) *apdu.ConfigObjectList {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.known[id]
}

// StdConfigObjectList returns the built-in object list an agent reports for
// a standard configuration id, or nil for unknown ids. The lists follow the
// mandatory object complements of the 104xx specializations.
func StdConfigObjectList(id uint16) *apdu.ConfigObjectList {
	numeric := func(handle apdu.Handle, metricType uint16) apdu.ConfigObject {
		return apdu.ConfigObject{
			ObjClass:  MdcMocVmoMetricNu,
			ObjHandle: handle,
			Attributes: apdu.AttributeList{List: []apdu.AVAType{
				{AttributeID: MdcAttrIdType, Value: []byte{byte(metricType >> 8), byte(metricType)}},
			}},
		}
	}
	switch id {
	case StdConfigPulseOximeter, StdConfigPulseOximeter2:
		// SpO2 and pulse rate.
		return &apdu.ConfigObjectList{Objects: []apdu.ConfigObject{
			numeric(1, 19384), numeric(10, 18458),
		}}
	case StdConfigBloodPressure:
		return &apdu.ConfigObjectList{Objects: []apdu.ConfigObject{
			numeric(1, 18948), numeric(2, 18474),
		}}
	case StdConfigThermometer:
		return &apdu.ConfigObjectList{Objects: []apdu.ConfigObject{
			numeric(1, 19292),
		}}
	case StdConfigWeighingScale:
		return &apdu.ConfigObjectList{Objects: []apdu.ConfigObject{
			numeric(1, 57664),
		}}
	case StdConfigGlucoseMeter:
		return &apdu.ConfigObjectList{Objects: []apdu.ConfigObject{
			numeric(1, 28948),
		}}
	}
	return nil
}
