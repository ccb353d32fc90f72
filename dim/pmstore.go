package dim

import (
	"fmt"
	"sync"

	"github.com/giesekow/go-phd/apdu"
	"github.com/grailbio/go-dicom/dicomlog"
)

// Segment is one PM-segment: an append-only store of fixed-size entries.
type Segment struct {
	InstNo  uint16
	Entries []byte
	// EntryCount mirrors the agent-reported entry count. SegmentInfoList
	// does not report it; its entries carry only the instance number and
	// the PM-store handle.
	EntryCount uint32
}

// PMStore is a persistent metric store object holding numbered segments.
type PMStore struct {
	Handle apdu.Handle

	mu       sync.Mutex
	segments map[uint16]*Segment
}

// NewPMStore builds an empty PM-store with the given handle.
func NewPMStore(handle apdu.Handle) *PMStore {
	return &PMStore{Handle: handle, segments: make(map[uint16]*Segment)}
}

// Segment returns the segment with the given instance number, or nil.
func (p *PMStore) Segment(instNo uint16) *Segment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.segments[instNo]
}

// AddSegment registers a segment (agent side).
func (p *PMStore) AddSegment(s *Segment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.segments[s.InstNo] = s
}

// SegmentDataEvent ingests one segment data transfer chunk. It returns false
// when the chunk is inconsistent with the segment state, which the caller
// maps to a ManagerAbort status.
func (p *PMStore) SegmentDataEvent(evt *apdu.SegmentDataEvent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	descr := &evt.SegmDataEventDescr
	seg := p.segments[descr.SegmInstance]
	if seg == nil {
		seg = &Segment{InstNo: descr.SegmInstance}
		p.segments[descr.SegmInstance] = seg
	}
	if descr.SegmEvtStatus&apdu.SevtstaFirstEntry != 0 {
		seg.Entries = nil
		seg.EntryCount = 0
	}
	if descr.SegmEvtEntryIndex != seg.EntryCount {
		dicomlog.Vprintf(0, "dim.PMStore(%d): segment %d entry index %d, have %d",
			p.Handle, descr.SegmInstance, descr.SegmEvtEntryIndex, seg.EntryCount)
		return false
	}
	seg.Entries = append(seg.Entries, evt.SegmDataEventEntries...)
	seg.EntryCount += descr.SegmEvtEntryCount
	return true
}

// ClearSegment drops the contents of a segment (agent side). It reports
// whether the segment exists.
func (p *PMStore) ClearSegment(instNo uint16) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	seg := p.segments[instNo]
	if seg == nil {
		return false
	}
	seg.Entries = nil
	seg.EntryCount = 0
	return true
}

// SegmentInfoList describes all segments (agent side response to
// MDC_ACT_SEG_GET_INFO).
func (p *PMStore) SegmentInfoList() *apdu.SegmentInfoList {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := &apdu.SegmentInfoList{}
	for _, seg := range p.segments {
		out.Segments = append(out.Segments, apdu.SegmentInfo{
			SegInstNo: seg.InstNo,
			SegInfo: apdu.AttributeList{List: []apdu.AVAType{
				{AttributeID: MdcAttrIdHandle, Value: []byte{byte(p.Handle >> 8), byte(p.Handle)}},
			}},
		})
	}
	return out
}

// Completion results delivered to manager-side PM-store requests. errtype
// distinguishes a clean response from ROER/RORJ outcomes, matching the
// (errtype, errcode) propagation of the request callbacks.
const (
	ResultOK   = 0
	ResultRoer = 1
	ResultRorj = 2
)

// ClearSegmentResult records the outcome of a segment clear. Instance 0
// clears every segment.
func (p *PMStore) ClearSegmentResult(instNo uint16, errtype int, errcode uint16) {
	if errtype != ResultOK {
		dicomlog.Vprintf(0, "dim.PMStore(%d): clear segment %d failed (%d/%d)", p.Handle, instNo, errtype, errcode)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, seg := range p.segments {
		if instNo != 0 && seg.InstNo != instNo {
			continue
		}
		seg.Entries = nil
		seg.EntryCount = 0
	}
}

// SegmentInfoResult merges a SegmentInfoList response into the store
// (manager side).
func (p *PMStore) SegmentInfoResult(list *apdu.SegmentInfoList, errtype int, errcode uint16) {
	if errtype != ResultOK {
		dicomlog.Vprintf(0, "dim.PMStore(%d): segment info failed (%d/%d)", p.Handle, errtype, errcode)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range list.Segments {
		info := &list.Segments[i]
		if p.segments[info.SegInstNo] == nil {
			p.segments[info.SegInstNo] = &Segment{InstNo: info.SegInstNo}
		}
	}
}

// TrigSegmentDataXferResponse records the agent's answer to a transfer
// trigger (manager side).
func (p *PMStore) TrigSegmentDataXferResponse(rsp *apdu.TrigSegmDataXferRsp, errtype int, errcode uint16) {
	if errtype != ResultOK {
		dicomlog.Vprintf(0, "dim.PMStore(%d): trig xfer failed (%d/%d)", p.Handle, errtype, errcode)
		return
	}
	dicomlog.Vprintf(1, "dim.PMStore(%d): trig xfer segment %d -> %d", p.Handle, rsp.SegInstNo, rsp.TrigSegmXferRsp)
}

func (p *PMStore) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("pmstore{handle:%d segments:%d}", p.Handle, len(p.segments))
}
