package att

import (
	"bytes"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ConnID identifies one ATT-bearing channel. The transport layer
// (L2CAP fixed channel 0x0004, or any equivalent) owns its meaning;
// this package only uses it as a map key.
type ConnID uint16

// TxFunc sends a PDU to the peer on the given channel. The dispatcher
// never calls it with a PDU longer than that channel's negotiated
// MTU.
type TxFunc func(conn ConnID, pdu []byte) error

// Server dispatches inbound ATT requests against a shared attribute
// table, one independently MTU-negotiated state machine per channel.
// The channel map is guarded by a mutex, so Connect, Disconnect and Rx
// may be called concurrently for different channels; calls for the
// same channel, and registration into the table, are not synchronized
// with Rx.
type Server struct {
	log      *log.Logger
	localMTU uint16
	tx       TxFunc

	table *Table

	mu    sync.Mutex
	conns map[ConnID]*mtuState
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithMTU sets the Server Rx MTU offered during MTU Exchange. It is
// floored at DefaultMTU.
func WithMTU(mtu uint16) Option {
	return func(s *Server) { s.localMTU = mtu }
}

// WithLogger overrides the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTx sets the function the Server uses to send PDUs. A Server
// with no Tx configured returns an error from Rx whenever a response
// must be sent; set it before the first Rx call, or construct with
// WithTx directly.
func WithTx(tx TxFunc) Option {
	return func(s *Server) { s.tx = tx }
}

// NewServer builds a Server around a fresh, empty attribute table.
func NewServer(opts ...Option) *Server {
	s := &Server{
		log:      log.StandardLogger(),
		localMTU: DefaultMTU,
		table:    newTable(),
		conns:    make(map[ConnID]*mtuState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Table returns the server's attribute table, for direct registration
// of entries outside the Service/Characteristic convenience builders.
func (s *Server) Table() *Table { return s.table }

// Connect begins tracking a channel, giving it a fresh MTU state. It
// is idempotent: calling it again for a channel already tracked
// resets that channel's negotiated MTU back to the pre-exchange
// default.
func (s *Server) Connect(conn ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = newMTUState(s.localMTU)
}

// Disconnect stops tracking a channel. Any PDU arriving for it
// afterward is rejected by Rx.
func (s *Server) Disconnect(conn ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) stateFor(conn ConnID) (*mtuState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.conns[conn]
	return st, ok
}

// Rx delivers one inbound PDU for processing. It parses the opcode,
// dispatches to the matching handler, and — for any opcode expecting
// a response — sends one via the configured TxFunc: a positive
// response (or an ATT_ERROR_RSP) when the PDU is a well-formed
// request, or nothing when the PDU is too short to carry even an
// opcode (which per §3.4.1.1 of the protocol is dropped, not
// answered).
func (s *Server) Rx(conn ConnID, pdu []byte) error {
	if len(pdu) < 1 {
		return errors.New("att: empty pdu")
	}
	st, ok := s.stateFor(conn)
	if !ok {
		return errors.Errorf("att: rx on unconnected channel %d", conn)
	}

	opcode := pdu[0]
	body := pdu[1:]

	var resp []byte
	switch opcode {
	case opMTUReq:
		resp = s.handleMTU(st, body)
	case opFindInfoReq:
		resp = s.handleFindInfo(st, body)
	case opFindByTypeValueReq:
		resp = s.handleFindByTypeValue(st, body)
	case opReadReq:
		resp = s.handleRead(st, body)
	case opReadByGroupTypeReq:
		resp = s.handleReadByGroupType(st, body)
	case opWriteReq:
		resp = s.handleWrite(st, body)
	default:
		s.log.WithField("opcode", opcode).Debug("att: unsupported request opcode")
		resp = errorResponse(opcode, 0, ecodeReqNotSupp)
	}

	if resp == nil {
		return nil
	}
	return s.send(conn, resp)
}

func (s *Server) send(conn ConnID, pdu []byte) error {
	if s.tx == nil {
		return errors.New("att: no Tx configured")
	}
	return s.tx(conn, pdu)
}

// handleMTU serves an MTU Exchange Request (§3.4.2.1).
func (s *Server) handleMTU(st *mtuState, body []byte) []byte {
	clientRx, err := parseMTUReq(body)
	if err != nil {
		return errorResponse(opMTUReq, 0, ecodeInvalidPDU)
	}
	serverRx := st.exchange(clientRx)
	w := newWriter(DefaultMTU)
	w.WriteByte(opMTUResp)
	w.WriteUint16(serverRx)
	return w.Bytes()
}

// handleFindInfo serves a Find Information Request (§3.4.3.1),
// returning every handle in [start, end] whose attribute type is
// either all 16-bit or all 128-bit — the format is fixed by the first
// matching entry, and the scan stops at the first entry whose type
// length doesn't match it.
func (s *Server) handleFindInfo(st *mtuState, body []byte) []byte {
	start, end, err := parseHandleRange(body)
	if err != nil {
		return errorResponse(opFindInfoReq, 0, ecodeInvalidPDU)
	}
	if start == 0 || start > end {
		return errorResponse(opFindInfoReq, start, ecodeInvalidHandle)
	}

	entries := s.table.Scan(start, end)
	if len(entries) == 0 {
		return errorResponse(opFindInfoReq, start, ecodeAttrNotFound)
	}

	mtu := st.effective()
	w := newWriter(mtu)
	w.WriteByte(opFindInfoResp)

	_, firstIsShort := entries[0].Type.Short()
	format := findInfoFormat128
	if firstIsShort {
		format = findInfoFormat16
	}
	w.WriteByte(byte(format))

	wroteAny := false
	for _, e := range entries {
		_, isShort := e.Type.Short()
		if isShort != firstIsShort {
			break
		}
		w.Chunk()
		w.WriteUint16(e.Handle)
		if isShort {
			short, _ := e.Type.Short()
			w.WriteUUID(UUID16(short))
		} else {
			w.WriteUUID(e.Type)
		}
		if !w.Commit() {
			break
		}
		wroteAny = true
	}
	if !wroteAny {
		return errorResponse(opFindInfoReq, start, ecodeAttrNotFound)
	}
	return w.Bytes()
}

// handleFindByTypeValue serves a Find By Type Value Request
// (§3.4.3.3): every handle in [start, end] whose type matches attrType
// and whose value matches the request value opens a group, reported as
// a (found handle, group end handle) pair. A group ends at the handle
// just before the next match, or at the last handle in the scanned
// range when no further match follows.
func (s *Server) handleFindByTypeValue(st *mtuState, body []byte) []byte {
	start, end, attrType, value, err := parseFindByTypeValueReq(body)
	if err != nil {
		return errorResponse(opFindByTypeValueReq, 0, ecodeInvalidPDU)
	}
	if start == 0 || start > end {
		return errorResponse(opFindByTypeValueReq, start, ecodeInvalidHandle)
	}

	entries := s.table.Scan(start, end)
	expanded := expand(UUID16(attrType))

	var matches []int
	for i := range entries {
		e := &entries[i]
		if !e.Type.Equal(expanded) {
			continue
		}
		data, rerr := readValue(e)
		if rerr != nil || !bytes.Equal(data, value) {
			continue
		}
		matches = append(matches, i)
	}

	var lastScannedHandle uint16
	if len(entries) > 0 {
		lastScannedHandle = entries[len(entries)-1].Handle
	}

	mtu := st.effective()
	w := newWriter(mtu)
	w.WriteByte(opFindByTypeValueResp)

	wroteAny := false
	for k, idx := range matches {
		foundHandle := entries[idx].Handle
		groupEnd := lastScannedHandle
		if k+1 < len(matches) {
			groupEnd = entries[matches[k+1]].Handle - 1
		}

		w.Chunk()
		w.WriteUint16(foundHandle)
		w.WriteUint16(groupEnd)
		if !w.Commit() {
			break
		}
		wroteAny = true
	}

	if !wroteAny {
		return errorResponse(opFindByTypeValueReq, start, ecodeAttrNotFound)
	}
	return w.Bytes()
}

// handleRead serves a Read Request (§3.4.4.1). Values longer than fit
// in the negotiated MTU are silently truncated, matching a
// non-chunking Read Response; a peer that needs the rest uses Read
// Blob, which is out of scope for this core.
func (s *Server) handleRead(st *mtuState, body []byte) []byte {
	handle, err := parseReadReq(body)
	if err != nil {
		return errorResponse(opReadReq, 0, ecodeInvalidPDU)
	}

	e, ok := s.table.Find(handle)
	if !ok {
		return errorResponse(opReadReq, handle, ecodeInvalidHandle)
	}

	data, rerr := readValue(e)
	if rerr != nil {
		return errorResponse(opReadReq, handle, ecodeUnlikely)
	}

	mtu := st.effective()
	w := newWriter(mtu)
	w.WriteByte(opReadResp)
	max := int(mtu) - 1
	if len(data) > max {
		data = data[:max]
	}
	w.Write(data)
	return w.Bytes()
}

// handleReadByGroupType serves a Read By Group Type Request
// (§3.4.4.9): every attribute in [start, end] of the requested group
// type, reported with its group's end handle (the handle immediately
// before the next group-type attribute in the scanned range, or else
// the last handle in that range, which is clipped to both end and the
// table's last handle).
// Every returned value must share the first matching entry's length;
// a later entry of a different length ends the response rather than
// being included.
func (s *Server) handleReadByGroupType(st *mtuState, body []byte) []byte {
	start, end, err := parseHandleRange(body)
	if err != nil {
		return errorResponse(opReadByGroupTypeReq, 0, ecodeInvalidPDU)
	}
	if start == 0 || start > end {
		return errorResponse(opReadByGroupTypeReq, start, ecodeInvalidHandle)
	}
	groupType, err := parseGroupType(body[4:])
	if err != nil {
		return errorResponse(opReadByGroupTypeReq, start, ecodeInvalidPDU)
	}
	if !isSupportedGroupType(groupType) {
		return errorResponse(opReadByGroupTypeReq, start, ecodeUnsuppGrpType)
	}

	entries := s.table.Scan(start, end)
	var lastScannedHandle uint16
	if len(entries) > 0 {
		lastScannedHandle = entries[len(entries)-1].Handle
	}

	mtu := st.effective()
	w := newWriter(mtu)
	w.WriteByte(opReadByGroupTypeResp)
	w.WriteByte(0) // length placeholder, patched once dlen is known

	dlen := -1
	wroteAny := false

	for i := 0; i < len(entries); i++ {
		e := entries[i]
		if !e.Type.Equal(expand(groupType)) {
			continue
		}
		data, rerr := readValue(&e)
		if rerr != nil {
			continue
		}
		if dlen == -1 {
			dlen = len(data)
		} else if len(data) != dlen {
			break
		}

		groupEnd := lastScannedHandle
		for j := i + 1; j < len(entries); j++ {
			if entries[j].Type.Equal(expand(groupType)) {
				groupEnd = entries[j].Handle - 1
				break
			}
		}

		w.Chunk()
		w.WriteUint16(e.Handle)
		w.WriteUint16(groupEnd)
		w.Write(data)
		if !w.Commit() {
			break
		}
		wroteAny = true
	}

	if !wroteAny {
		return errorResponse(opReadByGroupTypeReq, start, ecodeAttrNotFound)
	}

	w.buf[1] = byte(2 + 2 + dlen)
	return w.Bytes()
}

// isSupportedGroupType reports whether a group type is one this core
// recognizes as groupable. GATT profile logic (which types those are
// and what their declarations mean) is out of scope; callers register
// groupable attributes through the Service builder, and this check
// only needs to reject obviously-bogus group types the way a real ATT
// server rejects unknown grouping attribute types.
func isSupportedGroupType(u UUID) bool {
	v, ok := u.Short()
	if !ok {
		return false
	}
	switch v {
	case primaryServiceType, secondaryServiceType:
		return true
	default:
		return false
	}
}

// handleWrite serves a Write Request (§3.4.5.1). Permission
// enforcement is not this layer's concern: a write against a
// read-only callback surfaces as UNLIKELY_ERROR, not
// WRITE_NOT_PERMITTED, because that judgment belongs to the callback
// itself.
func (s *Server) handleWrite(st *mtuState, body []byte) []byte {
	handle, value, err := parseWriteReq(body)
	if err != nil {
		return errorResponse(opWriteReq, 0, ecodeInvalidPDU)
	}

	e, ok := s.table.Find(handle)
	if !ok {
		return errorResponse(opWriteReq, handle, ecodeInvalidHandle)
	}

	arg := &AccessArg{Value: value}
	if werr := e.Access(e, AccessWrite, arg); werr != nil {
		return errorResponse(opWriteReq, handle, ecodeUnlikely)
	}

	return []byte{opWriteResp}
}
