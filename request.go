package att

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// errMalformed marks a PDU body too short (or, for a group type, of the
// wrong length) for its opcode; the handlers answer it with an
// INVALID_PDU Error Response.
var errMalformed = errors.New("att: malformed pdu")

func parseMTUReq(b []byte) (clientRxMTU uint16, err error) {
	if len(b) < 2 {
		return 0, errMalformed
	}
	return binary.LittleEndian.Uint16(b), nil
}

func parseHandleRange(b []byte) (start, end uint16, err error) {
	if len(b) < 4 {
		return 0, 0, errMalformed
	}
	return binary.LittleEndian.Uint16(b), binary.LittleEndian.Uint16(b[2:]), nil
}

func parseReadReq(b []byte) (handle uint16, err error) {
	if len(b) < 2 {
		return 0, errMalformed
	}
	return binary.LittleEndian.Uint16(b), nil
}

func parseWriteReq(b []byte) (handle uint16, value []byte, err error) {
	if len(b) < 2 {
		return 0, nil, errMalformed
	}
	return binary.LittleEndian.Uint16(b), b[2:], nil
}

// parseFindByTypeValueReq splits a Find By Type Value Request body
// into its fixed fields and the trailing attribute value, which runs
// to the end of the PDU.
func parseFindByTypeValueReq(b []byte) (start, end, attrType uint16, value []byte, err error) {
	if len(b) < 6 {
		return 0, 0, 0, nil, errMalformed
	}
	start = binary.LittleEndian.Uint16(b)
	end = binary.LittleEndian.Uint16(b[2:])
	attrType = binary.LittleEndian.Uint16(b[4:])
	value = b[6:]
	return start, end, attrType, value, nil
}

// parseGroupType parses the 2- or 16-byte group type UUID trailing a
// Read By Group Type Request's handle range.
func parseGroupType(b []byte) (UUID, error) {
	switch len(b) {
	case 2, 16:
		return UUID{b: append([]byte(nil), b...)}, nil
	default:
		return UUID{}, errMalformed
	}
}
