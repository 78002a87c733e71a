// Package att implements the server side of the Bluetooth Attribute
// Protocol (ATT): an ordered, handle-indexed attribute table and the
// request dispatcher that resolves inbound ATT PDUs against it.
//
// STATUS
//
// This package covers only the ATT layer: decoding requests, walking
// the attribute table, and encoding the matching response or error.
// HCI, L2CAP channel setup, connection lifecycle, and GATT profile
// semantics (services-as-discovery, permission enforcement, signed
// writes, indications) live above or below this package and are not
// its concern; it is driven entirely through Server.Rx and the Tx
// callback.
//
// USAGE
//
//	srv := att.NewServer(att.WithMTU(185), att.WithTx(func(conn att.ConnID, pdu []byte) error {
//		return l2capChannel.Write(pdu)
//	}))
//
//	svc := att.NewService(att.MustParse("09fc95c0-c111-11e3-9904-0002a5d5c51b"))
//	n := 0
//	svc.AddCharacteristic(&att.Characteristic{
//		UUID:       att.MustParse("11fac9e0-c111-11e3-9246-0002a5d5c51b"),
//		Properties: att.CharRead,
//		Access: att.ReadFunc(func() []byte {
//			n++
//			return []byte(fmt.Sprintf("count: %d", n))
//		}),
//	})
//	srv.AddService(svc)
//
//	srv.Connect(connID)
//	srv.Rx(connID, inboundPDU)
//
// See the rest of the docs for the full set of supported requests
// and the access-callback contract.
package att
