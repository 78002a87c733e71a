package att

// DefaultMTU is ATT_MTU_DEFAULT: the MTU in effect before any MTU
// exchange, and the floor applied to a negotiated peer MTU.
const DefaultMTU = 23

// mtuState tracks the negotiated MTU for one ATT-bearing channel. It
// is created when the channel is created and discarded with it; no
// request other than MTU Exchange mutates it.
type mtuState struct {
	local     uint16
	peer      uint16
	exchanged bool
}

func newMTUState(local uint16) *mtuState {
	if local < DefaultMTU {
		local = DefaultMTU
	}
	return &mtuState{local: local, peer: DefaultMTU}
}

// exchange applies a Client Rx MTU, flooring it at DefaultMTU, and
// returns the Server Rx MTU to report back in the response. This
// floor is a deliberate deviation from strict protocol handling (a
// too-small client MTU would otherwise be a protocol error); it is
// preserved here to match the behavior this core is grounded on.
func (m *mtuState) exchange(clientRx uint16) uint16 {
	peer := clientRx
	if peer < DefaultMTU {
		peer = DefaultMTU
	}
	m.peer = peer
	m.exchanged = true
	return m.local
}

// effective is the MTU all response sizing must respect.
func (m *mtuState) effective() uint16 {
	if !m.exchanged {
		return DefaultMTU
	}
	if m.local < m.peer {
		return m.local
	}
	return m.peer
}
