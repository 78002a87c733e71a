package att

// AccessOp tags which half of the access-callback contract a given
// call represents.
type AccessOp uint8

const (
	// AccessRead asks the callback to fill in Arg.Data with the
	// attribute's current value.
	AccessRead AccessOp = iota
	// AccessWrite asks the callback to accept Arg.Value as the
	// attribute's new value.
	AccessWrite
)

// AccessArg is the tagged argument passed to an AccessCallback: an
// outgoing (data) slot on Read, an incoming value on Write. The
// callback must not retain either slice past the call; both are
// views over transient buffers.
type AccessArg struct {
	Data  []byte // Read: the callback sets this to the value to return.
	Value []byte // Write: the incoming payload, read-only to the callback.
}

// AccessCallback is the capability invoked to serve a Read or Write
// against one attribute entry. It returns a non-nil error if the
// access could not be completed; Read and Write Requests surface that
// as UNLIKELY_ERROR, since permission enforcement is not this layer's
// concern, while Find By Type Value and Read By Group Type skip an
// entry whose read fails.
type AccessCallback func(e *Entry, op AccessOp, arg *AccessArg) error

// Flags is a bitset of attribute permission/role hints. They are
// stored on each Entry (visible through Table.Find and Table.Scan) but
// never sent in a response and never enforced by the dispatcher: a callback that rejects a Read or Write on a
// "read-only" or "write-only" attribute is free to do so itself.
type Flags uint8

const (
	FlagRead Flags = 1 << iota
	FlagWrite
	FlagNotify
	FlagIndicate
)

// Entry is a row in the attribute table: a handle, its type (always
// a 128-bit UUID — 16-bit aliases are expanded at registration time),
// its flags, and the callback serving reads and writes against it.
type Entry struct {
	Handle uint16
	Type   UUID
	Flags  Flags
	Access AccessCallback
}

// Table is an ordered, handle-indexed, append-only attribute store.
// Handles are assigned sequentially starting at 1, so the mapping
// handle -> entry is total on [1, N] with no gaps. The table never
// shrinks; a Scan result is a single, finite snapshot of the table at
// the time it was taken.
type Table struct {
	entries []Entry
}

func newTable() *Table {
	return &Table{}
}

// Register appends a new entry and returns its handle, which is
// always the previous last handle plus one (or 1 for the first
// entry). uuid is expanded to its 128-bit form before being stored.
func (t *Table) Register(uuid UUID, flags Flags, access AccessCallback) uint16 {
	h := uint16(len(t.entries) + 1)
	t.entries = append(t.entries, Entry{
		Handle: h,
		Type:   expand(uuid),
		Flags:  flags,
		Access: access,
	})
	return h
}

// Find returns the entry at handle, if any.
func (t *Table) Find(handle uint16) (*Entry, bool) {
	if handle == 0 || int(handle) > len(t.entries) {
		return nil, false
	}
	return &t.entries[handle-1], true
}

// Scan returns the entries whose handles lie in [start, end], in
// handle order, clipped to the entries actually registered. The
// result may be empty; it never panics on an out-of-range start or
// end.
func (t *Table) Scan(start, end uint16) []Entry {
	n := uint16(len(t.entries))
	if n == 0 {
		return nil
	}
	if start < 1 {
		start = 1
	}
	if end > n {
		end = n
	}
	if start > end {
		return nil
	}
	return t.entries[start-1 : end]
}

// LastHandle returns the highest handle currently registered, or 0 if
// the table is empty.
func (t *Table) LastHandle() uint16 {
	return uint16(len(t.entries))
}

// readValue invokes e's access callback for a Read and returns the
// value it produced.
func readValue(e *Entry) ([]byte, error) {
	arg := &AccessArg{}
	if err := e.Access(e, AccessRead, arg); err != nil {
		return nil, err
	}
	return arg.Data, nil
}
