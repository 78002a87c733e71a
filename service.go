package att

import "github.com/pkg/errors"

// Characteristic declaration property bits, carried in the value of a
// Characteristic Declaration attribute (0x2803), reported to the
// peer but not enforced here.
const (
	CharRead   = 0x02
	CharWrite  = 0x08
	CharNotify = 0x10
)

// ReadFunc adapts a plain value-producing function to AccessCallback,
// for attributes that never accept writes.
func ReadFunc(fn func() []byte) AccessCallback {
	return func(e *Entry, op AccessOp, arg *AccessArg) error {
		if op != AccessRead {
			return errWriteNotSupported
		}
		arg.Data = fn()
		return nil
	}
}

// WriteFunc adapts a plain value-consuming function to AccessCallback,
// for attributes that never accept reads.
func WriteFunc(fn func(value []byte) error) AccessCallback {
	return func(e *Entry, op AccessOp, arg *AccessArg) error {
		if op != AccessWrite {
			return errReadNotSupported
		}
		return fn(arg.Value)
	}
}

// ReadWriteFunc adapts a pair of functions, one per direction, to a
// single AccessCallback.
func ReadWriteFunc(read func() []byte, write func(value []byte) error) AccessCallback {
	return func(e *Entry, op AccessOp, arg *AccessArg) error {
		switch op {
		case AccessRead:
			arg.Data = read()
			return nil
		case AccessWrite:
			return write(arg.Value)
		default:
			return errUnknownAccessOp
		}
	}
}

// StaticValue returns an AccessCallback serving a fixed, read-only
// value.
func StaticValue(b []byte) AccessCallback {
	return ReadFunc(func() []byte { return b })
}

var (
	errWriteNotSupported = errors.New("att: attribute does not support write")
	errReadNotSupported  = errors.New("att: attribute does not support read")
	errUnknownAccessOp   = errors.New("att: unknown access op")
)

// Characteristic describes one characteristic's declaration and value
// attributes as they are registered into a Table: a Characteristic
// Declaration entry (type 0x2803, read-only, reporting properties and
// the value handle) immediately followed by the value entry itself.
type Characteristic struct {
	UUID       UUID
	Properties byte
	Access     AccessCallback

	declHandle  uint16
	valueHandle uint16
}

// Service groups a run of characteristics under a Primary or
// Secondary Service declaration, for registration into a Server's
// table as one contiguous, groupable block.
type Service struct {
	UUID      UUID
	Secondary bool

	chars []*Characteristic
}

// NewService builds a Service for the given UUID.
func NewService(uuid UUID) *Service {
	return &Service{UUID: uuid}
}

// AddCharacteristic appends a characteristic to the service's
// registration block. It panics if a characteristic with the same
// UUID has already been added, mirroring the duplicate-UUID guard of
// the builder this one is modeled on.
func (svc *Service) AddCharacteristic(c *Characteristic) *Characteristic {
	for _, existing := range svc.chars {
		if existing.UUID.Equal(c.UUID) {
			panic("att: duplicate characteristic uuid " + c.UUID.String())
		}
	}
	svc.chars = append(svc.chars, c)
	return c
}

// AddService registers svc's declaration and every characteristic it
// contains into the server's table, returning the service
// declaration's handle. Services and their characteristics can only
// be added, never removed, matching the table's append-only handle
// assignment.
func (s *Server) AddService(svc *Service) uint16 {
	groupType := UUID16(primaryServiceType)
	if svc.Secondary {
		groupType = UUID16(secondaryServiceType)
	}
	svcHandle := s.table.Register(groupType, FlagRead, StaticValue(svc.UUID.Bytes()))

	for _, c := range svc.chars {
		c.declHandle = s.table.LastHandle() + 1
		c.valueHandle = c.declHandle + 1

		declValue := make([]byte, 0, 3+c.UUID.Len())
		declValue = append(declValue, c.Properties)
		declValue = append(declValue, byte(c.valueHandle), byte(c.valueHandle>>8))
		declValue = append(declValue, c.UUID.Bytes()...)
		s.table.Register(UUID16(0x2803), FlagRead, StaticValue(declValue))

		flags := Flags(0)
		if c.Properties&CharRead != 0 {
			flags |= FlagRead
		}
		if c.Properties&CharWrite != 0 {
			flags |= FlagWrite
		}
		if c.Properties&CharNotify != 0 {
			flags |= FlagNotify
		}
		s.table.Register(c.UUID, flags, c.Access)
	}

	return svcHandle
}
