package att

import "testing"

func TestTableFind(t *testing.T) {
	tbl := newTable()
	h1 := tbl.Register(UUID16(0x2800), FlagRead, StaticValue([]byte{1}))
	h2 := tbl.Register(UUID16(0x2803), FlagRead, StaticValue([]byte{2}))
	h3 := tbl.Register(UUID16(0x2A00), FlagRead, StaticValue([]byte{3}))

	if h1 != 1 || h2 != 2 || h3 != 3 {
		t.Fatalf("Register returned (%d, %d, %d), want (1, 2, 3)", h1, h2, h3)
	}

	for _, n := range []uint16{0, 4, 5, 100} {
		if _, ok := tbl.Find(n); ok {
			t.Errorf("Find(%d) should return !ok", n)
		}
	}
	for _, n := range []uint16{1, 2, 3} {
		e, ok := tbl.Find(n)
		if !ok {
			t.Errorf("Find(%d) should return ok", n)
			continue
		}
		if e.Handle != n {
			t.Errorf("Find(%d) returned handle %d", n, e.Handle)
		}
	}
}

func TestTableScan(t *testing.T) {
	tbl := newTable()
	tbl.Register(UUID16(0x2800), FlagRead, StaticValue(nil))
	tbl.Register(UUID16(0x2803), FlagRead, StaticValue(nil))
	tbl.Register(UUID16(0x2A00), FlagRead, StaticValue(nil))

	cases := []struct {
		start, end uint16
		wantLen    int
		wantFirst  uint16
	}{
		{start: 0, end: 0, wantLen: 0},
		{start: 0, end: 1, wantLen: 1, wantFirst: 1},
		{start: 1, end: 2, wantLen: 2, wantFirst: 1},
		{start: 1, end: 100, wantLen: 3, wantFirst: 1},
		{start: 2, end: 100, wantLen: 2, wantFirst: 2},
		{start: 3, end: 3, wantLen: 1, wantFirst: 3},
		{start: 4, end: 100, wantLen: 0},
		{start: 100, end: 200, wantLen: 0},
		{start: 5, end: 1, wantLen: 0},
	}

	for _, tt := range cases {
		got := tbl.Scan(tt.start, tt.end)
		if len(got) != tt.wantLen {
			t.Errorf("Scan(%d, %d) len = %d, want %d", tt.start, tt.end, len(got), tt.wantLen)
			continue
		}
		if tt.wantLen > 0 && got[0].Handle != tt.wantFirst {
			t.Errorf("Scan(%d, %d) first handle = %d, want %d", tt.start, tt.end, got[0].Handle, tt.wantFirst)
		}
	}
}

func TestTableLastHandle(t *testing.T) {
	tbl := newTable()
	if tbl.LastHandle() != 0 {
		t.Errorf("LastHandle() on empty table = %d, want 0", tbl.LastHandle())
	}
	tbl.Register(UUID16(0x2800), FlagRead, StaticValue(nil))
	tbl.Register(UUID16(0x2803), FlagRead, StaticValue(nil))
	if tbl.LastHandle() != 2 {
		t.Errorf("LastHandle() = %d, want 2", tbl.LastHandle())
	}
}

func TestTableRegisterExpandsShortUUID(t *testing.T) {
	tbl := newTable()
	tbl.Register(UUID16(0x180D), FlagRead, StaticValue(nil))
	e, _ := tbl.Find(1)
	if e.Type.Len() != 16 {
		t.Errorf("Register should store the expanded 128-bit type, got length %d", e.Type.Len())
	}
	if v, ok := e.Type.Short(); !ok || v != 0x180D {
		t.Errorf("stored type should contract back to 0x180D, got (%x, %v)", v, ok)
	}
}
