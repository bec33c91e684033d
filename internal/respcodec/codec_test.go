package respcodec

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecode_CompleteArray(t *testing.T) {
	buf := []byte("*2\r\n$3\r\nSET\r\n$3\r\nfoo\r\n")
	res := Decode(buf)
	if res.Status != Complete {
		t.Fatalf("Status = %v, want Complete (err=%v)", res.Status, res.Err)
	}
	want := [][]byte{[]byte("SET"), []byte("foo")}
	if len(res.Args) != len(want) {
		t.Fatalf("Args = %q, want %q", res.Args, want)
	}
	for i := range want {
		if !bytes.Equal(res.Args[i], want[i]) {
			t.Fatalf("Args[%d] = %q, want %q", i, res.Args[i], want[i])
		}
	}
	if res.Consumed != len(buf) {
		t.Fatalf("Consumed = %d, want %d", res.Consumed, len(buf))
	}
}

// TestDecode_IncompletePrefix matches spec.md §8 property: any strict
// prefix of a complete frame decodes as Incomplete, never Malformed.
func TestDecode_IncompletePrefix(t *testing.T) {
	full := []byte("*2\r\n$3\r\nSET\r\n$3\r\nfoo\r\n")
	for i := 1; i < len(full); i++ {
		res := Decode(full[:i])
		if res.Status != Incomplete {
			t.Fatalf("prefix length %d: Status = %v, want Incomplete", i, res.Status)
		}
	}
}

// TestDecode_BulkPayloadIsBinarySafe asserts embedded CRLF inside a bulk
// payload is not treated as a terminator: the frame only completes once
// the declared length of payload bytes plus the trailing CRLF have all
// arrived.
func TestDecode_BulkPayloadIsBinarySafe(t *testing.T) {
	value := []byte("a\r\nb\r\nc")
	var buf []byte
	buf = AppendArrayHeader(buf, 2)
	buf = AppendBulk(buf, []byte("SET"))
	buf = AppendBulk(buf, value)

	// A prefix ending mid-payload (even right after an embedded CRLF) must
	// still be Incomplete.
	cut := bytes.Index(buf, []byte("a\r\nb"))
	if cut < 0 {
		t.Fatal("test fixture malformed")
	}
	if res := Decode(buf[:cut+4]); res.Status != Incomplete {
		t.Fatalf("mid-payload prefix: Status = %v, want Incomplete", res.Status)
	}

	res := Decode(buf)
	if res.Status != Complete {
		t.Fatalf("Status = %v, want Complete (err=%v)", res.Status, res.Err)
	}
	if !bytes.Equal(res.Args[1], value) {
		t.Fatalf("Args[1] = %q, want %q", res.Args[1], value)
	}
}

func TestDecode_MalformedNegativeArrayLength(t *testing.T) {
	res := Decode([]byte("*-2\r\n"))
	if res.Status != Malformed {
		t.Fatalf("Status = %v, want Malformed", res.Status)
	}
	if !errors.Is(res.Err, ErrProtocol) {
		t.Fatalf("Err = %v, want wrapping ErrProtocol", res.Err)
	}
}

func TestDecode_MalformedBulkMissingDollarSign(t *testing.T) {
	res := Decode([]byte("*1\r\n:3\r\nfoo\r\n"))
	if res.Status != Malformed {
		t.Fatalf("Status = %v, want Malformed", res.Status)
	}
}

func TestDecode_MalformedBulkMissingTrailingCRLF(t *testing.T) {
	res := Decode([]byte("*1\r\n$3\r\nfooXX"))
	if res.Status != Malformed {
		t.Fatalf("Status = %v, want Malformed", res.Status)
	}
}

func TestDecode_ArrayLengthExceedsLimit(t *testing.T) {
	res := Decode([]byte("*1025\r\n"))
	if res.Status != Malformed {
		t.Fatalf("Status = %v, want Malformed", res.Status)
	}
	if !errors.Is(res.Err, ErrLimitExceeded) {
		t.Fatalf("Err = %v, want wrapping ErrLimitExceeded", res.Err)
	}
}

func TestDecode_BulkLengthExceedsLimit(t *testing.T) {
	res := Decode([]byte("*1\r\n$524289\r\n"))
	if res.Status != Malformed {
		t.Fatalf("Status = %v, want Malformed", res.Status)
	}
	if !errors.Is(res.Err, ErrLimitExceeded) {
		t.Fatalf("Err = %v, want wrapping ErrLimitExceeded", res.Err)
	}
}

func TestDecode_NullBulkElement(t *testing.T) {
	res := Decode([]byte("*1\r\n$-1\r\n"))
	if res.Status != Complete {
		t.Fatalf("Status = %v, want Complete (err=%v)", res.Status, res.Err)
	}
	if len(res.Args) != 1 || res.Args[0] != nil {
		t.Fatalf("Args = %v, want [nil]", res.Args)
	}
}

func TestDecode_InlineCommand(t *testing.T) {
	res := Decode([]byte("GET foo\r\n"))
	if res.Status != Complete {
		t.Fatalf("Status = %v, want Complete (err=%v)", res.Status, res.Err)
	}
	want := [][]byte{[]byte("GET"), []byte("foo")}
	for i := range want {
		if !bytes.Equal(res.Args[i], want[i]) {
			t.Fatalf("Args[%d] = %q, want %q", i, res.Args[i], want[i])
		}
	}
}

func TestDecode_InlineCommandBareLF(t *testing.T) {
	res := Decode([]byte("DEL foo\n"))
	if res.Status != Complete {
		t.Fatalf("Status = %v, want Complete (err=%v)", res.Status, res.Err)
	}
}

func TestDecode_PipelinedFramesConsumeOnlyFirst(t *testing.T) {
	buf := []byte("*1\r\n$3\r\nfoo\r\n*1\r\n$3\r\nbar\r\n")
	res := Decode(buf)
	if res.Status != Complete {
		t.Fatalf("Status = %v, want Complete (err=%v)", res.Status, res.Err)
	}
	if res.Consumed != 13 {
		t.Fatalf("Consumed = %d, want 13", res.Consumed)
	}
	rest := Decode(buf[res.Consumed:])
	if rest.Status != Complete || !bytes.Equal(rest.Args[0], []byte("bar")) {
		t.Fatalf("second frame = %+v, want Complete [bar]", rest)
	}
}

func TestEncode_RoundTripsThroughDecode(t *testing.T) {
	var buf []byte
	buf = AppendArrayHeader(buf, 3)
	buf = AppendBulk(buf, []byte("SET"))
	buf = AppendBulk(buf, []byte("key"))
	buf = AppendBulk(buf, []byte{0x00, 0xff, '\r', '\n', 0x01})

	res := Decode(buf)
	if res.Status != Complete {
		t.Fatalf("Status = %v, want Complete (err=%v)", res.Status, res.Err)
	}
	if len(res.Args) != 3 {
		t.Fatalf("Args = %v, want 3 elements", res.Args)
	}
	if !bytes.Equal(res.Args[2], []byte{0x00, 0xff, '\r', '\n', 0x01}) {
		t.Fatalf("Args[2] = %v, want binary payload preserved", res.Args[2])
	}
}

func TestEncode_SimpleStringErrorInteger(t *testing.T) {
	var buf []byte
	buf = AppendSimpleString(buf, "OK")
	buf = AppendError(buf, "ERR wrong number of arguments")
	buf = AppendInteger(buf, 42)
	buf = AppendNullBulk(buf)

	want := "+OK\r\n-ERR wrong number of arguments\r\n:42\r\n$-1\r\n"
	if string(buf) != want {
		t.Fatalf("buf = %q, want %q", buf, want)
	}
}
