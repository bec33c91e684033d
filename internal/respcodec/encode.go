package respcodec

import "strconv"

// The encoder functions append a single RESP-2 reply to dst and return the
// extended slice, mirroring append's own calling convention so the
// Dispatcher can build a reply directly into its per-connection outbound
// buffer without an intermediate bufio.Writer.

// AppendSimpleString appends a `+<s>\r\n` reply. s must not contain CR or LF;
// callers only ever pass static strings (e.g. "OK"), never user data.
func AppendSimpleString(dst []byte, s string) []byte {
	dst = append(dst, '+')
	dst = append(dst, s...)
	return append(dst, '\r', '\n')
}

// AppendError appends a `-<msg>\r\n` reply. msg must not contain CR or LF.
func AppendError(dst []byte, msg string) []byte {
	dst = append(dst, '-')
	dst = append(dst, msg...)
	return append(dst, '\r', '\n')
}

// AppendInteger appends a `:<n>\r\n` reply.
func AppendInteger(dst []byte, n int64) []byte {
	dst = append(dst, ':')
	dst = strconv.AppendInt(dst, n, 10)
	return append(dst, '\r', '\n')
}

// AppendBulk appends a `$<len>\r\n<value>\r\n` reply. value is copied
// byte-for-byte regardless of its contents.
func AppendBulk(dst []byte, value []byte) []byte {
	dst = append(dst, '$')
	dst = strconv.AppendInt(dst, int64(len(value)), 10)
	dst = append(dst, '\r', '\n')
	dst = append(dst, value...)
	return append(dst, '\r', '\n')
}

// AppendNullBulk appends the RESP-2 null bulk string, `$-1\r\n`, used for a
// GET miss.
func AppendNullBulk(dst []byte) []byte {
	return append(dst, '$', '-', '1', '\r', '\n')
}

// AppendArrayHeader appends a `*<n>\r\n` array header. Callers append n
// elements (via AppendBulk or similar) immediately after.
func AppendArrayHeader(dst []byte, n int) []byte {
	dst = append(dst, '*')
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, '\r', '\n')
}

// AppendNullArray appends the RESP-2 null array, `*-1\r\n`.
func AppendNullArray(dst []byte) []byte {
	return append(dst, '*', '-', '1', '\r', '\n')
}
