package syscall

import (
	"bufio"
	"os"
)

// Console is out of scope for the scheduler core (spec §1 "console"); the
// dispatch layer needs only the two operations SysRead/SysWrite use for fds
// 0 and 1. A package-level default backs stdin/stdout directly; tests
// substitute their own via SetConsole.
type Console interface {
	ReadByte() (byte, bool)
	WriteBytes(buf []byte) int
}

type stdioConsole struct {
	in *bufio.Reader
}

func (c *stdioConsole) ReadByte() (byte, bool) {
	b, err := c.in.ReadByte()
	if err != nil {
		return 0, false
	}
	return b, true
}

func (c *stdioConsole) WriteBytes(buf []byte) int {
	n, _ := os.Stdout.Write(buf)
	return n
}

var console Console = &stdioConsole{in: bufio.NewReader(os.Stdin)}

// SetConsole overrides the package-wide console backing fds 0/1, for tests.
func SetConsole(c Console) { console = c }

func readKeyboard(buf []byte) int {
	for i := range buf {
		b, ok := console.ReadByte()
		if !ok {
			return i
		}
		buf[i] = b
	}
	return len(buf)
}

func writeConsole(buf []byte) int {
	return console.WriteBytes(buf)
}
