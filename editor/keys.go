package editor

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf8"
)

// KeyCode identifies a decoded key press.
type KeyCode int

const (
	KeyUnknown KeyCode = iota
	KeyRune
	KeyBackspace
	KeyEnter
	KeyTab
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyEOF       // Ctrl-D
	KeyInterrupt // Ctrl-C
)

var keyNames = map[KeyCode]string{
	KeyUnknown:   "unknown",
	KeyRune:      "rune",
	KeyBackspace: "backspace",
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyEOF:       "ctrl-d",
	KeyInterrupt: "ctrl-c",
}

func (c KeyCode) String() string {
	if s, ok := keyNames[c]; ok {
		return s
	}
	return fmt.Sprintf("KeyCode(%d)", int(c))
}

// Key is one decoded key event. Rune is set for KeyRune; Raw holds the bytes
// the key arrived as.
type Key struct {
	Code KeyCode
	Rune rune
	Raw  []byte
}

// KeySource yields key events, blocking until one is available.
type KeySource interface {
	ReadKey() (Key, error)
}

// KeyReader decodes key events from a raw-mode terminal byte stream.
type KeyReader struct {
	r *bufio.Reader

	// lastEsc is set after a lone ESC. A sequence introducer arriving next,
	// together with more bytes, is the rest of that sequence.
	lastEsc bool
}

// NewKeyReader wraps r.
func NewKeyReader(r io.Reader) *KeyReader {
	return &KeyReader{r: bufio.NewReader(r)}
}

// ReadKey decodes the next key. Input it cannot make sense of comes back as
// KeyUnknown with the offending bytes, never as an error.
func (k *KeyReader) ReadKey() (Key, error) {
	if k.lastEsc {
		k.lastEsc = false
		if b, err := k.r.Peek(1); err == nil && isIntroducer(b[0]) && k.r.Buffered() > 1 {
			return k.readSequence([]byte{27})
		}
	}
	r, size, err := k.r.ReadRune()
	if err != nil {
		return Key{}, err
	}
	if r == utf8.RuneError && size == 1 {
		_ = k.r.UnreadByte()
		b, _ := k.r.ReadByte()
		return Key{Code: KeyUnknown, Raw: []byte{b}}, nil
	}
	raw := []byte(string(r))

	switch r {
	case '\r', '\n':
		return Key{Code: KeyEnter, Raw: raw}, nil
	case '\t':
		return Key{Code: KeyTab, Raw: raw}, nil
	case 127, 8:
		return Key{Code: KeyBackspace, Raw: raw}, nil
	case 3:
		return Key{Code: KeyInterrupt, Raw: raw}, nil
	case 4:
		return Key{Code: KeyEOF, Raw: raw}, nil
	case 27:
		return k.readEscape()
	}
	if r < 32 {
		return Key{Code: KeyUnknown, Raw: raw}, nil
	}
	return Key{Code: KeyRune, Rune: r, Raw: raw}, nil
}

// readEscape decodes CSI (ESC [) and SS3 (ESC O) sequences. A lone ESC, with
// nothing else already buffered, is reported as unknown.
func (k *KeyReader) readEscape() (Key, error) {
	raw := []byte{27}
	if k.r.Buffered() == 0 {
		k.lastEsc = true
		return Key{Code: KeyUnknown, Raw: raw}, nil
	}
	return k.readSequence(raw)
}

// readSequence reads the introducer and the rest of an escape sequence whose
// ESC is already in raw.
func (k *KeyReader) readSequence(raw []byte) (Key, error) {
	intro, err := k.r.ReadByte()
	if err != nil {
		return Key{Code: KeyUnknown, Raw: raw}, nil
	}
	raw = append(raw, intro)
	if !isIntroducer(intro) {
		return Key{Code: KeyUnknown, Raw: raw}, nil
	}

	params := 0
	for {
		b, err := k.r.ReadByte()
		if err != nil {
			return Key{Code: KeyUnknown, Raw: raw}, nil
		}
		raw = append(raw, b)
		switch {
		case b >= 0x30 && b <= 0x3f:
			params++
			continue
		case b >= 0x40 && b <= 0x7e:
			if params > 0 {
				return Key{Code: KeyUnknown, Raw: raw}, nil
			}
			return Key{Code: arrowKey(b), Raw: raw}, nil
		default:
			return Key{Code: KeyUnknown, Raw: raw}, nil
		}
	}
}

func isIntroducer(b byte) bool { return b == '[' || b == 'O' }

func arrowKey(final byte) KeyCode {
	switch final {
	case 'A':
		return KeyUp
	case 'B':
		return KeyDown
	case 'C':
		return KeyRight
	case 'D':
		return KeyLeft
	}
	return KeyUnknown
}
