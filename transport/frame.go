package transport

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Минимальный кодек STOMP-кадров поверх WebSocket-сообщений.
// Брокер бэкенда (Spring) шлёт один кадр на одно websocket-сообщение,
// поэтому ни буферизация, ни content-length здесь не нужны:
// кадр = команда, заголовки, пустая строка, тело, NUL.

// Команды, которые клиент использует и понимает
const (
	CmdConnect     = "CONNECT"
	CmdConnected   = "CONNECTED"
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdDisconnect  = "DISCONNECT"
	CmdMessage     = "MESSAGE"
	CmdError       = "ERROR"
)

var errFrameMalformado = errors.New("кадр STOMP не разбирается")

// Frame представляет собой один STOMP-кадр
type Frame struct {
	Command string
	Headers map[string]string
	Body    []byte
}

// NewFrame создает кадр с заголовками в виде пар ключ-значение
func NewFrame(command string, headers ...string) *Frame {
	f := &Frame{Command: command, Headers: make(map[string]string, len(headers)/2)}
	for i := 0; i+1 < len(headers); i += 2 {
		f.Headers[headers[i]] = headers[i+1]
	}
	return f
}

// Marshal сериализует кадр в байты для отправки
func (f *Frame) Marshal() []byte {
	var b bytes.Buffer
	b.WriteString(f.Command)
	b.WriteByte('\n')
	for k, v := range f.Headers {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(v)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.Write(f.Body)
	b.WriteByte(0)
	return b.Bytes()
}

// ParseFrame разбирает сырое websocket-сообщение в кадр.
// Heartbeat (одиночный LF) возвращает (nil, nil) - его просто пропускают.
func ParseFrame(raw []byte) (*Frame, error) {
	raw = bytes.TrimRight(raw, "\x00")
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	head, body, found := bytes.Cut(raw, []byte("\n\n"))
	if !found {
		// допускаем CRLF-вариант
		head, body, found = bytes.Cut(raw, []byte("\r\n\r\n"))
		if !found {
			return nil, fmt.Errorf("%w: нет разделителя заголовков", errFrameMalformado)
		}
	}

	lines := strings.Split(strings.ReplaceAll(string(head), "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("%w: пустая команда", errFrameMalformado)
	}

	f := &Frame{
		Command: strings.TrimSpace(lines[0]),
		Headers: make(map[string]string, len(lines)-1),
		Body:    body,
	}
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: заголовок %q", errFrameMalformado, line)
		}
		// первый заголовок с таким именем выигрывает (STOMP 1.2)
		if _, exists := f.Headers[k]; !exists {
			f.Headers[k] = v
		}
	}
	return f, nil
}
