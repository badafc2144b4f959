package presence

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// SerialReader reads IR sensor levels from a serial-attached sensor
// board. The board emits one line per sample: "0" (clear) or "1"
// (presence detected).
type SerialReader struct {
	port serial.Port
	r    *bufio.Reader
}

// OpenSerial opens the sensor board at the given port and baud rate.
func OpenSerial(portName string, baud int) (*SerialReader, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("presence: open %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(500 * time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("presence: set read timeout: %w", err)
	}

	return &SerialReader{
		port: port,
		r:    bufio.NewReader(port),
	}, nil
}

// ReadLevel reads the next sample line from the board.
func (s *SerialReader) ReadLevel() (bool, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("presence: read sample: %w", err)
	}

	switch strings.TrimSpace(line) {
	case "1", "HIGH":
		return true, nil
	case "0", "LOW":
		return false, nil
	default:
		return false, fmt.Errorf("presence: malformed sample %q", strings.TrimSpace(line))
	}
}

// Close releases the serial port.
func (s *SerialReader) Close() error {
	return s.port.Close()
}
