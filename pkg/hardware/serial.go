package hardware

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/nila-labs/nila/internal/log"
)

// arduinoResetDelay is how long the board takes to reboot after the port
// opens. Commands written earlier are lost.
const arduinoResetDelay = 2 * time.Second

// openPort is swapped in tests to avoid touching real devices.
var openPort = func(name string, baud int) (io.ReadWriteCloser, error) {
	return serial.Open(name, &serial.Mode{BaudRate: baud})
}

// resetDelay is shortened in tests.
var resetDelay = arduinoResetDelay

// Serial talks to the Arduino over a serial port. Commands are newline
// terminated decimal intensities, matching the firmware's parser.
type Serial struct {
	name   string
	baud   int
	logger *slog.Logger

	mu   sync.Mutex
	port io.ReadWriteCloser
}

// OpenSerial connects to the Arduino on the given port. A failed initial
// connection is not fatal. The controller stays usable and retries on the
// next command, so the robot can run without hardware attached.
func OpenSerial(name string, baud int) *Serial {
	s := &Serial{
		name:   name,
		baud:   baud,
		logger: log.With("component", "hardware"),
	}
	if err := s.connect(); err != nil {
		s.logger.Warn("hardware connection failed, running without servos",
			"port", name, "error", err)
	}
	return s
}

func (s *Serial) connect() error {
	port, err := openPort(s.name, s.baud)
	if err != nil {
		return err
	}
	time.Sleep(resetDelay)

	s.mu.Lock()
	s.port = port
	s.mu.Unlock()

	s.logger.Info("hardware connected", "port", s.name, "baud", s.baud)
	return nil
}

// SetJaw sends a jaw intensity command. On a write error it drops the
// connection and reconnects once before giving up.
func (s *Serial) SetJaw(intensity int) error {
	if intensity < 0 {
		intensity = 0
	}
	if intensity > 100 {
		intensity = 100
	}

	s.mu.Lock()
	port := s.port
	s.mu.Unlock()

	if port == nil {
		if err := s.connect(); err != nil {
			return ErrNotConnected
		}
		s.mu.Lock()
		port = s.port
		s.mu.Unlock()
	}

	if _, err := fmt.Fprintf(port, "%d\n", intensity); err != nil {
		s.logger.Error("serial write failed, reconnecting", "error", err)
		s.Close()
		if rerr := s.connect(); rerr != nil {
			return ErrNotConnected
		}
		s.mu.Lock()
		port = s.port
		s.mu.Unlock()
		if _, err := fmt.Fprintf(port, "%d\n", intensity); err != nil {
			return fmt.Errorf("hardware: write: %w", err)
		}
	}
	return nil
}

// Connected reports whether the serial link is up.
func (s *Serial) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port != nil
}

// Close shuts the serial port.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	s.logger.Info("hardware disconnected", "port", s.name)
	return err
}

// Verify Serial implements Controller at compile time.
var _ Controller = (*Serial)(nil)
