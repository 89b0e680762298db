package transport

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/nordvik-automation/modbus-core/internal/plan"
	"github.com/nordvik-automation/modbus-core/internal/template"
)

// Config is the connection configuration for one modbus endpoint.
type Config struct {
	// Mode is "tcp" or "rtu".
	Mode string

	// Address is host:port for tcp, the serial device path for rtu.
	Address string

	// Serial parameters, rtu only.
	BaudRate int
	DataBits int
	Parity   string
	StopBits int

	// Timeout bounds each transaction.
	Timeout time.Duration
}

// Conn is one connected modbus endpoint executing planned reads and
// control writes. Methods serialise internally: modbus transactions on
// a single connection cannot interleave.
type Conn struct {
	mu     sync.Mutex
	client modbus.Client
	close  func() error
	slave  func(uint8)
}

// Connect opens a modbus connection per the config.
func Connect(cfg Config) (*Conn, error) {
	switch cfg.Mode {
	case "tcp":
		h := modbus.NewTCPClientHandler(cfg.Address)
		h.Timeout = cfg.Timeout
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("connecting to %s: %w", cfg.Address, err)
		}
		return &Conn{
			client: modbus.NewClient(h),
			close:  h.Close,
			slave:  func(id uint8) { h.SlaveId = id },
		}, nil

	case "rtu":
		h := modbus.NewRTUClientHandler(cfg.Address)
		h.Timeout = cfg.Timeout
		if cfg.BaudRate > 0 {
			h.BaudRate = cfg.BaudRate
		}
		if cfg.DataBits > 0 {
			h.DataBits = cfg.DataBits
		}
		if cfg.Parity != "" {
			h.Parity = cfg.Parity
		}
		if cfg.StopBits > 0 {
			h.StopBits = cfg.StopBits
		}
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("opening %s: %w", cfg.Address, err)
		}
		return &Conn{
			client: modbus.NewClient(h),
			close:  h.Close,
			slave:  func(id uint8) { h.SlaveId = id },
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, cfg.Mode)
	}
}

// Execute performs one planned read and returns the span's words.
// One attempt; the caller decides what a failed cycle means.
func (c *Conn) Execute(r plan.Read) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slave(r.Slave)

	var (
		raw []byte
		err error
	)
	switch r.Table {
	case template.TableInput:
		raw, err = c.client.ReadInputRegisters(r.Start, r.Count)
	default:
		raw, err = c.client.ReadHoldingRegisters(r.Start, r.Count)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s %d+%d (slave %d): %w", r.Table, r.Start, r.Count, r.Slave, err)
	}
	if len(raw) < int(r.Count)*2 {
		return nil, fmt.Errorf("%w: %d bytes for %d registers", ErrShortResponse, len(raw), r.Count)
	}

	words := make([]uint16, r.Count)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(raw[2*i:])
	}
	return words, nil
}

// Write writes control values to holding registers. Single-register
// payloads use function code 6, wider ones function code 16.
func (c *Conn) Write(slave uint8, table template.Table, addr uint16, words []uint16) error {
	if table == template.TableInput {
		return ErrInputWrite
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.slave(slave)

	var err error
	if len(words) == 1 {
		_, err = c.client.WriteSingleRegister(addr, words[0])
	} else {
		buf := make([]byte, len(words)*2)
		for i, w := range words {
			binary.BigEndian.PutUint16(buf[2*i:], w)
		}
		_, err = c.client.WriteMultipleRegisters(addr, uint16(len(words)), buf)
	}
	if err != nil {
		return fmt.Errorf("writing %d registers at %d (slave %d): %w", len(words), addr, slave, err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *Conn) Close() error {
	return c.close()
}
