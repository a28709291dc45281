package store

import (
	"context"
	"errors"
	"fmt"
)

// CellCount is the size of the persistent byte store.
const CellCount = 1024

// ErrCellRange is returned for addresses outside the store.
var ErrCellRange = errors.New("cell address out of range")

// ByteStore is address-indexed persistent storage of single bytes, the
// way an on-chip EEPROM is used. Cells never written read as 0xFF.
type ByteStore interface {
	ReadCell(ctx context.Context, addr uint16) (byte, error)
	WriteCell(ctx context.Context, addr uint16, b byte) error
}

// Erased is the value of a cell that was never written.
const Erased byte = 0xFF

func CheckAddr(addr uint16) error {
	if int(addr) >= CellCount {
		return fmt.Errorf("%w: %d", ErrCellRange, addr)
	}
	return nil
}

// WriteString stores s starting at addr followed by a null byte.
func WriteString(ctx context.Context, bs ByteStore, addr uint16, s string) error {
	if err := CheckAddr(addr + uint16(len(s))); err != nil {
		return err
	}
	for i := 0; i < len(s); i++ {
		if err := bs.WriteCell(ctx, addr+uint16(i), s[i]); err != nil {
			return fmt.Errorf("write cell %d: %w", int(addr)+i, err)
		}
	}
	if err := bs.WriteCell(ctx, addr+uint16(len(s)), 0); err != nil {
		return fmt.Errorf("write terminator: %w", err)
	}
	return nil
}

// ReadString reads at most n bytes from addr, stopping at a null byte.
func ReadString(ctx context.Context, bs ByteStore, addr uint16, n int) (string, error) {
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		b, err := bs.ReadCell(ctx, addr+uint16(i))
		if err != nil {
			return "", fmt.Errorf("read cell %d: %w", int(addr)+i, err)
		}
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return string(out), nil
}

// CodeAddr is where the disarm code is kept.
const CodeAddr uint16 = 0

// EnsureCode writes code at CodeAddr when force is set or the first cell
// is blank (0x00 or erased). It reports whether it wrote.
func EnsureCode(ctx context.Context, bs ByteStore, code string, force bool) (bool, error) {
	if !force {
		first, err := bs.ReadCell(ctx, CodeAddr)
		if err != nil {
			return false, err
		}
		if first != 0 && first != Erased {
			return false, nil
		}
	}
	if err := WriteString(ctx, bs, CodeAddr, code); err != nil {
		return false, err
	}
	return true, nil
}
