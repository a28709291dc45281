package keypad

import "context"

// KeySource blocks until the next key press.
type KeySource interface {
	NextKey(ctx context.Context) (Key, error)
}

// ReadCode feeds key presses into buf until Accept is pressed on a full
// buffer. Digits are pushed, Delete removes the last digit, and every
// other key is ignored.
func ReadCode(ctx context.Context, src KeySource, buf *CodeBuffer) error {
	for {
		k, err := src.NextKey(ctx)
		if err != nil {
			return err
		}
		switch {
		case k.IsDigit():
			buf.PushDigit(byte(k))
		case k == KeyDelete:
			buf.DeleteLast()
		case k == KeyAccept:
			if buf.AcceptReady() {
				return nil
			}
		}
	}
}
