package robotble

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/kellegous/poop"
)

func TestErrors(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		err := DeviceNotFoundError(nil)
		if err.Message != "Robot not found" {
			t.Fatalf("unexpected message: %q", err.Message)
		}
		if err.Action != "Make sure the robot is on and accepting connections" {
			t.Fatalf("unexpected action: %q", err.Action)
		}
		if err.Error() != "Robot not found" {
			t.Fatalf("unexpected error string: %q", err.Error())
		}
	})

	t.Run("overrides", func(t *testing.T) {
		err := ConnectionError(io.EOF,
			WithMessage("No bluetooth connection"),
			WithAction("Connect the dashboard to a line follower"))
		if err.Message != "No bluetooth connection" || err.Action != "Connect the dashboard to a line follower" {
			t.Fatalf("unexpected error: %s", describe(err))
		}
		if err.Error() != "No bluetooth connection: EOF" {
			t.Fatalf("unexpected error string: %q", err.Error())
		}
	})

	t.Run("is and as through wrapping", func(t *testing.T) {
		err := poop.Chain(fmt.Errorf("sending: %w", CharacteristicWriteError(io.ErrClosedPipe)))
		if !errors.Is(err, ErrCharacteristicWrite) {
			t.Fatal("expected ErrCharacteristicWrite")
		}
		if errors.Is(err, ErrConnection) {
			t.Fatal("did not expect ErrConnection")
		}
		if !errors.Is(err, io.ErrClosedPipe) {
			t.Fatal("expected cause to be reachable")
		}
		if ActionOf(err) != "Check the robot connection configuration" {
			t.Fatalf("unexpected action: %q", ActionOf(err))
		}
	})

	t.Run("timeout is not device not found", func(t *testing.T) {
		err := TimeoutError(nil)
		if errors.Is(err, ErrDeviceNotFound) {
			t.Fatal("timeout must be distinguishable from device not found")
		}
	})

	t.Run("action of plain error", func(t *testing.T) {
		if ActionOf(io.EOF) != "" {
			t.Fatal("expected no action")
		}
	})
}
