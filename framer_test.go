package robotble

import (
	"errors"
	"testing"
)

func feedAll(t *testing.T, f *Framer, chunks ...string) []*Message {
	t.Helper()
	var msgs []*Message
	for _, chunk := range chunks {
		msg, err := f.Feed([]byte(chunk))
		if err != nil {
			t.Fatal(err)
		}
		if msg != nil {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func TestFramer(t *testing.T) {
	t.Run("split frame", func(t *testing.T) {
		var f Framer
		msgs := feedAll(t, &f, `{"cmdExecd":"param_list","da`, "ta\":\"a\"}\x00")
		if len(msgs) != 1 {
			t.Fatalf("expected 1 message, got %d", len(msgs))
		}
		if msgs[0].CmdExecd != "param_list" || msgs[0].Data != "a" {
			t.Fatalf("unexpected message: %s", describe(msgs[0]))
		}
	})

	t.Run("no delimiter", func(t *testing.T) {
		var f Framer
		msgs := feedAll(t, &f, `{"cmdExecd":"pause",`, `"data":""`)
		if len(msgs) != 0 {
			t.Fatalf("expected no messages, got %s", describe(msgs))
		}
		msgs = feedAll(t, &f, "}\x00")
		if len(msgs) != 1 || msgs[0].CmdExecd != "pause" {
			t.Fatalf("unexpected messages: %s", describe(msgs))
		}
	})

	t.Run("newline escaped", func(t *testing.T) {
		var f Framer
		msgs := feedAll(t, &f, "{\"cmdExecd\":\"param_list\",\"data\":\"a\nb\"}\x00")
		if len(msgs) != 1 {
			t.Fatalf("expected 1 message, got %d", len(msgs))
		}
		if msgs[0].Data != "a\nb" {
			t.Fatalf("expected %q, got %q", "a\nb", msgs[0].Data)
		}
		if string(msgs[0].Raw) != `{"cmdExecd":"param_list","data":"a\nb"}` {
			t.Fatalf("unexpected raw frame: %s", msgs[0].Raw)
		}
	})

	t.Run("remainder starts next frame", func(t *testing.T) {
		var f Framer
		msgs := feedAll(t, &f,
			"{\"cmdExecd\":\"a\",\"data\":\"1\"}\x00{\"cmdExecd\":\"b\",",
			"\"data\":\"2\"}\x00")
		if len(msgs) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(msgs))
		}
		if msgs[0].CmdExecd != "a" || msgs[1].CmdExecd != "b" {
			t.Fatalf("unexpected messages: %s", describe(msgs))
		}
	})

	t.Run("two delimiters in one chunk", func(t *testing.T) {
		var f Framer
		msg, err := f.Feed([]byte("{\"cmdExecd\":\"a\",\"data\":\"1\"}\x00{\"cmdExecd\":\"b\",\"data\":\"2\"}\x00"))
		if err != nil {
			t.Fatal(err)
		}
		if msg == nil || msg.CmdExecd != "a" {
			t.Fatalf("unexpected message: %s", describe(msg))
		}

		// The second delimiter stays in the buffer, so the next frame
		// carries it and cannot be parsed.
		_, err = f.Feed([]byte("{\"cmdExecd\":\"c\",\"data\":\"3\"}\x00"))
		var fe *FrameError
		if !errors.As(err, &fe) {
			t.Fatalf("expected FrameError, got %v", err)
		}
		want := "{\"cmdExecd\":\"b\",\"data\":\"2\"}\x00{\"cmdExecd\":\"c\",\"data\":\"3\"}"
		if string(fe.Frame) != want {
			t.Fatalf("unexpected frame: %q", fe.Frame)
		}
	})

	t.Run("parse error", func(t *testing.T) {
		var f Framer
		_, err := f.Feed([]byte("not json\x00"))
		var fe *FrameError
		if !errors.As(err, &fe) {
			t.Fatalf("expected FrameError, got %v", err)
		}
		if string(fe.Frame) != "not json" {
			t.Fatalf("unexpected frame: %q", fe.Frame)
		}
	})
}

func TestDecode(t *testing.T) {
	var f Framer
	msg, err := f.Feed([]byte(`{"cmdExecd":"bat_voltage","data":"6000mV","seq":7}` + "\x00"))
	if err != nil {
		t.Fatal(err)
	}

	v, err := Decode[struct {
		Seq int `json:"seq"`
	}](msg)
	if err != nil {
		t.Fatal(err)
	}
	if v.Seq != 7 {
		t.Fatalf("expected 7, got %d", v.Seq)
	}
}
