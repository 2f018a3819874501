//go:build js && wasm

package web

import (
	"context"
	"sync"
	"syscall/js"

	"github.com/kellegous/poop"
)

// Navigator returns navigator.bluetooth, or nil if the browser does not
// expose the Web Bluetooth API.
func Navigator() Bluetooth {
	nav := js.Global().Get("navigator")
	if nav.IsUndefined() || nav.IsNull() {
		return nil
	}
	bt := nav.Get("bluetooth")
	if bt.IsUndefined() || bt.IsNull() {
		return nil
	}
	return &jsBluetooth{v: bt}
}

// await waits for the promise p to settle. The callbacks release themselves
// once the promise settles, even if ctx is done before that.
func await(ctx context.Context, p js.Value) (js.Value, error) {
	type settled struct {
		v   js.Value
		err error
	}

	ch := make(chan settled, 1)

	var once sync.Once
	var onResolve, onReject js.Func
	release := func() {
		once.Do(func() {
			onResolve.Release()
			onReject.Release()
		})
	}

	onResolve = js.FuncOf(func(this js.Value, args []js.Value) any {
		defer release()
		v := js.Undefined()
		if len(args) > 0 {
			v = args[0]
		}
		ch <- settled{v: v}
		return nil
	})
	onReject = js.FuncOf(func(this js.Value, args []js.Value) any {
		defer release()
		err := poop.New("promise rejected")
		if len(args) > 0 {
			err = js.Error{Value: args[0]}
		}
		ch <- settled{err: err}
		return nil
	})

	p.Call("then", onResolve, onReject)

	select {
	case s := <-ch:
		return s.v, s.err
	case <-ctx.Done():
		return js.Undefined(), ctx.Err()
	}
}

type jsBluetooth struct {
	v js.Value
}

func (b *jsBluetooth) RequestDevice(ctx context.Context, opts *RequestDeviceOptions) (Device, error) {
	filters := make([]any, 0, len(opts.Filters))
	for _, f := range opts.Filters {
		filters = append(filters, map[string]any{"namePrefix": f.NamePrefix})
	}
	services := make([]any, 0, len(opts.OptionalServices))
	for _, s := range opts.OptionalServices {
		services = append(services, s)
	}

	v, err := await(ctx, b.v.Call("requestDevice", map[string]any{
		"filters":          filters,
		"optionalServices": services,
	}))
	if err != nil {
		return nil, poop.Chain(err)
	}
	if v.IsUndefined() || v.IsNull() {
		return nil, nil
	}
	return &jsDevice{v: v}, nil
}

type jsDevice struct {
	v js.Value
}

func (d *jsDevice) ID() string {
	return d.v.Get("id").String()
}

func (d *jsDevice) Name() string {
	name := d.v.Get("name")
	if name.IsUndefined() || name.IsNull() {
		return ""
	}
	return name.String()
}

func (d *jsDevice) GATT() GATTServer {
	return &jsServer{v: d.v.Get("gatt")}
}

type jsServer struct {
	v js.Value
}

func (s *jsServer) Connect(ctx context.Context) error {
	_, err := await(ctx, s.v.Call("connect"))
	return err
}

func (s *jsServer) Connected() bool {
	return s.v.Get("connected").Bool()
}

func (s *jsServer) Disconnect() {
	s.v.Call("disconnect")
}

func (s *jsServer) PrimaryService(ctx context.Context, uuid string) (Service, error) {
	v, err := await(ctx, s.v.Call("getPrimaryService", uuid))
	if err != nil {
		return nil, poop.Chain(err)
	}
	return &jsService{v: v}, nil
}

type jsService struct {
	v js.Value
}

func (s *jsService) Characteristic(ctx context.Context, uuid string) (Characteristic, error) {
	v, err := await(ctx, s.v.Call("getCharacteristic", uuid))
	if err != nil {
		return nil, poop.Chain(err)
	}
	return &jsCharacteristic{v: v}, nil
}

type jsCharacteristic struct {
	v js.Value
}

func (c *jsCharacteristic) UUID() string {
	return c.v.Get("uuid").String()
}

func (c *jsCharacteristic) Properties() Properties {
	p := c.v.Get("properties")
	return Properties{
		Notify:               p.Get("notify").Bool(),
		WriteWithoutResponse: p.Get("writeWithoutResponse").Bool(),
	}
}

func (c *jsCharacteristic) StartNotifications(ctx context.Context) error {
	_, err := await(ctx, c.v.Call("startNotifications"))
	return err
}

func (c *jsCharacteristic) StopNotifications(ctx context.Context) error {
	_, err := await(ctx, c.v.Call("stopNotifications"))
	return err
}

func (c *jsCharacteristic) OnValueChanged(fn func(value []byte)) func() {
	listener := js.FuncOf(func(this js.Value, args []js.Value) any {
		view := args[0].Get("target").Get("value")
		buf := js.Global().Get("Uint8Array").New(
			view.Get("buffer"),
			view.Get("byteOffset"),
			view.Get("byteLength"))
		data := make([]byte, buf.Length())
		js.CopyBytesToGo(data, buf)
		fn(data)
		return nil
	})

	c.v.Call("addEventListener", "characteristicvaluechanged", listener)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.v.Call("removeEventListener", "characteristicvaluechanged", listener)
			listener.Release()
		})
	}
}

func (c *jsCharacteristic) WriteWithoutResponse(ctx context.Context, p []byte) error {
	buf := js.Global().Get("Uint8Array").New(len(p))
	js.CopyBytesToJS(buf, p)
	_, err := await(ctx, c.v.Call("writeValueWithoutResponse", buf))
	return err
}
