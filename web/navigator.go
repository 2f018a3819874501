//go:build !(js && wasm)

package web

// Navigator returns nil outside of a browser.
func Navigator() Bluetooth {
	return nil
}
