package robotble_test

import (
	"fmt"

	"github.com/tamandutech/robotble"
)

func ExampleChannel() {
	// Chunks of at most 20 bytes, as delivered by a BLE characteristic.
	ch := robotble.NewChannel()
	sub := ch.Subscribe(func(msg *robotble.Message, err error) {
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Printf("%s: %s\n", msg.CmdExecd, msg.Data)
	})
	defer sub.Unsubscribe()

	ch.Publish([]byte(`{"cmdExecd":"bat_vol`))
	ch.Publish([]byte(`tage","data":"7400mV`))
	ch.Publish([]byte("\"}\x00"))
	ch.Close()

	// Output:
	// bat_voltage: 7400mV
	// error: channel closed
}
