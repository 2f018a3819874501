package native_test

import (
	"context"
	"fmt"
	"log"

	"github.com/tamandutech/robotble"
	"github.com/tamandutech/robotble/native"
)

// Find a robot whose name starts with "Braia", connect to it and read the
// battery voltage.
func ExampleClient_Request() {
	manager, err := native.DefaultManager()
	if err != nil {
		log.Fatal(err)
	}

	cfg := &robotble.Config{
		Services: map[string]map[string]string{
			"6e400001-b5a3-f393-e0a9-e50e24dcca9e": {
				"UART_TX": "6e400003-b5a3-f393-e0a9-e50e24dcca9e",
				"UART_RX": "6e400002-b5a3-f393-e0a9-e50e24dcca9e",
			},
		},
	}

	ctx := context.Background()

	device, err := native.NewDiscovery(manager).Execute(ctx, cfg.ServiceUUIDs(), "Braia")
	if err != nil {
		log.Fatal(err)
	}

	client := native.NewClient(manager)
	if err := client.Connect(ctx, device, cfg); err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(ctx)

	msg, err := client.Request(ctx, "UART_TX", "UART_RX", "bat_voltage")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(msg.Data)
}
