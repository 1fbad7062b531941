// Command cardtool registers an RFID card out of band: it writes a plate and
// an opening balance onto a blank card through the payment terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"parkgate/libs/logging"
	"parkgate/services/lane-controller/internal/terminal"
)

func main() {
	addr := kingpin.Flag("addr", "Terminal serial bridge address").Short('a').Default("localhost:9100").String()
	plate := kingpin.Flag("plate", "Plate number to write on the card").Short('p').Required().String()
	balance := kingpin.Flag("balance", "Opening balance in currency minor units").Short('b').Required().Int64()
	timeout := kingpin.Flag("timeout", "How long to wait for the terminal").Default("15s").Duration()
	kingpin.Parse()

	logger, err := logging.NewLogger("cardtool")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	conn, err := terminal.Dial(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := terminal.NewClient(conn, *timeout, *timeout, logger)
	response, err := client.RegisterCard(ctx, *plate, *balance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "card registration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("terminal: %s\n", response)
}
