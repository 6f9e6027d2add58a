// Command tracker is the terminal client of the live tracking hub.
//
//	tracker share  -user DEL001  -delivery ORD002   share this device's position
//	tracker watch  -user CUST001 -delivery ORD002   follow a delivery live
//	tracker orders -user VEN001  -role vendor       list orders
//	tracker assign -user VEN001  -order ORD001 -partner DEL003
//	tracker status -user DEL001  -order ORD002 -status picked_up
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var commands = map[string]func(ctx context.Context, args []string) error{
	"share":  runShare,
	"watch":  runWatch,
	"orders": runOrders,
	"assign": runAssign,
	"status": runStatus,
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "tracker %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tracker <share|watch|orders|assign|status> [flags]")
}
