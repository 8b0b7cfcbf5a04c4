// Command callpad is the call-pad client of spec.md §1's external
// collaborators: a one-shot process that sends one CALL frame to the
// dispatcher and prints the outcome.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/sebas/elevator-system/internal/floor"
	"github.com/sebas/elevator-system/internal/wire"
)

func main() {
	dispatcherAddr := flag.String("dispatcher", "127.0.0.1:3000", "dispatcher address")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: callpad <src> <dst>")
		os.Exit(1)
	}

	src, err1 := floor.Parse(args[0])
	dst, err2 := floor.Parse(args[1])
	if err1 != nil || err2 != nil {
		fmt.Fprintln(os.Stderr, "usage: callpad <src> <dst>")
		os.Exit(1)
	}

	conn, err := net.DialTimeout("tcp", *dispatcherAddr, 2*time.Second)
	if err != nil {
		fmt.Println("Unable to connect to elevator system.")
		os.Exit(1)
	}
	defer conn.Close()

	call := wire.CallRequest{Src: src, Dst: dst}
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	if err := wire.WriteText(conn, call.Format()); err != nil {
		fmt.Println("Unable to connect to elevator system.")
		os.Exit(1)
	}

	payload, err := wire.ReadFrame(conn)
	if err != nil {
		fmt.Println("Unable to connect to elevator system.")
		os.Exit(1)
	}
	text := string(payload)

	if text == wire.TextUnavailable {
		fmt.Println("Sorry, no car is available to take this request.")
		return
	}
	assigned, err := wire.ParseCarAssigned(text)
	if err != nil {
		fmt.Println("Unable to connect to elevator system.")
		os.Exit(1)
	}
	fmt.Printf("Car %s is arriving.\n", assigned.Name)
}
