package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8888", "server TCP address")
	room := flag.String("room", "", "room code to join (required)")
	flag.Parse()

	if *room == "" {
		fmt.Println("Error: -room is required")
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Println("Error connecting to TCP server:", err)
		return
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "join %s\n", *room); err != nil {
		fmt.Println("Error joining room:", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func(conn net.Conn, cancel context.CancelFunc) {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			response := scanner.Text()
			fmt.Println("Server:", response)
		}

		fmt.Println("TCP server disconnected.")
		cancel()
	}(conn, cancel)

	go func(conn net.Conn, cancel context.CancelFunc) {
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("Enter request (e.g. 'look alice', 'flip alice 0 0', 'exit'): ")
			scanner.Scan()
			message := scanner.Text()

			_, err := fmt.Fprintf(conn, message+"\n")
			if err != nil {
				fmt.Println("Error sending message to TCP server:", err)
				return
			}

			if message == "exit" {
				fmt.Println("Received exit command, exiting.")
				cancel()
				break
			}
		}
	}(conn, cancel)

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stopSignal:
		fmt.Println("Received stop signal, exiting.")
	case <-ctx.Done():
	}

	fmt.Println("Exiting client.")
}
