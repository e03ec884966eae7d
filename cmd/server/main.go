package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cardgrid/memscramble/pkg/auth"
	"github.com/cardgrid/memscramble/pkg/lobby"
	"github.com/cardgrid/memscramble/pkg/log"
	"github.com/cardgrid/memscramble/pkg/queue"
	"github.com/cardgrid/memscramble/pkg/server"
)

func main() {
	tcpAddr := flag.String("tcp-addr", ":8888", "TCP address to listen on")
	httpAddr := flag.String("http-addr", ":8080", "HTTP control-plane address to listen on")
	logLevel := flag.String("log-level", "info", "Log level (trace|debug|info|warn|error)")
	jwtSecret := flag.String("jwt-secret", "", "if set, require a valid HS256 join token signed with this secret")
	flag.Parse()

	logger := log.NewLogger(os.Stdout, log.ParseLevel(*logLevel))
	log.SetDefault(logger)
	log.Infof("log level set to %s", *logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	lob := lobby.New(lobby.NewMemoryStore())
	clientManager := server.NewClientManager()
	connectionEventQueue := queue.NewInMemoryQueue(1000)

	var authProvider auth.Provider = auth.NoopProvider{}
	if *jwtSecret != "" {
		authProvider = auth.NewJWTProvider(*jwtSecret)
		log.Info("join tokens required: jwt-secret is set")
	}

	ws := server.NewWSServer(server.WSServerOptions{
		Lobby:   lob,
		Clients: clientManager,
		Queue:   connectionEventQueue,
		Logger:  logger,
		Auth:    authProvider,
	})

	tcpServer := server.NewTCPServer(server.TCPServerOptions{
		Addr:    *tcpAddr,
		Lobby:   lob,
		Clients: clientManager,
		Queue:   connectionEventQueue,
		Logger:  logger,
		Auth:    authProvider,
	})
	httpServer := server.NewHTTPServer(server.HTTPServerOptions{
		Addr:   *httpAddr,
		Lobby:  lob,
		Logger: logger,
		WS:     ws,
	})

	errCh := make(chan error, 2)
	go func() {
		log.Infof("tcp server listening on %s", *tcpAddr)
		errCh <- tcpServer.Start(ctx)
	}()
	go func() {
		log.Infof("http control plane listening on %s", *httpAddr)
		errCh <- httpServer.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "server exited: %v\n", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}
}
