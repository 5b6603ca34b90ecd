package main

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/legendiguess/coinbase-tool-server/handlers"
	"github.com/legendiguess/coinbase-tool-server/services"
	"github.com/legendiguess/coinbase-tool-server/storage"
)

func main() {
	logger := log.New()

	credentials := storage.NewCredentialsStorage(logger)

	level, err := log.ParseLevel(credentials.GetLogLevel())
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	coinbaseClient := services.NewCoinbaseClient(credentials, logger)
	toolRegistry := services.NewToolRegistry(coinbaseClient)

	server := handlers.NewServer(toolRegistry, credentials, logger)
	server.Start()

	logger.Printf("coinbase tool server listening on :%d (sandbox: %v)", credentials.GetAPIPort(), credentials.GetSandbox())

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done
}
