package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"poinup/database"
	"poinup/jobs"
	"poinup/routes"
	"poinup/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file loaded")
	}

	database.Connect()
	services.LoadConversionOverrides()

	host := os.Getenv("HOST")
	port := os.Getenv("PORT")

	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3000"
	}

	app := fiber.New()
	routes.Setup(app)
	jobs.StartSchedulers()

	addr := fmt.Sprintf("%s:%s", host, port)
	log.Infof("server running at %s", addr)

	go func() {
		if err := app.Listen(addr); err != nil {
			log.WithError(err).Panic("failed to start server")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info("gracefully shutting down")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	log.Info("server exited cleanly")
}
