package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/pagfox/pagfox/app/controllers"
	"github.com/pagfox/pagfox/app/repository"
	"github.com/pagfox/pagfox/internal/pkg/cache"
	"github.com/pagfox/pagfox/internal/pkg/database"
	"github.com/pagfox/pagfox/internal/pkg/env"
	"github.com/pagfox/pagfox/internal/pkg/events"
	"github.com/pagfox/pagfox/internal/pkg/jobqueue"
	"github.com/pagfox/pagfox/internal/pkg/payments"
	"github.com/pagfox/pagfox/internal/pkg/router"
	"github.com/pagfox/pagfox/internal/pkg/subacquirer"
)

func main() {
	app := NewApplication()

	// Graceful shutdown drains the queue workers before the listener dies.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		jobqueue.GetManager().Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	registry := subacquirer.NewRegistryFromEnv()
	dispatcher := events.NewRedisDispatcher(cache.GetClient())
	service := payments.NewService(repos.Payment, registry, dispatcher)

	manager := jobqueue.GetManager()
	queue := manager.GetQueue()
	queue.SetProcessor(service)
	if env.IsDev() {
		service.EnableWebhookSimulation(queue)
	}
	manager.Start()

	controllers.InitializePaymentControllers(service, queue)

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   "pagfox",
		BodyLimit: 1 << 20, // webhook and creation payloads stay small
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
