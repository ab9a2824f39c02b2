package main

import (
	"drivebay/internal/bookings/events"
	bookinghandler "drivebay/internal/bookings/handler"
	bookingrepo "drivebay/internal/bookings/repository"
	bookingservice "drivebay/internal/bookings/service"
	bookingvalidator "drivebay/internal/bookings/validator"
	dashboardhandler "drivebay/internal/dashboard/handler"
	dashboardservice "drivebay/internal/dashboard/service"
	fleethandler "drivebay/internal/fleet/handler"
	fleetservice "drivebay/internal/fleet/service"
	vehiclehandler "drivebay/internal/vehicles/handler"
	vehiclerepo "drivebay/internal/vehicles/repository"
	vehicleservice "drivebay/internal/vehicles/service"
	vehiclevalidator "drivebay/internal/vehicles/validator"
	"drivebay/pkg/app"
	"drivebay/pkg/config"
)

func main() {
	cfg := config.Load("drivebay-api")
	cfg.SetMongo()
	defer cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)

	vehicleRepository := vehiclerepo.NewMongoVehicleRepository(cfg)
	bookingRepository := bookingrepo.NewMongoBookingRepository(cfg)
	lockRepository := bookingrepo.NewReservationLockRepository(cfg)

	publisher := newPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()

	vehicleService := vehicleservice.NewVehicleService(
		vehicleRepository,
		vehiclevalidator.NewVehicleValidator(cfg.Log),
		cfg,
	)
	bookingService := bookingservice.NewBookingService(
		bookingRepository,
		lockRepository,
		vehicleRepository,
		bookingvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)
	fleetService := fleetservice.NewFleetService(vehicleRepository, bookingService, cfg)
	dashboardService := dashboardservice.NewDashboardService(vehicleRepository, bookingRepository, cfg)

	application := app.NewApplication(cfg)
	application.SetApp(
		vehiclehandler.NewVehicleHandler(vehicleService, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
		fleethandler.NewFleetHandler(fleetService, cfg.Log),
		dashboardhandler.NewDashboardHandler(dashboardService, cfg.Log),
	)
	application.Run()
}

func newPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("No Kafka brokers configured; booking events disabled")
		return events.NoopPublisher{}
	}

	publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.BookingEventsTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka publisher", "error", err)
	}
	cfg.Log.Info("Booking event publishing enabled",
		"brokers", cfg.KafkaBrokers,
		"topic", cfg.BookingEventsTopic,
	)
	return publisher
}