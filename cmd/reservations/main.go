package main

import (
	fleethandler "bondfleet/internal/fleet/handler"
	fleetrepository "bondfleet/internal/fleet/repository"
	fleetservice "bondfleet/internal/fleet/service"
	fleetvalidator "bondfleet/internal/fleet/validator"
	"bondfleet/internal/notify"
	"bondfleet/internal/reservations/handler"
	"bondfleet/internal/reservations/repository"
	"bondfleet/internal/reservations/service"
	"bondfleet/internal/reservations/validator"
	"bondfleet/pkg/app"
	"bondfleet/pkg/config"
	"bondfleet/pkg/kafka"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}

	// Log all configuration values
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Reservations service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	producer, err := kafka.NewProducer(cfg, cfg.KafkaTopic, cfg.KafkaDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}
	dispatcher := notify.NewDispatcher(producer, cfg)

	vehicleService, reservationService, availabilityService := initServices(cfg, dispatcher)

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(func() {
		dispatcher.Stop()
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})
	serverApp.SetApp(
		fleethandler.NewVehicleHandler(vehicleService, cfg.Log),
		handler.NewReservationHandler(reservationService, availabilityService, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config, notifier notify.Notifier) (
	fleetservice.VehicleService,
	service.ReservationService,
	service.AvailabilityService,
) {
	vehicleValidator := fleetvalidator.NewVehicleValidator(cfg.Log)
	vehicleRepo := fleetrepository.NewMongoVehicleRepository(cfg)
	vehicleService := fleetservice.NewVehicleService(vehicleRepo, vehicleValidator, cfg)

	reservationValidator := validator.NewReservationValidator(cfg.Log)
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	slotLockRepo := repository.NewMongoSlotLockRepository(cfg)

	availabilityService := service.NewAvailabilityService(reservationRepo, vehicleService, cfg)
	reservationService := service.NewReservationService(
		reservationRepo,
		slotLockRepo,
		vehicleService,
		reservationValidator,
		notifier,
		cfg,
	)

	cfg.Log.Info("Reservation services initialized", "database", cfg.MongoDatabaseName)
	return vehicleService, reservationService, availabilityService
}
