package main

import (
	detectionService "YoloDetectionService/internal/api/detection/service"
	"YoloDetectionService/internal/config"
	"YoloDetectionService/pkg/log"
	"YoloDetectionService/pkg/yolo"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Warn(log.Fields{"error": err.Error()}, "No .env file loaded, using process environment")
	}
	logger := log.NewLogger()

	validator := config.NewValidator()

	serverCfg, err := config.LoadServerConfig(validator)
	if err != nil {
		logger.Fatal(err)
	}
	detectorCfg, err := config.LoadDetectorConfig(validator)
	if err != nil {
		logger.Fatal(err)
	}

	state := detectionService.NewState(detectorCfg.Mode(), func(ctx context.Context) (*detectionService.Detector, error) {
		return detectionService.NewDetector(ctx, detectorCfg.ModelOptions(), detectorCfg.ConfidenceThreshold, yolo.Open, logger)
	})

	if state.Mode() == detectionService.InitEager {
		logger.Infof("Initializing detector with model: %s", detectorCfg.ModelPath)
		if err := state.Init(context.Background()); err != nil {
			logger.Fatalf("Failed to initialize detector: %v", err)
		}
	} else {
		logger.Infof("Detector will load %s on first request", detectorCfg.ModelPath)
	}

	server, err := config.NewServer(
		config.WithFiber(config.NewFiber(logger, serverCfg.Debug)),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithMiddleware(serverCfg.RateLimitRPS),
		config.WithDetectionState(state),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(serverCfg.Address()); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	<-sigChan
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
	if err := yolo.Shutdown(); err != nil {
		logger.Errorf("Error releasing onnxruntime: %v", err)
	}
}
