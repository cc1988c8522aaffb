package main

import (
	"fmt"
	"net"

	"market-dashboard/src/grpc_control"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
	"market-dashboard/src/server"

	"google.golang.org/grpc"
)

// -----------------------------------------------------------------------------

// startServers runs the HTTP/websocket server and the gRPC control plane.
func startServers(
	srv interfaces.IDataExchanger,
	deps server.Dependencies,
	cfg *models.MConfig,
	appLogger *logger.Logger,
) *grpc.Server {

	// 1. Dashboard HTTP server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 2. gRPC Control Server
	grpcServer := grpc.NewServer()
	controlService := grpc_control.NewControlService(
		deps.Groups, deps.Charts, deps.Fibonacci, deps.Facade, srv,
		logger.NewLogger(cfg, "ControlService"),
	)
	grpc_control.RegisterControlServer(grpcServer, controlService)

	go func() {
		port := cfg.GrpcPort
		if port == 0 {
			port = 50051
		}
		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.GrpcHost, port))
		if err != nil {
			appLogger.Critical("failed to listen for gRPC: %v", err)
			return
		}
		appLogger.Info("Starting gRPC Control Server on %s:%d", cfg.GrpcHost, port)
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Error("gRPC server stopped: %v", err)
		}
	}()

	return grpcServer
}
