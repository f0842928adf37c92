package grpcserver

import (
	"recipe-api/auth"
	"recipe-api/interceptors"
	"recipe-api/services"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewServer builds the gRPC server with logging and token authentication.
// Health checks stay public so Consul and load balancers can probe them.
func NewServer(logger *zap.Logger, users auth.UserLookup, recipeService services.RecipeService) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.ZapLoggingInterceptor(logger),
			interceptors.AuthInterceptor(users, healthpb.Health_Check_FullMethodName),
		),
	)

	RegisterRecipeQueryServer(s, NewRecipeQueryServer(recipeService))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus(RecipeQueryService, healthpb.HealthCheckResponse_SERVING)

	return s, healthServer
}
