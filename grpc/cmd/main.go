package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/improbable-eng/grpc-web/go/grpcweb"
	"github.com/ridge/must/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	fastlayAuth "github.com/fastlay-project/fastlay/grpc/auth"
	"github.com/fastlay-project/fastlay/grpc/cmd/internal/wiring"
	"github.com/fastlay-project/fastlay/grpc/impl"
	pb "github.com/fastlay-project/fastlay/grpc/layoutpb"
	"github.com/fastlay-project/fastlay/pkg/auth"
	"github.com/fastlay-project/fastlay/pkg/config"
	"github.com/fastlay-project/fastlay/pkg/env"
	yaHttp "github.com/fastlay-project/fastlay/pkg/http"
	"github.com/fastlay-project/fastlay/pkg/log"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to $FASTLAY_CONFIG)")
	flag.Parse()

	env.Load()
	cfg := must.OK1(config.Load(*configPath))
	logger := log.Init(cfg.Logging.Options())

	ctx := context.Background()
	app, err := wiring.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", slog.Any("err", err))
		os.Exit(1)
	}
	defer app.Close()

	var authClient fastlayAuth.Auth
	if cfg.Server.APIToken != "" {
		authClient = fastlayAuth.New(cfg.Server.APIToken)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(apiKeyInterceptor(authClient)),
		// Layouts and grid images travel inline.
		grpc.MaxRecvMsgSize(20*1024*1024),
		grpc.MaxSendMsgSize(20*1024*1024),
	)

	opts := impl.Options{
		FontProvider:    app.Fonts,
		Storage:         impl.Storage{Client: app.Storage, LayoutBucket: cfg.GCS.LayoutBucket},
		GridAssetsDir:   cfg.GridAssetsDir,
		BackoffDuration: cfg.BackoffInterval,
		Logger:          logger.With(slog.String("component", "server")),
	}
	// Typed nils would defeat the server's nil checks.
	if app.Requests != nil {
		opts.Requests = app.Requests
	}
	if app.Finder != nil {
		opts.Finder = app.Finder
	}
	server := impl.New(app.Assembler, app.Presets, opts)
	pb.RegisterLayoutServiceServer(grpcServer, server)

	mux := http.NewServeMux()
	server.RegisterHTTP(mux)

	go runGrpcServer(grpcServer, cfg.Server.GRPCPort, logger)
	runGrpcWebServer(grpcServer, mux, cfg.Server, logger)
}

func runGrpcServer(grpcServer *grpc.Server, port int, logger *slog.Logger) {
	logger.Info("fastlay gRPC server listening", slog.Int("port", port))
	must.OK(grpcServer.Serve(must.OK1(net.Listen("tcp", fmt.Sprintf(":%d", port)))))
}

func runGrpcWebServer(grpcServer *grpc.Server, mux *http.ServeMux, cfg config.Server, logger *slog.Logger) {
	grpcwebServer := grpcweb.WrapServer(grpcServer,
		grpcweb.WithOriginFunc(func(origin string) bool {
			return origin == cfg.UIOrigin
		}),
	)

	defaultHandler := func(w http.ResponseWriter, r *http.Request) {
		if grpcwebServer.IsGrpcWebRequest(r) || grpcwebServer.IsAcceptableGrpcCorsRequest(r) {
			grpcwebServer.ServeHTTP(w, r)
			return
		}
		if cfg.StaticDir == "" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(cfg.StaticDir, "index.html"))
	}

	mux.HandleFunc("/", defaultHandler)
	if cfg.StaticDir != "" {
		mux.HandleFunc("/assets/", yaHttp.HandleFileServer(http.FileServer(http.Dir(cfg.StaticDir))))
	}
	logger.Info("fastlay web server listening", slog.Int("port", cfg.WebPort))
	must.OK(http.ListenAndServe(fmt.Sprintf(":%d", cfg.WebPort), mux))
}

// apiKeyInterceptor requires "Authorization: Bearer <token>" on every RPC. A nil authClient disables the check.
func apiKeyInterceptor(authClient fastlayAuth.Auth) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, request any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if authClient == nil {
			return handler(ctx, request)
		}
		metadatas, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing context metadata")
		}
		key := metadatas.Get("Authorization")
		if len(key) != 1 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization token")
		}
		token, extractTokenErr := auth.ExtractBearerToken(key[0])
		if extractTokenErr != nil {
			return nil, status.Error(codes.Unauthenticated, extractTokenErr.Error())
		}
		if _, err := authClient.Verify(ctx, token); err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
		}
		return handler(ctx, request)
	}
}
