package impl

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/fastlay-project/fastlay/grpc/layoutpb"
)

const queryRequiredMessage = "Parâmetro 'q' é obrigatório."

func (s *server) SearchProducts(ctx context.Context, request *pb.SearchProductsRequest) (*pb.SearchProductsResponse, error) {
	if request == nil || strings.TrimSpace(request.Query) == "" {
		return nil, status.Error(codes.InvalidArgument, queryRequiredMessage)
	}
	if s.finder == nil {
		return nil, status.Error(codes.Unavailable, "product catalog is not configured")
	}

	matches, err := s.finder.Find(ctx, request.Query, request.Limit, request.MinSimilarity)
	if err != nil {
		s.logger.Error("failed to search products", slog.String("query", request.Query), slog.Any("err", err))
		return nil, toStatus(err)
	}

	results := make([]pb.Product, 0, len(matches))
	for _, m := range matches {
		results = append(results, pb.Product{Code: m.Code, Name: m.Name, Unit: m.Unit, Score: m.Score})
	}
	return &pb.SearchProductsResponse{Status: "ok", Query: request.Query, Results: results}, nil
}
