package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fastlay-project/fastlay/grpc/impl/requestlog"
	pb "github.com/fastlay-project/fastlay/grpc/layoutpb"
	"github.com/fastlay-project/fastlay/pkg/assembler"
	"github.com/fastlay-project/fastlay/pkg/price"
)

const requiredFieldsMessage = "Os campos 'prod_code', 'preco', 'descricao' e 'preset' são obrigatórios."

func (s *server) GenerateLayout(ctx context.Context, request *pb.GenerateLayoutRequest) (*pb.GenerateLayoutResponse, error) {
	if request == nil || len(request.MissingFields()) > 0 {
		return nil, status.Error(codes.InvalidArgument, requiredFieldsMessage)
	}

	id, err := requestID(request.RequestID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "request_id inválido: %v", err)
	}
	logger := s.logger.With(slog.String("request_id", id.String()), slog.Int("prod_code", request.ProdCode))

	s.logRequest(ctx, id, request, logger)

	layout, err := s.assembler.Generate(ctx, assembler.Request{
		ID:          id.String(),
		ProdCode:    request.ProdCode,
		Price:       price.Value(request.Preco.String(), logger),
		Description: request.Descricao,
		Preset:      request.Preset,
		Client:      request.Client,
		Unit:        request.Tipo,
		Seal:        request.Selo,
		Observation: request.Obs,
		Featured:    request.Destaque,
	})
	if err != nil {
		logger.Warn("failed to generate layout", slog.Any("err", err))
		return nil, toStatus(err)
	}

	return &pb.GenerateLayoutResponse{
		RequestID:   id.String(),
		Filename:    layout.Filename,
		ContentType: layout.ContentType,
		Image:       layout.Data,
		SealX:       layout.SealAnchor.X,
		SealY:       layout.SealAnchor.Y,
		ArchiveURL:  s.archive(ctx, id, layout, logger),
	}, nil
}

func requestID(raw string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(raw)
}

// logRequest records the request. A failing log never blocks generation.
func (s *server) logRequest(ctx context.Context, id uuid.UUID, request *pb.GenerateLayoutRequest, logger *slog.Logger) {
	if s.requests == nil {
		return
	}
	client := request.Client
	if client == "" {
		client = assembler.DefaultClient
	}
	err := s.requests.Save(ctx, requestlog.Record{
		ID:        id,
		ProdCode:  request.ProdCode,
		Preco:     request.Preco.String(),
		Descricao: request.Descricao,
		Preset:    request.Preset,
		Client:    client,
		Tipo:      request.Tipo,
		Selo:      request.Selo,
	})
	if err != nil {
		logger.Warn("failed to log layout request", slog.Any("err", err))
	}
}

// archive copies the layout to the layout bucket and returns its URL, or "" when archiving
// is disabled or failed.
func (s *server) archive(ctx context.Context, id uuid.UUID, layout *assembler.GeneratedLayout, logger *slog.Logger) string {
	if s.storage.Client == nil || s.storage.LayoutBucket == "" {
		return ""
	}
	object := fmt.Sprintf("%s/%d-%s.png", layout.Request.Preset, layout.Request.ProdCode, id)
	err := backoff.Retry(func() error {
		return s.storage.Client.SaveBytes(ctx, s.storage.LayoutBucket, object, layout.Data)
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(s.backoffDuration), 4), ctx))
	if err != nil {
		logger.Warn("failed to archive layout", slog.String("object", object), slog.Any("err", err))
		return ""
	}
	return fmt.Sprintf("gs://%s/%s", s.storage.LayoutBucket, object)
}
