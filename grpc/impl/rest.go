package impl

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fastlay-project/fastlay/grpc/impl/catalog"
	pb "github.com/fastlay-project/fastlay/grpc/layoutpb"
	yaHttp "github.com/fastlay-project/fastlay/pkg/http"
)

const (
	invalidJSONMessage = "Corpo da requisição deve ser um JSON válido."

	// Upper bound for request bodies; grid specs are the largest documents accepted.
	maxBodyBytes = 4 << 20
)

// RegisterHTTP mounts the REST endpoints of the service on mux.
func (s *server) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("POST /gerar-layout", s.handleGenerateLayout)
	mux.HandleFunc("GET /produtos/buscar", s.handleSearchProducts)
	mux.HandleFunc("POST /grid", s.handleRenderGrid)
	mux.HandleFunc("GET /presets", s.handleListPresets)
}

func (s *server) handleGenerateLayout(w http.ResponseWriter, r *http.Request) {
	var request pb.GenerateLayoutRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&request); err != nil {
		yaHttp.WriteFailure(w, http.StatusBadRequest, invalidJSONMessage)
		return
	}

	response, err := s.GenerateLayout(r.Context(), &request)
	if err != nil {
		st := status.Convert(err)
		if st.Code() == codes.InvalidArgument {
			yaHttp.WriteFailure(w, http.StatusBadRequest, st.Message())
			return
		}
		yaHttp.WriteFailure(w, http.StatusNotFound, fmt.Sprintf("Não foi possível gerar o layout para o produto %d", request.ProdCode))
		return
	}

	w.Header().Set("Content-Type", response.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", response.Filename))
	w.Header().Set("X-Request-Id", response.RequestID)
	if response.ArchiveURL != "" {
		w.Header().Set("X-Archive-Url", response.ArchiveURL)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(response.Image); err != nil {
		s.logger.Warn("failed to write layout", slog.Any("err", err))
	}
}

func (s *server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := query.Get("q")
	if q == "" {
		q = query.Get("query")
	}

	limit, err := strconv.Atoi(query.Get("limit"))
	if err != nil {
		limit = catalog.DefaultLimit
	}
	minSimilarity, err := strconv.ParseFloat(query.Get("min_similarity"), 64)
	if err != nil {
		minSimilarity = catalog.DefaultMinSimilarity
	}

	response, err := s.SearchProducts(r.Context(), &pb.SearchProductsRequest{
		Query:         q,
		Limit:         limit,
		MinSimilarity: minSimilarity,
	})
	if err != nil {
		st := status.Convert(err)
		if st.Code() == codes.InvalidArgument {
			yaHttp.WriteFailure(w, http.StatusBadRequest, st.Message())
			return
		}
		yaHttp.WriteFailure(w, http.StatusInternalServerError, "Erro ao buscar produtos: "+st.Message())
		return
	}
	yaHttp.WriteJSON(w, http.StatusOK, response)
}

func (s *server) handleRenderGrid(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || !json.Valid(data) {
		yaHttp.WriteFailure(w, http.StatusBadRequest, invalidJSONMessage)
		return
	}

	response, err := s.RenderGrid(r.Context(), &pb.RenderGridRequest{Spec: data})
	if err != nil {
		st := status.Convert(err)
		code := http.StatusInternalServerError
		if st.Code() == codes.InvalidArgument {
			code = http.StatusBadRequest
		}
		yaHttp.WriteFailure(w, code, st.Message())
		return
	}

	w.Header().Set("Content-Type", response.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(response.Image); err != nil {
		s.logger.Warn("failed to write grid", slog.Any("err", err))
	}
}

func (s *server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	response, err := s.ListPresets(r.Context(), &pb.ListPresetsRequest{})
	if err != nil {
		yaHttp.WriteFailure(w, http.StatusInternalServerError, status.Convert(err).Message())
		return
	}
	yaHttp.WriteJSON(w, http.StatusOK, response)
}
