package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fairyhunter13/policy-advisor/internal/adapter/observability"
	"github.com/fairyhunter13/policy-advisor/internal/domain"
)

// ResultService provides read access to stored reports including ETag logic.
type ResultService struct {
	Store domain.KVStore
}

// NewResultService constructs a ResultService over the given store.
func NewResultService(s domain.KVStore) ResultService {
	return ResultService{Store: s}
}

// Fetch returns the HTTP status code, stored report, and ETag for the given user id.
// A matching If-None-Match yields 304 with no body.
func (s ResultService) Fetch(ctx domain.Context, userID, ifNoneMatch string) (int, json.RawMessage, string, error) {
	lg := observability.LoggerFromContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return http.StatusBadRequest, nil, "", fmt.Errorf("%w: user_id required", domain.ErrInvalidArgument)
	}
	b, err := s.Store.Get(ctx, ResultKeyPrefix+userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			lg.Info("result not found", slog.String("user_id", userID))
			return http.StatusNotFound, nil, "", fmt.Errorf("%w: 找不到該用戶的分析結果，請重新填寫。", domain.ErrNotFound)
		}
		lg.Error("failed to load result", slog.String("user_id", userID), slog.Any("error", err))
		return http.StatusInternalServerError, nil, "", err
	}
	etag := makeETag(b)
	if etagMatches(etag, ifNoneMatch) {
		return http.StatusNotModified, nil, etag, nil
	}
	return http.StatusOK, json.RawMessage(b), etag, nil
}

// etagMatches reports whether an If-None-Match header lists etag. It accepts
// comma-separated lists, weak validators and "*".
func etagMatches(etag, header string) bool {
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" {
			return true
		}
		tag = strings.Trim(strings.TrimPrefix(tag, "W/"), `"`)
		if tag != "" && tag == etag {
			return true
		}
	}
	return false
}

func makeETag(b []byte) string {
	s := sha256.Sum256(b)
	return hex.EncodeToString(s[:])
}
