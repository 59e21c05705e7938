package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/example/saloneverid/internal/imagedecoder"
	"github.com/example/saloneverid/internal/metrics"
	"github.com/example/saloneverid/internal/repository"
	"github.com/example/saloneverid/internal/usecase"
	"github.com/example/saloneverid/internal/verification"
)

type failingProvider struct{}

func (failingProvider) Name() string                { return "failing" }
func (failingProvider) Policy() verification.Policy { return verification.RealPolicy }
func (failingProvider) Verify(context.Context, *imagedecoder.Image, *imagedecoder.Image) (verification.Result, error) {
	return verification.Result{}, errors.New("vision service down")
}

func newTestRouter(t *testing.T, provider verification.Provider, maxBody int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	uc := usecase.NewVerificationUseCase(
		repository.NewVerificationRepository(),
		provider,
		imagedecoder.NewDecoder(imagedecoder.DefaultMaxPixels),
		metrics.New(prometheus.NewRegistry()),
		zap.NewNop(),
	)
	router := gin.New()
	RegisterRoutes(router, uc, maxBody)
	return router
}

func samplePNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func submitBody(t *testing.T, selfie, id string) *bytes.Buffer {
	t.Helper()
	payload := map[string]string{
		"full_name":     "Mohamed Sesay",
		"dob":           "1985-11-02",
		"document_type": "passport",
		"selfie_image":  selfie,
		"id_image":      id,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return bytes.NewBuffer(body)
}

func doJSON(router *gin.Engine, method, path string, body *bytes.Buffer) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestSubmitThenStatus(t *testing.T) {
	router := newTestRouter(t, verification.NewMockProvider(), 0)
	img := samplePNG(t)

	resp := doJSON(router, http.MethodPost, "/kyc/submit", submitBody(t, img, img))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.Code, resp.Body.String())
	}
	var submitted submitResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if submitted.ReferenceID == "" || submitted.Status != "verified" {
		t.Fatalf("unexpected submit response %+v", submitted)
	}

	resp = doJSON(router, http.MethodGet, "/kyc/status/"+submitted.ReferenceID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.Code)
	}
	var got statusResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	want := statusResponse{Status: "verified", MatchScore: 95, DocumentValid: true}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestStatusUnknownReturnsNotFoundBody(t *testing.T) {
	router := newTestRouter(t, verification.NewMockProvider(), 0)

	resp := doJSON(router, http.MethodGet, "/kyc/status/does-not-exist", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.Code)
	}
	var raw map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if raw["status"] != "not_found" || raw["match_score"] != 0.0 || raw["document_valid"] != false {
		t.Fatalf("unexpected body %v", raw)
	}
	if len(raw) != 3 {
		t.Fatalf("expected exactly three fields, got %v", raw)
	}
}

func TestSubmitUndecodableImagesStillAccepted(t *testing.T) {
	router := newTestRouter(t, verification.NewMockProvider(), 0)

	resp := doJSON(router, http.MethodPost, "/kyc/submit", submitBody(t, "bm90IGFuIGltYWdl", "!!!"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"status":"verified"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestSubmitAcceptsEmptyStrings(t *testing.T) {
	router := newTestRouter(t, verification.NewMockProvider(), 0)

	body := bytes.NewBufferString(`{"full_name":"","dob":"","document_type":"","selfie_image":"","id_image":""}`)
	resp := doJSON(router, http.MethodPost, "/kyc/submit", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.Code, resp.Body.String())
	}
	var submitted submitResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if submitted.ReferenceID == "" || submitted.Status != "verified" {
		t.Fatalf("unexpected submit response %+v", submitted)
	}

	status := doJSON(router, http.MethodGet, "/kyc/status/"+submitted.ReferenceID, nil)
	if !strings.Contains(status.Body.String(), `"match_score":95`) {
		t.Fatalf("unexpected status body %s", status.Body.String())
	}
}

func TestSubmitRejectsMissingFields(t *testing.T) {
	router := newTestRouter(t, verification.NewMockProvider(), 0)

	body := bytes.NewBufferString(`{"full_name":"x","dob":"y","document_type":"passport","selfie_image":"abc"}`)
	resp := doJSON(router, http.MethodPost, "/kyc/submit", body)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.Code)
	}

	resp = doJSON(router, http.MethodPost, "/kyc/submit", bytes.NewBufferString(`{not json`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.Code)
	}
}

func TestSubmitRejectsLargeBody(t *testing.T) {
	router := newTestRouter(t, verification.NewMockProvider(), 1024)
	big := strings.Repeat("A", 4096)

	resp := doJSON(router, http.MethodPost, "/kyc/submit", submitBody(t, big, big))
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status %d, got %d", http.StatusRequestEntityTooLarge, resp.Code)
	}
}

func TestSubmitProviderFailure(t *testing.T) {
	router := newTestRouter(t, failingProvider{}, 0)
	img := samplePNG(t)

	resp := doJSON(router, http.MethodPost, "/kyc/submit", submitBody(t, img, img))
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, resp.Code)
	}

	summary := doJSON(router, http.MethodGet, "/kyc/summary", nil)
	if !strings.Contains(summary.Body.String(), `"total_submissions":0`) {
		t.Fatalf("expected nothing recorded, got %s", summary.Body.String())
	}
}

func TestHealthReportsProvider(t *testing.T) {
	router := newTestRouter(t, verification.NewMockProvider(), 0)

	resp := doJSON(router, http.MethodGet, "/health", nil)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"provider":"mock"`) {
		t.Fatalf("unexpected health response %d %s", resp.Code, resp.Body.String())
	}
}
