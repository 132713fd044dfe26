package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DisputeSnapshot carries the salient dispute fields the scoring service needs.
// The dispute record itself never crosses this boundary.
type DisputeSnapshot struct {
	DisputeID        string    `json:"dispute_id"`
	TransactionID    string    `json:"transaction_id,omitempty"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	CreatedAt        time.Time `json:"created_at"`
	Reason           string    `json:"reason"`
	Description      string    `json:"description"`
	MerchantResponse string    `json:"merchant_response,omitempty"`
	MerchantName     string    `json:"merchant_name,omitempty"`
}

type RiskAnalysisResult struct {
	AssessmentID    string `json:"assessment_id"`
	FraudRiskScore  int    `json:"fraud_risk_score"` // 0-100
	Recommendation  string `json:"recommendation"`
	ConfidenceScore int    `json:"confidence_score"` // 0-100
	Reasoning       string `json:"reasoning"`
}

type SuggestedResponse struct {
	SuggestedResponse  string   `json:"suggested_response"`
	EvidenceToInclude  []string `json:"evidence_to_include"`
	StrengthAssessment string   `json:"strength_assessment"` // strong, moderate, weak
	Tips               []string `json:"tips"`
}

// RiskAssessmentService is the contract with the external fraud/merit scorer.
// Both calls are best-effort; callers degrade gracefully when it is
// unconfigured or failing.
type RiskAssessmentService interface {
	Analyze(ctx context.Context, snapshot DisputeSnapshot) (*RiskAnalysisResult, error)
	SuggestResponse(ctx context.Context, snapshot DisputeSnapshot) (*SuggestedResponse, error)
	Available() bool
}

// HTTPRiskService calls the risk scoring service over its JSON API.
type HTTPRiskService struct {
	baseURL    string
	apiKey     string
	signingKey string
	tokenTTL   time.Duration
	client     *http.Client
}

func NewHTTPRiskService(baseURL, apiKey string, timeout time.Duration) *HTTPRiskService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPRiskService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// UseSignedTokens switches the client to minting short-lived HS256 tokens
// per request instead of a static API key. Used when the risk service shares
// a secret with us rather than issuing keys.
func (s *HTTPRiskService) UseSignedTokens(secret string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	s.signingKey = secret
	s.tokenTTL = ttl
}

func (s *HTTPRiskService) Available() bool {
	return s.baseURL != ""
}

func (s *HTTPRiskService) Analyze(ctx context.Context, snapshot DisputeSnapshot) (*RiskAnalysisResult, error) {
	if !s.Available() {
		return nil, fmt.Errorf("risk service is not configured")
	}

	log.Printf("Requesting risk analysis for dispute %s (amount %d %s)", snapshot.DisputeID, snapshot.Amount, snapshot.Currency)

	body, err := s.post(ctx, "/v1/disputes/analyze", snapshot)
	if err != nil {
		return nil, err
	}

	var result RiskAnalysisResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %v", err)
	}

	if result.FraudRiskScore < 0 || result.FraudRiskScore > 100 {
		return nil, fmt.Errorf("risk service returned score out of range: %d", result.FraudRiskScore)
	}

	return &result, nil
}

func (s *HTTPRiskService) SuggestResponse(ctx context.Context, snapshot DisputeSnapshot) (*SuggestedResponse, error) {
	if !s.Available() {
		return nil, fmt.Errorf("risk service is not configured")
	}

	body, err := s.post(ctx, "/v1/disputes/suggest-response", snapshot)
	if err != nil {
		return nil, err
	}

	var suggestion SuggestedResponse
	if err := json.Unmarshal(body, &suggestion); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion response: %v", err)
	}

	return &suggestion, nil
}

func (s *HTTPRiskService) authorize(req *http.Request) error {
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		return nil
	}

	if s.signingKey == "" {
		return nil
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    "salonepay",
		Subject:   "dispute-core",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.signingKey))
	if err != nil {
		return fmt.Errorf("failed to sign service token: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (s *HTTPRiskService) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	if err := s.authorize(httpReq); err != nil {
		return nil, err
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("Risk service error (%d): %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("risk service error: status %d", resp.StatusCode)
	}

	return body, nil
}
