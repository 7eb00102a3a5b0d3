package recommendations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/2beens/fitwise/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

var ErrAdvisorUnavailable = errors.New("advisor unavailable")

// RemoteAdvisor asks an external advice service. The summary goes out as JSON and
// the service answers with {"recommendations": [{"title", "content", "category"}]}.
type RemoteAdvisor struct {
	httpClient *http.Client
	url        string
	apiKey     string
}

func NewRemoteAdvisor(httpClient *http.Client, url, apiKey string) *RemoteAdvisor {
	return &RemoteAdvisor{
		httpClient: httpClient,
		url:        url,
		apiKey:     apiKey,
	}
}

type remoteAdviceResponse struct {
	Recommendations []struct {
		Title    string   `json:"title"`
		Content  string   `json:"content"`
		Category Category `json:"category"`
	} `json:"recommendations"`
}

func (a *RemoteAdvisor) Name() string {
	return "remote"
}

func (a *RemoteAdvisor) Advise(ctx context.Context, summary TrainingSummary) (_ []Recommendation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "advisor.remote.advise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	reqBody, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAdvisorUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	span.SetAttributes(attribute.Int("status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrAdvisorUnavailable, resp.StatusCode)
	}

	var adviceResp remoteAdviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&adviceResp); err != nil {
		return nil, fmt.Errorf("decode advice: %w", err)
	}

	recs := make([]Recommendation, 0, len(adviceResp.Recommendations))
	for _, r := range adviceResp.Recommendations {
		if r.Title == "" || r.Content == "" {
			continue
		}
		if !r.Category.IsValid() {
			r.Category = CategoryGeneral
		}
		recs = append(recs, Recommendation{
			Title:    r.Title,
			Content:  r.Content,
			Category: r.Category,
		})
	}
	return recs, nil
}
