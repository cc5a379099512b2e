package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/syncode/syncode/internal/logger"
)

const judge0RequestTimeout = 30 * time.Second

// Judge0Client dispatches jobs to a hosted Judge0 CE instance over HTTP.
// The free tier throttles aggressively; a 429 surfaces as ErrRateLimited so
// the queue can back off and retry.
type Judge0Client struct {
	host       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewJudge0Client creates a client for the given RapidAPI host and key
func NewJudge0Client(host, apiKey string) *Judge0Client {
	return &Judge0Client{
		host:    host,
		baseURL: "https://" + host,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: judge0RequestTimeout,
		},
	}
}

type judge0Submission struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin,omitempty"`
}

type judge0Response struct {
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
}

// Execute submits the job with wait=true and reduces the engine's response
// to a single output string plus an error flag
func (c *Judge0Client) Execute(ctx context.Context, job Job) (Result, error) {
	if c.apiKey == "" {
		return Result{}, ErrMissingCredentials
	}

	lang, err := Lookup(job.Language)
	if err != nil {
		return Result{}, err
	}

	body, err := json.Marshal(judge0Submission{
		SourceCode: job.SourceCode,
		LanguageID: lang.Judge0ID,
		Stdin:      job.Stdin,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode submission: %w", err)
	}

	url := c.baseURL + "/submissions?base64_encoded=false&wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("submission request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Result{}, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Warn("Judge0 returned status %d: %s", resp.StatusCode, string(detail))
		return Result{}, fmt.Errorf("execution engine returned status %d", resp.StatusCode)
	}

	var decoded judge0Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, fmt.Errorf("failed to decode engine response: %w", err)
	}

	return reduceJudge0Response(decoded), nil
}

func reduceJudge0Response(r judge0Response) Result {
	switch {
	case r.CompileOutput != "":
		return Result{Output: r.CompileOutput, IsError: true}
	case r.Stderr != "":
		return Result{Output: r.Stderr, IsError: true}
	case r.Stdout != "":
		return Result{Output: r.Stdout}
	default:
		return Result{Output: "No output"}
	}
}
