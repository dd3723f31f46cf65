package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client provides typed access to the accounts API for interactive tools.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:4000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// requestBody is an encoded payload with its content type.
type requestBody struct {
	contentType string
	data        []byte
}

func jsonBody(v any) (*requestBody, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return &requestBody{contentType: "application/json", data: payload}, nil
}

// formBody builds a multipart payload; imagePath is attached as profileImage when set.
func formBody(fields map[string]string, imagePath string) (*requestBody, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", key, err)
		}
	}
	if strings.TrimSpace(imagePath) != "" {
		f, err := os.Open(imagePath)
		if err != nil {
			return nil, fmt.Errorf("open profile image: %w", err)
		}
		defer f.Close()
		part, err := mw.CreateFormFile("profileImage", filepath.Base(imagePath))
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, fmt.Errorf("copy profile image: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}
	return &requestBody{contentType: mw.FormDataContentType(), data: buf.Bytes()}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body *requestBody, token string, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.baseURL + path
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body.data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("auth-token", strings.TrimSpace(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg := extractError(resp.Body)
		return APIError{Status: resp.StatusCode, Message: msg}
	}

	if v == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// FieldError mirrors a validation failure reported by the API.
type FieldError struct {
	Path string `json:"path"`
	Msg  string `json:"msg"`
}

// extractError reads whichever message key the endpoint used.
func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	for _, key := range []string{"error", "errors", "message", "msg"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			return strings.TrimSpace(text)
		}
		var fields []FieldError
		if err := json.Unmarshal(raw, &fields); err == nil && len(fields) > 0 {
			parts := make([]string, 0, len(fields))
			for _, f := range fields {
				parts = append(parts, fmt.Sprintf("%s: %s", f.Path, f.Msg))
			}
			return strings.Join(parts, "; ")
		}
	}
	return strings.TrimSpace(string(data))
}

type tokenResponse struct {
	Token string `json:"token"`
}

// CreateAccountInput describes a registration request.
type CreateAccountInput struct {
	Name         string
	Email        string
	Password     string
	ProfileImage string
}

// CreateAccount registers an account and returns its session token.
func (c *Client) CreateAccount(ctx context.Context, in CreateAccountInput) (string, error) {
	body, err := formBody(map[string]string{
		"name":     in.Name,
		"email":    in.Email,
		"password": in.Password,
	}, in.ProfileImage)
	if err != nil {
		return "", err
	}
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/create", body, "", &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := jsonBody(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, "", &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Account reflects the profile returned by the API.
type Account struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// GetUser returns the authenticated account, or nil when it no longer exists.
func (c *Client) GetUser(ctx context.Context, token string) (*Account, error) {
	var account *Account
	if err := c.do(ctx, http.MethodGet, "/api/auth/getuser", nil, token, &account); err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateProfileInput carries optional profile changes. Empty fields are not sent.
type UpdateProfileInput struct {
	Name         string
	Email        string
	ProfileImage string
}

// UpdateProfile applies profile changes and returns the stored image reference.
func (c *Client) UpdateProfile(ctx context.Context, token string, in UpdateProfileInput) (string, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) != "" {
		fields["name"] = in.Name
	}
	if strings.TrimSpace(in.Email) != "" {
		fields["email"] = in.Email
	}
	body, err := formBody(fields, in.ProfileImage)
	if err != nil {
		return "", err
	}
	var resp struct {
		ProfileImage string `json:"profileImage"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/auth/update", body, token, &resp); err != nil {
		return "", err
	}
	return resp.ProfileImage, nil
}

// ResetResponse is returned by RequestPasswordReset. Token is only set when the server exposes it.
type ResetResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// RequestPasswordReset asks the API to mail a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (ResetResponse, error) {
	body, err := jsonBody(map[string]string{"email": email})
	if err != nil {
		return ResetResponse{}, err
	}
	var resp ResetResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/reset", body, "", &resp); err != nil {
		return ResetResponse{}, err
	}
	return resp, nil
}

// ChangePassword completes a reset with the token from the emailed link.
func (c *Client) ChangePassword(ctx context.Context, resetToken, password string) error {
	if strings.TrimSpace(resetToken) == "" {
		return fmt.Errorf("reset token is required")
	}
	body, err := jsonBody(map[string]string{"password": password})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/auth/change/"+url.PathEscape(strings.TrimSpace(resetToken)), body, "", nil)
}
